// Package loradir indexes an on-disk adapter library and maps resolved
// adapter records onto the files actually present, tolerating renames
// via token-based fuzzy matching.
package loradir

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/promptforge/prompt-extract-mcp/internal/resolve"
)

var adapterExts = map[string]bool{
	".safetensors": true,
	".ckpt":        true,
	".pt":          true,
}

// Library is a scanned adapter directory. Files are stored relative to
// the root, slash-separated, in sorted order.
type Library struct {
	root  string
	files []string
}

// Scan walks root and collects adapter files. A missing root yields an
// empty library, not an error; the library directory is optional.
func Scan(root string) (*Library, error) {
	lib := &Library{root: root}
	if root == "" {
		return lib, nil
	}
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) && path == root {
				return filepath.SkipAll
			}
			return err
		}
		if d.IsDir() || !adapterExts[strings.ToLower(filepath.Ext(path))] {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		lib.files = append(lib.files, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(lib.files)
	return lib, nil
}

// NewLibrary builds a library over an explicit file list; used by tests
// and by callers that enumerate files elsewhere.
func NewLibrary(files []string) *Library {
	sorted := append([]string(nil), files...)
	sort.Strings(sorted)
	return &Library{files: sorted}
}

// Files returns the relative paths of every indexed adapter.
func (l *Library) Files() []string { return l.files }

// Len reports the number of indexed adapters.
func (l *Library) Len() int { return len(l.files) }

// FullPath joins a matched relative path back onto the scan root.
func (l *Library) FullPath(rel string) string {
	if l.root == "" {
		return rel
	}
	return filepath.Join(l.root, filepath.FromSlash(rel))
}

// Match finds the library file for an adapter. pathHint, when present,
// is tried first by exact and suffix comparison; then the normalized
// name by exact base-name match, substring match, and finally fuzzy
// token matching.
func (l *Library) Match(name, pathHint string) (string, bool) {
	if pathHint != "" {
		hint := strings.ReplaceAll(pathHint, "\\", "/")
		for _, f := range l.files {
			if f == pathHint || f == hint {
				return f, true
			}
			if strings.HasSuffix(f, hint) || strings.HasSuffix(hint, f) {
				return f, true
			}
		}
	}

	lower := strings.ToLower(name)
	for _, f := range l.files {
		if strings.ToLower(baseName(f)) == lower {
			return f, true
		}
	}
	for _, f := range l.files {
		if strings.Contains(strings.ToLower(f), lower) {
			return f, true
		}
	}
	return l.fuzzyMatch(name)
}

// baseName strips the directory and extension of a slash-separated
// relative path.
func baseName(f string) string {
	if i := strings.LastIndexByte(f, '/'); i >= 0 {
		f = f[i+1:]
	}
	return strings.TrimSuffix(f, filepath.Ext(f))
}

// StackEntry is one adapter of an output stack: a file reference and
// its two weights.
type StackEntry struct {
	File        string  `json:"file"`
	ModelWeight float64 `json:"model_weight"`
	ClipWeight  float64 `json:"clip_weight"`
}

// Stack maps a resolved lane onto the library. Unmatched adapters are
// kept with a synthesized file name rather than dropped, so a consumer
// with a differently-rooted library still sees the full stack.
func (l *Library) Stack(lane []resolve.Lora) []StackEntry {
	var out []StackEntry
	for _, lora := range lane {
		file, ok := l.Match(lora.Name, lora.PathHint)
		if !ok {
			file = lora.PathHint
			if file == "" {
				file = lora.Name + ".safetensors"
			}
		}
		out = append(out, StackEntry{
			File:        file,
			ModelWeight: lora.ModelStrength,
			ClipWeight:  lora.ClipStrength,
		})
	}
	return out
}
