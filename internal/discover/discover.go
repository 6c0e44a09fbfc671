// Package discover walks an input directory and returns the media and
// sidecar files eligible for extraction.
package discover

import (
	"bufio"
	"context"
	"os"
	"path/filepath"
	"strings"
)

// IGNORE_PATTERNS are directory names to skip during discovery.
var IGNORE_PATTERNS = map[string]bool{
	".cache": true, ".git": true, ".thumbnails": true, ".tmp": true,
	".Trash": true, "temp": true, "tmp": true,
}

// IGNORE_SUFFIXES are file suffixes to skip.
var IGNORE_SUFFIXES = map[string]bool{
	".tmp": true, "~": true, ".partial": true, ".crdownload": true,
}

// SUPPORTED_EXTENSIONS are the input formats extraction understands:
// images and videos carrying embedded metadata, plus JSON sidecars.
var SUPPORTED_EXTENSIONS = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".webp": true,
	".json": true,
	".mp4": true, ".webm": true, ".mov": true, ".avi": true,
}

// FileInfo represents a discovered input file.
type FileInfo struct {
	Path    string // absolute path
	RelPath string // relative to the input root
	Ext     string // lowercase extension
}

// Options configures file discovery.
type Options struct {
	IgnoreFile string // path to .pxignore file (optional)
}

// shouldSkipDir returns true if the directory should be skipped during discovery.
func shouldSkipDir(name, rel string, extraIgnore []string) bool {
	if IGNORE_PATTERNS[name] {
		return true
	}
	for _, pattern := range extraIgnore {
		if matched, _ := filepath.Match(pattern, name); matched {
			return true
		}
		if matched, _ := filepath.Match(pattern, rel); matched {
			return true
		}
	}
	return false
}

// Discover walks an input root and returns all extractable files.
func Discover(ctx context.Context, root string, opts *Options) ([]FileInfo, error) {
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Load .pxignore patterns if present
	var extraIgnore []string
	if opts != nil && opts.IgnoreFile != "" {
		extraIgnore, _ = loadIgnoreFile(opts.IgnoreFile)
	} else {
		extraIgnore, _ = loadIgnoreFile(filepath.Join(root, ".pxignore"))
	}

	var files []FileInfo

	err = filepath.Walk(root, func(path string, info os.FileInfo, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if walkErr != nil {
			return filepath.SkipDir
		}

		rel, _ := filepath.Rel(root, path)

		if info.IsDir() {
			if shouldSkipDir(info.Name(), rel, extraIgnore) {
				return filepath.SkipDir
			}
			return nil
		}

		for suffix := range IGNORE_SUFFIXES {
			if strings.HasSuffix(path, suffix) {
				return nil
			}
		}

		ext := strings.ToLower(filepath.Ext(path))
		if SUPPORTED_EXTENSIONS[ext] {
			files = append(files, FileInfo{
				Path:    path,
				RelPath: filepath.ToSlash(rel),
				Ext:     ext,
			})
		}
		return nil
	})

	return files, err
}

func loadIgnoreFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var patterns []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" && !strings.HasPrefix(line, "#") {
			patterns = append(patterns, line)
		}
	}
	return patterns, scanner.Err()
}
