// Package extract orchestrates the scan-resolve-store pipeline over an
// input directory: discover eligible files, skip unchanged ones by
// content hash, resolve the rest, and persist the results.
package extract

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/zeebo/xxh3"
	"golang.org/x/sync/errgroup"

	"github.com/promptforge/prompt-extract-mcp/internal/discover"
	"github.com/promptforge/prompt-extract-mcp/internal/metadata"
	"github.com/promptforge/prompt-extract-mcp/internal/resolve"
	"github.com/promptforge/prompt-extract-mcp/internal/store"
	"github.com/promptforge/prompt-extract-mcp/internal/workflow"
)

// Pipeline runs extraction over one input root.
type Pipeline struct {
	ctx   context.Context
	Store *store.Store
	Root  string
	Cache *metadata.Cache
	Opts  resolve.Options
}

// Summary reports what one run did.
type Summary struct {
	Total     int `json:"total"`
	Extracted int `json:"extracted"`
	Skipped   int `json:"skipped"`
	Failed    int `json:"failed"`
	Removed   int `json:"removed"`
}

// New creates a Pipeline. cache may be nil when no client-side metadata
// is expected.
func New(ctx context.Context, s *store.Store, root string, cache *metadata.Cache, opts resolve.Options) *Pipeline {
	return &Pipeline{ctx: ctx, Store: s, Root: root, Cache: cache, Opts: opts}
}

// StoreNameFromPath derives a stable database name from an absolute
// path by replacing path separators with dashes.
func StoreNameFromPath(absPath string) string {
	cleaned := filepath.ToSlash(filepath.Clean(absPath))
	name := strings.TrimLeft(strings.ReplaceAll(cleaned, "/", "-"), "-")
	if name == "" {
		return "root"
	}
	return name
}

// Run discovers input files, extracts everything new or changed, and
// drops rows for files that no longer exist.
func (p *Pipeline) Run() (Summary, error) {
	slog.Info("extract.start", "root", p.Root)

	var sum Summary
	if err := p.ctx.Err(); err != nil {
		return sum, err
	}

	files, err := discover.Discover(p.ctx, p.Root, nil)
	if err != nil {
		return sum, fmt.Errorf("discover: %w", err)
	}
	sum.Total = len(files)
	slog.Info("extract.discovered", "files", len(files))

	changed, hashes := p.classifyFiles(files)
	sum.Skipped = len(files) - len(changed)
	slog.Info("extract.classify", "changed", len(changed), "unchanged", sum.Skipped)

	for _, f := range changed {
		if err := p.ctx.Err(); err != nil {
			return sum, err
		}
		res, err := p.extractOne(f)
		if err != nil {
			sum.Failed++
			slog.Warn("extract.file.skip", "file", f.RelPath, "err", err)
			continue
		}
		if err := p.Store.UpsertExtraction(f.RelPath, hashes[f.RelPath], res); err != nil {
			return sum, err
		}
		sum.Extracted++
	}

	removed, err := p.pruneDeleted(files)
	if err != nil {
		return sum, err
	}
	sum.Removed = removed

	slog.Info("extract.done", "extracted", sum.Extracted, "skipped", sum.Skipped,
		"failed", sum.Failed, "removed", removed)
	return sum, nil
}

// classifyFiles splits discovered files into hash-changed ones and the
// rest. Hashing is parallelized across CPU cores; a file that cannot be
// hashed counts as changed and fails later with a better error.
func (p *Pipeline) classifyFiles(files []discover.FileInfo) ([]discover.FileInfo, map[string]string) {
	hashes := make(map[string]string, len(files))

	stored, err := p.Store.AllInputHashes()
	if err != nil {
		stored = nil
	}

	results := make([]string, len(files))
	numWorkers := runtime.NumCPU()
	if numWorkers > len(files) {
		numWorkers = len(files)
	}

	g := new(errgroup.Group)
	g.SetLimit(numWorkers)
	for i, f := range files {
		g.Go(func() error {
			results[i], _ = fileHash(f.Path)
			return nil
		})
	}
	_ = g.Wait()

	var changed []discover.FileInfo
	for i, f := range files {
		hash := results[i]
		hashes[f.RelPath] = hash
		if hash != "" && stored[f.RelPath] == hash {
			continue
		}
		changed = append(changed, f)
	}
	return changed, hashes
}

// ExtractFile extracts a single file unconditionally, bypassing the
// hash skip, and stores the result.
func (p *Pipeline) ExtractFile(relPath string) (*resolve.Result, error) {
	path := filepath.Join(p.Root, filepath.FromSlash(relPath))
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("input file: %w", err)
	}

	f := discover.FileInfo{Path: path, RelPath: relPath, Ext: strings.ToLower(filepath.Ext(relPath))}
	res, err := p.extractOne(f)
	if err != nil {
		return nil, err
	}

	hash, _ := fileHash(path)
	if err := p.Store.UpsertExtraction(relPath, hash, res); err != nil {
		return nil, err
	}
	return res, nil
}

func (p *Pipeline) extractOne(f discover.FileInfo) (*resolve.Result, error) {
	payload, err := metadata.FromFile(f.Path, p.Cache)
	if err != nil {
		return nil, err
	}
	return ResolvePayload(payload, p.Opts), nil
}

// ResolvePayload turns an extracted payload into a resolution result.
// A graph document is authoritative; the prompt-format document is the
// fallback, and a bare text prompt resolves to positive text alone.
func ResolvePayload(payload *metadata.Payload, opts resolve.Options) *resolve.Result {
	if len(payload.Workflow) > 0 {
		doc := workflowDocument(payload.Workflow)
		if doc != nil {
			return resolve.New(doc, opts).Resolve()
		}
	}
	if len(payload.API) > 0 {
		if doc := resolve.ParseAPIDocument(payload.API); doc != nil {
			res := resolve.ResolveAPI(doc, opts)
			return &res
		}
	}
	if payload.PlainText != "" {
		return &resolve.Result{PositiveText: payload.PlainText}
	}
	return &resolve.Result{}
}

// workflowDocument parses graph-format JSON, reporting nil for a
// document with no nodes so callers can fall back to other payloads.
func workflowDocument(data []byte) *workflow.Document {
	doc := workflow.ParseDocument(data)
	if len(doc.Nodes) == 0 {
		return nil
	}
	return doc
}

// pruneDeleted removes stored rows whose input file was not discovered
// this run.
func (p *Pipeline) pruneDeleted(files []discover.FileInfo) (int, error) {
	present := make(map[string]bool, len(files))
	for _, f := range files {
		present[f.RelPath] = true
	}

	stored, err := p.Store.AllInputHashes()
	if err != nil {
		return 0, err
	}

	removed := 0
	for rel := range stored {
		if present[rel] {
			continue
		}
		if err := p.Store.DeleteInput(rel); err != nil {
			return removed, err
		}
		removed++
	}
	return removed, nil
}

// ErrNoMetadata re-exports the metadata sentinel for callers that only
// import this package.
var ErrNoMetadata = metadata.ErrNoMetadata

// IsNoMetadata reports whether an extraction failure just means the
// file carried nothing to extract.
func IsNoMetadata(err error) bool {
	return errors.Is(err, metadata.ErrNoMetadata)
}

func fileHash(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	h := xxh3.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
