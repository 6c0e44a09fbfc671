// Package watcher polls the input directory for new or changed files
// and triggers re-extraction.
package watcher

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/promptforge/prompt-extract-mcp/internal/discover"
)

const (
	baseInterval = 1 * time.Second
	maxInterval  = 60 * time.Second
)

type fileSnapshot struct {
	modTime time.Time
	size    int64
}

// ExtractFunc is the callback signature for triggering re-extraction.
type ExtractFunc func(ctx context.Context) error

// Watcher polls one input root for file changes.
type Watcher struct {
	root      string
	extractFn ExtractFunc

	snapshot map[string]fileSnapshot
	interval time.Duration
	nextPoll time.Time
}

// New creates a Watcher over an input root. extractFn is called when
// file changes are detected.
func New(root string, extractFn ExtractFunc) *Watcher {
	return &Watcher{root: root, extractFn: extractFn}
}

// Run blocks until ctx is cancelled. Ticks at baseInterval, polling
// only when the adaptive interval has elapsed.
func (w *Watcher) Run(ctx context.Context) {
	ticker := time.NewTicker(baseInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if time.Now().Before(w.nextPoll) {
				continue
			}
			w.poll(ctx)
		}
	}
}

// poll captures a snapshot of the input tree and compares it with the
// previous one. The first poll captures a baseline without triggering
// extraction; subsequent polls trigger extractFn on any change.
func (w *Watcher) poll(ctx context.Context) {
	if _, err := os.Stat(w.root); err != nil {
		slog.Warn("watcher.root_gone", "path", w.root)
		w.nextPoll = time.Now().Add(maxInterval)
		return
	}

	snap, err := captureSnapshot(ctx, w.root)
	if err != nil {
		slog.Warn("watcher.snapshot", "err", err)
		w.nextPoll = time.Now().Add(w.interval)
		return
	}

	interval := pollInterval(len(snap))

	if w.snapshot == nil {
		// First poll — capture baseline, no extraction trigger
		slog.Debug("watcher.baseline", "files", len(snap))
		w.snapshot = snap
		w.interval = interval
		w.nextPoll = time.Now().Add(interval)
		return
	}

	if snapshotsEqual(w.snapshot, snap) {
		w.interval = interval
		w.nextPoll = time.Now().Add(interval)
		return
	}

	slog.Info("watcher.changed", "files", len(snap))
	if err := w.extractFn(ctx); err != nil {
		slog.Warn("watcher.extract", "err", err)
		// Keep old snapshot so we retry next cycle
		w.nextPoll = time.Now().Add(interval)
		return
	}

	w.snapshot = snap
	w.interval = pollInterval(len(snap))
	w.nextPoll = time.Now().Add(w.interval)
}

// captureSnapshot walks the input tree and captures mtime+size for each
// discoverable file.
func captureSnapshot(ctx context.Context, root string) (map[string]fileSnapshot, error) {
	files, err := discover.Discover(ctx, root, nil)
	if err != nil {
		return nil, err
	}

	snap := make(map[string]fileSnapshot, len(files))
	for _, f := range files {
		info, statErr := os.Stat(f.Path)
		if statErr != nil {
			continue
		}
		snap[f.RelPath] = fileSnapshot{
			modTime: info.ModTime(),
			size:    info.Size(),
		}
	}
	return snap, nil
}

// snapshotsEqual returns true if two snapshots have identical files with same mtime+size.
func snapshotsEqual(a, b map[string]fileSnapshot) bool {
	if len(a) != len(b) {
		return false
	}
	for path, aSnap := range a {
		bSnap, ok := b[path]
		if !ok {
			return false
		}
		if !aSnap.modTime.Equal(bSnap.modTime) || aSnap.size != bSnap.size {
			return false
		}
	}
	return true
}

// pollInterval computes the adaptive interval from file count.
// 1s base + 1s per 500 files, capped at 60s.
func pollInterval(fileCount int) time.Duration {
	ms := 1000 + (fileCount/500)*1000
	if ms > 60000 {
		ms = 60000
	}
	return time.Duration(ms) * time.Millisecond
}
