package discover

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}
}

func TestDiscoverBasic(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "gen.png"))
	writeFile(t, filepath.Join(dir, "clips", "run.mp4"))
	writeFile(t, filepath.Join(dir, "workflow.JSON"))
	writeFile(t, filepath.Join(dir, "notes.txt"))
	writeFile(t, filepath.Join(dir, "upload.png.partial"))

	files, err := Discover(context.Background(), dir, nil)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if len(files) != 3 {
		t.Fatalf("expected 3 files, got %d: %+v", len(files), files)
	}
	for _, f := range files {
		if f.Path == "" || f.RelPath == "" || f.Ext == "" {
			t.Errorf("incomplete file info: %+v", f)
		}
		if f.Ext != ".png" && f.Ext != ".mp4" && f.Ext != ".json" {
			t.Errorf("unexpected extension %q", f.Ext)
		}
	}
}

func TestDiscoverSkipsIgnoredDirs(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "keep.png"))
	writeFile(t, filepath.Join(dir, ".thumbnails", "thumb.png"))
	writeFile(t, filepath.Join(dir, "tmp", "scratch.png"))

	files, err := Discover(context.Background(), dir, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 1 || files[0].RelPath != "keep.png" {
		t.Errorf("files = %+v", files)
	}
}

func TestDiscoverIgnoreFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "keep.png"))
	writeFile(t, filepath.Join(dir, "drafts", "wip.png"))
	if err := os.WriteFile(filepath.Join(dir, ".pxignore"), []byte("# comment\ndrafts\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	files, err := Discover(context.Background(), dir, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 1 || files[0].RelPath != "keep.png" {
		t.Errorf("files = %+v", files)
	}
}

func TestDiscoverCancellation(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "gen.png"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel() // pre-cancel

	_, err := Discover(ctx, dir, nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
