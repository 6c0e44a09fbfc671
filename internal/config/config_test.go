package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefault(t *testing.T) {
	cfg := Load("/nonexistent/path")
	opts := cfg.ResolveOptions()
	if opts.MaxTextDepth != 20 {
		t.Errorf("expected default max_text_depth 20, got %d", opts.MaxTextDepth)
	}
	if opts.TraceDepth != 10 {
		t.Errorf("expected default trace_depth 10, got %d", opts.TraceDepth)
	}
	if cfg.EffectiveBaseURL() != "http://localhost:8080/v1" {
		t.Errorf("expected local default endpoint, got %s", cfg.EffectiveBaseURL())
	}
	if cfg.EffectiveModel() != "local" {
		t.Errorf("expected default model, got %s", cfg.EffectiveModel())
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	configContent := `
extractor:
  max_text_depth: 32
  encoder_literal_min: 5
  blacklist:
    - embed
    - [test, old]
library:
  dir: /data/loras
rewriter:
  base_url: http://gpu-box:9090/v1
  model: qwen2.5
`
	if err := os.WriteFile(filepath.Join(dir, ".pxconfig"), []byte(configContent), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg := Load(dir)
	opts := cfg.ResolveOptions()
	if opts.MaxTextDepth != 32 {
		t.Errorf("expected max_text_depth 32, got %d", opts.MaxTextDepth)
	}
	if opts.EncoderLiteralMin != 5 {
		t.Errorf("expected encoder_literal_min 5, got %d", opts.EncoderLiteralMin)
	}
	if !opts.Blacklist.Matches("face_embed") {
		t.Error("single-keyword blacklist entry not applied")
	}
	if !opts.Blacklist.Matches("old_test_run") {
		t.Error("AND-group blacklist entry not applied")
	}
	if opts.Blacklist.Matches("old_style") {
		t.Error("partial AND group should not match")
	}
	if cfg.Library.Dir != "/data/loras" {
		t.Errorf("library dir = %s", cfg.Library.Dir)
	}
	if cfg.EffectiveBaseURL() != "http://gpu-box:9090/v1" {
		t.Errorf("base_url = %s", cfg.EffectiveBaseURL())
	}
	if cfg.EffectiveModel() != "qwen2.5" {
		t.Errorf("model = %s", cfg.EffectiveModel())
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ".pxconfig"), []byte("not: [valid: yaml"), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg := Load(dir)
	if cfg.ResolveOptions().MaxTextDepth != 20 {
		t.Error("expected defaults on invalid yaml")
	}
}
