// Package config loads user-overridable settings from a .pxconfig YAML
// file in the input root. Every field is optional; absent or invalid
// configuration falls back to defaults rather than failing startup.
package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/promptforge/prompt-extract-mcp/internal/resolve"
)

// Config holds all user-overridable settings.
type Config struct {
	Extractor ExtractorConfig `yaml:"extractor"`
	Library   LibraryConfig   `yaml:"library"`
	Rewriter  RewriterConfig  `yaml:"rewriter"`
}

// ExtractorConfig tunes the resolution heuristics.
type ExtractorConfig struct {
	// Blacklist excludes adapters by name. Each entry is either a single
	// keyword or a list of keywords that must all match.
	Blacklist []any `yaml:"blacklist"`

	// MaxTextDepth bounds backward text traversal. Default: 20.
	MaxTextDepth *int `yaml:"max_text_depth"`

	// TraceDepth bounds the walk from a terminal to its loader. Default: 10.
	TraceDepth *int `yaml:"trace_depth"`

	// EncoderLiteralMin is the minimum length for a baked-in encoder
	// literal to shadow a wired producer. Default: 10.
	EncoderLiteralMin *int `yaml:"encoder_literal_min"`
}

// LibraryConfig points at the on-disk adapter library.
type LibraryConfig struct {
	// Dir is the adapter directory to scan. Empty disables matching.
	Dir string `yaml:"dir"`
}

// RewriterConfig holds prompt rewriter settings.
type RewriterConfig struct {
	// BaseURL is the OpenAI-compatible endpoint.
	// Default: http://localhost:8080/v1.
	BaseURL string `yaml:"base_url"`

	// Model names the model to request. Default: local.
	Model string `yaml:"model"`

	// APIKey authenticates against the endpoint; local servers
	// typically ignore it.
	APIKey string `yaml:"api_key"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{}
}

// Load reads .pxconfig from the given directory. Returns defaults if
// the file doesn't exist or doesn't parse.
func Load(dir string) *Config {
	cfg := Default()

	data, err := os.ReadFile(filepath.Join(dir, ".pxconfig"))
	if err != nil {
		return cfg
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return Default()
	}
	return cfg
}

// ResolveOptions builds the resolver options from the configuration,
// filling defaults for anything unset.
func (c *Config) ResolveOptions() resolve.Options {
	opts := resolve.DefaultOptions()
	opts.Blacklist = resolve.NewBlacklist(c.Extractor.Blacklist)
	if c.Extractor.MaxTextDepth != nil {
		opts.MaxTextDepth = *c.Extractor.MaxTextDepth
	}
	if c.Extractor.TraceDepth != nil {
		opts.TraceDepth = *c.Extractor.TraceDepth
	}
	if c.Extractor.EncoderLiteralMin != nil {
		opts.EncoderLiteralMin = *c.Extractor.EncoderLiteralMin
	}
	return opts
}

// EffectiveBaseURL returns the rewriter endpoint, or the local default.
func (c *Config) EffectiveBaseURL() string {
	if c.Rewriter.BaseURL != "" {
		return c.Rewriter.BaseURL
	}
	return "http://localhost:8080/v1"
}

// EffectiveModel returns the rewriter model name, or the local default.
func (c *Config) EffectiveModel() string {
	if c.Rewriter.Model != "" {
		return c.Rewriter.Model
	}
	return "local"
}
