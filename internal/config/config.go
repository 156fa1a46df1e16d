// Package config loads process configuration from an optional YAML file and
// environment variables, with environment values taking precedence and
// defaults filling whatever remains unset.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Mode selects how the process runs.
type Mode string

const (
	// ModeReadWrite watches the content tree and folds changes into revisions.
	ModeReadWrite Mode = "readwrite"
	// ModeReadOnly serves an existing store and detects new revisions by
	// polling committed state instead of watching the filesystem.
	ModeReadOnly Mode = "readonly"
)

// ParseMode validates a mode string.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeReadWrite, ModeReadOnly:
		return Mode(s), nil
	default:
		return "", fmt.Errorf("%q is not a valid mode (readwrite or readonly)", s)
	}
}

// Config is the resolved process configuration.
type Config struct {
	CacheDir   string
	DBPath     string
	ContentDir string
	Debug      bool
	Mode       Mode
}

// Default returns the configuration used when nothing is specified.
func Default() Config {
	return Config{
		CacheDir:   ".vellum/cache",
		DBPath:     ".vellum/content.db",
		ContentDir: "site",
		Debug:      false,
		Mode:       ModeReadWrite,
	}
}

// Builder accumulates partial configuration. Later sources win.
type Builder struct {
	CacheDir   *string `yaml:"cache_dir"`
	DBPath     *string `yaml:"db"`
	ContentDir *string `yaml:"content_dir"`
	Debug      *bool   `yaml:"debug"`
	Mode       *string `yaml:"mode"`
}

// NewBuilder returns an empty builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// WithFile merges settings from a YAML file, preferring them over existing values.
func (b *Builder) WithFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	var next Builder
	if err := yaml.Unmarshal(data, &next); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	b.merge(&next)
	return nil
}

// WithEnv merges settings from the environment, preferring them over existing values.
func (b *Builder) WithEnv() error {
	next := Builder{}
	if v, ok := os.LookupEnv("VELLUM_CACHE_DIR"); ok {
		next.CacheDir = &v
	}
	if v, ok := os.LookupEnv("VELLUM_DB"); ok {
		next.DBPath = &v
	}
	if v, ok := os.LookupEnv("VELLUM_CONTENT_DIR"); ok {
		next.ContentDir = &v
	}
	if v, ok := os.LookupEnv("VELLUM_DEBUG"); ok {
		debug := v == "1" || v == "true"
		next.Debug = &debug
	}
	if v, ok := os.LookupEnv("VELLUM_MODE"); ok {
		if _, err := ParseMode(v); err != nil {
			return err
		}
		next.Mode = &v
	}
	b.merge(&next)
	return nil
}

func (b *Builder) merge(other *Builder) {
	if other.CacheDir != nil {
		b.CacheDir = other.CacheDir
	}
	if other.DBPath != nil {
		b.DBPath = other.DBPath
	}
	if other.ContentDir != nil {
		b.ContentDir = other.ContentDir
	}
	if other.Debug != nil {
		b.Debug = other.Debug
	}
	if other.Mode != nil {
		b.Mode = other.Mode
	}
}

// Build resolves the builder against defaults.
func (b *Builder) Build() (Config, error) {
	cfg := Default()
	if b.CacheDir != nil {
		cfg.CacheDir = *b.CacheDir
	}
	if b.DBPath != nil {
		cfg.DBPath = *b.DBPath
	}
	if b.ContentDir != nil {
		cfg.ContentDir = *b.ContentDir
	}
	if b.Debug != nil {
		cfg.Debug = *b.Debug
	}
	if b.Mode != nil {
		mode, err := ParseMode(*b.Mode)
		if err != nil {
			return Config{}, err
		}
		cfg.Mode = mode
	}
	return cfg, nil
}
