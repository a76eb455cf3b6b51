package app

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hyperifyio/goresolve/internal/source"
)

// Config holds runtime configuration for the application.
type Config struct {
	// Server
	Addr          string
	DefaultSource string

	// One-shot mode
	Topic        string
	Debug        bool
	MarkdownPath string
	PDFPath      string

	// LLM
	LLMBaseURL string
	LLMModel   string
	LLMAPIKey  string

	// Browser
	BrowserEnabled   bool
	BrowserExecPath  string
	BrowserNoSandbox bool

	// Outbound HTTP
	FetchTimeout time.Duration
	UserAgent    string

	// Cache
	CacheDir         string
	CacheMaxAge      time.Duration
	CacheClear       bool
	CacheStrictPerms bool

	// Sources overlays the built-in profiles by name; unknown names add new
	// sources.
	Sources map[string]source.Profile

	Verbose bool
}

const (
	defaultAddr         = ":8080"
	defaultSource       = "community"
	defaultModel        = "gpt-4o-mini"
	defaultFetchTimeout = 8 * time.Second
	defaultUserAgent    = "goresolve/1.0 (+https://github.com/hyperifyio/goresolve)"
)

// DefaultConfig returns the configuration used when nothing is set.
func DefaultConfig() Config {
	return Config{
		Addr:           defaultAddr,
		DefaultSource:  defaultSource,
		LLMModel:       defaultModel,
		BrowserEnabled: true,
		FetchTimeout:   defaultFetchTimeout,
		UserAgent:      defaultUserAgent,
	}
}

// Profiles returns the built-in profiles with configured overlays applied.
func (c Config) Profiles() (source.Registry, error) {
	reg := source.Registry(source.Builtin())
	for name, override := range c.Sources {
		key := strings.ToLower(strings.TrimSpace(name))
		base, ok := reg[key]
		if !ok {
			base = source.Profile{Name: key, Mode: source.ModeParagraphs}
		}
		p := base.Merge(override)
		p.Name = key
		if err := p.Validate(); err != nil {
			return nil, err
		}
		reg[key] = p
	}
	return reg, nil
}

// ValidateConfig performs minimal validation of settings.
func ValidateConfig(cfg Config) error {
	if strings.TrimSpace(cfg.DefaultSource) == "" {
		return errors.New("config: default source is required")
	}
	reg, err := cfg.Profiles()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if _, ok := reg.Lookup(cfg.DefaultSource); !ok {
		return fmt.Errorf("config: unknown default source %q (have %s)", cfg.DefaultSource, strings.Join(reg.Names(), ", "))
	}
	if cfg.FetchTimeout < 0 || cfg.CacheMaxAge < 0 {
		return errors.New("config: negative durations are not allowed")
	}
	return nil
}
