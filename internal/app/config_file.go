package app

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	yaml "gopkg.in/yaml.v3"

	"github.com/hyperifyio/goresolve/internal/source"
)

// FileConfig represents the single-file configuration schema.
type FileConfig struct {
	Server struct {
		Addr   string `yaml:"addr" json:"addr"`
		Source string `yaml:"source" json:"source"`
	} `yaml:"server" json:"server"`

	LLM struct {
		BaseURL string `yaml:"base" json:"base"`
		Model   string `yaml:"model" json:"model"`
		APIKey  string `yaml:"key" json:"key"`
	} `yaml:"llm" json:"llm"`

	Browser struct {
		// Enabled is a pointer so that an explicit false can switch it off.
		Enabled   *bool  `yaml:"enabled" json:"enabled"`
		ExecPath  string `yaml:"execPath" json:"execPath"`
		NoSandbox bool   `yaml:"noSandbox" json:"noSandbox"`
	} `yaml:"browser" json:"browser"`

	Fetch struct {
		Timeout   time.Duration `yaml:"timeout" json:"timeout"`
		UserAgent string        `yaml:"userAgent" json:"userAgent"`
	} `yaml:"fetch" json:"fetch"`

	Cache struct {
		Dir         string        `yaml:"dir" json:"dir"`
		MaxAge      time.Duration `yaml:"maxAge" json:"maxAge"`
		Clear       bool          `yaml:"clear" json:"clear"`
		StrictPerms bool          `yaml:"strictPerms" json:"strictPerms"`
	} `yaml:"cache" json:"cache"`

	Sources map[string]source.Profile `yaml:"sources" json:"sources"`

	Verbose bool `yaml:"verbose" json:"verbose"`
}

// LoadConfigFile reads YAML or JSON into FileConfig.
func LoadConfigFile(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse yaml: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse json: %w", err)
		}
	default:
		if err := yaml.Unmarshal(b, &fc); err != nil {
			if jerr := json.Unmarshal(b, &fc); jerr != nil {
				return fc, fmt.Errorf("parse config: %v (yaml) / %v (json)", err, jerr)
			}
		}
	}
	return fc, nil
}

// ApplyFileConfig overlays values from fc onto fields of cfg that are unset
// or still hold their defaults, so explicit flags survive.
func ApplyFileConfig(cfg *Config, fc FileConfig) {
	if cfg == nil {
		return
	}
	if (cfg.Addr == "" || cfg.Addr == defaultAddr) && fc.Server.Addr != "" {
		cfg.Addr = fc.Server.Addr
	}
	if (cfg.DefaultSource == "" || cfg.DefaultSource == defaultSource) && fc.Server.Source != "" {
		cfg.DefaultSource = fc.Server.Source
	}

	if cfg.LLMBaseURL == "" && fc.LLM.BaseURL != "" {
		cfg.LLMBaseURL = fc.LLM.BaseURL
	}
	if (cfg.LLMModel == "" || cfg.LLMModel == defaultModel) && fc.LLM.Model != "" {
		cfg.LLMModel = fc.LLM.Model
	}
	if cfg.LLMAPIKey == "" && fc.LLM.APIKey != "" {
		cfg.LLMAPIKey = fc.LLM.APIKey
	}

	if fc.Browser.Enabled != nil {
		cfg.BrowserEnabled = *fc.Browser.Enabled
	}
	if cfg.BrowserExecPath == "" && fc.Browser.ExecPath != "" {
		cfg.BrowserExecPath = fc.Browser.ExecPath
	}
	if !cfg.BrowserNoSandbox && fc.Browser.NoSandbox {
		cfg.BrowserNoSandbox = true
	}

	if (cfg.FetchTimeout == 0 || cfg.FetchTimeout == defaultFetchTimeout) && fc.Fetch.Timeout > 0 {
		cfg.FetchTimeout = fc.Fetch.Timeout
	}
	if (cfg.UserAgent == "" || cfg.UserAgent == defaultUserAgent) && fc.Fetch.UserAgent != "" {
		cfg.UserAgent = fc.Fetch.UserAgent
	}

	if cfg.CacheDir == "" && fc.Cache.Dir != "" {
		cfg.CacheDir = fc.Cache.Dir
	}
	if cfg.CacheMaxAge == 0 && fc.Cache.MaxAge > 0 {
		cfg.CacheMaxAge = fc.Cache.MaxAge
	}
	if !cfg.CacheClear && fc.Cache.Clear {
		cfg.CacheClear = true
	}
	if !cfg.CacheStrictPerms && fc.Cache.StrictPerms {
		cfg.CacheStrictPerms = true
	}

	if len(fc.Sources) > 0 {
		if cfg.Sources == nil {
			cfg.Sources = make(map[string]source.Profile, len(fc.Sources))
		}
		for name, p := range fc.Sources {
			if _, set := cfg.Sources[name]; !set {
				cfg.Sources[name] = p
			}
		}
	}
	if !cfg.Verbose && fc.Verbose {
		cfg.Verbose = true
	}
}
