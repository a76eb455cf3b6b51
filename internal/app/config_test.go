package app

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/hyperifyio/goresolve/internal/source"
)

const sampleYAML = `
server:
  addr: ":9090"
  source: encyclopedia
llm:
  model: file-model
browser:
  enabled: false
  noSandbox: true
fetch:
  timeout: 5s
cache:
  dir: /tmp/resolver-cache
  maxAge: 24h
sources:
  community:
    baseURL: https://mirror.example
    floor: 200
  local:
    baseURL: http://localhost:8081
    pathPrefixes: ["/wiki/"]
    separators: ["_"]
    searchPath: "/search?q=%s"
    mode: markdown
`

func writeConfig(t *testing.T, name, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(p, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestLoadConfigFile_YAML(t *testing.T) {
	fc, err := LoadConfigFile(writeConfig(t, "resolver.yaml", sampleYAML))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if fc.Server.Addr != ":9090" || fc.Fetch.Timeout != 5*time.Second || fc.Cache.MaxAge != 24*time.Hour {
		t.Fatalf("unexpected file config: %+v", fc)
	}
	if fc.Browser.Enabled == nil || *fc.Browser.Enabled {
		t.Fatalf("browser.enabled=false not decoded")
	}
	if fc.Sources["local"].Mode != source.ModeMarkdown {
		t.Fatalf("source override not decoded: %+v", fc.Sources["local"])
	}
}

func TestLoadConfigFile_JSONAndErrors(t *testing.T) {
	fc, err := LoadConfigFile(writeConfig(t, "c.json", `{"llm":{"model":"json-model"}}`))
	if err != nil || fc.LLM.Model != "json-model" {
		t.Fatalf("json: %+v %v", fc, err)
	}
	if _, err := LoadConfigFile(writeConfig(t, "c.yaml", "server: [unclosed")); err == nil {
		t.Fatalf("expected parse error")
	}
	if _, err := LoadConfigFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected read error")
	}
}

func TestApplyFileConfig_RespectsExplicitValues(t *testing.T) {
	fc, err := LoadConfigFile(writeConfig(t, "resolver.yml", sampleYAML))
	if err != nil {
		t.Fatal(err)
	}
	cfg := DefaultConfig()
	cfg.Addr = ":7000" // explicit flag
	ApplyFileConfig(&cfg, fc)

	if cfg.Addr != ":7000" {
		t.Fatalf("explicit addr overwritten: %s", cfg.Addr)
	}
	if cfg.DefaultSource != "encyclopedia" || cfg.LLMModel != "file-model" {
		t.Fatalf("file defaults not applied: %+v", cfg)
	}
	if cfg.BrowserEnabled || !cfg.BrowserNoSandbox || cfg.FetchTimeout != 5*time.Second {
		t.Fatalf("browser/fetch settings not applied: %+v", cfg)
	}
	if cfg.CacheDir != "/tmp/resolver-cache" || cfg.CacheMaxAge != 24*time.Hour {
		t.Fatalf("cache settings not applied: %+v", cfg)
	}
}

func TestProfiles_OverlayAndAdd(t *testing.T) {
	fc, err := LoadConfigFile(writeConfig(t, "resolver.yaml", sampleYAML))
	if err != nil {
		t.Fatal(err)
	}
	cfg := DefaultConfig()
	ApplyFileConfig(&cfg, fc)
	reg, err := cfg.Profiles()
	if err != nil {
		t.Fatalf("profiles: %v", err)
	}
	if got := strings.Join(reg.Names(), ","); got != "community,encyclopedia,local" {
		t.Fatalf("names: %s", got)
	}
	c, _ := reg.Lookup("community")
	if c.BaseURL != "https://mirror.example" || c.Floor != 200 || c.PathPrefixes[0] != "/page/" {
		t.Fatalf("overlay wrong: %+v", c)
	}
	l, _ := reg.Lookup("LOCAL")
	if l.Name != "local" || l.Floor != 0 {
		t.Fatalf("added profile wrong: %+v", l)
	}
}

func TestValidateConfig(t *testing.T) {
	if err := ValidateConfig(DefaultConfig()); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
	cfg := DefaultConfig()
	cfg.DefaultSource = "nope"
	if err := ValidateConfig(cfg); err == nil || !strings.Contains(err.Error(), "unknown default source") {
		t.Fatalf("expected unknown source error, got %v", err)
	}
	cfg = DefaultConfig()
	cfg.Sources = map[string]source.Profile{"broken": {BaseURL: "not a url"}}
	if err := ValidateConfig(cfg); err == nil {
		t.Fatalf("expected invalid profile error")
	}
	cfg = DefaultConfig()
	cfg.FetchTimeout = -time.Second
	if err := ValidateConfig(cfg); err == nil {
		t.Fatalf("expected negative duration error")
	}
}
