package app

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadEnvFiles_LoadsKeyValues(t *testing.T) {
	t.Setenv("FOO", "")
	t.Setenv("BAR", "")
	t.Setenv("BAZ", "")

	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env.test")
	content := "\n# sample dotenv file\nFOO=alpha\nexport BAR='beta # kept'\nBAZ=gamma # comment\nmalformed\n"
	if err := os.WriteFile(envPath, []byte(content), 0o600); err != nil {
		t.Fatalf("write dotenv: %v", err)
	}
	if err := LoadEnvFiles(envPath, filepath.Join(dir, "missing.env")); err != nil {
		t.Fatalf("LoadEnvFiles error: %v", err)
	}
	for key, want := range map[string]string{"FOO": "alpha", "BAR": "beta # kept", "BAZ": "gamma"} {
		if got := os.Getenv(key); got != want {
			t.Fatalf("%s=%q, want %q", key, got, want)
		}
	}
}

// Later files override earlier ones when loading multiple dotenv files.
func TestLoadEnvFiles_OverrideOrder(t *testing.T) {
	t.Setenv("K", "")
	dir := t.TempDir()
	a := filepath.Join(dir, ".env.a")
	b := filepath.Join(dir, ".env.b")
	if err := os.WriteFile(a, []byte("K=first\n"), 0o600); err != nil {
		t.Fatalf("write a: %v", err)
	}
	if err := os.WriteFile(b, []byte("K=second\n"), 0o600); err != nil {
		t.Fatalf("write b: %v", err)
	}
	if err := LoadEnvFiles(a, b); err != nil {
		t.Fatalf("LoadEnvFiles error: %v", err)
	}
	if got := os.Getenv("K"); got != "second" {
		t.Fatalf("override order failed: got %q, want second", got)
	}
}

func TestParseDotenv_SkipsEmptyKeys(t *testing.T) {
	vars, err := parseDotenv(strings.NewReader("=nokey\nA=1\n"))
	if err != nil {
		t.Fatal(err)
	}
	if len(vars) != 1 || vars["A"] != "1" {
		t.Fatalf("unexpected vars: %v", vars)
	}
}

func TestApplyEnvOverrides_ReplacesFileValues(t *testing.T) {
	t.Setenv("LLM_MODEL", "env-model")
	t.Setenv("LLM_API_KEY", "sk-env")
	t.Setenv("CACHE_DIR", "/tmp/goresolve-cache")
	t.Setenv("FETCH_TIMEOUT", "3s")
	t.Setenv("BROWSER_NO_SANDBOX", "yes")
	t.Setenv("USER_AGENT", "")

	cfg := DefaultConfig()
	cfg.LLMModel = "file-model"
	cfg.CacheDir = "/var/cache/file"
	ApplyEnvOverrides(&cfg)
	if cfg.LLMModel != "env-model" || cfg.LLMAPIKey != "sk-env" || cfg.CacheDir != "/tmp/goresolve-cache" {
		t.Fatalf("env not applied: %+v", cfg)
	}
	if cfg.FetchTimeout != 3*time.Second || !cfg.BrowserNoSandbox {
		t.Fatalf("typed env not applied: %+v", cfg)
	}
	if cfg.UserAgent != DefaultConfig().UserAgent {
		t.Fatalf("empty env must leave value alone, got %q", cfg.UserAgent)
	}
}

func TestApplyEnvOverrides_Booleans(t *testing.T) {
	t.Setenv("BROWSER_ENABLED", "false")
	t.Setenv("VERBOSE", "1")
	t.Setenv("RESOLVER_SOURCE", "encyclopedia")
	t.Setenv("CACHE_MAX_AGE", "not-a-duration")

	cfg := DefaultConfig()
	cfg.CacheMaxAge = time.Hour
	ApplyEnvOverrides(&cfg)
	if cfg.BrowserEnabled {
		t.Fatalf("BROWSER_ENABLED=false should disable the browser")
	}
	if !cfg.Verbose || cfg.DefaultSource != "encyclopedia" {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
	if cfg.CacheMaxAge != time.Hour {
		t.Fatalf("invalid duration must be ignored, got %v", cfg.CacheMaxAge)
	}
}
