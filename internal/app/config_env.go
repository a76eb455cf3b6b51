package app

import (
	"os"
	"strings"
	"time"
)

// ApplyEnvOverrides overrides cfg fields with environment variables when they
// are set. It runs after the config file is applied and before explicit
// flags, so env sits between the two.
func ApplyEnvOverrides(cfg *Config) {
	if cfg == nil {
		return
	}
	setString := func(dst *string, key string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	setString(&cfg.LLMBaseURL, "LLM_BASE_URL")
	setString(&cfg.LLMModel, "LLM_MODEL")
	setString(&cfg.LLMAPIKey, "LLM_API_KEY")
	setString(&cfg.Addr, "RESOLVER_ADDR")
	setString(&cfg.DefaultSource, "RESOLVER_SOURCE")
	setString(&cfg.BrowserExecPath, "BROWSER_EXEC_PATH")
	setString(&cfg.CacheDir, "CACHE_DIR")
	setString(&cfg.UserAgent, "USER_AGENT")

	if d, ok := envDuration("CACHE_MAX_AGE"); ok {
		cfg.CacheMaxAge = d
	}
	if d, ok := envDuration("FETCH_TIMEOUT"); ok {
		cfg.FetchTimeout = d
	}

	// booleans override in both directions
	for key, dst := range map[string]*bool{
		"BROWSER_ENABLED":    &cfg.BrowserEnabled,
		"BROWSER_NO_SANDBOX": &cfg.BrowserNoSandbox,
		"CACHE_CLEAR":        &cfg.CacheClear,
		"CACHE_STRICT_PERMS": &cfg.CacheStrictPerms,
		"VERBOSE":            &cfg.Verbose,
	} {
		if v, ok := envBool(key); ok {
			*dst = v
		}
	}
}

func envDuration(key string) (time.Duration, bool) {
	s := strings.TrimSpace(os.Getenv(key))
	if s == "" {
		return 0, false
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, false
	}
	return d, true
}

func envBool(key string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
	case "1", "true", "yes", "on":
		return true, true
	case "0", "false", "no", "off":
		return false, true
	}
	return false, false
}
