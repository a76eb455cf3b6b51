// Command resolver turns topics into articles. It serves GET /resolve or,
// with -topic, resolves once and prints the result as JSON.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/goresolve/internal/app"
	"github.com/hyperifyio/goresolve/internal/source"
)

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	if err := app.LoadEnvFiles(".env"); err != nil {
		log.Warn().Err(err).Msg("dotenv")
	}
	cfg, srcName, showVersion, err := parseFlags(os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		log.Error().Err(err).Msg("invalid arguments")
		os.Exit(2)
	}
	if showVersion {
		fmt.Println(app.Version())
		return
	}
	if cfg.Verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := run(ctx, cfg, srcName, os.Stdout); err != nil {
		log.Error().Err(err).Msg("run failed")
		if errors.Is(err, source.ErrInvalidInput) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

// parseFlags builds the configuration in layers: defaults, then the optional
// config file, then environment overrides, then explicitly set flags.
func parseFlags(args []string) (app.Config, string, bool, error) {
	def := app.DefaultConfig()
	fs := flag.NewFlagSet("resolver", flag.ContinueOnError)

	var (
		fl          app.Config
		configPath  string
		sourceName  string
		showVersion bool
	)
	fs.StringVar(&configPath, "config", os.Getenv("RESOLVER_CONFIG"), "Path to YAML or JSON config file")
	fs.StringVar(&fl.Addr, "addr", def.Addr, "HTTP listen address (env RESOLVER_ADDR)")
	fs.StringVar(&fl.DefaultSource, "default-source", def.DefaultSource, "Source used when a request names none (env RESOLVER_SOURCE)")
	fs.StringVar(&fl.Topic, "topic", "", "Resolve this topic once, print JSON and exit")
	fs.StringVar(&sourceName, "source", "", "Source for -topic (defaults to -default-source)")
	fs.BoolVar(&fl.Debug, "debug", false, "Include debug details in -topic output")
	fs.StringVar(&fl.MarkdownPath, "markdown", "", "With -topic, also write the article as Markdown to this path")
	fs.StringVar(&fl.PDFPath, "pdf", "", "With -topic, also write the article as PDF to this path")
	fs.StringVar(&fl.LLMBaseURL, "llm.base", "", "OpenAI-compatible base URL (env LLM_BASE_URL)")
	fs.StringVar(&fl.LLMModel, "llm.model", def.LLMModel, "Generation model (env LLM_MODEL)")
	fs.StringVar(&fl.LLMAPIKey, "llm.key", "", "Generation API key; empty disables the generative strategy (env LLM_API_KEY)")
	fs.BoolVar(&fl.BrowserEnabled, "browser", def.BrowserEnabled, "Enable the headless browser strategy (env BROWSER_ENABLED)")
	fs.StringVar(&fl.BrowserExecPath, "browser.exec", "", "Chrome executable (env BROWSER_EXEC_PATH)")
	fs.BoolVar(&fl.BrowserNoSandbox, "browser.no-sandbox", false, "Run Chrome without its sandbox (env BROWSER_NO_SANDBOX)")
	fs.DurationVar(&fl.FetchTimeout, "fetch.timeout", def.FetchTimeout, "Per-request timeout for page fetches (env FETCH_TIMEOUT)")
	fs.StringVar(&fl.UserAgent, "user-agent", def.UserAgent, "User-Agent for fetches and the browser (env USER_AGENT)")
	fs.StringVar(&fl.CacheDir, "cache.dir", "", "Cache directory; empty disables caching (env CACHE_DIR)")
	fs.DurationVar(&fl.CacheMaxAge, "cache.maxAge", 0, "Purge cache entries older than this at startup (env CACHE_MAX_AGE)")
	fs.BoolVar(&fl.CacheClear, "cache.clear", false, "Clear the cache at startup (env CACHE_CLEAR)")
	fs.BoolVar(&fl.CacheStrictPerms, "cache.strictPerms", false, "Restrict cache permissions to 0700/0600 (env CACHE_STRICT_PERMS)")
	fs.BoolVar(&fl.Verbose, "v", false, "Verbose logging (env VERBOSE)")
	fs.BoolVar(&showVersion, "version", false, "Print version and exit")
	if err := fs.Parse(args); err != nil {
		return fl, "", false, err
	}

	cfg := def
	if strings.TrimSpace(configPath) != "" {
		fc, err := app.LoadConfigFile(configPath)
		if err != nil {
			return cfg, "", false, fmt.Errorf("load config: %w", err)
		}
		app.ApplyFileConfig(&cfg, fc)
	}
	app.ApplyEnvOverrides(&cfg)

	cfg.Topic, cfg.Debug = fl.Topic, fl.Debug
	cfg.MarkdownPath, cfg.PDFPath = fl.MarkdownPath, fl.PDFPath
	explicit := map[string]func(){
		"addr":               func() { cfg.Addr = fl.Addr },
		"default-source":     func() { cfg.DefaultSource = fl.DefaultSource },
		"llm.base":           func() { cfg.LLMBaseURL = fl.LLMBaseURL },
		"llm.model":          func() { cfg.LLMModel = fl.LLMModel },
		"llm.key":            func() { cfg.LLMAPIKey = fl.LLMAPIKey },
		"browser":            func() { cfg.BrowserEnabled = fl.BrowserEnabled },
		"browser.exec":       func() { cfg.BrowserExecPath = fl.BrowserExecPath },
		"browser.no-sandbox": func() { cfg.BrowserNoSandbox = fl.BrowserNoSandbox },
		"fetch.timeout":      func() { cfg.FetchTimeout = fl.FetchTimeout },
		"user-agent":         func() { cfg.UserAgent = fl.UserAgent },
		"cache.dir":          func() { cfg.CacheDir = fl.CacheDir },
		"cache.maxAge":       func() { cfg.CacheMaxAge = fl.CacheMaxAge },
		"cache.clear":        func() { cfg.CacheClear = fl.CacheClear },
		"cache.strictPerms":  func() { cfg.CacheStrictPerms = fl.CacheStrictPerms },
		"v":                  func() { cfg.Verbose = fl.Verbose },
	}
	fs.Visit(func(f *flag.Flag) {
		if apply, ok := explicit[f.Name]; ok {
			apply()
		}
	})
	return cfg, sourceName, showVersion, nil
}

func run(ctx context.Context, cfg app.Config, sourceName string, stdout io.Writer) error {
	a, err := app.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("init app: %w", err)
	}
	defer a.Close()

	if strings.TrimSpace(cfg.Topic) == "" {
		return a.Serve(ctx)
	}

	res, err := a.Resolve(ctx, sourceName, cfg.Topic, cfg.Debug)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(res); err != nil {
		return err
	}
	if res.NotFound {
		return nil
	}
	if cfg.MarkdownPath != "" {
		if err := app.WriteMarkdown(res, cfg.MarkdownPath); err != nil {
			return fmt.Errorf("write markdown: %w", err)
		}
	}
	if cfg.PDFPath != "" {
		if err := app.WritePDF(res, cfg.PDFPath); err != nil {
			return fmt.Errorf("write pdf: %w", err)
		}
	}
	return nil
}
