package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/goresolve/internal/api"
	"github.com/hyperifyio/goresolve/internal/browser"
	"github.com/hyperifyio/goresolve/internal/cache"
	"github.com/hyperifyio/goresolve/internal/fetch"
	"github.com/hyperifyio/goresolve/internal/llm"
	"github.com/hyperifyio/goresolve/internal/resolve"
	"github.com/hyperifyio/goresolve/internal/source"
	"github.com/hyperifyio/goresolve/internal/strategy"
)

// App wires one resolver per configured source.
type App struct {
	cfg       Config
	profiles  source.Registry
	resolvers map[string]*resolve.Resolver
	server    *http.Server
}

// ErrUnknownSource is returned for a source name no profile matches.
var ErrUnknownSource = errors.New("unknown source")

// New builds the strategy chain for every profile. Missing optional
// collaborators (browser, credential, cache dir) only switch strategies off.
func New(ctx context.Context, cfg Config) (*App, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	profiles, err := cfg.Profiles()
	if err != nil {
		return nil, err
	}

	hc := newOutboundHTTPClient()
	fetcher := &fetch.Client{
		HTTPClient:        hc,
		UserAgent:         cfg.UserAgent,
		PerRequestTimeout: cfg.FetchTimeout,
	}

	var llmCache *cache.LLMCache
	if cfg.CacheDir != "" {
		prepareCache(cfg)
		httpDir, llmDir := cache.Layout(cfg.CacheDir)
		fetcher.Cache = &cache.HTTPCache{Dir: httpDir, StrictPerms: cfg.CacheStrictPerms}
		llmCache = &cache.LLMCache{Dir: llmDir, StrictPerms: cfg.CacheStrictPerms}
	}

	var launcher strategy.BrowserLauncher
	if cfg.BrowserEnabled {
		launcher = &browser.Launcher{Options: browser.Options{
			ExecPath:  cfg.BrowserExecPath,
			UserAgent: cfg.UserAgent,
			NoSandbox: cfg.BrowserNoSandbox,
		}}
	}

	// a nil *OpenAIProvider must not become a non-nil interface
	var client llm.Client
	if p := llm.NewOpenAI(cfg.LLMAPIKey, cfg.LLMBaseURL, hc); p != nil {
		client = p
		preflightLLM(ctx, p)
	}

	a := &App{cfg: cfg, profiles: profiles, resolvers: make(map[string]*resolve.Resolver, len(profiles))}
	for name, p := range profiles {
		a.resolvers[name] = resolve.New(p,
			&strategy.PlainFetch{Fetcher: fetcher, Timeout: cfg.FetchTimeout},
			&strategy.Rendered{Launcher: launcher},
			&strategy.Generative{Client: client, Model: cfg.LLMModel, Cache: llmCache},
		)
	}

	log.Info().
		Strs("sources", profiles.Names()).
		Str("default", cfg.DefaultSource).
		Bool("browser", launcher != nil).
		Bool("generative", client != nil).
		Bool("cache", cfg.CacheDir != "").
		Msg("resolver ready")
	return a, nil
}

// preflightLLM lists models as a connectivity check. It only warns: the
// generative strategy declines on its own if the backend stays unreachable.
func preflightLLM(ctx context.Context, p *llm.OpenAIProvider) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	models, err := p.Inner.ListModels(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("LLM model list failed; continuing")
		return
	}
	log.Info().Int("count", len(models.Models)).Msg("LLM models available")
}

// prepareCache applies the clear and max-age controls. Failures are logged,
// never fatal.
func prepareCache(cfg Config) {
	if cfg.CacheClear {
		if err := cache.ClearDir(cfg.CacheDir); err != nil {
			log.Warn().Err(err).Msg("cache clear")
		}
	}
	if cfg.CacheMaxAge > 0 {
		httpDir, llmDir := cache.Layout(cfg.CacheDir)
		nHTTP, err := cache.PurgeHTTPCacheByAge(httpDir, cfg.CacheMaxAge)
		if err != nil {
			log.Warn().Err(err).Msg("http cache purge")
		}
		nLLM, err := cache.PurgeLLMCacheByAge(llmDir, cfg.CacheMaxAge)
		if err != nil {
			log.Warn().Err(err).Msg("llm cache purge")
		}
		log.Debug().Int("http", nHTTP).Int("llm", nLLM).Msg("cache purged")
	}
}

// Resolve runs one resolution against the named source, or the default one
// when name is empty.
func (a *App) Resolve(ctx context.Context, name, topic string, debug bool) (resolve.Result, error) {
	if strings.TrimSpace(name) == "" {
		name = a.cfg.DefaultSource
	}
	p, ok := a.profiles.Lookup(name)
	if !ok {
		return resolve.Result{}, fmt.Errorf("%w: %s", ErrUnknownSource, name)
	}
	return a.resolvers[p.Name].Resolve(ctx, topic, debug)
}

// Handler returns the HTTP API.
func (a *App) Handler() http.Handler {
	rs := make(map[string]api.Resolver, len(a.resolvers))
	for name, r := range a.resolvers {
		rs[name] = r
	}
	return api.NewServer(rs, a.cfg.DefaultSource, Version()).Router()
}

// Serve listens on cfg.Addr until ctx is cancelled, then shuts down
// gracefully.
func (a *App) Serve(ctx context.Context) error {
	a.server = &http.Server{
		Addr:              a.cfg.Addr,
		Handler:           a.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", a.cfg.Addr).Msg("listening")
		errCh <- a.server.ListenAndServe()
	}()
	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return a.server.Shutdown(shutdownCtx)
}

// Close releases resources held by the app.
func (a *App) Close() {
	if a.server != nil {
		_ = a.server.Close()
	}
}
