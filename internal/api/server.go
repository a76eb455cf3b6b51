// Package api exposes resolution over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"github.com/hyperifyio/goresolve/internal/resolve"
	"github.com/hyperifyio/goresolve/internal/source"
)

// Resolver is the part of *resolve.Resolver the server needs.
type Resolver interface {
	Resolve(ctx context.Context, topic string, debug bool) (resolve.Result, error)
}

// Server routes resolution requests to per-source resolvers.
type Server struct {
	resolvers     map[string]Resolver
	defaultSource string
	version       string
	// runTimeout bounds a shared resolution. Zero means 2m.
	runTimeout time.Duration
	group      singleflight.Group
}

// NewServer returns a server. defaultSource must be a key of resolvers.
func NewServer(resolvers map[string]Resolver, defaultSource, version string) *Server {
	return &Server{
		resolvers:     resolvers,
		defaultSource: strings.ToLower(defaultSource),
		version:       version,
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/resolve", s.resolve)
	r.Get("/health", s.health)
	return r
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		log.Info().
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("took", time.Since(start)).
			Msg("http request")
	})
}

func (s *Server) resolve(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	topic := strings.TrimSpace(q.Get("topic"))
	if topic == "" {
		writeError(w, "Missing topic parameter", http.StatusBadRequest)
		return
	}
	name := strings.ToLower(strings.TrimSpace(q.Get("source")))
	if name == "" {
		name = s.defaultSource
	}
	resolver, ok := s.resolvers[name]
	if !ok {
		writeError(w, "Unknown source", http.StatusBadRequest)
		return
	}
	debug := isTruthy(q.Get("debug"))

	// identical concurrent requests share one run
	key := name + "\x00" + topic
	if debug {
		key += "\x00debug"
	}
	ch := s.group.DoChan(key, func() (any, error) {
		// the shared run outlives any single client
		ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), s.sharedTimeout())
		defer cancel()
		return resolver.Resolve(ctx, topic, debug)
	})
	var out singleflight.Result
	select {
	case out = <-ch:
	case <-r.Context().Done():
		log.Debug().Str("topic", topic).Msg("client left before resolution finished")
		return
	}
	if out.Err != nil {
		if errors.Is(out.Err, source.ErrInvalidInput) {
			writeError(w, "Missing topic parameter", http.StatusBadRequest)
			return
		}
		// resolvers absorb strategy failures, so anything else is a bug
		log.Error().Err(out.Err).Str("topic", topic).Msg("resolve")
		writeError(w, "Internal error", http.StatusInternalServerError)
		return
	}
	if out.Shared {
		log.Debug().Str("topic", topic).Msg("coalesced request")
	}
	writeJSONStatus(w, out.Val.(resolve.Result), http.StatusOK)
}

func (s *Server) sharedTimeout() time.Duration {
	if s.runTimeout <= 0 {
		return 2 * time.Minute
	}
	return s.runTimeout
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSONStatus(w, map[string]string{"status": "ok", "version": s.version}, http.StatusOK)
}

func isTruthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

func writeError(w http.ResponseWriter, msg string, statusCode int) {
	writeJSONStatus(w, map[string]string{"error": msg}, statusCode)
}

func writeJSONStatus(w http.ResponseWriter, value any, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(value)
}
