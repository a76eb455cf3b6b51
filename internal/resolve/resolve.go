// Package resolve runs the strategy chain for one topic and folds the outcome
// into a result record.
package resolve

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/goresolve/internal/extract"
	"github.com/hyperifyio/goresolve/internal/source"
	"github.com/hyperifyio/goresolve/internal/strategy"
)

// Result is the outcome of one resolution. A miss has NotFound set, an empty
// Content and StrategyUsed "none".
type Result struct {
	Title        string        `json:"title"`
	Content      string        `json:"content"`
	SourceURL    string        `json:"sourceUrl"`
	IsFallback   bool          `json:"isFallback"`
	NotFound     bool          `json:"notFound"`
	StrategyUsed strategy.Kind `json:"strategyUsed"`
	Debug        *Debug        `json:"debug,omitempty"`
}

// Debug is attached to a result on request.
type Debug struct {
	TraceID   string   `json:"traceId"`
	TriedURLs []string `json:"triedUrls"`
	// StrategyAvailable reports whether the rendered-browser driver could be
	// used for this run.
	StrategyAvailable bool     `json:"strategyAvailable"`
	Notes             []string `json:"notes"`
}

// Resolver tries its strategies in order; the first acceptable content wins.
type Resolver struct {
	Profile    source.Profile
	Strategies []strategy.Strategy
}

// New returns a resolver for profile running strategies in the given order.
func New(profile source.Profile, strategies ...strategy.Strategy) *Resolver {
	return &Resolver{Profile: profile, Strategies: strategies}
}

// availabler is implemented by strategies that can tell up front whether
// their driver or credential is configured.
type availabler interface {
	Available() bool
}

// Resolve resolves topic. The only error is source.ErrInvalidInput; every
// strategy failure ends up as a decline and, at worst, a miss record.
func (r *Resolver) Resolve(ctx context.Context, topic string, debug bool) (Result, error) {
	topic = strings.TrimSpace(topic)
	candidates, err := r.Profile.Candidates(topic)
	if err != nil {
		return Result{}, err
	}
	traceID := uuid.NewString()
	logger := log.With().Str("trace", traceID).Str("source", r.Profile.Name).Str("topic", topic).Logger()
	trace := &strategy.Trace{}
	req := strategy.Request{Topic: topic, Candidates: candidates, Profile: r.Profile, Trace: trace}

	available := make(map[strategy.Kind]bool, len(r.Strategies))
	for _, s := range r.Strategies {
		a, ok := s.(availabler)
		available[s.Kind()] = !ok || a.Available()
	}

	floor := strategy.Floor(r.Profile)
	for _, s := range r.Strategies {
		if err := ctx.Err(); err != nil {
			trace.Note("resolution cancelled: %v", err)
			break
		}
		kind := s.Kind()
		start := time.Now()
		c, err := attempt(ctx, s, req)
		if errors.Is(err, strategy.ErrUnavailable) {
			available[kind] = false
		}
		if err != nil {
			logger.Debug().Str("strategy", string(kind)).Err(err).Dur("took", time.Since(start)).Msg("strategy declined")
			trace.Note("%s: %v", kind, err)
			continue
		}
		if c == nil {
			trace.Note("%s: no content", kind)
			continue
		}
		c.Body = extract.Sanitize(c.Body, r.Profile.Disclaimers...)
		if n := c.Len(); n < floor {
			trace.Note("%s: body %d below floor %d", kind, n, floor)
			continue
		}
		title := strings.TrimSpace(c.Title)
		if title == "" {
			title = topic
		}
		logger.Info().Str("strategy", string(kind)).Str("url", c.SourceURL).Dur("took", time.Since(start)).Msg("resolved")
		res := Result{
			Title:        title,
			Content:      c.Body,
			SourceURL:    c.SourceURL,
			IsFallback:   kind != strategy.KindPlainFetch,
			StrategyUsed: kind,
		}
		return withDebug(res, debug, traceID, trace, available), nil
	}

	logger.Info().Msg("no strategy produced content")
	res := Miss(r.Profile, topic)
	return withDebug(res, debug, traceID, trace, available), nil
}

// Miss is the explicit "no content" record for topic.
func Miss(p source.Profile, topic string) Result {
	return Result{
		Title:        topic,
		SourceURL:    p.SearchURL(topic),
		IsFallback:   true,
		NotFound:     true,
		StrategyUsed: strategy.KindNone,
	}
}

// attempt runs one strategy, turning a panic into a decline.
func attempt(ctx context.Context, s strategy.Strategy, req strategy.Request) (c *strategy.Content, err error) {
	defer func() {
		if v := recover(); v != nil {
			c = nil
			err = fmt.Errorf("%w: panic: %v", strategy.ErrDeclined, v)
		}
	}()
	return s.Attempt(ctx, req)
}

func withDebug(res Result, debug bool, traceID string, trace *strategy.Trace, available map[strategy.Kind]bool) Result {
	if !debug {
		return res
	}
	tried := trace.TriedURLs
	if tried == nil {
		tried = []string{}
	}
	notes := trace.Notes
	if notes == nil {
		notes = []string{}
	}
	res.Debug = &Debug{
		TraceID:           traceID,
		TriedURLs:         tried,
		StrategyAvailable: available[strategy.KindRendered],
		Notes:             notes,
	}
	return res
}
