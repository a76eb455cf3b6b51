// Package strategy holds the independent ways of obtaining article content
// for a topic. Each strategy either returns content or declines; nothing a
// strategy does may fail the surrounding resolution.
package strategy

import (
	"context"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/hyperifyio/goresolve/internal/extract"
	"github.com/hyperifyio/goresolve/internal/source"
)

// Kind names a strategy in results and logs.
type Kind string

const (
	KindPlainFetch Kind = "plain-fetch"
	KindRendered   Kind = "rendered-browser"
	KindGenerative Kind = "generative"
	KindNone       Kind = "none"
)

var (
	// ErrDeclined marks an attempt that produced nothing usable.
	ErrDeclined = errors.New("strategy declined")
	// ErrUnavailable marks a strategy whose driver or credential is missing.
	// It wraps ErrDeclined so callers that only care about declines still match.
	ErrUnavailable = fmt.Errorf("%w: resource unavailable", ErrDeclined)
)

func declinef(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrDeclined}, args...)...)
}

func unavailablef(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrUnavailable}, args...)...)
}

// Content is what a successful attempt returns.
type Content struct {
	Title     string
	Body      string
	SourceURL string
}

// Len returns the body length in runes.
func (c Content) Len() int { return utf8.RuneCountInString(c.Body) }

// Request is the input shared by every strategy.
type Request struct {
	Topic      string
	Candidates []string
	Profile    source.Profile
	Trace      *Trace
}

// Strategy is one self-contained method of obtaining content.
type Strategy interface {
	Kind() Kind
	// Attempt returns content or an error wrapping ErrDeclined.
	Attempt(ctx context.Context, req Request) (*Content, error)
}

// Trace records what a resolution touched. Methods are nil-safe so
// strategies can be run without one.
type Trace struct {
	TriedURLs []string
	Notes     []string
}

// Tried records a URL that was requested.
func (t *Trace) Tried(u string) {
	if t != nil {
		t.TriedURLs = append(t.TriedURLs, u)
	}
}

// Note appends a formatted diagnostic note.
func (t *Trace) Note(format string, args ...any) {
	if t != nil {
		t.Notes = append(t.Notes, fmt.Sprintf(format, args...))
	}
}

// acceptable applies the source floor and the miss classifier to an
// extracted document.
func acceptable(doc extract.Document, floor int) (bool, string) {
	if extract.LooksMissing(doc) {
		return false, "not-found page"
	}
	if n := doc.Len(); n < floor {
		return false, fmt.Sprintf("body %d below floor %d", n, floor)
	}
	return true, ""
}

func contentFrom(doc extract.Document, u string) *Content {
	return &Content{Title: doc.Title, Body: doc.Body, SourceURL: u}
}

// Floor returns the acceptance floor for a profile, never below one rune.
func Floor(p source.Profile) int {
	if p.Floor <= 0 {
		return 1
	}
	return p.Floor
}
