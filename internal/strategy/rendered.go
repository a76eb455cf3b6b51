package strategy

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/goresolve/internal/extract"
)

// BrowserLauncher starts headless browser sessions.
type BrowserLauncher interface {
	Launch(ctx context.Context) (BrowserSession, error)
}

// BrowserSession is one live browser tab. Evaluate runs a script in the page
// and decodes its JSON result into out.
type BrowserSession interface {
	Navigate(ctx context.Context, url string) error
	Evaluate(ctx context.Context, script string, out any) error
	Close() error
}

// Rendered loads candidates in a headless browser so that client-side
// rendered pages can be read. The session is always released.
type Rendered struct {
	Launcher BrowserLauncher
	// NavTimeout bounds each navigation. Zero means 20s.
	NavTimeout time.Duration
	// Settle is waited after navigation before probing. Zero means 1.5s.
	Settle time.Duration
	// ProbeWindow bounds polling for a content container. Zero means 5s.
	ProbeWindow time.Duration
	// ProbeInterval is the polling period. Zero means 250ms.
	ProbeInterval time.Duration
	// MinVisibleText counts as recognized content when no container exists.
	// Zero means 400.
	MinVisibleText int
	Extractor      extract.Extractor
}

func (r *Rendered) Kind() Kind { return KindRendered }

// Available reports whether a browser driver is configured at all.
func (r *Rendered) Available() bool { return r != nil && r.Launcher != nil }

func (r *Rendered) Attempt(ctx context.Context, req Request) (*Content, error) {
	if r.Launcher == nil {
		return nil, unavailablef("no browser driver configured")
	}
	sess, err := r.Launcher.Launch(ctx)
	if err != nil {
		return nil, unavailablef("browser launch: %v", err)
	}
	defer func() {
		if cerr := sess.Close(); cerr != nil {
			log.Warn().Err(cerr).Msg("browser session close")
		}
	}()

	searched := false
	for _, u := range req.Candidates {
		if err := ctx.Err(); err != nil {
			return nil, declinef("%v", err)
		}
		c, reason := r.visit(ctx, sess, req, u, &searched)
		if c != nil {
			return c, nil
		}
		log.Debug().Str("url", u).Str("reason", reason).Msg("rendered candidate rejected")
		req.Trace.Note("rendered %s: %s", u, reason)
	}
	return nil, declinef("no rendered candidate produced content")
}

func (r *Rendered) visit(ctx context.Context, sess BrowserSession, req Request, u string, searched *bool) (*Content, string) {
	req.Trace.Tried(u)
	if err := r.navigate(ctx, sess, u); err != nil {
		return nil, "navigate: " + err.Error()
	}
	recognized := r.waitForContent(ctx, sess, req)

	// one search detour per session
	if !recognized && !*searched {
		*searched = true
		if link := r.searchLink(ctx, sess, req); link != "" {
			req.Trace.Tried(link)
			if err := r.navigate(ctx, sess, link); err != nil {
				return nil, "navigate search result: " + err.Error()
			}
			recognized = r.waitForContent(ctx, sess, req)
		} else {
			if err := r.navigate(ctx, sess, u); err != nil {
				return nil, "navigate back: " + err.Error()
			}
			recognized = r.waitForContent(ctx, sess, req)
		}
	}

	var snap snapshot
	if err := sess.Evaluate(ctx, snapshotScript(req.Profile.ContentSelectors), &snap); err != nil {
		return nil, "snapshot: " + err.Error()
	}
	final := snap.URL
	if final == "" {
		final = u
	}
	ex := r.Extractor
	if ex == nil {
		ex = extract.ForProfile(req.Profile)
	}
	floor := Floor(req.Profile)

	doc := ex.Extract([]byte(snap.RootHTML), req.Topic)
	ok, why := judgeRendered(doc, snap.RootText, floor, recognized)
	if !ok && snap.BodyHTML != "" && snap.BodyHTML != snap.RootHTML {
		doc = ex.Extract([]byte(snap.BodyHTML), req.Topic)
		ok, why = judgeRendered(doc, snap.BodyText, floor, recognized)
	}
	if !ok {
		return nil, why
	}
	return contentFrom(doc, final), ""
}

// judgeRendered is acceptable plus a stricter check on pages that never
// showed a content container: any not-found marker in the visible text
// rejects them.
func judgeRendered(doc extract.Document, visible string, floor int, recognized bool) (bool, string) {
	if extract.LooksMissing(extract.Document{Title: doc.Title, Body: visible}) {
		return false, "not-found page"
	}
	if !recognized && extract.IsNotFound(visible) {
		return false, "not-found marker on unrecognized page"
	}
	return acceptable(doc, floor)
}

func (r *Rendered) searchLink(ctx context.Context, sess BrowserSession, req Request) string {
	su := req.Profile.SearchURL(req.Topic)
	req.Trace.Tried(su)
	if err := r.navigate(ctx, sess, su); err != nil {
		req.Trace.Note("rendered search: %v", err)
		return ""
	}
	r.waitForContent(ctx, sess, req)
	var link string
	if err := sess.Evaluate(ctx, searchLinkScript(req.Profile.PathPrefixes), &link); err != nil {
		req.Trace.Note("rendered search: %v", err)
		return ""
	}
	if link == "" || !req.Profile.IsArticleURL(link) {
		req.Trace.Note("rendered search: no article link")
		return ""
	}
	return link
}

func (r *Rendered) navigate(ctx context.Context, sess BrowserSession, u string) error {
	cctx, cancel := context.WithTimeout(ctx, durationOr(r.NavTimeout, 20*time.Second))
	defer cancel()
	return sess.Navigate(cctx, u)
}

// waitForContent settles, then polls until a content container appears or
// enough text is visible. It reports whether either happened in time.
func (r *Rendered) waitForContent(ctx context.Context, sess BrowserSession, req Request) bool {
	if !sleep(ctx, durationOr(r.Settle, 1500*time.Millisecond)) {
		return false
	}
	minText := r.MinVisibleText
	if minText <= 0 {
		minText = 400
	}
	script := probeScript(req.Profile.ContentSelectors)
	deadline := time.Now().Add(durationOr(r.ProbeWindow, 5*time.Second))
	interval := durationOr(r.ProbeInterval, 250*time.Millisecond)
	for {
		var p probeResult
		if err := sess.Evaluate(ctx, script, &p); err == nil && (p.Container || p.TextLength >= minText) {
			return true
		}
		if time.Now().After(deadline) || !sleep(ctx, interval) {
			return false
		}
	}
}

func durationOr(d, def time.Duration) time.Duration {
	if d <= 0 {
		return def
	}
	return d
}

// sleep waits for d or until ctx ends; it returns false in the latter case.
func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
