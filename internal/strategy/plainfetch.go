package strategy

import (
	"bytes"
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/goresolve/internal/extract"
	"github.com/hyperifyio/goresolve/internal/fetch"
	"github.com/hyperifyio/goresolve/internal/source"
)

// Getter performs one bounded GET. *fetch.Client implements it.
type Getter interface {
	Get(ctx context.Context, rawURL string) (fetch.Page, error)
}

// PlainFetch requests candidate pages directly and extracts them without
// running any page script. When every candidate fails it consults the
// source's search page once and follows the first article link.
type PlainFetch struct {
	Fetcher Getter
	// Timeout bounds each request. Zero means 8s.
	Timeout time.Duration
	// Extractor overrides the profile's extractor.
	Extractor extract.Extractor
}

func (p *PlainFetch) Kind() Kind { return KindPlainFetch }

func (p *PlainFetch) Attempt(ctx context.Context, req Request) (*Content, error) {
	if p.Fetcher == nil {
		return nil, unavailablef("no http client configured")
	}
	ex := p.Extractor
	if ex == nil {
		ex = extract.ForProfile(req.Profile)
	}
	floor := Floor(req.Profile)

	for _, u := range req.Candidates {
		if err := ctx.Err(); err != nil {
			return nil, declinef("%v", err)
		}
		c, reason := p.try(ctx, ex, req, u, floor)
		if c != nil {
			return c, nil
		}
		log.Debug().Str("url", u).Str("reason", reason).Msg("plain-fetch candidate rejected")
		req.Trace.Note("plain-fetch %s: %s", u, reason)
	}
	if err := ctx.Err(); err != nil {
		return nil, declinef("%v", err)
	}
	return p.search(ctx, ex, req, floor)
}

// try fetches and judges a single URL. It returns the content or the reason
// it was rejected.
func (p *PlainFetch) try(ctx context.Context, ex extract.Extractor, req Request, u string, floor int) (*Content, string) {
	req.Trace.Tried(u)
	page, err := p.get(ctx, u)
	if err != nil {
		return nil, err.Error()
	}
	doc := ex.Extract(page.HTML, req.Topic)
	if ok, why := acceptable(doc, floor); !ok {
		return nil, why
	}
	return contentFrom(doc, page.FinalURL), ""
}

func (p *PlainFetch) search(ctx context.Context, ex extract.Extractor, req Request, floor int) (*Content, error) {
	su := req.Profile.SearchURL(req.Topic)
	req.Trace.Tried(su)
	page, err := p.get(ctx, su)
	if err != nil {
		req.Trace.Note("plain-fetch search: %v", err)
		return nil, declinef("search page: %v", err)
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page.HTML))
	if err != nil {
		return nil, declinef("search page: %v", err)
	}
	if phrase := noResults(doc, req.Profile); phrase != "" {
		req.Trace.Note("plain-fetch search: %q", phrase)
		return nil, declinef("search reported no results")
	}
	link := firstArticleLink(doc, page.FinalURL, req.Profile)
	if link == "" {
		req.Trace.Note("plain-fetch search: no article link")
		return nil, declinef("search page had no article link")
	}
	c, reason := p.try(ctx, ex, req, link, floor)
	if c == nil {
		req.Trace.Note("plain-fetch %s: %s", link, reason)
		return nil, declinef("search result %s: %s", link, reason)
	}
	return c, nil
}

func (p *PlainFetch) get(ctx context.Context, u string) (fetch.Page, error) {
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = 8 * time.Second
	}
	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return p.Fetcher.Get(cctx, u)
}

// noResults returns the matched no-results phrase, if any.
func noResults(doc *goquery.Document, p source.Profile) string {
	text := strings.ToLower(doc.Find("body").Text())
	for _, phrase := range p.NoResultsPhrases {
		if phrase != "" && strings.Contains(text, strings.ToLower(phrase)) {
			return phrase
		}
	}
	return ""
}

// firstArticleLink returns the first anchor on the page that resolves to an
// article URL of the source, made absolute against pageURL.
func firstArticleLink(doc *goquery.Document, pageURL string, p source.Profile) string {
	base, err := url.Parse(pageURL)
	if err != nil {
		return ""
	}
	var found string
	doc.Find("a[href]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		href, _ := s.Attr("href")
		ref, err := url.Parse(strings.TrimSpace(href))
		if err != nil {
			return true
		}
		abs := base.ResolveReference(ref)
		abs.Fragment = ""
		if p.IsArticleURL(abs.String()) {
			found = abs.String()
			return false
		}
		return true
	})
	return found
}
