package source

import (
	"errors"
	"net/url"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// ErrInvalidInput is returned for a missing or blank topic.
var ErrInvalidInput = errors.New("invalid input: empty topic")

// Candidates derives the ordered list of article URLs to probe for topic.
// For each path prefix and separator it emits the verbatim slug, the
// lowercase slug and the title-case slug; the raw topic is appended as the
// final probe for each prefix. Duplicates keep their first position. A
// profile without prefixes probes the site root.
func (p Profile) Candidates(topic string) ([]string, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return nil, ErrInvalidInput
	}
	base := strings.TrimRight(p.BaseURL, "/")
	seps := p.Separators
	if len(seps) == 0 {
		seps = []string{"_"}
	}
	prefixes := p.PathPrefixes
	if len(prefixes) == 0 {
		prefixes = []string{"/"}
	}
	words := strings.Fields(topic)

	seen := make(map[string]struct{})
	out := make([]string, 0, len(prefixes)*(len(seps)*3+1))
	add := func(u string) {
		if _, ok := seen[u]; ok {
			return
		}
		seen[u] = struct{}{}
		out = append(out, u)
	}

	for _, pre := range prefixes {
		for _, sep := range seps {
			verbatim := strings.Join(words, sep)
			for _, slug := range []string{
				verbatim,
				strings.ToLower(verbatim),
				strings.Join(strings.Fields(cases.Title(language.Und).String(topic)), sep),
			} {
				add(base + pre + url.PathEscape(slug))
			}
		}
	}
	for _, pre := range prefixes {
		add(base + pre + url.PathEscape(topic))
	}
	return out, nil
}
