package source

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// Mode selects how a source's HTML is turned into article text.
type Mode string

const (
	// ModeParagraphs collects paragraph-level text under a synthesized heading.
	ModeParagraphs Mode = "paragraphs"
	// ModeMarkdown converts the content root into structure-preserving Markdown.
	ModeMarkdown Mode = "markdown"
)

// Profile describes one knowledge source: where its articles live, how topics
// become article paths, and how its pages are judged.
type Profile struct {
	Name    string `yaml:"name" json:"name"`
	BaseURL string `yaml:"baseURL" json:"baseURL"`
	// PathPrefixes are tried in order; each must begin and end with '/'.
	PathPrefixes []string `yaml:"pathPrefixes" json:"pathPrefixes"`
	// Separators replace spaces inside a slug ("_" or "-").
	Separators []string `yaml:"separators" json:"separators"`
	// SearchPath is a path+query template where %s is the escaped topic.
	SearchPath       string   `yaml:"searchPath" json:"searchPath"`
	NoResultsPhrases []string `yaml:"noResultsPhrases" json:"noResultsPhrases"`
	// Floor is the minimum accepted body length in runes.
	Floor int  `yaml:"floor" json:"floor"`
	Mode  Mode `yaml:"mode" json:"mode"`
	// ContentSelectors name source-specific content containers, most specific first.
	ContentSelectors []string `yaml:"contentSelectors" json:"contentSelectors"`
	// Disclaimers are removed from extracted content in addition to the built-in phrase.
	Disclaimers []string `yaml:"disclaimers" json:"disclaimers"`
}

// Encyclopedia is the curated encyclopedic source. Articles are filed under
// several content-category prefixes and are served as static HTML.
func Encyclopedia() Profile {
	return Profile{
		Name:             "encyclopedia",
		BaseURL:          "https://www.britannica.com",
		PathPrefixes:     []string{"/topic/", "/science/", "/place/", "/biography/", "/event/", "/technology/"},
		Separators:       []string{"-"},
		SearchPath:       "/search?query=%s",
		NoResultsPhrases: []string{"no results found", "did not match any", "0 results"},
		Floor:            500,
		Mode:             ModeParagraphs,
		ContentSelectors: []string{".topic-content", ".article-content", "#content"},
	}
}

// Community is the community-edited source. Pages live under a single prefix
// and are hydrated client-side, so they are converted to Markdown.
func Community() Profile {
	return Profile{
		Name:             "community",
		BaseURL:          "https://grokipedia.com",
		PathPrefixes:     []string{"/page/"},
		Separators:       []string{"_"},
		SearchPath:       "/search?q=%s",
		NoResultsPhrases: []string{"no results", "no pages found", "nothing found"},
		Floor:            150,
		Mode:             ModeMarkdown,
		ContentSelectors: []string{"[data-content]", ".page-content", ".mw-parser-output", "#content"},
	}
}

// Builtin returns the built-in profiles keyed by name.
func Builtin() map[string]Profile {
	e, c := Encyclopedia(), Community()
	return map[string]Profile{e.Name: e, c.Name: c}
}

// Registry maps profile names to profiles.
type Registry map[string]Profile

// Lookup returns the named profile, case-insensitively.
func (r Registry) Lookup(name string) (Profile, bool) {
	p, ok := r[strings.ToLower(strings.TrimSpace(name))]
	return p, ok
}

// Names returns registered profile names in sorted order.
func (r Registry) Names() []string {
	out := make([]string, 0, len(r))
	for n := range r {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Merge overlays non-zero fields of override onto p.
func (p Profile) Merge(override Profile) Profile {
	if override.BaseURL != "" {
		p.BaseURL = override.BaseURL
	}
	if len(override.PathPrefixes) > 0 {
		p.PathPrefixes = override.PathPrefixes
	}
	if len(override.Separators) > 0 {
		p.Separators = override.Separators
	}
	if override.SearchPath != "" {
		p.SearchPath = override.SearchPath
	}
	if len(override.NoResultsPhrases) > 0 {
		p.NoResultsPhrases = override.NoResultsPhrases
	}
	if override.Floor > 0 {
		p.Floor = override.Floor
	}
	if override.Mode != "" {
		p.Mode = override.Mode
	}
	if len(override.ContentSelectors) > 0 {
		p.ContentSelectors = override.ContentSelectors
	}
	if len(override.Disclaimers) > 0 {
		p.Disclaimers = append(append([]string{}, p.Disclaimers...), override.Disclaimers...)
	}
	return p
}

// Validate reports configuration mistakes that would make candidate
// generation meaningless.
func (p Profile) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("profile: missing name")
	}
	u, err := url.Parse(p.BaseURL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("profile %s: invalid base url %q", p.Name, p.BaseURL)
	}
	if len(p.PathPrefixes) == 0 {
		return fmt.Errorf("profile %s: no path prefixes", p.Name)
	}
	for _, pre := range p.PathPrefixes {
		if !strings.HasPrefix(pre, "/") || !strings.HasSuffix(pre, "/") {
			return fmt.Errorf("profile %s: prefix %q must begin and end with '/'", p.Name, pre)
		}
	}
	if !strings.Contains(p.SearchPath, "%s") {
		return fmt.Errorf("profile %s: search path needs a %%s placeholder", p.Name)
	}
	switch p.Mode {
	case ModeParagraphs, ModeMarkdown:
	default:
		return fmt.Errorf("profile %s: unknown mode %q", p.Name, p.Mode)
	}
	return nil
}

// SearchURL returns the generic search/listing endpoint for topic.
func (p Profile) SearchURL(topic string) string {
	q := url.QueryEscape(strings.TrimSpace(topic))
	return strings.TrimRight(p.BaseURL, "/") + fmt.Sprintf(p.SearchPath, q)
}

// IsArticleURL reports whether raw points at an article on this source: same
// host, a path under one of the known prefixes, and something after it.
func (p Profile) IsArticleURL(raw string) bool {
	base, err := url.Parse(p.BaseURL)
	if err != nil {
		return false
	}
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	if u.Host != "" && !strings.EqualFold(u.Hostname(), base.Hostname()) {
		return false
	}
	for _, pre := range p.PathPrefixes {
		if strings.HasPrefix(u.Path, pre) && len(u.Path) > len(pre) {
			return true
		}
	}
	return false
}
