package extract

import (
	"bytes"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Document is the title and body extracted from a page, before it is folded
// into a resolution result.
type Document struct {
	Title string
	Body  string
}

// Options tune extraction for a particular source.
type Options struct {
	// ContentSelectors name source-specific content containers. They rank
	// below <article> and <main> and above <body>.
	ContentSelectors []string
	// Disclaimers are removed in addition to the built-in boilerplate phrase.
	Disclaimers []string
	// MinParagraph is the minimum paragraph length kept in paragraph mode.
	// Zero means 50.
	MinParagraph int
	// PageURL resolves relative references for the readability fallback.
	PageURL string
}

// Len returns the body length in runes, the unit acceptance floors use.
func (d Document) Len() int {
	return utf8.RuneCountInString(d.Body)
}

func parse(input []byte) *html.Node {
	node, err := html.Parse(bytes.NewReader(input))
	if err != nil {
		return nil
	}
	return node
}

// contentRoot picks the most specific content container. The boolean is
// false when nothing better than <body> (or the document) was found.
func contentRoot(doc *html.Node, selectors []string) (*html.Node, bool) {
	sel := goquery.NewDocumentFromNode(doc)
	order := append([]string{"article", "main", "[role=main]"}, selectors...)
	for _, q := range order {
		if s := sel.Find(q).First(); s.Length() > 0 {
			return s.Get(0), true
		}
	}
	if body := findFirst(doc, "body"); body != nil {
		return body, false
	}
	return doc, false
}

// pageTitle prefers the first <h1>, then the caller's hint, then <title>.
func pageTitle(doc *html.Node, hint string) string {
	if h1 := findFirst(doc, "h1"); h1 != nil {
		if t := collapseSpaces(strings.TrimSpace(textContent(h1))); t != "" {
			return t
		}
	}
	if h := strings.TrimSpace(hint); h != "" {
		return h
	}
	if head := findFirst(doc, "head"); head != nil {
		if t := findFirst(head, "title"); t != nil {
			return collapseSpaces(strings.TrimSpace(textContent(t)))
		}
	}
	return ""
}

func findFirst(n *html.Node, tag string) *html.Node {
	if n == nil {
		return nil
	}
	if n.Type == html.ElementNode && strings.EqualFold(n.Data, tag) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if res := findFirst(c, tag); res != nil {
			return res
		}
	}
	return nil
}

func textContent(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(cur *html.Node) {
		if cur.Type == html.TextNode {
			b.WriteString(cur.Data)
		}
		for c := cur.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, key) {
			return a.Val
		}
	}
	return ""
}

// noiseTags never carry article text.
var noiseTags = map[string]bool{
	"script": true, "style": true, "noscript": true, "template": true,
	"nav": true, "footer": true, "aside": true, "iframe": true,
	"form": true, "button": true, "svg": true, "select": true,
}

// noiseTokens are matched against whole id/class tokens so that "ad" hits
// "ad-slot" but not "header".
var noiseTokens = map[string]bool{
	"ad": true, "ads": true, "advert": true, "advertisement": true, "sponsor": true, "sponsored": true,
	"share": true, "sharing": true, "social": true,
	"cookie": true, "cookies": true, "consent": true, "gdpr": true,
	"newsletter": true, "promo": true, "modal": true, "popup": true,
	"navbox": true, "toc": true,
}

// noiseRoles are ARIA roles of page chrome.
var noiseRoles = map[string]bool{"navigation": true, "dialog": true, "complementary": true}

// NoiseVocabulary returns the sorted tag names, ARIA roles and id/class
// tokens that mark an element as noise, for filtering a live DOM the same way.
func NoiseVocabulary() (tags, roles, idClassTokens []string) {
	return sortedKeys(noiseTags), sortedKeys(noiseRoles), sortedKeys(noiseTokens)
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// isNoise reports whether the element is navigation, chrome, an ad or a
// cookie/consent/share/modal container.
func isNoise(n *html.Node) bool {
	if n == nil || n.Type != html.ElementNode {
		return false
	}
	if noiseTags[strings.ToLower(n.Data)] {
		return true
	}
	for _, a := range n.Attr {
		key := strings.ToLower(a.Key)
		switch {
		case key == "role":
			if noiseRoles[strings.ToLower(a.Val)] {
				return true
			}
		case key == "id" || key == "class":
			for _, tok := range tokens(a.Val) {
				if noiseTokens[tok] {
					return true
				}
			}
		}
	}
	return false
}

func tokens(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9')
	})
}

// stripNoise detaches every noisy descendant of root.
func stripNoise(root *html.Node) {
	var doomed []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if isNoise(c) {
				doomed = append(doomed, c)
				continue
			}
			walk(c)
		}
	}
	walk(root)
	for _, n := range doomed {
		n.Parent.RemoveChild(n)
	}
}

func collapseSpaces(s string) string {
	var b strings.Builder
	lastSpace := false
	for _, r := range s {
		if r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == '\u00a0' {
			if !lastSpace {
				b.WriteByte(' ')
				lastSpace = true
			}
			continue
		}
		b.WriteRune(r)
		lastSpace = false
	}
	return b.String()
}
