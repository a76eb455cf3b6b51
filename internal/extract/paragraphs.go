package extract

import (
	"bytes"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
	"golang.org/x/net/html"
)

// Paragraphs extracts plain paragraph text. Paragraphs whose decoded,
// whitespace-collapsed text is longer than the minimum are joined with blank
// lines under a "# Title" heading. The body is empty when no paragraph
// qualifies.
func Paragraphs(input []byte, titleHint string, opts Options) Document {
	doc := parse(input)
	if doc == nil {
		return Document{Title: strings.TrimSpace(titleHint)}
	}
	title := pageTitle(doc, titleHint)

	root, specific := contentRoot(doc, opts.ContentSelectors)
	if !specific {
		if r := readabilityRoot(input, opts.PageURL); r != nil {
			root = r
		}
	}
	stripNoise(root)

	min := opts.MinParagraph
	if min <= 0 {
		min = 50
	}
	var paras []string
	goquery.NewDocumentFromNode(root).Find("p").Each(func(_ int, s *goquery.Selection) {
		text := strings.TrimSpace(collapseSpaces(s.Text()))
		if utf8.RuneCountInString(text) > min {
			paras = append(paras, text)
		}
	})
	if len(paras) == 0 {
		return Document{Title: title}
	}
	body := "# " + title + "\n\n" + strings.Join(paras, "\n\n")
	return Document{Title: title, Body: Sanitize(body, opts.Disclaimers...)}
}

// readabilityRoot asks go-readability for the main content when the page has
// no recognizable container. It returns nil when readability finds nothing.
func readabilityRoot(input []byte, pageURL string) *html.Node {
	u, err := url.Parse(pageURL)
	if err != nil || pageURL == "" {
		u = &url.URL{Scheme: "https", Host: "localhost", Path: "/"}
	}
	article, err := readability.FromReader(bytes.NewReader(input), u)
	if err != nil || strings.TrimSpace(article.Content) == "" {
		return nil
	}
	frag := parse([]byte(article.Content))
	if frag == nil {
		return nil
	}
	return findFirst(frag, "body")
}
