package extract

import (
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

// Markdown converts the page's content root into Markdown. Headings,
// emphasis, links, image alt text, blockquotes, lists and code survive; all
// other markup is dropped. The result always starts with a top-level heading,
// synthesized from the title when the page has none.
func Markdown(input []byte, titleHint string, opts Options) Document {
	doc := parse(input)
	if doc == nil {
		return Document{Title: strings.TrimSpace(titleHint)}
	}
	title := pageTitle(doc, titleHint)
	root, _ := contentRoot(doc, opts.ContentSelectors)
	stripNoise(root)

	w := &mdWriter{}
	body := normalizeMarkdown(w.children(root))
	if body == "" {
		return Document{Title: title}
	}
	body = EnsureHeading(body, title)
	return Document{Title: title, Body: Sanitize(body, opts.Disclaimers...)}
}

// EnsureHeading prefixes body with "# title" unless it already starts with a
// top-level heading.
func EnsureHeading(body, title string) string {
	if strings.HasPrefix(body, "# ") {
		return body
	}
	if title == "" {
		title = "Untitled"
	}
	return "# " + title + "\n\n" + body
}

type mdWriter struct {
	listDepth int
}

func (w *mdWriter) children(n *html.Node) string {
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		b.WriteString(w.node(c))
	}
	return b.String()
}

func (w *mdWriter) node(n *html.Node) string {
	switch n.Type {
	case html.TextNode:
		return collapseSpaces(n.Data)
	case html.DocumentNode:
		return w.children(n)
	case html.ElementNode:
	default:
		return ""
	}
	if isNoise(n) {
		return ""
	}
	tag := strings.ToLower(n.Data)
	switch tag {
	case "head", "title", "meta", "link":
		return ""
	case "h1", "h2", "h3", "h4", "h5", "h6":
		text := strings.TrimSpace(collapseSpaces(w.children(n)))
		if text == "" {
			return ""
		}
		return "\n\n" + strings.Repeat("#", int(tag[1]-'0')) + " " + text + "\n\n"
	case "p", "section", "article", "header", "figure", "figcaption", "table", "dl":
		return "\n\n" + w.children(n) + "\n\n"
	case "div", "tr", "dt", "dd":
		return "\n" + w.children(n) + "\n"
	case "td", "th":
		return w.children(n) + " "
	case "br":
		return "\n"
	case "hr":
		return "\n\n---\n\n"
	case "strong", "b":
		return wrapInline(w.children(n), "**")
	case "em", "i":
		return wrapInline(w.children(n), "*")
	case "a":
		inner := w.children(n)
		text := strings.TrimSpace(inner)
		if text == "" {
			return ""
		}
		href := strings.TrimSpace(attr(n, "href"))
		if href == "" || strings.HasPrefix(strings.ToLower(href), "javascript:") {
			return inner
		}
		return keepOuterSpace(inner, "["+text+"]("+href+")")
	case "img":
		return strings.TrimSpace(attr(n, "alt"))
	case "pre":
		code := strings.Trim(textContent(n), "\n")
		if strings.TrimSpace(code) == "" {
			return ""
		}
		return "\n\n```\n" + code + "\n```\n\n"
	case "code", "kbd", "samp":
		text := textContent(n)
		if strings.TrimSpace(text) == "" {
			return ""
		}
		return "`" + strings.TrimSpace(text) + "`"
	case "blockquote":
		inner := normalizeMarkdown(w.children(n))
		if inner == "" {
			return ""
		}
		lines := strings.Split(inner, "\n")
		for i, l := range lines {
			if l == "" {
				lines[i] = ">"
			} else {
				lines[i] = "> " + l
			}
		}
		return "\n\n" + strings.Join(lines, "\n") + "\n\n"
	case "ul", "ol":
		return w.list(n, tag == "ol")
	case "li":
		// orphan item outside a list
		return "\n- " + strings.TrimSpace(w.children(n)) + "\n"
	}
	return w.children(n)
}

func (w *mdWriter) list(n *html.Node, ordered bool) string {
	w.listDepth++
	defer func() { w.listDepth-- }()
	indent := strings.Repeat("  ", w.listDepth-1)
	var items []string
	i := 0
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode || !strings.EqualFold(c.Data, "li") {
			continue
		}
		i++
		content := strings.TrimSpace(w.children(c))
		if content == "" {
			continue
		}
		content = blankLines.ReplaceAllString(content, "\n")
		marker := "- "
		if ordered {
			marker = fmt.Sprintf("%d. ", i)
		}
		items = append(items, indent+marker+content)
	}
	if len(items) == 0 {
		return ""
	}
	if w.listDepth > 1 {
		return "\n" + strings.Join(items, "\n") + "\n"
	}
	return "\n\n" + strings.Join(items, "\n") + "\n\n"
}

func wrapInline(inner, mark string) string {
	text := strings.TrimSpace(inner)
	if text == "" {
		return inner
	}
	return keepOuterSpace(inner, mark+text+mark)
}

// keepOuterSpace re-applies the leading/trailing space of inner around out.
func keepOuterSpace(inner, out string) string {
	if strings.HasPrefix(inner, " ") {
		out = " " + out
	}
	if strings.HasSuffix(inner, " ") {
		out += " "
	}
	return out
}

var (
	blankLines  = regexp.MustCompile(`\n\s*\n`)
	blankRuns   = regexp.MustCompile(`\n{3,}`)
	listLine    = regexp.MustCompile(`^( +)([-*] |\d+\. )(.*)$`)
	fenceMarker = "```"
)

// normalizeMarkdown trims line edges outside code fences, keeps list
// indentation, collapses space runs and limits blank lines to one.
func normalizeMarkdown(s string) string {
	lines := strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n")
	inFence := false
	for i, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), fenceMarker) {
			inFence = !inFence
			lines[i] = strings.TrimSpace(line)
			continue
		}
		if inFence {
			lines[i] = strings.TrimRight(line, " \t")
			continue
		}
		if m := listLine.FindStringSubmatch(line); m != nil {
			lines[i] = m[1] + m[2] + strings.TrimSpace(collapseSpaces(m[3]))
			continue
		}
		lines[i] = strings.TrimSpace(collapseSpaces(line))
	}
	out := strings.Join(lines, "\n")
	out = blankRuns.ReplaceAllString(out, "\n\n")
	return strings.TrimSpace(out)
}
