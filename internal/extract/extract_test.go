package extract

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

const lorem = "Lorem ipsum dolor sit amet, consectetur adipiscing elit, sed do eiusmod tempor incididunt ut labore et dolore magna aliqua."

func TestParagraphs_PrefersArticleAndSkipsNoise(t *testing.T) {
	html := `<!doctype html>
    <html>
      <head><title>Entanglement | Encyclopedia</title></head>
      <body>
        <nav><p>` + lorem + ` nav</p></nav>
        <main><p>Main paragraph that should lose to the article element because article ranks first.</p></main>
        <article>
          <h1>Quantum  entanglement</h1>
          <p>` + lorem + `</p>
          <p>Too short.</p>
          <div class="share-buttons"><p>` + lorem + ` share</p></div>
          <aside><p>` + lorem + ` aside</p></aside>
          <p>Second &amp; final paragraph, long enough to pass the fifty character minimum.</p>
        </article>
        <footer><p>` + lorem + ` footer</p></footer>
      </body>
    </html>`

	doc := Paragraphs([]byte(html), "hint", Options{})
	if doc.Title != "Quantum entanglement" {
		t.Fatalf("expected h1 title, got %q", doc.Title)
	}
	want := "# Quantum entanglement\n\n" + lorem + "\n\nSecond & final paragraph, long enough to pass the fifty character minimum."
	if diff := cmp.Diff(want, doc.Body); diff != "" {
		t.Fatalf("unexpected body (-want +got):\n%s", diff)
	}
}

func TestParagraphs_UsesHintWhenNoHeading(t *testing.T) {
	html := `<html><head><title>Site title</title></head><body><article><p>` + lorem + `</p></article></body></html>`
	doc := Paragraphs([]byte(html), "Chinese language", Options{})
	if !strings.HasPrefix(doc.Body, "# Chinese language\n\n") {
		t.Fatalf("expected heading from hint, got %q", doc.Body)
	}
}

func TestParagraphs_NamedContainer(t *testing.T) {
	html := `<html><body><div class="menu"><p>` + lorem + ` menu</p></div><div class="topic-content"><p>` + lorem + `</p></div></body></html>`
	doc := Paragraphs([]byte(html), "T", Options{ContentSelectors: []string{".topic-content"}})
	if strings.Contains(doc.Body, "menu") {
		t.Fatalf("expected named container to be the root, got %q", doc.Body)
	}
	if !strings.Contains(doc.Body, lorem) {
		t.Fatalf("expected container paragraph, got %q", doc.Body)
	}
}

func TestParagraphs_EmptyWhenNothingQualifies(t *testing.T) {
	doc := Paragraphs([]byte(`<html><body><article><p>short</p></article></body></html>`), "T", Options{})
	if doc.Body != "" {
		t.Fatalf("expected empty body, got %q", doc.Body)
	}
	if doc.Title != "T" {
		t.Fatalf("expected hint title, got %q", doc.Title)
	}
}

func TestMarkdown_ConvertsStructureInOrder(t *testing.T) {
	html := `<html><body><article>
      <h1>Title</h1>
      <p>See <a href="x">t</a> for more.</p>
      <p>This is <strong>important</strong> and <em>subtle</em>.</p>
      <ul><li>item</li></ul>
    </article></body></html>`
	doc := Markdown([]byte(html), "", Options{})
	idx := []int{
		strings.Index(doc.Body, "# "),
		strings.Index(doc.Body, "[t](x)"),
		strings.Index(doc.Body, "**"),
		strings.Index(doc.Body, "- "),
	}
	for i, v := range idx {
		if v < 0 {
			t.Fatalf("marker %d missing in %q", i, doc.Body)
		}
		if i > 0 && v <= idx[i-1] {
			t.Fatalf("marker %d out of order in %q", i, doc.Body)
		}
	}
	if !strings.HasPrefix(doc.Body, "# Title") {
		t.Fatalf("expected leading heading, got %q", doc.Body)
	}
	if !strings.Contains(doc.Body, "*subtle*") {
		t.Fatalf("expected emphasis, got %q", doc.Body)
	}
}

func TestMarkdown_RichElements(t *testing.T) {
	html := `<html><body><main>
      <h2>Overview</h2>
      <p>Intro &lt;tag&gt; text<img src="a.png" alt="diagram"></p>
      <blockquote><p>Quoted line</p></blockquote>
      <ol><li>one</li><li>two<ul><li>nested</li></ul></li></ol>
      <pre><code>func main() {
    println("hi")
}</code></pre>
      <p>Inline <code>x := 1</code> code.</p>
      <script>var x = 1;</script>
    </main></body></html>`
	doc := Markdown([]byte(html), "Topic", Options{})
	for _, want := range []string{
		"# Topic\n\n## Overview",
		"Intro <tag> textdiagram",
		"> Quoted line",
		"1. one",
		"2. two",
		"  - nested",
		"```\nfunc main() {\n    println(\"hi\")\n}\n```",
		"`x := 1`",
	} {
		if !strings.Contains(doc.Body, want) {
			t.Fatalf("expected %q in:\n%s", want, doc.Body)
		}
	}
	if strings.Contains(doc.Body, "var x") {
		t.Fatalf("script content leaked: %q", doc.Body)
	}
	if strings.Contains(doc.Body, "\n\n\n") {
		t.Fatalf("more than one blank line in %q", doc.Body)
	}
}

func TestMarkdown_EmptyRoot(t *testing.T) {
	doc := Markdown([]byte(`<html><body><nav>menu</nav></body></html>`), "T", Options{})
	if doc.Body != "" {
		t.Fatalf("expected empty body, got %q", doc.Body)
	}
}

func TestExtract_Deterministic(t *testing.T) {
	html := []byte(`<html><body><article><h1>A</h1><p>` + lorem + `</p><ul><li>` + lorem + `</li></ul></article></body></html>`)
	for _, ex := range []Extractor{ParagraphExtractor{}, MarkdownExtractor{}} {
		first := ex.Extract(html, "A")
		second := ex.Extract(html, "A")
		if diff := cmp.Diff(first, second); diff != "" {
			t.Fatalf("%T not deterministic:\n%s", ex, diff)
		}
	}
}

func TestSanitize_RemovesDisclaimerVariants(t *testing.T) {
	straight := strings.ReplaceAll(Disclaimer, "’", "'")
	in := "# T\n\nFirst. " + Disclaimer + "\n\n\n\n" + straight + "\n\n\nLast paragraph."
	out := Sanitize(in)
	if strings.Contains(out, Disclaimer) || strings.Contains(out, straight) {
		t.Fatalf("disclaimer survived: %q", out)
	}
	if strings.Contains(out, "\n\n\n") {
		t.Fatalf("more than one blank line: %q", out)
	}
	if out != "# T\n\nFirst.\n\nLast paragraph." {
		t.Fatalf("unexpected sanitize output: %q", out)
	}
}

func TestSanitize_ExtraPhrases(t *testing.T) {
	out := Sanitize("Body “quoted promo” end", "“quoted promo”")
	if out != "Body end" {
		t.Fatalf("unexpected: %q", out)
	}
	out = Sanitize(`Body "quoted promo" end`, "“quoted promo”")
	if out != "Body end" {
		t.Fatalf("straight variant not removed: %q", out)
	}
}

func TestIsNotFound(t *testing.T) {
	for _, s := range []string{"Page Not Found", "This topic DOES NOT EXIST here", "no Article Found.", "Error 404", "404"} {
		if !IsNotFound(s) {
			t.Fatalf("expected miss for %q", s)
		}
	}
	para := strings.Repeat("Lorem ipsum dolor sit amet consectetur. ", 15)
	if len(para) < 600 {
		t.Fatalf("fixture too short: %d", len(para))
	}
	if IsNotFound(para[:600]) {
		t.Fatalf("lorem ipsum misclassified")
	}
	if IsNotFound("Error 4040 and x404y") {
		t.Fatalf("404 must be a standalone token")
	}
}

func TestLooksMissing_OnlyInspectsHead(t *testing.T) {
	body := "# HTTP status codes\n\n" + strings.Repeat(lorem+" ", 5) + "The 404 code means not found."
	if LooksMissing(Document{Title: "HTTP status codes", Body: body}) {
		t.Fatalf("article mentioning 404 late should not be a miss")
	}
	if !LooksMissing(Document{Title: "Page not found", Body: body}) {
		t.Fatalf("expected miss by title")
	}
}

func TestMarkdown_NoiseMatchesWholeTokens(t *testing.T) {
	page := `<html><body class="modal-open"><div class="shared-layout">
<div class="cookie-banner">Accept cookies</div>
<section><h1>Gravity</h1><p>` + lorem + `</p></section></div></body></html>`
	doc := Markdown([]byte(page), "Gravity", Options{})
	if !strings.Contains(doc.Body, "Lorem ipsum") {
		t.Fatalf("wrapper dropped: %q", doc.Body)
	}
	if strings.Contains(doc.Body, "Accept cookies") {
		t.Fatalf("banner kept: %q", doc.Body)
	}
}

func TestNoiseVocabulary(t *testing.T) {
	tags, roles, tokens := NoiseVocabulary()
	if diff := cmp.Diff([]string{"complementary", "dialog", "navigation"}, roles); diff != "" {
		t.Fatalf("roles (-want +got):\n%s", diff)
	}
	has := func(list []string, v string) bool {
		for _, s := range list {
			if s == v {
				return true
			}
		}
		return false
	}
	if !has(tags, "nav") || !has(tokens, "cookie") || has(tokens, "shared") {
		t.Fatalf("unexpected vocabulary: %v %v", tags, tokens)
	}
}
