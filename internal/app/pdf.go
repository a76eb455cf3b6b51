package app

import (
	"bufio"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"github.com/hyperifyio/goresolve/internal/resolve"
)

var (
	linkRe     = regexp.MustCompile(`\[([^\]]+)\]\(([^)]+)\)`)
	emphasisRe = regexp.MustCompile(`\*{1,2}([^*]+)\*{1,2}`)
)

// WritePDF renders a resolved article as a simple PDF: headings, paragraphs,
// list items and clickable links, followed by a source line. It does not
// attempt full Markdown layout.
func WritePDF(res resolve.Result, outPath string) error {
	if res.NotFound {
		return fmt.Errorf("no content to export for %q", res.Title)
	}
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle(tr(res.Title), false)
	pdf.SetFont("Helvetica", "", 11)
	pdf.AddPage()

	scanner := bufio.NewScanner(strings.NewReader(res.Content))
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	inFence := false
	for scanner.Scan() {
		s := strings.TrimSpace(scanner.Text())
		if strings.HasPrefix(s, "```") {
			inFence = !inFence
			continue
		}
		if inFence {
			pdf.SetFont("Courier", "", 9)
			pdf.MultiCell(0, 4, tr(scanner.Text()), "", "L", false)
			pdf.SetFont("Helvetica", "", 11)
			continue
		}
		if s == "" {
			pdf.Ln(3)
			continue
		}
		if strings.HasPrefix(s, "#") {
			level := len(s) - len(strings.TrimLeft(s, "#"))
			text := strings.TrimSpace(s[level:])
			if text == "" {
				continue
			}
			size := 16.0
			switch {
			case level == 2:
				size = 13
			case level > 2:
				size = 11.5
			}
			pdf.SetFont("Helvetica", "B", size)
			pdf.MultiCell(0, 8, tr(text), "", "L", false)
			pdf.SetFont("Helvetica", "", 11)
			continue
		}
		if strings.HasPrefix(s, "> ") || s == ">" {
			s = strings.TrimSpace(strings.TrimPrefix(s, ">"))
			pdf.SetFont("Helvetica", "I", 11)
			writeInline(pdf, tr, s)
			pdf.SetFont("Helvetica", "", 11)
			continue
		}
		if strings.HasPrefix(s, "- ") || strings.HasPrefix(s, "* ") {
			s = "• " + s[2:]
		}
		writeInline(pdf, tr, s)
	}
	if err := scanner.Err(); err != nil {
		return err
	}

	if res.SourceURL != "" {
		pdf.Ln(6)
		pdf.SetFont("Helvetica", "I", 9)
		pdf.Write(5, tr("Source: "))
		pdf.WriteLinkString(5, res.SourceURL, res.SourceURL)
		pdf.Ln(5)
	}
	return pdf.OutputFileAndClose(outPath)
}

// writeInline writes one line, turning Markdown links into PDF links.
func writeInline(pdf *gofpdf.Fpdf, tr func(string) string, s string) {
	s = emphasisRe.ReplaceAllString(s, "$1")
	parts := linkRe.FindAllStringSubmatchIndex(s, -1)
	if len(parts) == 0 {
		pdf.MultiCell(0, 5, tr(s), "", "L", false)
		return
	}
	pos := 0
	for _, m := range parts {
		if m[0] > pos {
			pdf.Write(5, tr(s[pos:m[0]]))
		}
		text, url := s[m[2]:m[3]], s[m[4]:m[5]]
		if strings.HasPrefix(url, "http://") || strings.HasPrefix(url, "https://") {
			pdf.WriteLinkString(5, tr(text), url)
		} else {
			pdf.Write(5, tr(text))
		}
		pos = m[1]
	}
	if pos < len(s) {
		pdf.Write(5, tr(s[pos:]))
	}
	pdf.Ln(6)
}

// WriteMarkdown writes the article body followed by a source line.
func WriteMarkdown(res resolve.Result, outPath string) error {
	if res.NotFound {
		return fmt.Errorf("no content to export for %q", res.Title)
	}
	var b strings.Builder
	b.WriteString(strings.TrimSpace(res.Content))
	b.WriteString("\n")
	if res.SourceURL != "" {
		fmt.Fprintf(&b, "\n---\n\nSource: <%s> (%s)\n", res.SourceURL, res.StrategyUsed)
	}
	return os.WriteFile(outPath, []byte(b.String()), 0o644)
}
