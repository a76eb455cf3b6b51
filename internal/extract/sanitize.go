package extract

import (
	"strings"
)

// Disclaimer is the boilerplate the encyclopedic source injects into stub
// articles. Its straight-quote variant is removed as well.
const Disclaimer = "This article’s content is generated from public sources and may not be complete."

var quoteStraightener = strings.NewReplacer("’", "'", "‘", "'", "“", `"`, "”", `"`)

// Sanitize removes the boilerplate disclaimer (curly and straight quote
// forms) and any extra phrases, then re-collapses blank-line runs so that no
// more than one blank line remains between blocks.
func Sanitize(text string, extra ...string) string {
	phrases := make([]string, 0, 2+2*len(extra))
	for _, p := range append([]string{Disclaimer}, extra...) {
		if strings.TrimSpace(p) == "" {
			continue
		}
		phrases = append(phrases, p)
		if straight := quoteStraightener.Replace(p); straight != p {
			phrases = append(phrases, straight)
		}
	}
	for _, p := range phrases {
		text = strings.ReplaceAll(text, " "+p, "")
		text = strings.ReplaceAll(text, p, "")
	}
	return collapseBlankLines(text)
}

// collapseBlankLines trims trailing whitespace on every line and keeps at
// most one consecutive blank line.
func collapseBlankLines(s string) string {
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimRight(line, " \t\r")
		if line == "" && len(out) > 0 && out[len(out)-1] == "" {
			continue
		}
		out = append(out, line)
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}
