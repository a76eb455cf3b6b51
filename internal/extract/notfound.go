package extract

import (
	"regexp"
	"strings"
)

var notFoundPhrases = []string{"page not found", "does not exist", "no article found"}

var standalone404 = regexp.MustCompile(`\b404\b`)

// IsNotFound classifies text as a "no such article" page.
func IsNotFound(text string) bool {
	lower := strings.ToLower(text)
	for _, p := range notFoundPhrases {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return standalone404.MatchString(lower)
}

// headRunes is how much of a body is inspected when judging a whole page.
const headRunes = 300

// LooksMissing applies IsNotFound to a page's title and the head of its
// body. Articles that merely mention "404" further down are not rejected.
func LooksMissing(doc Document) bool {
	if IsNotFound(doc.Title) {
		return true
	}
	body := []rune(doc.Body)
	if len(body) > headRunes {
		body = body[:headRunes]
	}
	return IsNotFound(string(body))
}
