package extract

import "github.com/hyperifyio/goresolve/internal/source"

// Extractor converts raw HTML into a Document. Implementations are
// deterministic: identical input yields identical output.
type Extractor interface {
	Extract(input []byte, titleHint string) Document
}

// ParagraphExtractor collects plain paragraph text.
type ParagraphExtractor struct{ Options }

func (e ParagraphExtractor) Extract(input []byte, titleHint string) Document {
	return Paragraphs(input, titleHint, e.Options)
}

// MarkdownExtractor preserves document structure as Markdown.
type MarkdownExtractor struct{ Options }

func (e MarkdownExtractor) Extract(input []byte, titleHint string) Document {
	return Markdown(input, titleHint, e.Options)
}

// ForProfile returns the extractor matching the source's mode.
func ForProfile(p source.Profile) Extractor {
	opts := Options{
		ContentSelectors: p.ContentSelectors,
		Disclaimers:      p.Disclaimers,
		PageURL:          p.BaseURL,
	}
	if p.Mode == source.ModeMarkdown {
		return MarkdownExtractor{opts}
	}
	return ParagraphExtractor{opts}
}
