package library

import (
	"strings"

	"github.com/sosostris/german-english-bilingual-reader/pkg/types"
)

// Flatten renders a structured page as display text. The first page is
// prefixed with title and author. Drama texts render speaker names and
// stage directions on their own lines; all other genres are joined as
// prose. Paragraphs are separated by blank lines.
func Flatten(page *types.Page, meta *types.TextMetadata) string {
	var parts []string

	if page.Number == 0 && meta != nil {
		if meta.Title != "" {
			parts = append(parts, meta.Title)
		}
		if meta.Author != "" {
			parts = append(parts, meta.Author)
		}
		if len(parts) > 0 {
			parts = append(parts, "")
		}
	}

	drama := meta != nil && meta.IsDrama()

	for _, para := range page.Paragraphs {
		if drama {
			parts = append(parts, flattenDramaParagraph(para)...)
		} else {
			parts = append(parts, flattenProseParagraph(para))
		}
		parts = append(parts, "")
	}

	return strings.TrimSpace(strings.Join(parts, "\n"))
}

// flattenProseParagraph joins all sentences of a paragraph with spaces
func flattenProseParagraph(para types.Paragraph) string {
	texts := make([]string, 0, len(para.Sentences))
	for _, s := range para.Sentences {
		texts = append(texts, s.Text)
	}
	return strings.Join(texts, " ")
}

// flattenDramaParagraph renders speaker names and stage directions on
// their own lines and groups consecutive dialogue/narration sentences
func flattenDramaParagraph(para types.Paragraph) []string {
	var lines []string
	var run []string

	flush := func() {
		if len(run) > 0 {
			lines = append(lines, strings.Join(run, " "))
			run = nil
		}
	}

	for _, s := range para.Sentences {
		switch s.Type {
		case types.SentenceSpeakerName:
			flush()
			lines = append(lines, s.Text+":")
		case types.SentenceStageDirection:
			flush()
			lines = append(lines, s.Text)
		default:
			run = append(run, s.Text)
		}
	}
	flush()

	return lines
}
