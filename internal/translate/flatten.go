package translate

import (
	"strings"

	"github.com/sosostris/german-english-bilingual-reader/pkg/types"
)

// Flatten renders a structured translation result as display text.
// Fragments of one sentence join with line breaks (they mirror the
// source's poetry lines); sentences join with spaces, paragraphs with
// blank lines. Translated title/author lead the first page. The source
// metadata selects the rendering mode, since translation results only
// carry metadata for the first page.
func Flatten(result *types.TranslationResult, meta *types.TextMetadata) string {
	var parts []string

	if result.Page.Number == 0 && result.Metadata != nil {
		if result.Metadata.Title != "" {
			parts = append(parts, result.Metadata.Title)
		}
		if result.Metadata.Author != "" {
			parts = append(parts, result.Metadata.Author)
		}
		if len(parts) > 0 {
			parts = append(parts, "")
		}
	}

	drama := meta != nil && meta.IsDrama()

	for _, para := range result.Page.Paragraphs {
		parts = append(parts, flattenParagraph(para, drama)...)
		parts = append(parts, "")
	}

	return strings.TrimSpace(strings.Join(parts, "\n"))
}

// FlattenSentence joins one translated sentence's fragments for display
func FlattenSentence(s types.TranslatedSentence) string {
	return strings.Join(s.Fragments, "\n")
}

func flattenParagraph(para types.TranslatedParagraph, drama bool) []string {
	var lines []string
	var run []string

	flush := func() {
		if len(run) > 0 {
			lines = append(lines, strings.Join(run, " "))
			run = nil
		}
	}

	for _, s := range para.Sentences {
		if drama {
			switch s.Type {
			case types.SentenceSpeakerName:
				flush()
				lines = append(lines, FlattenSentence(s)+":")
				continue
			case types.SentenceStageDirection:
				flush()
				lines = append(lines, FlattenSentence(s))
				continue
			}
		}
		run = append(run, FlattenSentence(s))
	}
	flush()

	return lines
}
