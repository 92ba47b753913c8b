package library

import (
	"strings"
	"testing"

	"github.com/sosostris/german-english-bilingual-reader/pkg/types"
)

func TestFlatten_Prose(t *testing.T) {
	meta := &types.TextMetadata{Title: "Die Verwandlung", Author: "Franz Kafka", Genre: "novella"}
	page := &types.Page{
		Number: 1,
		Paragraphs: []types.Paragraph{
			{ID: 1, Sentences: []types.Sentence{
				{ID: 1, Text: "Erster Satz.", Type: types.SentenceNarration},
				{ID: 2, Text: "Zweiter Satz.", Type: types.SentenceNarration},
			}},
			{ID: 2, Sentences: []types.Sentence{
				{ID: 1, Text: "Neuer Absatz.", Type: types.SentenceNarration},
			}},
		},
	}

	got := Flatten(page, meta)
	want := "Erster Satz. Zweiter Satz.\n\nNeuer Absatz."
	if got != want {
		t.Errorf("Flatten = %q, want %q", got, want)
	}
}

func TestFlatten_FirstPageHeader(t *testing.T) {
	meta := &types.TextMetadata{Title: "Die Verwandlung", Author: "Franz Kafka"}
	page := &types.Page{
		Number: 0,
		Paragraphs: []types.Paragraph{
			{ID: 1, Sentences: []types.Sentence{
				{ID: 1, Text: "Erster Satz.", Type: types.SentenceNarration},
			}},
		},
	}

	got := Flatten(page, meta)
	if !strings.HasPrefix(got, "Die Verwandlung\nFranz Kafka\n") {
		t.Errorf("First page should be prefixed with title and author, got %q", got)
	}
}

func TestFlatten_Drama(t *testing.T) {
	meta := &types.TextMetadata{Title: "Faust", Genre: types.GenreDrama}
	page := &types.Page{
		Number: 1,
		Paragraphs: []types.Paragraph{
			{ID: 1, Sentences: []types.Sentence{
				{ID: 1, Text: "Nacht. In einem hochgewölbten Zimmer.", Type: types.SentenceStageDirection},
				{ID: 2, Text: "FAUST", Type: types.SentenceSpeakerName},
				{ID: 3, Text: "Habe nun, ach! Philosophie.", Type: types.SentenceDialogue, Speaker: "FAUST"},
				{ID: 4, Text: "Juristerei und Medizin.", Type: types.SentenceDialogue, Speaker: "FAUST"},
			}},
		},
	}

	got := Flatten(page, meta)
	want := "Nacht. In einem hochgewölbten Zimmer.\nFAUST:\nHabe nun, ach! Philosophie. Juristerei und Medizin."
	if got != want {
		t.Errorf("Flatten = %q, want %q", got, want)
	}
}
