package session

import (
	"github.com/sosostris/german-english-bilingual-reader/pkg/types"
)

// Highlight is the cross-language highlight pair. Either both locators
// are unset, or both point at the same paragraph/sentence index pair.
// The one exception is a click on the original pane while no
// translation is displayed, which highlights the original side alone;
// a translated-pane locator never outlives the translation it points
// into.
type Highlight struct {
	Original     *types.SentenceLocator `json:"original,omitempty"`
	Translated   *types.SentenceLocator `json:"translated,omitempty"`
	SentenceText string                 `json:"sentence_text,omitempty"` // original-language text of the highlighted sentence
}

func (h Highlight) copy() Highlight {
	out := Highlight{SentenceText: h.SentenceText}
	if h.Original != nil {
		loc := *h.Original
		out.Original = &loc
	}
	if h.Translated != nil {
		loc := *h.Translated
		out.Translated = &loc
	}
	return out
}

// ClickOriginal handles a click on a sentence of the original page.
// Locators that no longer resolve against the current page, typically
// because the page changed after the click was produced, are ignored.
func (s *Session) ClickOriginal(loc types.SentenceLocator) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.page == nil || !validLocator(s.page, loc) {
		return
	}
	s.applyHighlightLocked(loc)
}

// ClickTranslated handles a click on a sentence of the translated page.
// Because translations mirror the original's structure one-to-one, the
// same index pair identifies the counterpart sentence on both sides.
func (s *Session) ClickTranslated(loc types.SentenceLocator) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.translation == nil || s.page == nil {
		return
	}
	if !validTranslatedLocator(s.translation.Result.Page, loc) || !validLocator(s.page, loc) {
		return
	}
	s.applyHighlightLocked(loc)
}

// ClearHighlight unsets both sides of the highlight
func (s *Session) ClearHighlight() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clearHighlightLocked()
}

func (s *Session) applyHighlightLocked(loc types.SentenceLocator) {
	orig := loc
	h := Highlight{
		Original:     &orig,
		SentenceText: sentenceAt(s.page, loc),
	}
	// The translated side only lights up when a translation is on
	// display; without one there is no pane the locator could refer to
	if s.translation != nil {
		trans := loc
		h.Translated = &trans
	}
	s.highlight = h
}

func (s *Session) clearHighlightLocked() {
	s.highlight = Highlight{}
}

func validLocator(page *types.Page, loc types.SentenceLocator) bool {
	if loc.Paragraph < 0 || loc.Paragraph >= len(page.Paragraphs) {
		return false
	}
	return loc.Sentence >= 0 && loc.Sentence < len(page.Paragraphs[loc.Paragraph].Sentences)
}

func validTranslatedLocator(page types.TranslatedPage, loc types.SentenceLocator) bool {
	if loc.Paragraph < 0 || loc.Paragraph >= len(page.Paragraphs) {
		return false
	}
	return loc.Sentence >= 0 && loc.Sentence < len(page.Paragraphs[loc.Paragraph].Sentences)
}

func sentenceAt(page *types.Page, loc types.SentenceLocator) string {
	return page.Paragraphs[loc.Paragraph].Sentences[loc.Sentence].Text
}
