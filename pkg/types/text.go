package types

// Genre values with special handling. Every genre other than drama is
// rendered and flattened as prose.
const GenreDrama = "drama"

// SentenceType classifies a sentence within a page
type SentenceType string

const (
	SentenceDialogue       SentenceType = "dialogue"
	SentenceStageDirection SentenceType = "stage_direction"
	SentenceNarration      SentenceType = "narration"
	SentenceSpeakerName    SentenceType = "speaker_name"
)

// TextMetadata describes a text in the library. Immutable once loaded.
type TextMetadata struct {
	ID                   string `json:"id"`
	Title                string `json:"title"`
	Author               string `json:"author"`
	Description          string `json:"description,omitempty"`
	Year                 int    `json:"year,omitempty"`
	Genre                string `json:"genre,omitempty"`
	Difficulty           string `json:"difficulty,omitempty"`
	EstimatedReadingTime string `json:"estimated_reading_time,omitempty"`
	TotalPages           int    `json:"total_pages"`
}

// IsDrama reports whether the text uses the drama rendering mode
func (m *TextMetadata) IsDrama() bool {
	return m.Genre == GenreDrama
}

// Page is one page of a text: an ordered sequence of paragraphs.
// Pages are 0-indexed internally and 1-indexed in file names and display.
type Page struct {
	Number     int         `json:"page_number"`
	Paragraphs []Paragraph `json:"paragraphs"`
}

// Paragraph carries a stable numeric identifier, unique within a text but
// not necessarily contiguous across pages
type Paragraph struct {
	ID        int        `json:"id"`
	Sentences []Sentence `json:"sentences"`
}

// Sentence is the unit of highlighting, playback and translation.
// Immutable once loaded.
type Sentence struct {
	ID      int          `json:"id"`
	Text    string       `json:"text"`
	Type    SentenceType `json:"type"`
	Speaker string       `json:"speaker,omitempty"` // set for dialogue in drama texts
}

// SentenceLocator is an index pair into the currently loaded page's
// paragraph/sentence slices. It is NOT a stable identifier: it is only
// valid while that exact page object is loaded and must be discarded on
// every page or text change.
type SentenceLocator struct {
	Paragraph int `json:"paragraph_index"`
	Sentence  int `json:"sentence_index"`
}

// SentenceLocation addresses a sentence by stable identifiers. Synthesis
// backends key their audio caches on it, so repeat playback of the same
// sentence can be served without a second request.
type SentenceLocation struct {
	TextID      string `json:"text_id"`
	Page        int    `json:"page"`
	ParagraphID int    `json:"paragraph_id"`
	SentenceID  int    `json:"sentence_id"`
}

// TranslatedSentence holds the translation fragments for one original
// sentence. A single source sentence may map to multiple output lines
// (poetry line breaks), hence the slice.
type TranslatedSentence struct {
	ID        int          `json:"id"`
	Fragments []string     `json:"english_translation"`
	Type      SentenceType `json:"type"`
	Speaker   string       `json:"speaker,omitempty"`
}

// TranslatedParagraph mirrors a source paragraph position for position
type TranslatedParagraph struct {
	ID        int                  `json:"id"`
	Sentences []TranslatedSentence `json:"sentences"`
}

// TranslatedPage mirrors the source page structure one-to-one
type TranslatedPage struct {
	Number     int                   `json:"page_number"`
	Paragraphs []TranslatedParagraph `json:"paragraphs"`
}

// TranslatedMetadata carries the translated title/author plus fields
// passed through untranslated, shown alongside the first page
type TranslatedMetadata struct {
	Title       string `json:"title"`
	Author      string `json:"author"`
	Description string `json:"description,omitempty"`
	Genre       string `json:"genre,omitempty"`
}

// TranslationResult is a complete structured translation of one page
type TranslationResult struct {
	Provider string              `json:"provider"`
	Page     TranslatedPage      `json:"page_data"`
	Metadata *TranslatedMetadata `json:"metadata,omitempty"`
}

// PageData bundles everything a page fetch returns
type PageData struct {
	TextID     string        `json:"text_id"`
	Page       *Page         `json:"page"`
	Metadata   *TextMetadata `json:"metadata"`
	TotalPages int           `json:"total_pages"`
}

// Voice describes a synthesis voice
type Voice struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Language string `json:"language,omitempty"` // ISO-639-1 code
	Gender   string `json:"gender,omitempty"`
}
