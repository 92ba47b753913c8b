// Package session implements the reading-session core: one orchestrator
// per reader composing page data, translation state, the cross-language
// highlight and audio playback into a single consistent snapshot.
package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/sosostris/german-english-bilingual-reader/internal/library"
	"github.com/sosostris/german-english-bilingual-reader/internal/playback"
	"github.com/sosostris/german-english-bilingual-reader/internal/provider"
	"github.com/sosostris/german-english-bilingual-reader/internal/translate"
	"github.com/sosostris/german-english-bilingual-reader/pkg/types"
)

// Pages is the page-fetch collaborator (a narrow view of the library)
type Pages interface {
	GetPage(ctx context.Context, textID string, page int) (*types.PageData, error)
}

// LLMSource resolves the active language-model provider
type LLMSource interface {
	CurrentLLM() (provider.LLM, error)
}

// ChatTurn is one entry of the session transcript
type ChatTurn struct {
	Role     string `json:"role"` // "user" or "assistant"
	Content  string `json:"content"`
	Provider string `json:"provider,omitempty"`
}

// Snapshot is an atomic view of the session state. Display surfaces
// render exclusively from snapshots; partial updates are never
// observable.
type Snapshot struct {
	TextID             string
	Page               *types.Page
	Metadata           *types.TextMetadata
	TotalPages         int
	PageText           string // flattened original page
	Translation        *translate.Entry
	TranslationError   string
	TranslationPending bool
	Highlight          Highlight
	Transcript         []ChatTurn
}

// Session is the orchestrator: the single owner of cross-cutting
// session state. All mutation happens behind its mutex; async fetch
// results are generation-checked so a stale response can never
// overwrite newer state.
type Session struct {
	id       string
	pages    Pages
	llms     LLMSource
	cache    *translate.Cache
	playback *playback.Controller
	log      *logrus.Entry

	mu             sync.Mutex
	textID         string
	page           *types.Page
	metadata       *types.TextMetadata
	totalPages     int
	pageText       string
	translation    *translate.Entry
	translationErr string
	translating    bool
	highlight      Highlight
	transcript     []ChatTurn

	// generation increments on every text/page change; in-flight fetch
	// results carrying an older generation are discarded
	generation uint64
}

// New creates a session over the given collaborators. The playback
// controller may be nil when audio is not wired (tests).
func New(pages Pages, llms LLMSource, cache *translate.Cache, pb *playback.Controller, log *logrus.Logger) *Session {
	if log == nil {
		log = logrus.New()
	}
	id := uuid.NewString()
	return &Session{
		id:       id,
		pages:    pages,
		llms:     llms,
		cache:    cache,
		playback: pb,
		log:      log.WithField("session", id),
	}
}

// ID returns the session identifier
func (s *Session) ID() string {
	return s.id
}

// Playback exposes the session's playback controller
func (s *Session) Playback() *playback.Controller {
	return s.playback
}

// SelectText makes the given text active, resets to page 0, clears the
// chat transcript, highlight and translation display, and loads the
// first page. The translation cache is consulted on the load but never
// cleared.
func (s *Session) SelectText(ctx context.Context, textID string) error {
	s.mu.Lock()
	s.generation++
	gen := s.generation
	s.textID = textID
	s.page = nil
	s.metadata = nil
	s.totalPages = 0
	s.pageText = ""
	s.clearTranslationLocked()
	s.clearHighlightLocked()
	s.transcript = nil
	s.mu.Unlock()

	return s.fetchPage(ctx, textID, 0, gen)
}

// SetPage navigates to page n of the active text. Out-of-range page
// numbers are a no-op. The highlight is always cleared before the fetch
// is issued; the translation display is repopulated from the cache when
// an entry for (text, n) exists.
func (s *Session) SetPage(ctx context.Context, n int) error {
	s.mu.Lock()
	if s.textID == "" {
		s.mu.Unlock()
		return fmt.Errorf("no text selected")
	}
	if s.totalPages > 0 && (n < 0 || n >= s.totalPages) {
		s.log.Warnf("Ignoring out-of-range page %d (total %d)", n, s.totalPages)
		s.mu.Unlock()
		return nil
	}

	// Resets apply synchronously, before the fetch goes out, so a
	// late-arriving stale response can never resurrect old state
	s.generation++
	gen := s.generation
	textID := s.textID
	s.clearTranslationLocked()
	s.clearHighlightLocked()
	s.mu.Unlock()

	return s.fetchPage(ctx, textID, n, gen)
}

// fetchPage loads a page without holding the lock and applies the
// result only if the session has not moved on
func (s *Session) fetchPage(ctx context.Context, textID string, n int, gen uint64) error {
	data, err := s.pages.GetPage(ctx, textID, n)
	if err != nil {
		s.log.Warnf("Page fetch failed for %s page %d: %v", textID, n, err)
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.generation {
		s.log.Debugf("Discarding stale page fetch for %s page %d", textID, n)
		return nil
	}

	s.page = data.Page
	s.metadata = data.Metadata
	s.totalPages = data.TotalPages
	s.pageText = library.Flatten(data.Page, data.Metadata)

	// Serve a previously fetched translation without a new network call
	if entry := s.cache.Get(translate.Key{TextID: textID, Page: n}); entry != nil {
		s.translation = entry
	}

	return nil
}

// RequestTranslation translates the currently loaded page. The call is
// ignored when no page is loaded or a translation is already in flight.
// A successful result updates the display and writes through to the
// cache, superseding any prior entry for the key; a failure surfaces as
// an inline message and leaves the cache untouched.
func (s *Session) RequestTranslation(ctx context.Context) error {
	s.mu.Lock()
	if s.page == nil || s.translating {
		s.mu.Unlock()
		return nil
	}
	s.translating = true
	s.clearTranslationLocked()
	s.clearHighlightLocked()
	gen := s.generation
	textID := s.textID
	page := s.page
	srcMeta := s.metadata
	// Title and author are only displayed (and translated) with the
	// first page
	metadata := srcMeta
	if page.Number != 0 {
		metadata = nil
	}
	s.mu.Unlock()

	llm, err := s.llms.CurrentLLM()
	if err != nil {
		s.finishTranslation(gen, nil, "No translation provider available")
		return err
	}

	result, err := llm.Translate(ctx, provider.TranslateRequest{
		TextID:   textID,
		Page:     page,
		Metadata: metadata,
	})
	if err != nil {
		s.log.Warnf("Translation failed for %s page %d: %v", textID, page.Number, err)
		s.finishTranslation(gen, nil, "Translation failed. Please try again.")
		return err
	}

	entry := &translate.Entry{
		Flattened: translate.Flatten(result, srcMeta),
		Result:    result,
	}

	key := translate.Key{TextID: textID, Page: page.Number}
	applied := s.finishTranslation(gen, entry, "")
	if applied {
		// Write-through happens only for results that are still
		// current; a stale translation must not clobber the cache
		// entry of the page now displayed elsewhere under this key
		s.cache.Put(key, entry)
	}
	return nil
}

// finishTranslation clears the in-flight flag and applies the outcome
// if the session generation still matches. Returns whether the outcome
// was applied.
func (s *Session) finishTranslation(gen uint64, entry *translate.Entry, failure string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.translating = false
	if gen != s.generation {
		s.log.Debugf("Discarding stale translation result")
		return false
	}

	if failure != "" {
		s.translation = nil
		s.translationErr = failure
		return false
	}
	s.translation = entry
	s.translationErr = ""
	return true
}

// Chat asks the assistant a question grounded in the current page and
// appends both turns to the session transcript
func (s *Session) Chat(ctx context.Context, question string) (*provider.ChatResponse, error) {
	llm, err := s.llms.CurrentLLM()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	pageContext := s.pageText
	s.mu.Unlock()

	resp, err := llm.Chat(ctx, provider.ChatRequest{Question: question, Context: pageContext})
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.transcript = append(s.transcript,
		ChatTurn{Role: "user", Content: question},
		ChatTurn{Role: "assistant", Content: resp.Response, Provider: resp.Provider},
	)
	s.mu.Unlock()

	return resp, nil
}

// LookupContext returns the context string for a dictionary lookup: the
// highlighted sentence's text when one is set, otherwise a bounded
// prefix of the flattened page
func (s *Session) LookupContext(maxChars int) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.highlight.SentenceText != "" {
		return s.highlight.SentenceText
	}
	if maxChars > 0 && len(s.pageText) > maxChars {
		return s.pageText[:maxChars]
	}
	return s.pageText
}

// SpeakHighlighted speaks the currently highlighted sentence, if any
func (s *Session) SpeakHighlighted(ctx context.Context, opts playback.Options) (*playback.Result, error) {
	if s.playback == nil {
		return nil, fmt.Errorf("playback not configured")
	}

	s.mu.Lock()
	text := s.highlight.SentenceText
	loc, ok := s.highlightLocationLocked()
	s.mu.Unlock()

	if !ok || text == "" {
		return nil, fmt.Errorf("no sentence highlighted")
	}
	return s.playback.Speak(ctx, text, loc, opts)
}

// highlightLocationLocked resolves the stable location of the
// highlighted sentence for the playback backend's audio cache
func (s *Session) highlightLocationLocked() (types.SentenceLocation, bool) {
	loc := s.highlight.Original
	if loc == nil || s.page == nil {
		return types.SentenceLocation{}, false
	}
	if !validLocator(s.page, *loc) {
		return types.SentenceLocation{}, false
	}
	para := s.page.Paragraphs[loc.Paragraph]
	return types.SentenceLocation{
		TextID:      s.textID,
		Page:        s.page.Number,
		ParagraphID: para.ID,
		SentenceID:  para.Sentences[loc.Sentence].ID,
	}, true
}

// Snapshot returns an atomic copy of the current session state
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	transcript := make([]ChatTurn, len(s.transcript))
	copy(transcript, s.transcript)

	return Snapshot{
		TextID:             s.textID,
		Page:               s.page,
		Metadata:           s.metadata,
		TotalPages:         s.totalPages,
		PageText:           s.pageText,
		Translation:        s.translation,
		TranslationError:   s.translationErr,
		TranslationPending: s.translating,
		Highlight:          s.highlight.copy(),
		Transcript:         transcript,
	}
}

// Close releases session resources, stopping any active playback
func (s *Session) Close() {
	if s.playback != nil {
		s.playback.Stop()
	}
}

func (s *Session) clearTranslationLocked() {
	s.translation = nil
	s.translationErr = ""
}
