// Package lookup turns raw text selections into debounced dictionary
// lookups and renders the resulting entries for display.
package lookup

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sosostris/german-english-bilingual-reader/internal/provider"
	"github.com/yuin/goldmark"
)

// Region identifies where in the reading surface a selection happened.
// Only selections inside the original text feed the dictionary; the
// translation pane and controls never trigger lookups.
type Region string

const (
	// RegionOriginal is the original-language text pane
	RegionOriginal Region = "original"
	// RegionTranslation is the translated text pane
	RegionTranslation Region = "translation"
	// RegionControls covers toolbars, navigation and other chrome
	RegionControls Region = "controls"
)

// Selection is one observed selection change
type Selection struct {
	Region Region
	Text   string
}

// Entry is a rendered dictionary entry
type Entry struct {
	Word       string `json:"word"`
	Definition string `json:"definition"` // provider markdown
	HTML       string `json:"html"`       // definition rendered for display
	Provider   string `json:"provider"`
}

// State is the displayable lookup panel state
type State struct {
	Entry   *Entry `json:"entry,omitempty"`
	Pending string `json:"pending,omitempty"` // word currently being looked up, empty when idle
}

// LLMSource resolves the active language-model provider
type LLMSource interface {
	CurrentLLM() (provider.LLM, error)
}

// ContextSource supplies the sentence or page context a lookup is
// grounded in
type ContextSource interface {
	LookupContext(maxChars int) string
}

// Bridge debounces selection events into dictionary lookups. Rapid
// selection changes reset the timer so only the final word is looked
// up; clearing the selection dismisses the entry after a short grace
// period, which a new selection cancels.
type Bridge struct {
	llms     LLMSource
	source   ContextSource
	markdown goldmark.Markdown
	log      *logrus.Entry

	debounce     time.Duration
	grace        time.Duration
	contextChars int

	mu           sync.Mutex
	entry        *Entry
	pending      string
	seq          uint64
	lookupTimer  *time.Timer
	dismissTimer *time.Timer
}

// NewBridge creates a bridge with the given debounce and dismissal
// grace periods
func NewBridge(llms LLMSource, source ContextSource, debounce, grace time.Duration, contextChars int, log *logrus.Logger) *Bridge {
	if log == nil {
		log = logrus.New()
	}
	return &Bridge{
		llms:         llms,
		source:       source,
		markdown:     goldmark.New(),
		log:          log.WithField("component", "lookup"),
		debounce:     debounce,
		grace:        grace,
		contextChars: contextChars,
	}
}

// Observe processes one selection change. Selections outside the
// original text pane are ignored.
func (b *Bridge) Observe(ctx context.Context, sel Selection) {
	if sel.Region != RegionOriginal {
		return
	}

	word := strings.TrimSpace(sel.Text)

	b.mu.Lock()
	defer b.mu.Unlock()

	if word == "" {
		b.scheduleDismissLocked()
		return
	}

	b.cancelDismissLocked()
	if b.lookupTimer != nil {
		b.lookupTimer.Stop()
	}

	b.seq++
	seq := b.seq
	b.pending = word
	b.lookupTimer = time.AfterFunc(b.debounce, func() {
		b.lookup(ctx, word, seq)
	})
}

// lookup runs after the debounce window closes. The sequence check
// drops results the user has already selected past.
func (b *Bridge) lookup(ctx context.Context, word string, seq uint64) {
	llm, err := b.llms.CurrentLLM()
	if err != nil {
		b.log.Warnf("No provider for lookup of %q: %v", word, err)
		b.finish(seq, nil)
		return
	}

	var sentence string
	if b.source != nil {
		sentence = b.source.LookupContext(b.contextChars)
	}

	resp, err := llm.Lookup(ctx, provider.LookupRequest{Word: word, Context: sentence})
	if err != nil {
		b.log.Warnf("Lookup of %q failed: %v", word, err)
		b.finish(seq, nil)
		return
	}

	entry := &Entry{
		Word:       word,
		Definition: resp.Definition,
		HTML:       b.render(resp.Definition),
		Provider:   resp.Provider,
	}
	b.finish(seq, entry)
}

func (b *Bridge) finish(seq uint64, entry *Entry) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if seq != b.seq {
		return
	}
	b.pending = ""
	if entry != nil {
		b.entry = entry
	}
}

// render converts provider markdown to HTML. On conversion failure the
// raw definition text is returned.
func (b *Bridge) render(definition string) string {
	var buf bytes.Buffer
	if err := b.markdown.Convert([]byte(definition), &buf); err != nil {
		b.log.Warnf("Markdown rendering failed: %v", err)
		return definition
	}
	return buf.String()
}

// scheduleDismissLocked arms the dismissal timer. An already armed
// timer keeps its deadline.
func (b *Bridge) scheduleDismissLocked() {
	if b.dismissTimer != nil {
		return
	}

	// Invalidate any in-flight lookup; an empty selection means the
	// user let go of the word
	b.seq++
	b.pending = ""
	if b.lookupTimer != nil {
		b.lookupTimer.Stop()
		b.lookupTimer = nil
	}

	b.dismissTimer = time.AfterFunc(b.grace, func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		b.dismissTimer = nil
		b.entry = nil
	})
}

func (b *Bridge) cancelDismissLocked() {
	if b.dismissTimer != nil {
		b.dismissTimer.Stop()
		b.dismissTimer = nil
	}
}

// State returns the current panel state
func (b *Bridge) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()

	var entry *Entry
	if b.entry != nil {
		copied := *b.entry
		entry = &copied
	}
	return State{Entry: entry, Pending: b.pending}
}

// Close stops all timers
func (b *Bridge) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.seq++
	if b.lookupTimer != nil {
		b.lookupTimer.Stop()
		b.lookupTimer = nil
	}
	b.cancelDismissLocked()
}
