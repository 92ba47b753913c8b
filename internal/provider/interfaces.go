package provider

import (
	"context"
	"errors"

	"github.com/sosostris/german-english-bilingual-reader/pkg/types"
)

// Provider failure classes. Timeouts are treated as provider errors by
// callers; neither is fatal to the session.
var (
	// ErrProvider indicates an upstream backend failure
	ErrProvider = errors.New("provider error")

	// ErrUnavailable indicates the provider is not usable (missing key,
	// no endpoint, disabled)
	ErrUnavailable = errors.New("provider unavailable")

	// ErrInvalidRequest indicates the caller asked for something the
	// provider rejects up front, such as an unknown voice or an
	// out-of-range speed
	ErrInvalidRequest = errors.New("invalid request")
)

// LLM is a language-model backend serving translation, chat and
// dictionary lookups. One provider serves all three so the whole session
// can be switched between backends at once.
type LLM interface {
	// Name returns the provider name (e.g. "openai", "google")
	Name() string

	// Translate produces a structured translation of one page,
	// mirroring the source paragraph/sentence layout one-to-one
	Translate(ctx context.Context, req TranslateRequest) (*types.TranslationResult, error)

	// Chat answers a reader question grounded in the given context
	Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error)

	// Lookup produces a dictionary entry for a word or phrase
	Lookup(ctx context.Context, req LookupRequest) (*LookupResponse, error)

	// Close cleans up resources
	Close() error
}

// TranslateRequest carries one page plus the text metadata used for
// translation context. Metadata is required on the first page so title
// and author can be translated for display.
type TranslateRequest struct {
	TextID   string
	Page     *types.Page
	Metadata *types.TextMetadata
}

// ChatRequest is a reader question with optional page context
type ChatRequest struct {
	Question string
	Context  string
}

// ChatResponse is the assistant's answer
type ChatResponse struct {
	Response string `json:"response"`
	Provider string `json:"provider"`
}

// LookupRequest asks for a dictionary entry. Context is the surrounding
// sentence (or a page prefix) used to disambiguate the word.
type LookupRequest struct {
	Word    string
	Context string
}

// LookupResponse carries the dictionary entry. Definition may contain
// simple emphasis markup which callers render verbatim.
type LookupResponse struct {
	Word       string `json:"word"`
	Definition string `json:"definition"`
	Provider   string `json:"provider"`
}

// Synthesizer is the primary audio-synthesis backend. It exposes a fixed
// enumerated voice set and supports stop/replay only; in-place pause is
// a local-engine capability.
type Synthesizer interface {
	// Name returns the provider name
	Name() string

	// Synthesize renders one sentence as audio. The structural location
	// tags the request so repeat playback of the same sentence, voice
	// and speed can be deduplicated by the backend's result cache.
	Synthesize(ctx context.Context, req SynthesizeRequest) (*SynthesizeResponse, error)

	// Voices returns the fixed voice set
	Voices() []types.Voice

	// Close cleans up resources
	Close() error
}

// SynthesizeRequest describes one sentence to speak
type SynthesizeRequest struct {
	Text     string
	Voice    string  // one of the provider's enumerated voices
	Speed    float64 // [0.25, 4.0]
	Location types.SentenceLocation
}

// SynthesizeResponse carries the synthesized audio
type SynthesizeResponse struct {
	AudioData []byte
	Format    string // e.g. "mp3"
}
