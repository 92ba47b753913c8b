package provider

import (
	"context"
	"fmt"

	"github.com/sosostris/german-english-bilingual-reader/pkg/types"
)

// StubLLM is a deterministic LLM used in tests and keyless development.
// Translations mirror the source structure with marked fragments.
type StubLLM struct {
	name string
}

// NewStubLLM creates a new stub LLM provider
func NewStubLLM(name string) *StubLLM {
	if name == "" {
		name = "stub"
	}
	return &StubLLM{name: name}
}

func (s *StubLLM) Name() string {
	return s.name
}

// Translate mirrors the source page one-to-one, wrapping each sentence
// text so tests can tell translated output from source text
func (s *StubLLM) Translate(ctx context.Context, req TranslateRequest) (*types.TranslationResult, error) {
	if req.Page == nil {
		return nil, fmt.Errorf("translate request without page")
	}

	page := types.TranslatedPage{Number: req.Page.Number}
	for _, srcPara := range req.Page.Paragraphs {
		para := types.TranslatedParagraph{ID: srcPara.ID}
		for _, srcSent := range srcPara.Sentences {
			fragments := []string{"[en] " + srcSent.Text}
			if srcSent.Type == types.SentenceSpeakerName {
				fragments = []string{TranslateSpeakerName(srcSent.Text)}
			}
			para.Sentences = append(para.Sentences, types.TranslatedSentence{
				ID:        srcSent.ID,
				Fragments: fragments,
				Type:      srcSent.Type,
				Speaker:   srcSent.Speaker,
			})
		}
		page.Paragraphs = append(page.Paragraphs, para)
	}

	result := &types.TranslationResult{
		Provider: s.name,
		Page:     page,
	}
	if req.Metadata != nil {
		result.Metadata = &types.TranslatedMetadata{
			Title:       "[en] " + req.Metadata.Title,
			Author:      req.Metadata.Author,
			Description: req.Metadata.Description,
			Genre:       req.Metadata.Genre,
		}
	}
	return result, nil
}

func (s *StubLLM) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	return &ChatResponse{
		Response: fmt.Sprintf("Stub answer to: %s", req.Question),
		Provider: s.name,
	}, nil
}

func (s *StubLLM) Lookup(ctx context.Context, req LookupRequest) (*LookupResponse, error) {
	return &LookupResponse{
		Word:       req.Word,
		Definition: fmt.Sprintf("**%s**: stub definition", req.Word),
		Provider:   s.name,
	}, nil
}

func (s *StubLLM) Close() error {
	return nil
}

// StubSynthesizer is a deterministic synthesizer for tests and keyless
// development
type StubSynthesizer struct {
	name string
}

// NewStubSynthesizer creates a new stub synthesizer
func NewStubSynthesizer(name string) *StubSynthesizer {
	if name == "" {
		name = "stub-tts"
	}
	return &StubSynthesizer{name: name}
}

func (s *StubSynthesizer) Name() string {
	return s.name
}

func (s *StubSynthesizer) Voices() []types.Voice {
	voices := make([]types.Voice, len(synthesizerVoices))
	copy(voices, synthesizerVoices)
	return voices
}

// Synthesize returns marker audio embedding the input so tests can
// assert on what was spoken
func (s *StubSynthesizer) Synthesize(ctx context.Context, req SynthesizeRequest) (*SynthesizeResponse, error) {
	if !ValidVoice(req.Voice) {
		return nil, fmt.Errorf("%w: invalid voice %q", ErrInvalidRequest, req.Voice)
	}
	if req.Speed < MinSpeed || req.Speed > MaxSpeed {
		return nil, fmt.Errorf("%w: speed %g outside [%g, %g]", ErrInvalidRequest, req.Speed, MinSpeed, MaxSpeed)
	}

	preview := req.Text
	if len(preview) > 16 {
		preview = preview[:16]
	}
	return &SynthesizeResponse{
		AudioData: []byte(fmt.Sprintf("STUB_AUDIO_%s_%s", req.Voice, preview)),
		Format:    "mp3",
	}, nil
}

func (s *StubSynthesizer) Close() error {
	return nil
}
