package provider

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sosostris/german-english-bilingual-reader/pkg/types"
)

func sourcePage() *types.Page {
	return &types.Page{
		Number: 0,
		Paragraphs: []types.Paragraph{
			{ID: 1, Sentences: []types.Sentence{
				{ID: 1, Text: "CHOR", Type: types.SentenceSpeakerName},
				{ID: 2, Text: "Habe nun, ach! Philosophie,\nJuristerei und Medizin", Type: types.SentenceDialogue},
			}},
			{ID: 2, Sentences: []types.Sentence{
				{ID: 1, Text: "Da steh ich nun.", Type: types.SentenceNarration},
			}},
		},
	}
}

func TestNewOpenAILLM(t *testing.T) {
	t.Run("ValidConfig", func(t *testing.T) {
		p, err := NewOpenAILLM(types.LLMProviderConfig{
			Name:     "openai",
			Endpoint: "https://api.openai.com/v1",
			Model:    "gpt-4o-mini",
		})
		if err != nil {
			t.Fatalf("Failed to create provider: %v", err)
		}
		if p.Name() != "openai" {
			t.Errorf("Expected name 'openai', got %q", p.Name())
		}
	})

	t.Run("MissingEndpoint", func(t *testing.T) {
		if _, err := NewOpenAILLM(types.LLMProviderConfig{Name: "openai", Model: "gpt-4o-mini"}); err == nil {
			t.Error("Expected error for missing endpoint")
		}
	})

	t.Run("MissingModel", func(t *testing.T) {
		if _, err := NewOpenAILLM(types.LLMProviderConfig{Name: "openai", Endpoint: "https://x"}); err == nil {
			t.Error("Expected error for missing model")
		}
	})
}

func TestParseTranslationResponse(t *testing.T) {
	src := sourcePage()

	raw := `{"paragraphs": [
		{"id": 1, "sentences": [
			{"id": 1, "fragments": ["IGNORED"]},
			{"id": 2, "fragments": ["I have now, alas! Philosophy,", "Jurisprudence and Medicine"]}
		]},
		{"id": 2, "sentences": [
			{"id": 1, "fragments": ["There I stand now."]}
		]}
	]}`

	page, err := parseTranslationResponse(raw, src)
	if err != nil {
		t.Fatalf("parseTranslationResponse failed: %v", err)
	}

	if len(page.Paragraphs) != 2 {
		t.Fatalf("Expected 2 paragraphs, got %d", len(page.Paragraphs))
	}

	// Speaker names come from the local lookup table, not the model
	if got := page.Paragraphs[0].Sentences[0].Fragments[0]; got != "CHORUS" {
		t.Errorf("Expected speaker name 'CHORUS', got %q", got)
	}

	// Poetry line breaks map to multiple fragments
	if got := len(page.Paragraphs[0].Sentences[1].Fragments); got != 2 {
		t.Errorf("Expected 2 fragments, got %d", got)
	}

	// Type and speaker carry over from the source
	if page.Paragraphs[0].Sentences[1].Type != types.SentenceDialogue {
		t.Errorf("Expected sentence type to carry over, got %q", page.Paragraphs[0].Sentences[1].Type)
	}
}

func TestParseTranslationResponse_Misaligned(t *testing.T) {
	src := sourcePage()

	t.Run("ParagraphCountMismatch", func(t *testing.T) {
		raw := `{"paragraphs": [{"id": 1, "sentences": [{"id": 1, "fragments": ["x"]}]}]}`
		if _, err := parseTranslationResponse(raw, src); err == nil {
			t.Error("Expected error for paragraph count mismatch")
		}
	})

	t.Run("SentenceCountMismatch", func(t *testing.T) {
		raw := `{"paragraphs": [
			{"id": 1, "sentences": [{"id": 1, "fragments": ["x"]}]},
			{"id": 2, "sentences": [{"id": 1, "fragments": ["y"]}]}
		]}`
		if _, err := parseTranslationResponse(raw, src); err == nil {
			t.Error("Expected error for sentence count mismatch")
		}
	})
}

func TestExtractJSON_CodeFence(t *testing.T) {
	raw := "```json\n{\"a\": 1}\n```"
	if got := extractJSON(raw); got != `{"a": 1}` {
		t.Errorf("extractJSON = %q", got)
	}
}

func TestTranslateSpeakerName(t *testing.T) {
	cases := map[string]string{
		"CHOR":     "CHORUS",
		"alle":     "ALL",
		"FAUST":    "FAUST",
		"Gretchen": "Gretchen",
	}
	for in, want := range cases {
		if got := TranslateSpeakerName(in); got != want {
			t.Errorf("TranslateSpeakerName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestOpenAILLM_Translate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("Unexpected path: %s", r.URL.Path)
		}

		content := `{"paragraphs": [
			{"id": 1, "sentences": [{"id": 1, "fragments": ["CHOR"]}, {"id": 2, "fragments": ["line one", "line two"]}]},
			{"id": 2, "sentences": [{"id": 1, "fragments": ["There I stand now."]}]}
		]}`
		resp := map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"content": content}},
			},
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	p, err := NewOpenAILLM(types.LLMProviderConfig{
		Name:     "openai",
		Endpoint: server.URL,
		Model:    "gpt-4o-mini",
	})
	if err != nil {
		t.Fatalf("Failed to create provider: %v", err)
	}
	defer p.Close()

	// No metadata: subsequent-page request
	result, err := p.Translate(context.Background(), TranslateRequest{
		TextID: "faust",
		Page:   sourcePage(),
	})
	if err != nil {
		t.Fatalf("Translate failed: %v", err)
	}

	if result.Provider != "openai" {
		t.Errorf("Expected provider 'openai', got %q", result.Provider)
	}
	if result.Metadata != nil {
		t.Error("Expected no translated metadata without source metadata")
	}
	if len(result.Page.Paragraphs) != 2 {
		t.Errorf("Expected 2 paragraphs, got %d", len(result.Page.Paragraphs))
	}
}

func TestOpenAILLM_TranslateUpstreamFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"error": map[string]string{"message": "model overloaded", "type": "server_error"},
		})
	}))
	defer server.Close()

	p, _ := NewOpenAILLM(types.LLMProviderConfig{Name: "openai", Endpoint: server.URL, Model: "gpt-4o-mini"})
	defer p.Close()

	_, err := p.Translate(context.Background(), TranslateRequest{TextID: "faust", Page: sourcePage()})
	if err == nil {
		t.Fatal("Expected error from upstream failure")
	}
	if !errors.Is(err, ErrProvider) {
		t.Errorf("Expected ErrProvider classification, got %v", err)
	}
}

func TestOpenAISynthesizer_Validation(t *testing.T) {
	s := NewStubSynthesizer("speech")
	ctx := context.Background()

	if _, err := s.Synthesize(ctx, SynthesizeRequest{Text: "Hallo", Voice: "robot", Speed: 1.0}); !errors.Is(err, ErrInvalidRequest) {
		t.Errorf("Expected ErrInvalidRequest for voice outside the enumerated set, got %v", err)
	}
	if _, err := s.Synthesize(ctx, SynthesizeRequest{Text: "Hallo", Voice: "alloy", Speed: 5.0}); !errors.Is(err, ErrInvalidRequest) {
		t.Errorf("Expected ErrInvalidRequest for out-of-range speed, got %v", err)
	}
	if _, err := s.Synthesize(ctx, SynthesizeRequest{Text: "Hallo", Voice: "alloy", Speed: 1.0}); err != nil {
		t.Errorf("Expected success for valid request, got %v", err)
	}
}
