package provider

import (
	"testing"

	"github.com/sosostris/german-english-bilingual-reader/pkg/types"
)

func TestRegistry_RegisterAndCurrent(t *testing.T) {
	r := NewRegistry(nil)

	if _, err := r.CurrentLLM(); err == nil {
		t.Error("Expected error when no LLM is registered")
	}

	if err := r.RegisterLLM(NewStubLLM("openai")); err != nil {
		t.Fatalf("RegisterLLM failed: %v", err)
	}
	if err := r.RegisterLLM(NewStubLLM("google")); err != nil {
		t.Fatalf("RegisterLLM failed: %v", err)
	}

	// First registered provider becomes the active one
	current, err := r.CurrentLLM()
	if err != nil {
		t.Fatalf("CurrentLLM failed: %v", err)
	}
	if current.Name() != "openai" {
		t.Errorf("Expected current provider 'openai', got %q", current.Name())
	}

	if err := r.RegisterLLM(NewStubLLM("openai")); err == nil {
		t.Error("Expected error registering duplicate provider")
	}
}

func TestRegistry_Switch(t *testing.T) {
	r := NewRegistry(nil)
	r.RegisterLLM(NewStubLLM("openai"))
	r.RegisterLLM(NewStubLLM("google"))

	if err := r.SwitchLLM("google"); err != nil {
		t.Fatalf("SwitchLLM failed: %v", err)
	}
	current, _ := r.CurrentLLM()
	if current.Name() != "google" {
		t.Errorf("Expected current provider 'google', got %q", current.Name())
	}

	if err := r.SwitchLLM("anthropic"); err == nil {
		t.Error("Expected error switching to unknown provider")
	}
	// A failed switch must not change the active provider
	current, _ = r.CurrentLLM()
	if current.Name() != "google" {
		t.Errorf("Active provider changed after failed switch: %q", current.Name())
	}
}

func TestRegistry_Preference(t *testing.T) {
	r := NewRegistry(nil)

	cfg := types.ProvidersConfig{
		Preferred: []string{"openai", "google"},
		LLM: []types.LLMProviderConfig{
			{Name: "google", Enabled: true},
			{Name: "openai", Enabled: true},
			{Name: "disabled", Enabled: false},
		},
		TTS: []types.TTSProviderConfig{
			{Name: "speech", Enabled: true},
		},
	}
	if err := r.InitializeProviders(cfg); err != nil {
		t.Fatalf("InitializeProviders failed: %v", err)
	}

	current, err := r.CurrentLLM()
	if err != nil {
		t.Fatalf("CurrentLLM failed: %v", err)
	}
	if current.Name() != "openai" {
		t.Errorf("Expected preferred provider 'openai', got %q", current.Name())
	}

	if len(r.ListLLM()) != 2 {
		t.Errorf("Expected 2 registered LLMs, got %v", r.ListLLM())
	}

	if _, err := r.Synthesizer(""); err != nil {
		t.Errorf("Expected default synthesizer, got error: %v", err)
	}
	if _, err := r.Synthesizer("speech"); err != nil {
		t.Errorf("Expected synthesizer 'speech', got error: %v", err)
	}
	if _, err := r.Synthesizer("other"); err == nil {
		t.Error("Expected error for unknown synthesizer")
	}
}
