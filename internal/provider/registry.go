package provider

import (
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/sosostris/german-english-bilingual-reader/pkg/types"
)

// Registry manages provider instances and tracks which LLM backend is
// currently serving the session. The active LLM can be switched at
// runtime; synthesizers are looked up by name with a preferred default.
type Registry struct {
	llms         map[string]LLM
	synthesizers map[string]Synthesizer
	current      string // name of the active LLM, empty if none
	mu           sync.RWMutex
	log          *logrus.Logger
}

// NewRegistry creates a new provider registry
func NewRegistry(log *logrus.Logger) *Registry {
	if log == nil {
		log = logrus.New()
	}
	return &Registry{
		llms:         make(map[string]LLM),
		synthesizers: make(map[string]Synthesizer),
		log:          log,
	}
}

// RegisterLLM registers an LLM provider. The first registered provider
// becomes the active one.
func (r *Registry) RegisterLLM(p LLM) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := p.Name()
	if _, exists := r.llms[name]; exists {
		return fmt.Errorf("LLM provider already registered: %s", name)
	}

	r.llms[name] = p
	if r.current == "" {
		r.current = name
	}
	return nil
}

// RegisterSynthesizer registers an audio-synthesis provider
func (r *Registry) RegisterSynthesizer(p Synthesizer) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := p.Name()
	if _, exists := r.synthesizers[name]; exists {
		return fmt.Errorf("synthesizer already registered: %s", name)
	}

	r.synthesizers[name] = p
	return nil
}

// GetLLM retrieves an LLM provider by name
func (r *Registry) GetLLM(name string) (LLM, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, exists := r.llms[name]
	if !exists {
		return nil, fmt.Errorf("LLM provider not found: %s", name)
	}
	return p, nil
}

// CurrentLLM returns the active LLM provider, or ErrUnavailable when no
// provider is registered
func (r *Registry) CurrentLLM() (LLM, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.current == "" {
		return nil, fmt.Errorf("no LLM provider configured: %w", ErrUnavailable)
	}
	return r.llms[r.current], nil
}

// SwitchLLM makes the named provider the active one
func (r *Registry) SwitchLLM(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.llms[name]; !exists {
		return fmt.Errorf("LLM provider not found: %s", name)
	}
	r.current = name
	r.log.Infof("Switched active LLM provider to %s", name)
	return nil
}

// Synthesizer retrieves a synthesizer by name, or the only registered
// one when name is empty
func (r *Registry) Synthesizer(name string) (Synthesizer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if name == "" {
		for _, s := range r.synthesizers {
			return s, nil
		}
		return nil, fmt.Errorf("no synthesizer configured: %w", ErrUnavailable)
	}

	s, exists := r.synthesizers[name]
	if !exists {
		return nil, fmt.Errorf("synthesizer not found: %s", name)
	}
	return s, nil
}

// ListLLM returns all registered LLM provider names
func (r *Registry) ListLLM() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.llms))
	for name := range r.llms {
		names = append(names, name)
	}
	return names
}

// ListSynthesizers returns all registered synthesizer names
func (r *Registry) ListSynthesizers() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.synthesizers))
	for name := range r.synthesizers {
		names = append(names, name)
	}
	return names
}

// Close closes all registered providers
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var errs []error
	for name, p := range r.llms {
		if err := p.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close LLM provider %s: %w", name, err))
		}
	}
	for name, s := range r.synthesizers {
		if err := s.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close synthesizer %s: %w", name, err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors closing providers: %v", errs)
	}
	return nil
}

// InitializeProviders creates provider instances from configuration.
// Providers with an endpoint and model get a real OpenAI-compatible
// client; the rest fall back to stubs so the app stays usable without
// API keys. After registration the preference order is applied.
func (r *Registry) InitializeProviders(cfg types.ProvidersConfig) error {
	for _, llmCfg := range cfg.LLM {
		if !llmCfg.Enabled {
			continue
		}
		var p LLM
		var err error
		if llmCfg.Endpoint != "" && llmCfg.Model != "" {
			p, err = NewOpenAILLM(llmCfg)
			if err != nil {
				return fmt.Errorf("failed to create LLM provider %s: %w", llmCfg.Name, err)
			}
		} else {
			p = NewStubLLM(llmCfg.Name)
		}
		if err := r.RegisterLLM(p); err != nil {
			return err
		}
	}

	for _, ttsCfg := range cfg.TTS {
		if !ttsCfg.Enabled {
			continue
		}
		var s Synthesizer
		var err error
		if ttsCfg.Endpoint != "" && ttsCfg.Model != "" {
			s, err = NewOpenAISynthesizer(ttsCfg)
			if err != nil {
				return fmt.Errorf("failed to create synthesizer %s: %w", ttsCfg.Name, err)
			}
		} else {
			s = NewStubSynthesizer(ttsCfg.Name)
		}
		if err := r.RegisterSynthesizer(s); err != nil {
			return err
		}
	}

	r.applyPreference(cfg.Preferred)
	return nil
}

// applyPreference selects the first registered provider from the
// configured preference order
func (r *Registry) applyPreference(preferred []string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, name := range preferred {
		if _, ok := r.llms[name]; ok {
			r.current = name
			r.log.Infof("Preferred LLM provider: %s", name)
			return
		}
	}
}
