// Package playback drives sentence audio: it resolves a synthesis
// backend, caches synthesized audio in blob storage, and guarantees at
// most one active utterance per session.
package playback

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/sosostris/german-english-bilingual-reader/internal/provider"
	"github.com/sosostris/german-english-bilingual-reader/pkg/types"
)

// State is the playback lifecycle phase
type State string

const (
	// StateIdle means no utterance is active
	StateIdle State = "idle"
	// StateRequesting means synthesis is in flight
	StateRequesting State = "requesting"
	// StatePlaying means the local engine is producing audio
	StatePlaying State = "playing"
)

// LocalVoice is the reserved voice ID that routes synthesis to the
// local speech engine instead of a remote provider
const LocalVoice = "local"

// ErrSuperseded is returned when a newer utterance or a stop took over
// before this one could start
var ErrSuperseded = errors.New("utterance superseded")

// Options selects voice and rate for one utterance
type Options struct {
	Voice string
	Speed float64
}

// Result describes a completed synthesis. AudioData is set when a
// remote provider produced audio for the client to play; it is empty
// when the local engine played the utterance itself.
type Result struct {
	AudioData []byte
	Format    string
	Engine    string
	Cached    bool
}

// SynthSource resolves synthesis providers by name
type SynthSource interface {
	Synthesizer(name string) (provider.Synthesizer, error)
}

// Controller serializes utterances for one session. Starting a new
// utterance tears down whatever is active first, so overlapping audio
// is impossible.
type Controller struct {
	synths SynthSource
	local  *LocalEngine
	cache  *AudioCache
	log    *logrus.Entry

	mu       sync.Mutex
	state    State
	seq      uint64
	defVoice string
	defSpeed float64
}

// NewController creates a playback controller. The local engine and
// audio cache may each be nil when not configured.
func NewController(synths SynthSource, local *LocalEngine, cache *AudioCache, cfg types.PlaybackConfig, log *logrus.Logger) *Controller {
	if log == nil {
		log = logrus.New()
	}
	return &Controller{
		synths:   synths,
		local:    local,
		cache:    cache,
		log:      log.WithField("component", "playback"),
		state:    StateIdle,
		defVoice: cfg.DefaultVoice,
		defSpeed: cfg.DefaultSpeed,
	}
}

// State returns the current playback state
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// SupportsPause reports whether pause and resume are available, which
// requires the local engine
func (c *Controller) SupportsPause() bool {
	return c.local != nil
}

// Voices lists the voices available across the configured backends.
// A non-empty language code keeps voices tagged with that language;
// untagged voices are multilingual and always included.
func (c *Controller) Voices(ctx context.Context, lang string) []types.Voice {
	var voices []types.Voice
	if c.synths != nil {
		if synth, err := c.synths.Synthesizer(""); err == nil {
			voices = append(voices, synth.Voices()...)
		}
	}
	if c.local != nil {
		voices = append(voices, c.local.Voices()...)
	}
	if lang == "" {
		return voices
	}
	filtered := voices[:0]
	for _, v := range voices {
		if v.Language == "" || v.Language == lang {
			filtered = append(filtered, v)
		}
	}
	return filtered
}

// Speak synthesizes and plays one sentence. Any active utterance is
// stopped before the new one starts. Remote synthesis consults the
// audio cache first; a remote provider failure falls back to the local
// engine when one is configured.
func (c *Controller) Speak(ctx context.Context, text string, loc types.SentenceLocation, opts Options) (*Result, error) {
	if text == "" {
		return nil, fmt.Errorf("nothing to speak")
	}
	if opts.Voice == "" {
		opts.Voice = c.defVoice
	}
	if opts.Speed == 0 {
		opts.Speed = c.defSpeed
	}

	c.mu.Lock()
	c.stopLocked()
	c.seq++
	seq := c.seq
	c.state = StateRequesting
	c.mu.Unlock()

	result, err := c.synthesize(ctx, text, loc, opts, seq)

	c.mu.Lock()
	if seq == c.seq && c.state == StateRequesting {
		c.state = StateIdle
	}
	c.mu.Unlock()

	return result, err
}

func (c *Controller) synthesize(ctx context.Context, text string, loc types.SentenceLocation, opts Options, seq uint64) (*Result, error) {
	if opts.Voice == LocalVoice || c.synths == nil {
		return c.speakLocal(ctx, text, opts, seq)
	}

	synth, err := c.synths.Synthesizer("")
	if err != nil {
		return c.speakLocal(ctx, text, opts, seq)
	}

	if c.cache != nil {
		if data, format, ok := c.cache.Get(ctx, loc, opts.Voice, opts.Speed); ok {
			c.log.Debugf("Serving cached audio for %s/%d/s%d", loc.TextID, loc.Page, loc.SentenceID)
			return &Result{AudioData: data, Format: format, Engine: synth.Name(), Cached: true}, nil
		}
	}

	resp, err := synth.Synthesize(ctx, provider.SynthesizeRequest{
		Text:     text,
		Voice:    opts.Voice,
		Speed:    opts.Speed,
		Location: loc,
	})
	if err != nil {
		if errors.Is(err, provider.ErrProvider) && c.local != nil {
			c.log.Warnf("Synthesis failed, falling back to local engine: %v", err)
			return c.speakLocal(ctx, text, opts, seq)
		}
		return nil, err
	}

	if c.cache != nil {
		if cerr := c.cache.Put(ctx, loc, opts.Voice, opts.Speed, resp.Format, resp.AudioData); cerr != nil {
			c.log.Warnf("Failed to cache audio: %v", cerr)
		}
	}

	return &Result{AudioData: resp.AudioData, Format: resp.Format, Engine: synth.Name()}, nil
}

func (c *Controller) speakLocal(ctx context.Context, text string, opts Options, seq uint64) (*Result, error) {
	if c.local == nil {
		return nil, fmt.Errorf("no speech backend available")
	}

	c.mu.Lock()
	if seq != c.seq {
		c.mu.Unlock()
		return nil, ErrSuperseded
	}
	c.state = StatePlaying
	c.mu.Unlock()

	err := c.local.Play(ctx, text, opts.Voice, opts.Speed)

	c.mu.Lock()
	if seq == c.seq {
		c.state = StateIdle
	}
	c.mu.Unlock()

	if err != nil {
		return nil, err
	}
	return &Result{Engine: c.local.Name()}, nil
}

// Pause suspends local playback. It is a no-op unless the local engine
// is playing.
func (c *Controller) Pause() error {
	if c.local == nil {
		return fmt.Errorf("pause not supported")
	}
	return c.local.Pause()
}

// Resume continues paused local playback
func (c *Controller) Resume() error {
	if c.local == nil {
		return fmt.Errorf("resume not supported")
	}
	return c.local.Resume()
}

// Stop tears down any active utterance. Calling it while idle is safe.
func (c *Controller) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopLocked()
}

func (c *Controller) stopLocked() {
	// Bumping the sequence invalidates in-flight synthesis so its
	// completion cannot flip the state of a newer utterance
	c.seq++
	if c.local != nil {
		c.local.Stop()
	}
	c.state = StateIdle
}
