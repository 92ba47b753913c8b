package playback

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"sync"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/sosostris/german-english-bilingual-reader/pkg/types"
)

// LocalEngine speaks through an external command such as espeak-ng. It
// is the fallback backend when no remote synthesizer is reachable, and
// the only backend that supports pause and resume.
type LocalEngine struct {
	command string
	args    []string
	voices  []types.Voice
	log     *logrus.Entry

	mu     sync.Mutex
	cmd    *exec.Cmd
	paused bool
}

// NewLocalEngine creates a local speech engine from configuration.
// Returns nil when no command is configured.
func NewLocalEngine(cfg types.LocalSpeechConfig, log *logrus.Logger) *LocalEngine {
	if cfg.Command == "" {
		return nil
	}
	if log == nil {
		log = logrus.New()
	}
	return &LocalEngine{
		command: cfg.Command,
		args:    cfg.Args,
		voices:  cfg.Voices,
		log:     log.WithField("component", "local-speech"),
	}
}

// Name returns the engine identifier
func (e *LocalEngine) Name() string {
	return "local:" + e.command
}

// Voices lists the voices configured for the engine
func (e *LocalEngine) Voices() []types.Voice {
	out := make([]types.Voice, len(e.voices))
	copy(out, e.voices)
	return out
}

// VoicesForLanguage lists the configured voices for one ISO-639-1
// language code. An empty code returns all voices.
func (e *LocalEngine) VoicesForLanguage(lang string) []types.Voice {
	if lang == "" {
		return e.Voices()
	}
	var out []types.Voice
	for _, v := range e.voices {
		if v.Language == lang {
			out = append(out, v)
		}
	}
	return out
}

// Play speaks the text and blocks until the utterance finishes or is
// stopped. The configured args may reference {text}, {voice} and
// {speed}; when no {text} placeholder is present the text is appended
// as the final argument.
func (e *LocalEngine) Play(ctx context.Context, text, voice string, speed float64) error {
	args := e.expandArgs(text, voice, speed)
	cmd := exec.CommandContext(ctx, e.command, args...)

	e.mu.Lock()
	e.killLocked()
	e.cmd = cmd
	e.paused = false
	e.mu.Unlock()

	e.log.Debugf("Speaking via %s (voice=%s speed=%.2f)", e.command, voice, speed)
	err := cmd.Run()

	e.mu.Lock()
	if e.cmd == cmd {
		e.cmd = nil
		e.paused = false
	} else {
		// Stop replaced us; the exit error is expected
		err = nil
	}
	e.mu.Unlock()

	if err != nil {
		return fmt.Errorf("local speech failed: %w", err)
	}
	return nil
}

func (e *LocalEngine) expandArgs(text, voice string, speed float64) []string {
	hasText := false
	args := make([]string, 0, len(e.args)+1)
	for _, arg := range e.args {
		if strings.Contains(arg, "{text}") {
			hasText = true
		}
		arg = strings.ReplaceAll(arg, "{text}", text)
		arg = strings.ReplaceAll(arg, "{voice}", voice)
		arg = strings.ReplaceAll(arg, "{speed}", fmt.Sprintf("%.2f", speed))
		args = append(args, arg)
	}
	if !hasText {
		args = append(args, text)
	}
	return args
}

// Pause suspends the current utterance
func (e *LocalEngine) Pause() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.cmd == nil || e.cmd.Process == nil {
		return fmt.Errorf("nothing playing")
	}
	if e.paused {
		return nil
	}
	if err := e.cmd.Process.Signal(syscall.SIGSTOP); err != nil {
		return fmt.Errorf("pause failed: %w", err)
	}
	e.paused = true
	return nil
}

// Resume continues a paused utterance
func (e *LocalEngine) Resume() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.cmd == nil || e.cmd.Process == nil {
		return fmt.Errorf("nothing playing")
	}
	if !e.paused {
		return nil
	}
	if err := e.cmd.Process.Signal(syscall.SIGCONT); err != nil {
		return fmt.Errorf("resume failed: %w", err)
	}
	e.paused = false
	return nil
}

// Stop terminates the current utterance. Safe to call while idle.
func (e *LocalEngine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.killLocked()
}

func (e *LocalEngine) killLocked() {
	if e.cmd != nil && e.cmd.Process != nil {
		_ = e.cmd.Process.Kill()
	}
	e.cmd = nil
	e.paused = false
}
