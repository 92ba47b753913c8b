package lookup

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sosostris/german-english-bilingual-reader/internal/provider"
	"github.com/sosostris/german-english-bilingual-reader/pkg/types"
)

const (
	testDebounce = 30 * time.Millisecond
	testGrace    = 50 * time.Millisecond
)

type fakeLLM struct {
	mu    sync.Mutex
	calls []string
}

func (f *fakeLLM) Name() string { return "fake-llm" }

func (f *fakeLLM) Translate(ctx context.Context, req provider.TranslateRequest) (*types.TranslationResult, error) {
	return nil, nil
}

func (f *fakeLLM) Chat(ctx context.Context, req provider.ChatRequest) (*provider.ChatResponse, error) {
	return nil, nil
}

func (f *fakeLLM) Lookup(ctx context.Context, req provider.LookupRequest) (*provider.LookupResponse, error) {
	f.mu.Lock()
	f.calls = append(f.calls, req.Word)
	f.mu.Unlock()
	return &provider.LookupResponse{
		Definition: "**" + req.Word + "** _noun_: a word",
		Provider:   f.Name(),
	}, nil
}

func (f *fakeLLM) Close() error { return nil }

func (f *fakeLLM) lookups() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls))
	copy(out, f.calls)
	return out
}

type fakeLLMSource struct{ llm *fakeLLM }

func (f *fakeLLMSource) CurrentLLM() (provider.LLM, error) { return f.llm, nil }

type fakeContext struct{ text string }

func (f *fakeContext) LookupContext(maxChars int) string {
	if maxChars > 0 && len(f.text) > maxChars {
		return f.text[:maxChars]
	}
	return f.text
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

func newTestBridge(t *testing.T) (*Bridge, *fakeLLM) {
	t.Helper()
	llm := &fakeLLM{}
	bridge := NewBridge(&fakeLLMSource{llm: llm}, &fakeContext{text: "Habe nun, ach! Philosophie."},
		testDebounce, testGrace, 200, quietLogger())
	t.Cleanup(bridge.Close)
	return bridge, llm
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("Condition not met in time")
}

func TestLookupAfterDebounce(t *testing.T) {
	bridge, llm := newTestBridge(t)

	bridge.Observe(context.Background(), Selection{Region: RegionOriginal, Text: "Philosophie"})

	waitFor(t, func() bool { return bridge.State().Entry != nil })

	state := bridge.State()
	if state.Entry.Word != "Philosophie" {
		t.Errorf("Expected entry for Philosophie, got %q", state.Entry.Word)
	}
	if !strings.Contains(state.Entry.HTML, "<strong>Philosophie</strong>") {
		t.Errorf("Expected rendered bold word, got %q", state.Entry.HTML)
	}
	if got := llm.lookups(); len(got) != 1 {
		t.Errorf("Expected 1 lookup, got %v", got)
	}
}

func TestRapidSelectionsCollapseToLast(t *testing.T) {
	bridge, llm := newTestBridge(t)
	ctx := context.Background()

	for _, word := range []string{"Habe", "nun", "Philosophie"} {
		bridge.Observe(ctx, Selection{Region: RegionOriginal, Text: word})
		time.Sleep(testDebounce / 4)
	}

	waitFor(t, func() bool { return bridge.State().Entry != nil })

	if got := llm.lookups(); len(got) != 1 || got[0] != "Philosophie" {
		t.Errorf("Expected single lookup of the final word, got %v", got)
	}
}

func TestSelectionsOutsideOriginalAreIgnored(t *testing.T) {
	bridge, llm := newTestBridge(t)
	ctx := context.Background()

	bridge.Observe(ctx, Selection{Region: RegionTranslation, Text: "Philosophy"})
	bridge.Observe(ctx, Selection{Region: RegionControls, Text: "Next"})

	time.Sleep(3 * testDebounce)

	if got := llm.lookups(); len(got) != 0 {
		t.Errorf("Expected no lookups, got %v", got)
	}
	if bridge.State().Entry != nil {
		t.Error("Expected no entry")
	}
}

func TestEmptySelectionDismissesAfterGrace(t *testing.T) {
	bridge, _ := newTestBridge(t)
	ctx := context.Background()

	bridge.Observe(ctx, Selection{Region: RegionOriginal, Text: "Philosophie"})
	waitFor(t, func() bool { return bridge.State().Entry != nil })

	bridge.Observe(ctx, Selection{Region: RegionOriginal, Text: ""})

	// Entry survives the grace period, then goes away
	if bridge.State().Entry == nil {
		t.Error("Entry should survive until the grace period elapses")
	}
	waitFor(t, func() bool { return bridge.State().Entry == nil })
}

func TestNewSelectionCancelsDismissal(t *testing.T) {
	bridge, _ := newTestBridge(t)
	ctx := context.Background()

	bridge.Observe(ctx, Selection{Region: RegionOriginal, Text: "Philosophie"})
	waitFor(t, func() bool { return bridge.State().Entry != nil })

	bridge.Observe(ctx, Selection{Region: RegionOriginal, Text: ""})
	bridge.Observe(ctx, Selection{Region: RegionOriginal, Text: "Medizin"})

	waitFor(t, func() bool {
		state := bridge.State()
		return state.Entry != nil && state.Entry.Word == "Medizin"
	})

	// Well past the original grace deadline the new entry still stands
	time.Sleep(2 * testGrace)
	if state := bridge.State(); state.Entry == nil || state.Entry.Word != "Medizin" {
		t.Errorf("Dismissal should have been cancelled, got %+v", state.Entry)
	}
}

func TestEmptySelectionCancelsPendingLookup(t *testing.T) {
	bridge, llm := newTestBridge(t)
	ctx := context.Background()

	bridge.Observe(ctx, Selection{Region: RegionOriginal, Text: "Philosophie"})
	bridge.Observe(ctx, Selection{Region: RegionOriginal, Text: ""})

	time.Sleep(3 * testDebounce)

	if got := llm.lookups(); len(got) != 0 {
		t.Errorf("Expected cancelled lookup, got %v", got)
	}
}

func TestWhitespaceSelectionTreatedAsEmpty(t *testing.T) {
	bridge, llm := newTestBridge(t)

	bridge.Observe(context.Background(), Selection{Region: RegionOriginal, Text: "   \n"})
	time.Sleep(3 * testDebounce)

	if got := llm.lookups(); len(got) != 0 {
		t.Errorf("Expected no lookups for whitespace, got %v", got)
	}
}
