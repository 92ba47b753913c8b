package session

import (
	"context"
	"testing"

	"github.com/sosostris/german-english-bilingual-reader/internal/playback"
	"github.com/sosostris/german-english-bilingual-reader/pkg/types"
)

func selectFaust(t *testing.T, sess *Session) {
	t.Helper()
	if err := sess.SelectText(context.Background(), "faust"); err != nil {
		t.Fatalf("SelectText failed: %v", err)
	}
}

func assertHighlightPair(t *testing.T, snap Snapshot, want types.SentenceLocator) {
	t.Helper()
	if snap.Highlight.Original == nil || snap.Highlight.Translated == nil {
		t.Fatalf("Expected both highlights set, got %+v", snap.Highlight)
	}
	if *snap.Highlight.Original != want || *snap.Highlight.Translated != want {
		t.Errorf("Expected both highlights at %+v, got original=%+v translated=%+v",
			want, *snap.Highlight.Original, *snap.Highlight.Translated)
	}
}

func assertNoHighlight(t *testing.T, snap Snapshot) {
	t.Helper()
	if snap.Highlight.Original != nil || snap.Highlight.Translated != nil {
		t.Errorf("Expected no highlight, got %+v", snap.Highlight)
	}
}

func TestClickOriginalSetsBothSides(t *testing.T) {
	sess, _, _ := newTestSession(t)
	selectFaust(t, sess)
	if err := sess.RequestTranslation(context.Background()); err != nil {
		t.Fatalf("RequestTranslation failed: %v", err)
	}

	loc := types.SentenceLocator{Paragraph: 1, Sentence: 0}
	sess.ClickOriginal(loc)

	snap := sess.Snapshot()
	assertHighlightPair(t, snap, loc)
	if snap.Highlight.SentenceText != "Juristerei und Medizin." {
		t.Errorf("Unexpected highlighted text: %q", snap.Highlight.SentenceText)
	}
}

func TestClickTranslatedSetsBothSides(t *testing.T) {
	sess, _, _ := newTestSession(t)
	selectFaust(t, sess)
	if err := sess.RequestTranslation(context.Background()); err != nil {
		t.Fatalf("RequestTranslation failed: %v", err)
	}

	loc := types.SentenceLocator{Paragraph: 1, Sentence: 1}
	sess.ClickTranslated(loc)

	snap := sess.Snapshot()
	assertHighlightPair(t, snap, loc)
	if snap.Highlight.SentenceText != "Und leider auch Theologie." {
		t.Errorf("Unexpected highlighted text: %q", snap.Highlight.SentenceText)
	}
}

func TestClickOriginalWithoutTranslation(t *testing.T) {
	sess, _, _ := newTestSession(t)
	selectFaust(t, sess)

	loc := types.SentenceLocator{Paragraph: 1, Sentence: 0}
	sess.ClickOriginal(loc)

	// With no translation displayed there is no translated pane to
	// light up; only the original side carries the highlight
	snap := sess.Snapshot()
	if snap.Highlight.Original == nil || *snap.Highlight.Original != loc {
		t.Fatalf("Expected original highlight at %+v, got %+v", loc, snap.Highlight)
	}
	if snap.Highlight.Translated != nil {
		t.Errorf("Expected no translated highlight, got %+v", *snap.Highlight.Translated)
	}
	if snap.Highlight.SentenceText != "Juristerei und Medizin." {
		t.Errorf("Unexpected highlighted text: %q", snap.Highlight.SentenceText)
	}
}

func TestClickTranslatedWithoutTranslationIsNoOp(t *testing.T) {
	sess, _, _ := newTestSession(t)
	selectFaust(t, sess)

	sess.ClickTranslated(types.SentenceLocator{Paragraph: 0, Sentence: 0})
	assertNoHighlight(t, sess.Snapshot())
}

func TestClickOutOfBoundsIsIgnored(t *testing.T) {
	sess, _, _ := newTestSession(t)
	selectFaust(t, sess)
	if err := sess.RequestTranslation(context.Background()); err != nil {
		t.Fatalf("RequestTranslation failed: %v", err)
	}

	valid := types.SentenceLocator{Paragraph: 0, Sentence: 0}
	sess.ClickOriginal(valid)

	// A locator minted against an older page layout is dropped without
	// disturbing the current highlight
	for _, loc := range []types.SentenceLocator{
		{Paragraph: 7, Sentence: 0},
		{Paragraph: 0, Sentence: 5},
		{Paragraph: -1, Sentence: 0},
		{Paragraph: 1, Sentence: -1},
	} {
		sess.ClickOriginal(loc)
		assertHighlightPair(t, sess.Snapshot(), valid)
	}
}

func TestClickMovesHighlight(t *testing.T) {
	sess, _, _ := newTestSession(t)
	selectFaust(t, sess)
	if err := sess.RequestTranslation(context.Background()); err != nil {
		t.Fatalf("RequestTranslation failed: %v", err)
	}

	first := types.SentenceLocator{Paragraph: 0, Sentence: 0}
	second := types.SentenceLocator{Paragraph: 2, Sentence: 0}

	sess.ClickOriginal(first)
	sess.ClickOriginal(second)
	assertHighlightPair(t, sess.Snapshot(), second)
}

func TestNavigationClearsHighlight(t *testing.T) {
	sess, _, _ := newTestSession(t)
	selectFaust(t, sess)

	sess.ClickOriginal(types.SentenceLocator{Paragraph: 0, Sentence: 0})
	if err := sess.SetPage(context.Background(), 1); err != nil {
		t.Fatalf("SetPage failed: %v", err)
	}
	assertNoHighlight(t, sess.Snapshot())
}

func TestRequestTranslationClearsHighlight(t *testing.T) {
	sess, _, _ := newTestSession(t)
	selectFaust(t, sess)

	sess.ClickOriginal(types.SentenceLocator{Paragraph: 0, Sentence: 0})
	if err := sess.RequestTranslation(context.Background()); err != nil {
		t.Fatalf("RequestTranslation failed: %v", err)
	}
	assertNoHighlight(t, sess.Snapshot())
}

func TestClearHighlight(t *testing.T) {
	sess, _, _ := newTestSession(t)
	selectFaust(t, sess)

	sess.ClickOriginal(types.SentenceLocator{Paragraph: 0, Sentence: 0})
	sess.ClearHighlight()
	assertNoHighlight(t, sess.Snapshot())

	sess.ClearHighlight() // idempotent
	assertNoHighlight(t, sess.Snapshot())
}

func TestSpeakHighlightedWithoutHighlight(t *testing.T) {
	sess, _, _ := newTestSession(t)
	selectFaust(t, sess)

	if _, err := sess.SpeakHighlighted(context.Background(), playback.Options{}); err == nil {
		t.Error("Expected error with no highlight")
	}
}
