package api

import (
	"context"
	"encoding/base64"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/sosostris/german-english-bilingual-reader/internal/lookup"
	"github.com/sosostris/german-english-bilingual-reader/internal/playback"
	"github.com/sosostris/german-english-bilingual-reader/internal/session"
	"github.com/sosostris/german-english-bilingual-reader/internal/util"
	"github.com/sosostris/german-english-bilingual-reader/pkg/types"
)

// lookupRegistry keeps one selection-to-lookup bridge per session
type lookupRegistry struct {
	mu      sync.Mutex
	bridges map[string]*lookup.Bridge
}

func newLookupRegistry() *lookupRegistry {
	return &lookupRegistry{bridges: make(map[string]*lookup.Bridge)}
}

func (l *lookupRegistry) set(id string, bridge *lookup.Bridge) {
	l.mu.Lock()
	l.bridges[id] = bridge
	l.mu.Unlock()
}

func (l *lookupRegistry) get(id string) *lookup.Bridge {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.bridges[id]
}

func (l *lookupRegistry) remove(id string) {
	l.mu.Lock()
	bridge := l.bridges[id]
	delete(l.bridges, id)
	l.mu.Unlock()
	if bridge != nil {
		bridge.Close()
	}
}

type selectTextRequest struct {
	TextID string `json:"text_id" validate:"required"`
}

type setPageRequest struct {
	Page int `json:"page"`
}

type clickRequest struct {
	Paragraph int `json:"paragraph" validate:"min=0"`
	Sentence  int `json:"sentence" validate:"min=0"`
}

type chatRequest struct {
	Question string `json:"question" validate:"required"`
}

type selectionRequest struct {
	Region string `json:"region" validate:"required,oneof=original translation controls"`
	Text   string `json:"text"`
}

type speakRequest struct {
	Voice string  `json:"voice,omitempty"`
	Speed float64 `json:"speed,omitempty" validate:"omitempty,min=0.25,max=4"`
}

type translationView struct {
	Text     string               `json:"text"`
	Page     types.TranslatedPage `json:"page"`
	Provider string               `json:"provider"`
}

type snapshotResponse struct {
	SessionID          string               `json:"session_id"`
	TextID             string               `json:"text_id,omitempty"`
	Page               *types.Page          `json:"page,omitempty"`
	Metadata           *types.TextMetadata  `json:"metadata,omitempty"`
	TotalPages         int                  `json:"total_pages"`
	PageText           string               `json:"page_text,omitempty"`
	Translation        *translationView     `json:"translation,omitempty"`
	TranslationError   string               `json:"translation_error,omitempty"`
	TranslationPending bool                 `json:"translation_pending"`
	Highlight          session.Highlight    `json:"highlight"`
	Transcript         []session.ChatTurn   `json:"transcript,omitempty"`
	PlaybackState      playback.State       `json:"playback_state"`
}

func (s *Server) snapshotResponse(sess *session.Session) snapshotResponse {
	snap := sess.Snapshot()

	resp := snapshotResponse{
		SessionID:          sess.ID(),
		TextID:             snap.TextID,
		Page:               snap.Page,
		Metadata:           snap.Metadata,
		TotalPages:         snap.TotalPages,
		PageText:           snap.PageText,
		TranslationError:   snap.TranslationError,
		TranslationPending: snap.TranslationPending,
		Highlight:          snap.Highlight,
		Transcript:         snap.Transcript,
		PlaybackState:      playback.StateIdle,
	}
	if snap.Translation != nil {
		resp.Translation = &translationView{
			Text:     snap.Translation.Flattened,
			Page:     snap.Translation.Result.Page,
			Provider: snap.Translation.Result.Provider,
		}
	}
	if pb := sess.Playback(); pb != nil {
		resp.PlaybackState = pb.State()
	}
	return resp
}

// resolveSession loads the session addressed by the URL
func (s *Server) resolveSession(w http.ResponseWriter, r *http.Request) *session.Session {
	sess, err := s.sessions.Get(chi.URLParam(r, "sessionID"))
	if err != nil {
		respondError(w, err.Error(), http.StatusNotFound)
		return nil
	}
	return sess
}

// createSession handles POST /api/v1/sessions
func (s *Server) createSession(w http.ResponseWriter, r *http.Request) {
	sess := s.sessions.Create()

	bridge := lookup.NewBridge(s.registry, sess,
		time.Duration(s.sessionCfg.LookupDebounceMs)*time.Millisecond,
		time.Duration(s.sessionCfg.DismissGraceMs)*time.Millisecond,
		s.sessionCfg.ContextPrefixChars, s.log)
	s.lookups.set(sess.ID(), bridge)

	respondJSON(w, s.snapshotResponse(sess), http.StatusCreated)
}

// deleteSession handles DELETE /api/v1/sessions/{sessionID}
func (s *Server) deleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")
	s.lookups.remove(id)
	s.sessions.Delete(id)
	w.WriteHeader(http.StatusNoContent)
}

// getSnapshot handles GET /api/v1/sessions/{sessionID}
func (s *Server) getSnapshot(w http.ResponseWriter, r *http.Request) {
	sess := s.resolveSession(w, r)
	if sess == nil {
		return
	}
	respondJSON(w, s.snapshotResponse(sess), http.StatusOK)
}

// selectText handles POST /api/v1/sessions/{sessionID}/text
func (s *Server) selectText(w http.ResponseWriter, r *http.Request) {
	sess := s.resolveSession(w, r)
	if sess == nil {
		return
	}

	var req selectTextRequest
	if err := s.decodeAndValidate(r, &req); err != nil {
		respondError(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := sess.SelectText(r.Context(), req.TextID); err != nil {
		respondForError(w, err)
		return
	}
	respondJSON(w, s.snapshotResponse(sess), http.StatusOK)
}

// setPage handles POST /api/v1/sessions/{sessionID}/page
func (s *Server) setPage(w http.ResponseWriter, r *http.Request) {
	sess := s.resolveSession(w, r)
	if sess == nil {
		return
	}

	var req setPageRequest
	if err := s.decodeAndValidate(r, &req); err != nil {
		respondError(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := sess.SetPage(r.Context(), req.Page); err != nil {
		respondForError(w, err)
		return
	}
	respondJSON(w, s.snapshotResponse(sess), http.StatusOK)
}

// requestTranslation handles POST /api/v1/sessions/{sessionID}/translate.
// Provider failures are reported inside the snapshot rather than as an
// HTTP error, so the reading surface stays up.
func (s *Server) requestTranslation(w http.ResponseWriter, r *http.Request) {
	sess := s.resolveSession(w, r)
	if sess == nil {
		return
	}

	if err := sess.RequestTranslation(r.Context()); err != nil {
		s.log.Warnf("Translation request failed: %v", err)
	}
	respondJSON(w, s.snapshotResponse(sess), http.StatusOK)
}

// clickOriginal handles POST /api/v1/sessions/{sessionID}/highlight/original
func (s *Server) clickOriginal(w http.ResponseWriter, r *http.Request) {
	sess := s.resolveSession(w, r)
	if sess == nil {
		return
	}

	var req clickRequest
	if err := s.decodeAndValidate(r, &req); err != nil {
		respondError(w, err.Error(), http.StatusBadRequest)
		return
	}

	sess.ClickOriginal(types.SentenceLocator{Paragraph: req.Paragraph, Sentence: req.Sentence})
	respondJSON(w, s.snapshotResponse(sess), http.StatusOK)
}

// clickTranslated handles POST /api/v1/sessions/{sessionID}/highlight/translated
func (s *Server) clickTranslated(w http.ResponseWriter, r *http.Request) {
	sess := s.resolveSession(w, r)
	if sess == nil {
		return
	}

	var req clickRequest
	if err := s.decodeAndValidate(r, &req); err != nil {
		respondError(w, err.Error(), http.StatusBadRequest)
		return
	}

	sess.ClickTranslated(types.SentenceLocator{Paragraph: req.Paragraph, Sentence: req.Sentence})
	respondJSON(w, s.snapshotResponse(sess), http.StatusOK)
}

// clearHighlight handles DELETE /api/v1/sessions/{sessionID}/highlight
func (s *Server) clearHighlight(w http.ResponseWriter, r *http.Request) {
	sess := s.resolveSession(w, r)
	if sess == nil {
		return
	}
	sess.ClearHighlight()
	respondJSON(w, s.snapshotResponse(sess), http.StatusOK)
}

// chat handles POST /api/v1/sessions/{sessionID}/chat
func (s *Server) chat(w http.ResponseWriter, r *http.Request) {
	sess := s.resolveSession(w, r)
	if sess == nil {
		return
	}

	var req chatRequest
	if err := s.decodeAndValidate(r, &req); err != nil {
		respondError(w, err.Error(), http.StatusBadRequest)
		return
	}

	resp, err := sess.Chat(r.Context(), req.Question)
	if err != nil {
		respondForError(w, err)
		return
	}
	respondJSON(w, resp, http.StatusOK)
}

// observeSelection handles POST /api/v1/sessions/{sessionID}/selection
func (s *Server) observeSelection(w http.ResponseWriter, r *http.Request) {
	sess := s.resolveSession(w, r)
	if sess == nil {
		return
	}

	var req selectionRequest
	if err := s.decodeAndValidate(r, &req); err != nil {
		respondError(w, err.Error(), http.StatusBadRequest)
		return
	}

	bridge := s.lookups.get(sess.ID())
	if bridge == nil {
		respondError(w, "Lookup not available", http.StatusServiceUnavailable)
		return
	}

	// The bridge debounces internally; the request context would be
	// gone by the time the timer fires
	bridge.Observe(context.Background(), lookup.Selection{
		Region: lookup.Region(req.Region),
		Text:   req.Text,
	})
	w.WriteHeader(http.StatusAccepted)
}

// lookupState handles GET /api/v1/sessions/{sessionID}/lookup
func (s *Server) lookupState(w http.ResponseWriter, r *http.Request) {
	sess := s.resolveSession(w, r)
	if sess == nil {
		return
	}

	bridge := s.lookups.get(sess.ID())
	if bridge == nil {
		respondError(w, "Lookup not available", http.StatusServiceUnavailable)
		return
	}
	respondJSON(w, bridge.State(), http.StatusOK)
}

// speak handles POST /api/v1/sessions/{sessionID}/speak. Audio comes
// back base64-encoded; an empty audio field means the local engine
// played the utterance server-side.
func (s *Server) speak(w http.ResponseWriter, r *http.Request) {
	sess := s.resolveSession(w, r)
	if sess == nil {
		return
	}

	var req speakRequest
	if err := s.decodeAndValidate(r, &req); err != nil {
		respondError(w, err.Error(), http.StatusBadRequest)
		return
	}

	result, err := sess.SpeakHighlighted(r.Context(), playback.Options{Voice: req.Voice, Speed: req.Speed})
	if err != nil {
		respondForError(w, err)
		return
	}

	resp := map[string]interface{}{
		"engine": result.Engine,
		"cached": result.Cached,
	}
	if len(result.AudioData) > 0 {
		resp["audio"] = base64.StdEncoding.EncodeToString(result.AudioData)
		resp["format"] = result.Format
		resp["content_type"] = util.AudioContentType(result.Format)
	}
	respondJSON(w, resp, http.StatusOK)
}

// listVoices handles GET /api/v1/sessions/{sessionID}/voices
func (s *Server) listVoices(w http.ResponseWriter, r *http.Request) {
	sess := s.resolveSession(w, r)
	if sess == nil {
		return
	}

	pb := sess.Playback()
	if pb == nil {
		respondError(w, "Playback not available", http.StatusServiceUnavailable)
		return
	}

	voices := pb.Voices(r.Context(), r.URL.Query().Get("language"))
	respondJSON(w, map[string]interface{}{
		"voices":         voices,
		"count":          len(voices),
		"supports_pause": pb.SupportsPause(),
	}, http.StatusOK)
}

// stopPlayback handles POST /api/v1/sessions/{sessionID}/playback/stop
func (s *Server) stopPlayback(w http.ResponseWriter, r *http.Request) {
	sess := s.resolveSession(w, r)
	if sess == nil {
		return
	}
	if pb := sess.Playback(); pb != nil {
		pb.Stop()
	}
	w.WriteHeader(http.StatusNoContent)
}

// pausePlayback handles POST /api/v1/sessions/{sessionID}/playback/pause
func (s *Server) pausePlayback(w http.ResponseWriter, r *http.Request) {
	sess := s.resolveSession(w, r)
	if sess == nil {
		return
	}
	pb := sess.Playback()
	if pb == nil || !pb.SupportsPause() {
		respondError(w, "Pause not supported", http.StatusNotImplemented)
		return
	}
	if err := pb.Pause(); err != nil {
		respondForError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// resumePlayback handles POST /api/v1/sessions/{sessionID}/playback/resume
func (s *Server) resumePlayback(w http.ResponseWriter, r *http.Request) {
	sess := s.resolveSession(w, r)
	if sess == nil {
		return
	}
	pb := sess.Playback()
	if pb == nil || !pb.SupportsPause() {
		respondError(w, "Resume not supported", http.StatusNotImplemented)
		return
	}
	if err := pb.Resume(); err != nil {
		respondForError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
