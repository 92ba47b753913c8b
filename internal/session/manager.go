package session

import (
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/sosostris/german-english-bilingual-reader/internal/playback"
	"github.com/sosostris/german-english-bilingual-reader/internal/translate"
)

// Manager tracks live sessions by ID for the HTTP layer
type Manager struct {
	pages Pages
	llms  LLMSource
	cache *translate.Cache
	log   *logrus.Logger

	newPlayback func() *playback.Controller

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewManager creates a session manager. newPlayback constructs a
// per-session playback controller and may be nil.
func NewManager(pages Pages, llms LLMSource, cache *translate.Cache, newPlayback func() *playback.Controller, log *logrus.Logger) *Manager {
	if log == nil {
		log = logrus.New()
	}
	return &Manager{
		pages:       pages,
		llms:        llms,
		cache:       cache,
		log:         log,
		newPlayback: newPlayback,
		sessions:    make(map[string]*Session),
	}
}

// Create starts a new session and returns it
func (m *Manager) Create() *Session {
	var pb *playback.Controller
	if m.newPlayback != nil {
		pb = m.newPlayback()
	}
	sess := New(m.pages, m.llms, m.cache, pb, m.log)

	m.mu.Lock()
	m.sessions[sess.ID()] = sess
	m.mu.Unlock()

	m.log.Infof("Created session %s", sess.ID())
	return sess
}

// Get returns the session with the given ID
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	sess, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("session %s not found", id)
	}
	return sess, nil
}

// Delete closes and removes a session. Deleting an unknown ID is a
// no-op.
func (m *Manager) Delete(id string) {
	m.mu.Lock()
	sess, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if ok {
		sess.Close()
		m.log.Infof("Deleted session %s", id)
	}
}

// Len returns the number of live sessions
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
