// Package api exposes the reading backend over HTTP.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
	"github.com/sosostris/german-english-bilingual-reader/internal/health"
	"github.com/sosostris/german-english-bilingual-reader/internal/library"
	"github.com/sosostris/german-english-bilingual-reader/internal/provider"
	"github.com/sosostris/german-english-bilingual-reader/internal/session"
	"github.com/sosostris/german-english-bilingual-reader/pkg/types"
)

// Server wires the HTTP routes to the application services
type Server struct {
	library    library.Repository
	registry   *provider.Registry
	sessions   *session.Manager
	health     *health.Handler
	validate   *validator.Validate
	log        *logrus.Logger
	sessionCfg types.SessionConfig

	lookups *lookupRegistry
}

// NewServer creates the HTTP server facade
func NewServer(repo library.Repository, registry *provider.Registry, sessions *session.Manager, healthHandler *health.Handler, sessionCfg types.SessionConfig, log *logrus.Logger) *Server {
	if log == nil {
		log = logrus.New()
	}
	return &Server{
		library:    repo,
		registry:   registry,
		sessions:   sessions,
		health:     healthHandler,
		validate:   validator.New(),
		log:        log,
		sessionCfg: sessionCfg,
		lookups:    newLookupRegistry(),
	}
}

// Router builds the chi route tree
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(120 * time.Second))

	if s.health != nil {
		r.Get("/health", s.health.HealthHandler())
		r.Get("/health/live", s.health.LivenessHandler())
		r.Get("/health/ready", s.health.ReadinessHandler())
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/texts", s.listTexts)
		r.Get("/texts/{textID}", s.getTextMetadata)
		r.Get("/texts/{textID}/pages/{page}", s.getTextPage)

		r.Get("/providers/llm", s.listLLMProviders)
		r.Post("/providers/llm/switch", s.switchLLMProvider)

		r.Route("/sessions", func(r chi.Router) {
			r.Post("/", s.createSession)
			r.Route("/{sessionID}", func(r chi.Router) {
				r.Get("/", s.getSnapshot)
				r.Delete("/", s.deleteSession)
				r.Post("/text", s.selectText)
				r.Post("/page", s.setPage)
				r.Post("/translate", s.requestTranslation)
				r.Post("/highlight/original", s.clickOriginal)
				r.Post("/highlight/translated", s.clickTranslated)
				r.Delete("/highlight", s.clearHighlight)
				r.Post("/chat", s.chat)
				r.Post("/selection", s.observeSelection)
				r.Get("/lookup", s.lookupState)
				r.Post("/speak", s.speak)
				r.Get("/voices", s.listVoices)
				r.Post("/playback/stop", s.stopPlayback)
				r.Post("/playback/pause", s.pausePlayback)
				r.Post("/playback/resume", s.resumePlayback)
			})
		})
	})

	return r
}

// requestLogger logs one line per request in the access-log style
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.log.WithFields(logrus.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   ww.Status(),
			"duration": time.Since(start).String(),
		}).Info("Handled request")
	})
}
