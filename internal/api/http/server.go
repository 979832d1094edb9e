package httpapi

import (
	"encoding/json"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"

	appAuth "github.com/powerdesk/backoffice/internal/application/auth"
	"github.com/powerdesk/backoffice/internal/infrastructure/sse"
)

// Server holds dependencies for HTTP handlers.
type Server struct {
	authSvc   *appAuth.Service
	sseHub    *sse.Hub
	proxy     http.Handler
	loginPath string
	logger    zerolog.Logger
}

// NewServer builds the gateway. Requests under /api are forwarded to backend
// through backendTransport, which is expected to attach the session token.
func NewServer(
	authSvc *appAuth.Service,
	sseHub *sse.Hub,
	backend *url.URL,
	backendTransport http.RoundTripper,
	loginPath string,
	logger zerolog.Logger,
) *Server {
	s := &Server{
		authSvc:   authSvc,
		sseHub:    sseHub,
		loginPath: loginPath,
		logger:    logger.With().Str("component", "http").Logger(),
	}
	s.proxy = s.newBackendProxy(backend, backendTransport)
	return s
}

// Router builds the HTTP router.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(hlog.NewHandler(s.logger))
	r.Use(hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
		hlog.FromRequest(r).Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", status).
			Dur("duration", duration).
			Msg("request")
	}))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]interface{}{"status": "OK"})
	})

	r.Route("/auth", func(r chi.Router) {
		r.Get("/events", s.sseEndpoint)
		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(30 * time.Second))
			r.Post("/login", s.login)
			r.Post("/token", s.loginWithToken)
			r.Post("/logout", s.logout)
			r.Get("/session", s.session)
		})
	})

	r.Group(func(r chi.Router) {
		r.Use(s.requireSession)
		r.Handle("/api", s.proxy)
		r.Handle("/api/*", s.proxy)
	})

	return r
}

// Helpers
func respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, map[string]interface{}{
		"error":   code,
		"message": message,
	})
}

func decodeBody(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
