package httpapi

import (
	"errors"
	"net/http"
	"time"

	appAuth "github.com/powerdesk/backoffice/internal/application/auth"
	domainSession "github.com/powerdesk/backoffice/internal/domain/session"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type tokenRequest struct {
	Token string `json:"token"`
}

type sessionResponse struct {
	Authenticated bool   `json:"authenticated"`
	Subject       string `json:"subject,omitempty"`
	ExpiresAt     string `json:"expires_at,omitempty"`
	Redirect      string `json:"redirect,omitempty"`
}

func (s *Server) toSessionResponse(st domainSession.State) sessionResponse {
	if !st.IsAuthenticated() {
		return sessionResponse{Redirect: s.loginPath}
	}
	return sessionResponse{
		Authenticated: true,
		Subject:       st.Subject,
		ExpiresAt:     st.ExpiresAt.UTC().Format(time.RFC3339),
	}
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		return
	}
	st, err := s.authSvc.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		s.respondLoginError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, s.toSessionResponse(st))
}

func (s *Server) loginWithToken(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		return
	}
	st, err := s.authSvc.LoginWithToken(r.Context(), req.Token)
	if err != nil {
		s.respondLoginError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, s.toSessionResponse(st))
}

func (s *Server) respondLoginError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, appAuth.ErrInvalidCredentials):
		respondError(w, http.StatusUnauthorized, "UNAUTHORIZED", err.Error())
	case errors.Is(err, appAuth.ErrTokenRejected):
		respondError(w, http.StatusUnauthorized, "TOKEN_REJECTED", err.Error())
	default:
		s.logger.Error().Err(err).Str("path", r.URL.Path).Msg("login failed")
		respondError(w, http.StatusBadGateway, "BACKEND_ERROR", "login endpoint unavailable")
	}
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	s.authSvc.Logout(r.Context())
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":   "OK",
		"redirect": s.loginPath,
	})
}

func (s *Server) session(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.toSessionResponse(s.authSvc.Session()))
}
