package backend

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/powerdesk/backoffice/internal/domain/session"
)

func newBackend(t *testing.T) *httptest.Server {
	t.Helper()
	r := chi.NewRouter()
	r.Post("/api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var req exchangeRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		switch {
		case req.Username == "alice" && req.Password == "pw":
			_ = json.NewEncoder(w).Encode(map[string]string{"token": "tok-alice"})
		case req.Username == "sso":
			_ = json.NewEncoder(w).Encode(map[string]string{"access_token": "tok-sso"})
		case req.Username == "empty":
			_ = json.NewEncoder(w).Encode(map[string]string{})
		case req.Username == "down":
			w.WriteHeader(http.StatusServiceUnavailable)
		default:
			w.WriteHeader(http.StatusUnauthorized)
		}
	})
	r.Get("/api/contracts/{id}", func(w http.ResponseWriter, r *http.Request) {
		if chi.URLParam(r, "id") == "revoked" {
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "UNAUTHORIZED", "message": "token revoked"})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"id": chi.URLParam(r, "id")})
	})
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func TestClient_Exchange(t *testing.T) {
	srv := newBackend(t)
	c, err := NewClient(Config{BaseURL: srv.URL + "/api/"}, http.DefaultTransport)
	require.NoError(t, err)
	ctx := context.Background()

	tok, err := c.Exchange(ctx, "alice", "pw")
	require.NoError(t, err)
	assert.Equal(t, "tok-alice", tok)

	tok, err = c.Exchange(ctx, "sso", "x")
	require.NoError(t, err)
	assert.Equal(t, "tok-sso", tok)

	_, err = c.Exchange(ctx, "alice", "wrong")
	assert.ErrorIs(t, err, session.ErrInvalidCredentials)

	_, err = c.Exchange(ctx, "empty", "x")
	assert.Error(t, err)

	_, err = c.Exchange(ctx, "down", "x")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusServiceUnavailable, apiErr.StatusCode)
}

func TestClient_Do(t *testing.T) {
	srv := newBackend(t)
	c, err := NewClient(Config{BaseURL: srv.URL + "/api"}, http.DefaultTransport)
	require.NoError(t, err)
	ctx := context.Background()

	var out map[string]string
	require.NoError(t, c.Do(ctx, http.MethodGet, "/contracts/c-42", nil, &out))
	assert.Equal(t, "c-42", out["id"])

	err = c.Do(ctx, http.MethodGet, "contracts/revoked", nil, &out)
	assert.ErrorIs(t, err, ErrUnauthorized)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "UNAUTHORIZED", apiErr.Code)
	assert.Equal(t, "token revoked", apiErr.Message)
}

func TestNewClient_RejectsRelativeURL(t *testing.T) {
	_, err := NewClient(Config{BaseURL: "backend.local"}, nil)
	assert.Error(t, err)
}
