package transport

import (
	"context"
	"errors"
	"net/http"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/powerdesk/backoffice/internal/domain/session"
)

// TokenSource yields the currently persisted token.
type TokenSource interface {
	Load(ctx context.Context) (string, error)
}

// UnauthorizedHandler is told about every 401 response.
type UnauthorizedHandler interface {
	HandleUnauthorized(ctx context.Context)
}

// AuthTransport attaches the persisted token as a bearer credential and
// reports unauthorized responses. Responses are returned unchanged.
type AuthTransport struct {
	Base           http.RoundTripper
	Tokens         TokenSource
	OnUnauthorized UnauthorizedHandler
	// Limiter throttles outgoing requests when set.
	Limiter *rate.Limiter
	Logger  zerolog.Logger
}

// New builds an AuthTransport over http.DefaultTransport.
func New(tokens TokenSource, onUnauthorized UnauthorizedHandler, limiter *rate.Limiter, logger zerolog.Logger) *AuthTransport {
	return &AuthTransport{
		Base:           http.DefaultTransport,
		Tokens:         tokens,
		OnUnauthorized: onUnauthorized,
		Limiter:        limiter,
		Logger:         logger.With().Str("component", "auth_transport").Logger(),
	}
}

func (t *AuthTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	if t.Limiter != nil {
		if err := t.Limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	out := req.Clone(ctx)
	token, err := t.Tokens.Load(ctx)
	switch {
	case err == nil:
		out.Header.Set("Authorization", "Bearer "+token)
	case errors.Is(err, session.ErrNoToken):
		out.Header.Del("Authorization")
	default:
		t.Logger.Warn().Err(err).Msg("read token for request")
		out.Header.Del("Authorization")
	}

	resp, err := t.base().RoundTrip(out)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusUnauthorized && t.OnUnauthorized != nil {
		t.Logger.Info().
			Str("method", req.Method).
			Str("path", req.URL.Path).
			Msg("backend rejected credential")
		t.OnUnauthorized.HandleUnauthorized(ctx)
	}
	return resp, nil
}

func (t *AuthTransport) base() http.RoundTripper {
	if t.Base != nil {
		return t.Base
	}
	return http.DefaultTransport
}
