package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	domainSession "github.com/powerdesk/backoffice/internal/domain/session"
)

var (
	ErrInvalidCredentials = domainSession.ErrInvalidCredentials
	ErrTokenRejected      = errors.New("issued token is expired or unreadable")
)

// Exchanger trades credentials for a signed token at the login endpoint.
type Exchanger interface {
	Exchange(ctx context.Context, username, password string) (string, error)
}

// Sessions is the part of the session manager the auth flow drives.
type Sessions interface {
	Login(ctx context.Context, token string) domainSession.State
	Logout(ctx context.Context)
	State() domainSession.State
}

// Service handles authentication.
type Service struct {
	exchanger Exchanger
	sessions  Sessions
	logger    zerolog.Logger
}

// NewService creates an auth service.
func NewService(exchanger Exchanger, sessions Sessions, logger zerolog.Logger) *Service {
	return &Service{
		exchanger: exchanger,
		sessions:  sessions,
		logger:    logger.With().Str("service", "auth").Logger(),
	}
}

// Login exchanges credentials for a token and opens a session with it.
func (s *Service) Login(ctx context.Context, username, password string) (domainSession.State, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return domainSession.Unauthenticated(), ErrInvalidCredentials
	}
	token, err := s.exchanger.Exchange(ctx, username, password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			s.logger.Info().Str("username", username).Msg("login rejected")
			return domainSession.Unauthenticated(), err
		}
		return domainSession.Unauthenticated(), fmt.Errorf("credential exchange: %w", err)
	}
	return s.LoginWithToken(ctx, token)
}

// LoginWithToken opens a session with a token issued elsewhere.
func (s *Service) LoginWithToken(ctx context.Context, token string) (domainSession.State, error) {
	st := s.sessions.Login(ctx, token)
	if !st.IsAuthenticated() {
		return st, ErrTokenRejected
	}
	s.logger.Info().Str("subject", st.Subject).Msg("user login")
	return st, nil
}

// Logout ends the current session.
func (s *Service) Logout(ctx context.Context) {
	st := s.sessions.State()
	s.sessions.Logout(ctx)
	if st.IsAuthenticated() {
		s.logger.Info().Str("subject", st.Subject).Msg("user logout")
	}
}

// Session returns the current session state.
func (s *Service) Session() domainSession.State {
	return s.sessions.State()
}
