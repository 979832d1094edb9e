package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	domainSession "github.com/powerdesk/backoffice/internal/domain/session"
)

// MockExchanger is a mock implementation of Exchanger
type MockExchanger struct {
	mock.Mock
}

func (m *MockExchanger) Exchange(ctx context.Context, username, password string) (string, error) {
	args := m.Called(ctx, username, password)
	return args.String(0), args.Error(1)
}

// MockSessions is a mock implementation of Sessions
type MockSessions struct {
	mock.Mock
}

func (m *MockSessions) Login(ctx context.Context, token string) domainSession.State {
	args := m.Called(ctx, token)
	return args.Get(0).(domainSession.State)
}

func (m *MockSessions) Logout(ctx context.Context) {
	m.Called(ctx)
}

func (m *MockSessions) State() domainSession.State {
	args := m.Called()
	return args.Get(0).(domainSession.State)
}

func authenticated(subject string) domainSession.State {
	return domainSession.Authenticated(&domainSession.Claims{
		Subject:   subject,
		ExpiresAt: time.Now().Add(time.Hour),
	})
}

func TestService_Login(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		exchanger := new(MockExchanger)
		sessions := new(MockSessions)
		exchanger.On("Exchange", ctx, "alice", "S3cure!Passw0rd").Return("tok", nil)
		sessions.On("Login", ctx, "tok").Return(authenticated("alice"))

		svc := NewService(exchanger, sessions, zerolog.Nop())
		st, err := svc.Login(ctx, " alice ", "S3cure!Passw0rd")

		require.NoError(t, err)
		assert.True(t, st.IsAuthenticated())
		assert.Equal(t, "alice", st.Subject)
		exchanger.AssertExpectations(t)
		sessions.AssertExpectations(t)
	})

	t.Run("missing credentials", func(t *testing.T) {
		exchanger := new(MockExchanger)
		sessions := new(MockSessions)

		svc := NewService(exchanger, sessions, zerolog.Nop())
		_, err := svc.Login(ctx, "  ", "pw")

		assert.ErrorIs(t, err, ErrInvalidCredentials)
		exchanger.AssertNotCalled(t, "Exchange", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("rejected credentials", func(t *testing.T) {
		exchanger := new(MockExchanger)
		sessions := new(MockSessions)
		exchanger.On("Exchange", ctx, "alice", "wrong").Return("", ErrInvalidCredentials)

		svc := NewService(exchanger, sessions, zerolog.Nop())
		st, err := svc.Login(ctx, "alice", "wrong")

		assert.ErrorIs(t, err, ErrInvalidCredentials)
		assert.False(t, st.IsAuthenticated())
		sessions.AssertNotCalled(t, "Login", mock.Anything, mock.Anything)
	})

	t.Run("backend failure is wrapped", func(t *testing.T) {
		exchanger := new(MockExchanger)
		sessions := new(MockSessions)
		boom := errors.New("connection refused")
		exchanger.On("Exchange", ctx, "alice", "pw").Return("", boom)

		svc := NewService(exchanger, sessions, zerolog.Nop())
		_, err := svc.Login(ctx, "alice", "pw")

		assert.ErrorIs(t, err, boom)
		assert.NotErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("issued token rejected by session", func(t *testing.T) {
		exchanger := new(MockExchanger)
		sessions := new(MockSessions)
		exchanger.On("Exchange", ctx, "alice", "pw").Return("stale", nil)
		sessions.On("Login", ctx, "stale").Return(domainSession.Unauthenticated())

		svc := NewService(exchanger, sessions, zerolog.Nop())
		_, err := svc.Login(ctx, "alice", "pw")

		assert.ErrorIs(t, err, ErrTokenRejected)
	})
}

func TestService_Logout(t *testing.T) {
	ctx := context.Background()
	sessions := new(MockSessions)
	sessions.On("State").Return(authenticated("alice"))
	sessions.On("Logout", ctx).Return()

	svc := NewService(new(MockExchanger), sessions, zerolog.Nop())
	svc.Logout(ctx)

	sessions.AssertCalled(t, "Logout", ctx)
}
