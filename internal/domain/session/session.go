package session

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrNoToken is returned by a TokenStore that holds no token.
	ErrNoToken = errors.New("no token stored")
	// ErrMalformedToken is returned when a token cannot be decoded.
	ErrMalformedToken = errors.New("malformed token")
	// ErrInvalidCredentials is returned when the login endpoint rejects credentials.
	ErrInvalidCredentials = errors.New("invalid username or password")
	// ErrTokenExpired is returned when a token's expiry is not in the future.
	ErrTokenExpired = errors.New("token expired")
)

// Status is the authentication status of the session.
type Status int

const (
	StatusUnauthenticated Status = iota
	StatusAuthenticated
)

func (s Status) String() string {
	switch s {
	case StatusAuthenticated:
		return "AUTHENTICATED"
	case StatusUnauthenticated:
		return "UNAUTHENTICATED"
	default:
		return "UNKNOWN"
	}
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Reason explains why a transition happened.
type Reason string

const (
	ReasonLogin        Reason = "login"
	ReasonRefresh      Reason = "refresh"
	ReasonHydrate      Reason = "hydrate"
	ReasonLogout       Reason = "logout"
	ReasonExpired      Reason = "expired"
	ReasonUnauthorized Reason = "unauthorized"
	ReasonInvalidToken Reason = "invalid_token"
	ReasonStoreFailure Reason = "store_failure"
)

// State is a snapshot of the session.
type State struct {
	Status    Status    `json:"status"`
	Subject   string    `json:"subject,omitempty"`
	ExpiresAt time.Time `json:"expiresAt,omitempty"`
}

// Unauthenticated returns the zero session state.
func Unauthenticated() State {
	return State{Status: StatusUnauthenticated}
}

// Authenticated builds an authenticated state from decoded claims.
func Authenticated(c *Claims) State {
	return State{Status: StatusAuthenticated, Subject: c.Subject, ExpiresAt: c.ExpiresAt}
}

func (s State) IsAuthenticated() bool {
	return s.Status == StatusAuthenticated
}

// Event describes one session transition.
type Event struct {
	ID     uuid.UUID `json:"id"`
	Reason Reason    `json:"reason"`
	State  State     `json:"state"`
	At     time.Time `json:"at"`
}

// NewEvent creates an event for a transition into state.
func NewEvent(reason Reason, state State, at time.Time) Event {
	return Event{
		ID:     uuid.New(),
		Reason: reason,
		State:  state,
		At:     at.UTC(),
	}
}
