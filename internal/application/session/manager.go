package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	domainSession "github.com/powerdesk/backoffice/internal/domain/session"
)

// DefaultLoginPath is where the browser is sent after any logout.
const DefaultLoginPath = "/login"

// Navigator performs the full-page redirect that discards client state.
type Navigator interface {
	Redirect(ctx context.Context, location string)
}

// Options configures a Manager.
type Options struct {
	LoginPath string
}

// Manager is the single owner of the authentication token lifecycle.
// Every transition runs under mu; at most one expiry timer exists, and a
// timer whose generation is stale is ignored when it fires.
type Manager struct {
	store     domainSession.TokenStore
	navigator Navigator
	clock     clockwork.Clock
	loginPath string
	logger    zerolog.Logger

	mu       sync.Mutex
	state    domainSession.State
	timer    clockwork.Timer
	timerGen uint64
	started  bool

	pending     []domainSession.Event
	notifyMu    sync.Mutex
	subsMu      sync.RWMutex
	subscribers map[uint64]func(domainSession.Event)
	nextSubID   uint64
}

// NewManager creates a Manager. Call Start once to hydrate from the store.
func NewManager(store domainSession.TokenStore, navigator Navigator, clock clockwork.Clock, opts Options, logger zerolog.Logger) *Manager {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if opts.LoginPath == "" {
		opts.LoginPath = DefaultLoginPath
	}
	return &Manager{
		store:       store,
		navigator:   navigator,
		clock:       clock,
		loginPath:   opts.LoginPath,
		logger:      logger.With().Str("component", "session_manager").Logger(),
		state:       domainSession.Unauthenticated(),
		subscribers: make(map[uint64]func(domainSession.Event)),
	}
}

// Start restores the session from the store. Only the first call has effect.
func (m *Manager) Start(ctx context.Context) {
	m.mu.Lock()
	if m.started {
		m.mu.Unlock()
		return
	}
	m.started = true

	raw, err := m.store.Load(ctx)
	if errors.Is(err, domainSession.ErrNoToken) {
		m.mu.Unlock()
		m.logger.Debug().Msg("no persisted token")
		return
	}
	if errors.Is(err, domainSession.ErrMalformedToken) {
		m.logger.Warn().Err(err).Msg("persisted token unreadable")
		m.logoutLocked(ctx, domainSession.ReasonInvalidToken)
		return
	}
	if err != nil {
		m.logger.Error().Err(err).Msg("load persisted token")
		m.logoutLocked(ctx, domainSession.ReasonStoreFailure)
		return
	}

	claims, err := domainSession.Decode(raw)
	if err != nil {
		m.logger.Warn().Err(err).Msg("persisted token unreadable")
		m.logoutLocked(ctx, domainSession.ReasonInvalidToken)
		return
	}
	expiresIn, err := claims.Validate(m.clock.Now())
	if err != nil {
		m.logger.Info().Err(err).Str("subject", claims.Subject).Msg("persisted token expired")
		m.logoutLocked(ctx, domainSession.ReasonExpired)
		return
	}

	m.authenticateLocked(claims, expiresIn, domainSession.ReasonHydrate)
}

// Login accepts a freshly issued token. It never fails: an unreadable or
// already expired token, or a token that cannot be persisted, runs the
// logout procedure instead. The resulting state is returned.
func (m *Manager) Login(ctx context.Context, token string) domainSession.State {
	m.mu.Lock()

	claims, err := domainSession.Decode(token)
	if err != nil {
		m.logger.Warn().Err(err).Msg("login with malformed token")
		return m.logoutLocked(ctx, domainSession.ReasonInvalidToken)
	}
	expiresIn, err := claims.Validate(m.clock.Now())
	if err != nil {
		m.logger.Warn().Err(err).Str("subject", claims.Subject).Msg("login with expired token")
		return m.logoutLocked(ctx, domainSession.ReasonExpired)
	}

	// cancel before replace: no timer for the previous token survives this call
	m.cancelTimerLocked()
	if err := m.store.Save(ctx, token); err != nil {
		m.logger.Error().Err(err).Msg("persist token")
		return m.logoutLocked(ctx, domainSession.ReasonStoreFailure)
	}

	reason := domainSession.ReasonLogin
	if m.state.IsAuthenticated() {
		reason = domainSession.ReasonRefresh
	}
	return m.authenticateLocked(claims, expiresIn, reason)
}

// Logout ends the session on explicit user action. It is idempotent.
func (m *Manager) Logout(ctx context.Context) {
	m.mu.Lock()
	m.logoutLocked(ctx, domainSession.ReasonLogout)
}

// HandleUnauthorized is called by the HTTP layer for every 401 response.
// The backend is authoritative, so the local timer is discarded.
func (m *Manager) HandleUnauthorized(ctx context.Context) {
	m.mu.Lock()
	m.logoutLocked(ctx, domainSession.ReasonUnauthorized)
}

// State returns a snapshot of the session.
func (m *Manager) State() domainSession.State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *Manager) IsAuthenticated() bool {
	return m.State().IsAuthenticated()
}

// Subscribe registers fn for every transition. Callbacks run synchronously
// on the transitioning goroutine and must not call Login, Logout or
// HandleUnauthorized themselves.
func (m *Manager) Subscribe(fn func(domainSession.Event)) (unsubscribe func()) {
	m.subsMu.Lock()
	id := m.nextSubID
	m.nextSubID++
	m.subscribers[id] = fn
	m.subsMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			m.subsMu.Lock()
			delete(m.subscribers, id)
			m.subsMu.Unlock()
		})
	}
}

// authenticateLocked arms the expiry timer and publishes the transition.
// It releases mu.
func (m *Manager) authenticateLocked(claims *domainSession.Claims, expiresIn time.Duration, reason domainSession.Reason) domainSession.State {
	m.cancelTimerLocked()
	gen := m.timerGen
	// expire must not run on the clock's goroutine: it stops timers and
	// reads the clock itself.
	m.timer = m.clock.AfterFunc(expiresIn, func() { go m.expire(gen) })
	m.state = domainSession.Authenticated(claims)

	m.logger.Info().
		Str("subject", claims.Subject).
		Str("reason", string(reason)).
		Dur("expires_in", expiresIn).
		Msg("session authenticated")

	return m.publishLocked(reason)
}

// logoutLocked runs the logout procedure and releases mu. An event is only
// published when the session actually left Authenticated; the redirect
// happens every time.
func (m *Manager) logoutLocked(ctx context.Context, reason domainSession.Reason) domainSession.State {
	m.cancelTimerLocked()
	if err := m.store.Delete(ctx); err != nil {
		m.logger.Error().Err(err).Msg("remove persisted token")
	}
	wasAuthenticated := m.state.IsAuthenticated()
	m.state = domainSession.Unauthenticated()

	if wasAuthenticated {
		m.logger.Info().Str("reason", string(reason)).Msg("session ended")
	}

	var st domainSession.State
	if wasAuthenticated {
		st = m.publishLocked(reason)
	} else {
		st = m.state
		m.mu.Unlock()
	}
	if m.navigator != nil {
		m.navigator.Redirect(ctx, m.loginPath)
	}
	return st
}

func (m *Manager) cancelTimerLocked() {
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
	m.timerGen++
}

func (m *Manager) expire(gen uint64) {
	m.mu.Lock()
	if gen != m.timerGen || !m.state.IsAuthenticated() {
		m.mu.Unlock()
		return
	}
	m.logger.Info().Msg("token lifetime elapsed")
	m.logoutLocked(context.Background(), domainSession.ReasonExpired)
}

// publishLocked queues an event for the current state and releases mu.
// Events are delivered in transition order by whichever goroutine holds
// notifyMu, so subscribers never run under mu.
func (m *Manager) publishLocked(reason domainSession.Reason) domainSession.State {
	st := m.state
	m.pending = append(m.pending, domainSession.NewEvent(reason, st, m.clock.Now()))
	m.mu.Unlock()
	m.flush()
	return st
}

func (m *Manager) flush() {
	m.notifyMu.Lock()
	defer m.notifyMu.Unlock()
	for {
		m.mu.Lock()
		batch := m.pending
		m.pending = nil
		m.mu.Unlock()
		if len(batch) == 0 {
			return
		}

		m.subsMu.RLock()
		subs := make([]func(domainSession.Event), 0, len(m.subscribers))
		for _, fn := range m.subscribers {
			subs = append(subs, fn)
		}
		m.subsMu.RUnlock()

		for _, ev := range batch {
			for _, fn := range subs {
				fn(ev)
			}
		}
	}
}
