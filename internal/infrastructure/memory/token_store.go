package memory

import (
	"context"
	"sync"

	"github.com/powerdesk/backoffice/internal/domain/session"
)

// TokenStore keeps the token in process memory. Nothing survives a restart.
type TokenStore struct {
	mu    sync.RWMutex
	token string
}

func NewTokenStore() *TokenStore {
	return &TokenStore{}
}

func (s *TokenStore) Load(ctx context.Context) (string, error) {
	_ = ctx
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.token == "" {
		return "", session.ErrNoToken
	}
	return s.token, nil
}

func (s *TokenStore) Save(ctx context.Context, token string) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	return nil
}

func (s *TokenStore) Delete(ctx context.Context) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	return nil
}
