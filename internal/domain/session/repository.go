package session

//go:generate go run go.uber.org/mock/mockgen -destination=mocks/mock_repository.go -package=mocks . TokenStore

import "context"

// TokenStore persists the raw token under one fixed key.
type TokenStore interface {
	// Load returns ErrNoToken when nothing is stored.
	Load(ctx context.Context) (string, error)
	Save(ctx context.Context, token string) error
	// Delete is a no-op when nothing is stored.
	Delete(ctx context.Context) error
}
