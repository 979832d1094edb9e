package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/powerdesk/backoffice/internal/domain/session"
)

// TokenStore implements session.TokenStore on a client_tokens row, so
// several gateway replicas behind one dashboard host share a session.
type TokenStore struct {
	pool *pgxpool.Pool
	key  string
}

func NewTokenStore(pool *pgxpool.Pool, key string) *TokenStore {
	return &TokenStore{pool: pool, key: key}
}

func (s *TokenStore) Load(ctx context.Context) (string, error) {
	var token string
	err := s.pool.QueryRow(ctx, `SELECT token FROM client_tokens WHERE key=$1`, s.key).Scan(&token)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", session.ErrNoToken
	}
	if err != nil {
		return "", err
	}
	return token, nil
}

func (s *TokenStore) Save(ctx context.Context, token string) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO client_tokens (key, token, updated_at)
		VALUES ($1,$2,$3)
		ON CONFLICT (key) DO UPDATE SET token=EXCLUDED.token, updated_at=EXCLUDED.updated_at
	`, s.key, token, time.Now().UTC())
	return err
}

func (s *TokenStore) Delete(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM client_tokens WHERE key=$1`, s.key)
	return err
}
