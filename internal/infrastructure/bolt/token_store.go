package bolt

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bbolt "go.etcd.io/bbolt"

	"github.com/powerdesk/backoffice/internal/domain/session"
)

var (
	bucketName = []byte("session")
	tokenKey   = []byte("token")
)

// TokenStore persists the token in a bbolt file so a restart can hydrate.
type TokenStore struct {
	db *bbolt.DB
}

// Open opens (or creates) the store file at path.
func Open(path string) (*TokenStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create token store dir: %w", err)
	}
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open token store %s: %w", path, err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketName)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init token store: %w", err)
	}
	return &TokenStore{db: db}, nil
}

func (s *TokenStore) Load(ctx context.Context) (string, error) {
	_ = ctx
	var token string
	err := s.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket(bucketName).Get(tokenKey)
		if v == nil {
			return session.ErrNoToken
		}
		token = string(v)
		return nil
	})
	return token, err
}

func (s *TokenStore) Save(ctx context.Context, token string) error {
	_ = ctx
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketName).Put(tokenKey, []byte(token))
	})
}

func (s *TokenStore) Delete(ctx context.Context) error {
	_ = ctx
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketName).Delete(tokenKey)
	})
}

func (s *TokenStore) Close() error {
	return s.db.Close()
}
