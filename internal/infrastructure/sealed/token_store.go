package sealed

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/crypto/nacl/secretbox"

	"github.com/powerdesk/backoffice/internal/domain/session"
)

const (
	version   = "v1"
	nonceSize = 24
)

// Keys resolves sealing keys by id.
type Keys interface {
	GetKey(ctx context.Context, keyID string) ([]byte, error)
	GetDefaultKey(ctx context.Context) (keyID string, key []byte, err error)
}

// TokenStore seals the token with NaCl secretbox before handing it to the
// inner store. The stored value is "v1.<keyID>.<base64url(nonce|box)>".
type TokenStore struct {
	inner session.TokenStore
	keys  Keys
}

func NewTokenStore(inner session.TokenStore, keys Keys) *TokenStore {
	return &TokenStore{inner: inner, keys: keys}
}

func (s *TokenStore) Load(ctx context.Context) (string, error) {
	raw, err := s.inner.Load(ctx)
	if err != nil {
		return "", err
	}
	parts := strings.SplitN(raw, ".", 3)
	if len(parts) != 3 || parts[0] != version {
		return "", fmt.Errorf("%w: unsealed entry", session.ErrMalformedToken)
	}
	key, err := s.keys.GetKey(ctx, parts[1])
	if err != nil {
		return "", fmt.Errorf("%w: sealing key %s: %v", session.ErrMalformedToken, parts[1], err)
	}
	blob, err := base64.RawURLEncoding.DecodeString(parts[2])
	if err != nil || len(blob) < nonceSize+secretbox.Overhead {
		return "", fmt.Errorf("%w: corrupt sealed entry", session.ErrMalformedToken)
	}
	var nonce [nonceSize]byte
	copy(nonce[:], blob[:nonceSize])
	opened, ok := secretbox.Open(nil, blob[nonceSize:], &nonce, keyArray(key))
	if !ok {
		return "", fmt.Errorf("%w: sealed entry failed authentication", session.ErrMalformedToken)
	}
	return string(opened), nil
}

func (s *TokenStore) Save(ctx context.Context, token string) error {
	keyID, key, err := s.keys.GetDefaultKey(ctx)
	if err != nil {
		return err
	}
	var nonce [nonceSize]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return err
	}
	box := secretbox.Seal(nonce[:], []byte(token), &nonce, keyArray(key))
	return s.inner.Save(ctx, version+"."+keyID+"."+base64.RawURLEncoding.EncodeToString(box))
}

func (s *TokenStore) Delete(ctx context.Context) error {
	return s.inner.Delete(ctx)
}

func keyArray(key []byte) *[32]byte {
	var k [32]byte
	copy(k[:], key)
	return &k
}
