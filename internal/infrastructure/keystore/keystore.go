package keystore

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

// KeySize is the length of a token sealing key.
const KeySize = 32

var ErrKeyNotFound = errors.New("key not found")

// StaticKeyStore is a simple in-memory keystore.
type StaticKeyStore struct {
	keys         map[string][]byte
	defaultKeyID string
}

// Parse builds a keystore from a key list and the id of the key used for
// new seals. Key list format: "keyId:hex,keyId2:hex". An empty list yields
// an empty keystore.
func Parse(raw, defaultKeyID string) (*StaticKeyStore, error) {
	keys := make(map[string][]byte)
	for _, p := range strings.Split(raw, ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		parts := strings.SplitN(p, ":", 2)
		if len(parts) != 2 || parts[0] == "" {
			return nil, errors.New("invalid sealing key format")
		}
		if strings.Contains(parts[0], ".") {
			return nil, fmt.Errorf("key id %q must not contain '.'", parts[0])
		}
		key, err := hex.DecodeString(parts[1])
		if err != nil {
			return nil, fmt.Errorf("key %s: %w", parts[0], err)
		}
		if len(key) != KeySize {
			return nil, fmt.Errorf("key %s: want %d bytes, got %d", parts[0], KeySize, len(key))
		}
		keys[parts[0]] = key
	}

	if defaultKeyID == "" && len(keys) == 1 {
		for id := range keys {
			defaultKeyID = id
		}
	}
	if len(keys) > 0 {
		if _, ok := keys[defaultKeyID]; !ok {
			return nil, fmt.Errorf("default key %q not configured", defaultKeyID)
		}
	}
	return &StaticKeyStore{keys: keys, defaultKeyID: defaultKeyID}, nil
}

// Empty reports whether no key is configured.
func (s *StaticKeyStore) Empty() bool {
	return len(s.keys) == 0
}

func (s *StaticKeyStore) GetKey(ctx context.Context, keyID string) ([]byte, error) {
	_ = ctx
	key, ok := s.keys[keyID]
	if !ok {
		return nil, ErrKeyNotFound
	}
	return key, nil
}

// GetDefaultKey returns the key used for new seals.
func (s *StaticKeyStore) GetDefaultKey(ctx context.Context) (keyID string, key []byte, err error) {
	if s.defaultKeyID == "" {
		return "", nil, errors.New("default key not configured")
	}
	key, err = s.GetKey(ctx, s.defaultKeyID)
	return s.defaultKeyID, key, err
}
