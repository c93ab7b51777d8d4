// Package keystore owns the client's symmetric encryption key.
//
// One key is generated per client identity on first use and persisted in the
// local metadata table under common.EncryptionKeyName. It never expires and
// is never rotated. Only the upload path may create it; downloads read it
// with GetKey, which fails with common.ErrNoKeyFound instead.
package keystore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/dmitrijs2005/sealdrop/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/sealdrop/internal/common"
	"github.com/dmitrijs2005/sealdrop/internal/cryptox"
)

// KeyProvider hands out the client's key as 64 lowercase hex characters.
type KeyProvider interface {
	GetOrCreateKey(ctx context.Context) (string, error)
	GetKey(ctx context.Context) (string, error)
}

// generateKey is a seam for tests.
var generateKey = cryptox.GenerateKey

// Manager is a KeyProvider backed by the metadata repository.
type Manager struct {
	mu   sync.Mutex
	repo metadata.Repository
}

func NewManager(repo metadata.Repository) *Manager {
	return &Manager{repo: repo}
}

// GetOrCreateKey returns the stored key, generating and storing one first if
// there is none. A malformed stored value is reported, never replaced.
// When another process stores a key first, that key wins and is returned.
func (m *Manager) GetOrCreateKey(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key, err := m.load(ctx)
	if err == nil {
		return key, nil
	}
	if !errors.Is(err, common.ErrorNotFound) {
		return "", err
	}

	key, err = generateKey()
	if err != nil {
		return "", err
	}
	stored, err := m.repo.SetIfAbsent(ctx, common.EncryptionKeyName, []byte(key))
	if err != nil {
		return "", fmt.Errorf("store encryption key: %w", err)
	}
	if stored {
		return key, nil
	}
	return m.load(ctx)
}

// GetKey returns the stored key or common.ErrNoKeyFound.
func (m *Manager) GetKey(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key, err := m.load(ctx)
	if errors.Is(err, common.ErrorNotFound) {
		return "", common.ErrNoKeyFound
	}
	return key, err
}

// load returns common.ErrorNotFound when nothing is stored.
func (m *Manager) load(ctx context.Context) (string, error) {
	v, err := m.repo.Get(ctx, common.EncryptionKeyName)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return "", err
		}
		return "", fmt.Errorf("load encryption key: %w", err)
	}

	key := string(v)
	if err := validKey(key); err != nil {
		return "", fmt.Errorf("%w: stored key is malformed", common.ErrNoKeyFound)
	}
	return key, nil
}

func validKey(key string) error {
	if key != strings.ToLower(key) {
		return common.ErrInvalidKey
	}
	return cryptox.ValidateKeyHex(key)
}
