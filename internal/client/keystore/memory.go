package keystore

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/sealdrop/internal/common"
)

// Memory is a KeyProvider that keeps the key in memory only.
type Memory struct {
	mu  sync.Mutex
	key string
}

// NewMemory returns a provider preloaded with key; pass "" to start empty.
func NewMemory(key string) *Memory {
	return &Memory{key: key}
}

func (m *Memory) GetOrCreateKey(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.key == "" {
		key, err := generateKey()
		if err != nil {
			return "", err
		}
		m.key = key
	}
	return m.key, nil
}

func (m *Memory) GetKey(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.key == "" {
		return "", common.ErrNoKeyFound
	}
	return m.key, nil
}
