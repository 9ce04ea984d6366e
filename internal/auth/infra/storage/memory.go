package storage

import (
	"context"
	"sync"

	"github.com/klwxsrx/edu-resource-client/internal/auth/session"
)

type memory struct {
	mutex  sync.RWMutex
	values map[string]string
}

// NewMemory returns a storage that lives as long as the process.
func NewMemory() session.Storage {
	return &memory{values: make(map[string]string)}
}

func (m *memory) Get(_ context.Context, key string) (string, bool, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	value, ok := m.values[key]
	return value, ok, nil
}

func (m *memory) Set(_ context.Context, key, value string) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.values[key] = value
	return nil
}

func (m *memory) Delete(_ context.Context, keys ...string) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	for _, key := range keys {
		delete(m.values, key)
	}
	return nil
}
