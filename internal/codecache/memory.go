// Package codecache provides in-process storage for short lived codes.
// It is used when codes do not have to survive restarts or be shared between instances.
package codecache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/nkiryanov/eshop/internal/apperrors"
)

type entry struct {
	value     string
	expiresAt time.Time
}

type Memory struct {
	mu   sync.Mutex
	data map[string]entry
	now  func() time.Time
}

// NewMemory creates cache; if now is nil time.Now is used
func NewMemory(now func() time.Time) *Memory {
	if now == nil {
		now = time.Now
	}

	return &Memory{
		data: make(map[string]entry),
		now:  now,
	}
}

func (m *Memory) Set(_ context.Context, key string, value string, ttl time.Duration) error {
	if ttl <= 0 {
		return fmt.Errorf("ttl must be positive, got %s", ttl)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.data[key] = entry{value: value, expiresAt: m.now().Add(ttl)}
	return nil
}

func (m *Memory) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.alive(key)
	if !ok {
		return "", apperrors.ErrCodeNotFound
	}

	return e.value, nil
}

func (m *Memory) Take(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.alive(key)
	if !ok {
		return "", apperrors.ErrCodeNotFound
	}

	delete(m.data, key)
	return e.value, nil
}

func (m *Memory) DeleteExpired(_ context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	var deleted int64
	for key, e := range m.data {
		if !now.Before(e.expiresAt) {
			delete(m.data, key)
			deleted++
		}
	}

	return deleted, nil
}

// Must be called with mu held; drops the key if it is expired
func (m *Memory) alive(key string) (entry, bool) {
	e, ok := m.data[key]
	if !ok {
		return e, false
	}

	if !m.now().Before(e.expiresAt) {
		delete(m.data, key)
		return e, false
	}

	return e, true
}
