// Package session keeps the small citizen profile the frontend shows after
// sign-in. Handlers depend on Store, never on a concrete backend.
package session

import (
	"context"
	"errors"
	"sync"
)

// ErrNotFound is returned by Get when no profile exists for the key.
var ErrNotFound = errors.New("session not found")

// Profile is the persisted identity of a signed-in citizen.
type Profile struct {
	UserID   uint64 `json:"user_id"`
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Language string `json:"language,omitempty"`
}

// Store is the session capability.
type Store interface {
	Get(ctx context.Context, key string) (Profile, error)
	Set(ctx context.Context, key string, p Profile) error
	Clear(ctx context.Context, key string) error
}

// MemoryStore is a process-local Store. It is used when Redis is not
// reachable at startup and in tests.
type MemoryStore struct {
	mu sync.RWMutex
	m  map[string]Profile
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{m: make(map[string]Profile)}
}

func (s *MemoryStore) Get(_ context.Context, key string) (Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.m[key]
	if !ok {
		return Profile{}, ErrNotFound
	}
	return p, nil
}

func (s *MemoryStore) Set(_ context.Context, key string, p Profile) error {
	s.mu.Lock()
	s.m[key] = p
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Clear(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.m, key)
	s.mu.Unlock()
	return nil
}
