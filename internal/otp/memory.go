package otp

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is a process-local code store for dev and tests. Single-node
// only: multi-instance deployments need the Redis store.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memEntry
}

type memEntry struct {
	code      string
	expiresAt time.Time
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]memEntry)}
}

// Put overwrites any pending code for the email.
func (s *MemoryStore) Put(_ context.Context, email, code string, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[email] = memEntry{code: code, expiresAt: expiresAt}
	return nil
}

// Get returns the pending code and its expiry.
func (s *MemoryStore) Get(_ context.Context, email string) (string, time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[email]
	if !ok {
		return "", time.Time{}, ErrNoCode
	}
	return e.code, e.expiresAt, nil
}

// Delete consumes the pending code.
func (s *MemoryStore) Delete(_ context.Context, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, email)
	return nil
}

var _ CodeStore = (*MemoryStore)(nil)
