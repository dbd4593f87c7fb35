// Package memory provides in-memory implementations of storage ports.
// Used in tests and as the default store when no persistence is
// configured.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/contentpro/ideagate/domain/entitlement"
	"github.com/contentpro/ideagate/ports"
)

// UserStore is an in-memory implementation of ports.UserStore.
type UserStore struct {
	mu    sync.RWMutex
	users map[string]entitlement.UserRecord
}

// NewUserStore creates a new in-memory user store.
func NewUserStore() *UserStore {
	return &UserStore{users: make(map[string]entitlement.UserRecord)}
}

// Get retrieves a record by user ID.
func (s *UserStore) Get(ctx context.Context, userID string) (entitlement.UserRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.users[userID]
	if !ok {
		return entitlement.UserRecord{}, ports.ErrNotFound
	}
	return rec, nil
}

// Create stores a new record.
func (s *UserStore) Create(ctx context.Context, rec entitlement.UserRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.users[rec.UserID]; exists {
		return ports.ErrDuplicate
	}
	s.users[rec.UserID] = rec
	return nil
}

// Update replaces an existing record.
func (s *UserStore) Update(ctx context.Context, rec entitlement.UserRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.users[rec.UserID]; !exists {
		return ports.ErrNotFound
	}
	s.users[rec.UserID] = rec
	return nil
}

// List returns records with pagination, ordered by user ID.
func (s *UserStore) List(ctx context.Context, limit, offset int) ([]entitlement.UserRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.users))
	for id := range s.users {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	if offset >= len(ids) {
		return nil, nil
	}
	ids = ids[offset:]
	if limit > 0 && limit < len(ids) {
		ids = ids[:limit]
	}

	out := make([]entitlement.UserRecord, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.users[id])
	}
	return out, nil
}

// Count returns the total number of records.
func (s *UserStore) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.users), nil
}

// Ensure interface compliance.
var _ ports.UserStore = (*UserStore)(nil)
