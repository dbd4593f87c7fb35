package memory

import (
	"context"
	"sync"

	"github.com/contentpro/ideagate/domain/conversation"
	"github.com/contentpro/ideagate/ports"
)

// ConversationStore is an in-memory implementation of
// ports.ConversationStore. Entries are append-only per user.
type ConversationStore struct {
	mu      sync.RWMutex
	entries map[string][]conversation.Entry
}

// NewConversationStore creates a new in-memory conversation store.
func NewConversationStore() *ConversationStore {
	return &ConversationStore{entries: make(map[string][]conversation.Entry)}
}

// Append stores a new entry.
func (s *ConversationStore) Append(ctx context.Context, e conversation.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[e.UserID] = append(s.entries[e.UserID], e)
	return nil
}

// ListByUser returns the most recent entries for a user, newest last.
func (s *ConversationStore) ListByUser(ctx context.Context, userID string, limit int) ([]conversation.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := s.entries[userID]
	if limit > 0 && len(all) > limit {
		all = all[len(all)-limit:]
	}

	out := make([]conversation.Entry, len(all))
	copy(out, all)
	return out, nil
}

// Ensure interface compliance.
var _ ports.ConversationStore = (*ConversationStore)(nil)
