package sqlite

import (
	"context"

	"github.com/contentpro/ideagate/domain/conversation"
	"github.com/contentpro/ideagate/ports"
)

// ConversationStore implements ports.ConversationStore using SQLite.
type ConversationStore struct {
	db *DB
}

// NewConversationStore creates a new SQLite conversation store.
func NewConversationStore(db *DB) *ConversationStore {
	return &ConversationStore{db: db}
}

// Append stores a new entry.
func (s *ConversationStore) Append(ctx context.Context, e conversation.Entry) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO conversations (user_id, ts, topic, result)
		VALUES (?, ?, ?, ?)
	`, e.UserID, e.Timestamp, e.Topic, e.Result)
	return err
}

// ListByUser returns the most recent entries for a user, newest last.
func (s *ConversationStore) ListByUser(ctx context.Context, userID string, limit int) ([]conversation.Entry, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT user_id, ts, topic, result
		FROM (
			SELECT user_id, ts, topic, result, id
			FROM conversations
			WHERE user_id = ?
			ORDER BY id DESC
			LIMIT ?
		)
		ORDER BY id ASC
	`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []conversation.Entry
	for rows.Next() {
		var e conversation.Entry
		if err := rows.Scan(&e.UserID, &e.Timestamp, &e.Topic, &e.Result); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Ensure interface compliance.
var _ ports.ConversationStore = (*ConversationStore)(nil)
