// Package jsonfile provides a whole-document JSON snapshot store.
// The entire state (users and conversations) is kept in memory and
// rewritten to disk on every mutation via write-to-temp + rename, so a
// crash mid-save never leaves the document worse than "before the
// mutation".
package jsonfile

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/contentpro/ideagate/domain/conversation"
	"github.com/contentpro/ideagate/domain/entitlement"
	"github.com/contentpro/ideagate/ports"
)

// dateFormat is how calendar dates are stored in the document.
const dateFormat = "2006-01-02"

// document is the on-disk schema.
type document struct {
	Users         map[string]userDoc    `json:"users"`
	Conversations map[string][]entryDoc `json:"conversations"`
}

type userDoc struct {
	FreeUsedToday int        `json:"free_used_today"`
	LastReset     string     `json:"last_reset"`
	IsPaid        bool       `json:"is_paid"`
	PaidUntil     *time.Time `json:"paid_until"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

type entryDoc struct {
	Timestamp time.Time `json:"ts"`
	Topic     string    `json:"topic"`
	Result    string    `json:"result"`
}

// Store holds the whole document and persists it atomically.
// It implements both ports.UserStore and ports.ConversationStore.
type Store struct {
	mu   sync.Mutex
	path string
	doc  document
}

// Open loads the document from path, creating an empty one when the
// file does not exist yet.
func Open(path string) (*Store, error) {
	s := &Store{
		path: path,
		doc: document{
			Users:         make(map[string]userDoc),
			Conversations: make(map[string][]entryDoc),
		},
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read store: %w", err)
	}

	if err := json.Unmarshal(data, &s.doc); err != nil {
		return nil, fmt.Errorf("parse store %s: %w", path, err)
	}
	if s.doc.Users == nil {
		s.doc.Users = make(map[string]userDoc)
	}
	if s.doc.Conversations == nil {
		s.doc.Conversations = make(map[string][]entryDoc)
	}
	return s, nil
}

// save writes the whole document to a temp file in the same directory
// and renames it over the target. Callers must hold s.mu.
func (s *Store) save() error {
	data, err := json.MarshalIndent(s.doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal store: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".ideagate-*.json")
	if err != nil {
		return fmt.Errorf("create temp store: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp store: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("sync temp store: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp store: %w", err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace store: %w", err)
	}
	return nil
}

func toUserDoc(rec entitlement.UserRecord) userDoc {
	return userDoc{
		FreeUsedToday: rec.FreeUsedToday,
		LastReset:     rec.LastResetDate.Format(dateFormat),
		IsPaid:        rec.IsPaid,
		PaidUntil:     rec.PaidUntil,
		CreatedAt:     rec.CreatedAt,
		UpdatedAt:     rec.UpdatedAt,
	}
}

func fromUserDoc(userID string, d userDoc) (entitlement.UserRecord, error) {
	lastReset, err := time.ParseInLocation(dateFormat, d.LastReset, time.UTC)
	if err != nil {
		return entitlement.UserRecord{}, fmt.Errorf("bad last_reset for user %s: %w", userID, err)
	}
	return entitlement.UserRecord{
		UserID:        userID,
		FreeUsedToday: d.FreeUsedToday,
		LastResetDate: lastReset,
		IsPaid:        d.IsPaid,
		PaidUntil:     d.PaidUntil,
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
	}, nil
}

// Get retrieves a record by user ID.
func (s *Store) Get(ctx context.Context, userID string) (entitlement.UserRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.doc.Users[userID]
	if !ok {
		return entitlement.UserRecord{}, ports.ErrNotFound
	}
	return fromUserDoc(userID, d)
}

// Create stores a new record and persists the document.
func (s *Store) Create(ctx context.Context, rec entitlement.UserRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.doc.Users[rec.UserID]; exists {
		return ports.ErrDuplicate
	}
	s.doc.Users[rec.UserID] = toUserDoc(rec)
	if err := s.save(); err != nil {
		delete(s.doc.Users, rec.UserID)
		return err
	}
	return nil
}

// Update replaces an existing record and persists the document.
// On a failed save the in-memory state is rolled back so the mutation
// is observably not committed.
func (s *Store) Update(ctx context.Context, rec entitlement.UserRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, exists := s.doc.Users[rec.UserID]
	if !exists {
		return ports.ErrNotFound
	}
	s.doc.Users[rec.UserID] = toUserDoc(rec)
	if err := s.save(); err != nil {
		s.doc.Users[rec.UserID] = prev
		return err
	}
	return nil
}

// List returns records with pagination, ordered by user ID.
func (s *Store) List(ctx context.Context, limit, offset int) ([]entitlement.UserRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]string, 0, len(s.doc.Users))
	for id := range s.doc.Users {
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
		rec, err := fromUserDoc(id, s.doc.Users[id])
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// Count returns the total number of records.
func (s *Store) Count(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.doc.Users), nil
}

// Append stores a conversation entry and persists the document.
func (s *Store) Append(ctx context.Context, e conversation.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.doc.Conversations[e.UserID] = append(s.doc.Conversations[e.UserID], entryDoc{
		Timestamp: e.Timestamp,
		Topic:     e.Topic,
		Result:    e.Result,
	})
	if err := s.save(); err != nil {
		entries := s.doc.Conversations[e.UserID]
		s.doc.Conversations[e.UserID] = entries[:len(entries)-1]
		return err
	}
	return nil
}

// ListByUser returns the most recent entries for a user, newest last.
func (s *Store) ListByUser(ctx context.Context, userID string, limit int) ([]conversation.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	docs := s.doc.Conversations[userID]
	if limit > 0 && len(docs) > limit {
		docs = docs[len(docs)-limit:]
	}

	out := make([]conversation.Entry, 0, len(docs))
	for _, d := range docs {
		out = append(out, conversation.Entry{
			UserID:    userID,
			Timestamp: d.Timestamp,
			Topic:     d.Topic,
			Result:    d.Result,
		})
	}
	return out, nil
}

// Ensure interface compliance.
var (
	_ ports.UserStore         = (*Store)(nil)
	_ ports.ConversationStore = (*Store)(nil)
)
