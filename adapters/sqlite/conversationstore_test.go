package sqlite

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/contentpro/ideagate/domain/conversation"
)

func TestConversationStoreAppendAndList(t *testing.T) {
	store := NewConversationStore(testDB(t))
	ctx := context.Background()
	now := time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		err := store.Append(ctx, conversation.Entry{
			UserID:    "42",
			Timestamp: now.Add(time.Duration(i) * time.Minute),
			Topic:     fmt.Sprintf("topic-%d", i),
			Result:    fmt.Sprintf("ideas-%d", i),
		})
		if err != nil {
			t.Fatalf("Append error: %v", err)
		}
	}
	if err := store.Append(ctx, conversation.Entry{
		UserID: "other", Timestamp: now, Topic: "noise", Result: "noise",
	}); err != nil {
		t.Fatalf("Append error: %v", err)
	}

	// Most recent three, oldest first.
	entries, err := store.ListByUser(ctx, "42", 3)
	if err != nil {
		t.Fatalf("ListByUser error: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("entries = %d, want 3", len(entries))
	}
	for i, e := range entries {
		want := fmt.Sprintf("topic-%d", i+2)
		if e.Topic != want {
			t.Errorf("entries[%d].Topic = %q, want %q", i, e.Topic, want)
		}
	}

	entries, err = store.ListByUser(ctx, "unknown", 10)
	if err != nil {
		t.Fatalf("ListByUser error: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("entries for unknown user = %v, want empty", entries)
	}
}
