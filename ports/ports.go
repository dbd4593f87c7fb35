// Package ports defines interfaces (contracts) between layers.
// These interfaces enable dependency injection and testability.
// Implementations live in adapters/.
package ports

import (
	"context"
	"errors"
	"time"

	"github.com/contentpro/ideagate/domain/conversation"
	"github.com/contentpro/ideagate/domain/entitlement"
	"github.com/contentpro/ideagate/domain/payment"
)

// ErrNotFound is returned by stores when an entity does not exist.
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned by stores when a unique constraint is violated.
var ErrDuplicate = errors.New("already exists")

// -----------------------------------------------------------------------------
// Infrastructure Ports
// -----------------------------------------------------------------------------

// Clock abstracts time for testability.
type Clock interface {
	Now() time.Time
}

// IDGenerator generates unique identifiers.
type IDGenerator interface {
	New() string
}

// -----------------------------------------------------------------------------
// Data Store Ports
// -----------------------------------------------------------------------------

// UserStore persists entitlement records. A write that returns an error
// means the mutation was not committed; callers may retry but must not
// assume partial application.
type UserStore interface {
	// Get retrieves a record by user ID. Returns ErrNotFound when the
	// user has never been seen.
	Get(ctx context.Context, userID string) (entitlement.UserRecord, error)

	// Create stores a new record. Returns ErrDuplicate if one exists.
	Create(ctx context.Context, rec entitlement.UserRecord) error

	// Update replaces an existing record.
	Update(ctx context.Context, rec entitlement.UserRecord) error

	// List returns records with pagination, ordered by user ID.
	List(ctx context.Context, limit, offset int) ([]entitlement.UserRecord, error)

	// Count returns the total number of records.
	Count(ctx context.Context) (int, error)
}

// ConversationStore persists the append-only generation audit trail.
type ConversationStore interface {
	// Append stores a new entry.
	Append(ctx context.Context, e conversation.Entry) error

	// ListByUser returns the most recent entries for a user.
	ListByUser(ctx context.Context, userID string, limit int) ([]conversation.Entry, error)
}

// -----------------------------------------------------------------------------
// External Service Ports
// -----------------------------------------------------------------------------

// Generator produces content ideas for a topic. Latency is unbounded
// from the caller's perspective (seconds are normal) and failure text
// is opaque; callers must not hold entitlement locks across a call.
type Generator interface {
	Generate(ctx context.Context, topic string) (string, error)
}

// Messenger is the outbound half of the chat transport.
type Messenger interface {
	// Send delivers a plain text message to a chat.
	Send(ctx context.Context, chatID int64, text string) error

	// SendCurrencyMenu shows the purchase currency selection to a chat.
	SendCurrencyMenu(ctx context.Context, chatID int64, currencies []payment.Currency) error

	// SendOffer presents a purchase offer (invoice) to a chat.
	SendOffer(ctx context.Context, chatID int64, offer payment.Offer) error

	// AnswerPreCheckout answers a pre-checkout query. The payment rail
	// expects this synchronously within a short deadline.
	AnswerPreCheckout(ctx context.Context, queryID string, ok bool, errMsg string) error

	// AnswerCallback acknowledges an inline keyboard callback.
	AnswerCallback(ctx context.Context, callbackID string, text string) error
}
