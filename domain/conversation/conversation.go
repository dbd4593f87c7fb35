// Package conversation defines the append-only audit trail of
// generation requests. Entries are written after a generation completes
// and are never read back by the entitlement logic.
package conversation

import "time"

// Entry records a single generation request and its result (value type).
type Entry struct {
	UserID    string
	Timestamp time.Time
	Topic     string
	Result    string
}
