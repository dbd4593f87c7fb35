// Package entitlement provides pure functions for per-user quota
// accounting and subscription state. All functions are deterministic
// with no side effects; persistence happens in app/ via injected stores.
package entitlement

import "time"

// UserRecord is the per-user entitlement state (value type).
type UserRecord struct {
	UserID        string
	FreeUsedToday int
	LastResetDate time.Time // UTC date, truncated to midnight
	IsPaid        bool
	PaidUntil     *time.Time // nil = never purchased or lapsed
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Status is a read-only view of a user's entitlement.
type Status struct {
	IsPaid        bool
	PaidUntil     *time.Time
	RemainingFree int
	Active        bool // PaidUntil still in the future (advisory display only)
}

// DateOf truncates a time to its UTC calendar date.
// This is a PURE function.
func DateOf(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// NewRecord creates a UserRecord with default values for a user seen
// for the first time. This is a PURE function.
func NewRecord(userID string, now time.Time) UserRecord {
	now = now.UTC()
	return UserRecord{
		UserID:        userID,
		FreeUsedToday: 0,
		LastResetDate: DateOf(now),
		IsPaid:        false,
		PaidUntil:     nil,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// ResetIfNewDay zeroes the free-usage counter when the current UTC date
// is strictly later than the record's last reset date. Idempotent
// within the same day. Returns the (possibly updated) record and
// whether a reset fired. This is a PURE function.
func ResetIfNewDay(rec UserRecord, now time.Time) (UserRecord, bool) {
	today := DateOf(now)
	if !today.After(rec.LastResetDate) {
		return rec, false
	}
	rec.FreeUsedToday = 0
	rec.LastResetDate = today
	rec.UpdatedAt = now.UTC()
	return rec, true
}

// RecordFreeUsage increments the free-usage counter. The caller must
// have already verified quota remains; enforcement is deliberately
// separated from recording. This is a PURE function.
func RecordFreeUsage(rec UserRecord, now time.Time) UserRecord {
	rec.FreeUsedToday++
	rec.UpdatedAt = now.UTC()
	return rec
}

// Credit marks the record paid and extends PaidUntil by the given
// number of days. When a subscription is still running the extension
// is applied on top of the existing PaidUntil, so a duplicate payment
// confirmation lengthens the subscription instead of corrupting it.
// This is a PURE function.
func Credit(rec UserRecord, now time.Time, days int) UserRecord {
	now = now.UTC()
	base := now
	if rec.PaidUntil != nil && rec.PaidUntil.After(now) {
		base = *rec.PaidUntil
	}
	until := base.AddDate(0, 0, days)
	rec.IsPaid = true
	rec.PaidUntil = &until
	rec.UpdatedAt = now
	return rec
}

// RemainingFree returns how many free generations are left today,
// never negative. This is a PURE function.
func RemainingFree(rec UserRecord, dailyQuota int) int {
	remaining := dailyQuota - rec.FreeUsedToday
	if remaining < 0 {
		return 0
	}
	return remaining
}

// StatusOf computes the read-only entitlement view for a record.
// Active is advisory: IsPaid alone gates access, expiry reconciliation
// is display logic. This is a PURE function.
func StatusOf(rec UserRecord, now time.Time, dailyQuota int) Status {
	return Status{
		IsPaid:        rec.IsPaid,
		PaidUntil:     rec.PaidUntil,
		RemainingFree: RemainingFree(rec, dailyQuota),
		Active:        rec.IsPaid && rec.PaidUntil != nil && rec.PaidUntil.After(now.UTC()),
	}
}
