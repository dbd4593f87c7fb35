// Package app contains the service layer: entitlement accounting,
// the payment flow, the usage gate, and the bot command router.
// Business rules are pure functions in domain/; I/O happens at the
// edges via injected stores.
package app

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/contentpro/ideagate/adapters/metrics"
	"github.com/contentpro/ideagate/domain/entitlement"
	"github.com/contentpro/ideagate/ports"
	"github.com/rs/zerolog"
)

// userLocks serializes read-modify-write sequences per user so two
// concurrent updates for the same user cannot both observe
// quota-available and both consume.
type userLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newUserLocks() *userLocks {
	return &userLocks{locks: make(map[string]*sync.Mutex)}
}

// acquire locks the mutex for a user and returns its unlock func.
// Lock entries are never evicted; the per-user footprint is one mutex.
func (l *userLocks) acquire(userID string) func() {
	l.mu.Lock()
	m, ok := l.locks[userID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[userID] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}

// EntitlementService owns user entitlement records: lazy creation,
// daily quota reset, usage recording, and subscription crediting.
type EntitlementService struct {
	users   ports.UserStore
	clock   ports.Clock
	locks   *userLocks
	metrics *metrics.Collector
	logger  zerolog.Logger
}

// NewEntitlementService creates an entitlement service.
func NewEntitlementService(users ports.UserStore, clock ports.Clock, collector *metrics.Collector, logger zerolog.Logger) *EntitlementService {
	return &EntitlementService{
		users:   users,
		clock:   clock,
		locks:   newUserLocks(),
		metrics: collector,
		logger:  logger,
	}
}

// GetOrCreate returns the existing record for a user or creates and
// persists a default one. Persists on creation only.
func (s *EntitlementService) GetOrCreate(ctx context.Context, userID string) (entitlement.UserRecord, error) {
	rec, err := s.users.Get(ctx, userID)
	if err == nil {
		return rec, nil
	}
	if !errors.Is(err, ports.ErrNotFound) {
		return entitlement.UserRecord{}, &StorageError{Op: "get user", Err: err}
	}

	rec = entitlement.NewRecord(userID, s.clock.Now())
	if err := s.users.Create(ctx, rec); err != nil {
		// A concurrent first interaction may have created it already.
		if errors.Is(err, ports.ErrDuplicate) {
			existing, getErr := s.users.Get(ctx, userID)
			if getErr == nil {
				return existing, nil
			}
			err = getErr
		}
		return entitlement.UserRecord{}, &StorageError{Op: "create user", Err: err}
	}

	s.metrics.UsersCreated.Inc()
	s.logger.Info().Str("user_id", userID).Msg("created entitlement record")
	return rec, nil
}

// ResetIfNewDay applies the lazy once-per-day quota reset and persists
// the record when the reset fires. Idempotent within the same day.
// Must be called before any quota read or consume decision.
func (s *EntitlementService) ResetIfNewDay(ctx context.Context, rec entitlement.UserRecord) (entitlement.UserRecord, error) {
	reset, fired := entitlement.ResetIfNewDay(rec, s.clock.Now())
	if !fired {
		return rec, nil
	}
	if err := s.users.Update(ctx, reset); err != nil {
		return rec, &StorageError{Op: "persist quota reset", Err: err}
	}

	s.metrics.QuotaResets.Inc()
	s.logger.Debug().
		Str("user_id", rec.UserID).
		Time("reset_date", reset.LastResetDate).
		Msg("daily quota reset")
	return reset, nil
}

// RecordFreeUsage increments the free-usage counter and persists.
// Callers must have already verified quota remains; a persist failure
// means the increment was not committed.
func (s *EntitlementService) RecordFreeUsage(ctx context.Context, rec entitlement.UserRecord) (entitlement.UserRecord, error) {
	updated := entitlement.RecordFreeUsage(rec, s.clock.Now())
	if err := s.users.Update(ctx, updated); err != nil {
		return rec, &StorageError{Op: "persist free usage", Err: err}
	}
	return updated, nil
}

// Credit marks a user paid and extends PaidUntil by the given number of
// days, persisting before returning. Safe under duplicate payment
// confirmations: re-crediting extends the subscription. The write is
// synchronous so a crash cannot lose a payment credit.
func (s *EntitlementService) Credit(ctx context.Context, userID string, days int) (time.Time, error) {
	unlock := s.locks.acquire(userID)
	defer unlock()

	rec, err := s.GetOrCreate(ctx, userID)
	if err != nil {
		return time.Time{}, err
	}

	credited := entitlement.Credit(rec, s.clock.Now(), days)
	if err := s.users.Update(ctx, credited); err != nil {
		return time.Time{}, &StorageError{Op: "persist credit", Err: err}
	}

	s.logger.Info().
		Str("user_id", userID).
		Int("days", days).
		Time("paid_until", *credited.PaidUntil).
		Msg("subscription credited")
	return *credited.PaidUntil, nil
}

// Status returns the read-only entitlement view for a user, applying
// the lazy daily reset first so RemainingFree is accurate.
func (s *EntitlementService) Status(ctx context.Context, userID string, dailyQuota int) (entitlement.Status, error) {
	unlock := s.locks.acquire(userID)
	defer unlock()

	rec, err := s.GetOrCreate(ctx, userID)
	if err != nil {
		return entitlement.Status{}, err
	}
	rec, err = s.ResetIfNewDay(ctx, rec)
	if err != nil {
		return entitlement.Status{}, err
	}
	return entitlement.StatusOf(rec, s.clock.Now(), dailyQuota), nil
}
