package app

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
)

// DenyReason explains why a generation request was refused.
type DenyReason string

// DenyQuotaExhausted means the free daily quota has been used up.
const DenyQuotaExhausted DenyReason = "quota_exhausted"

// Decision is the outcome of a usage check.
type Decision struct {
	Allowed       bool
	Reason        DenyReason // set when !Allowed
	RemainingFree int        // after consumption, for display
	IsPaid        bool
}

// UsageGate is the single enforcement point for generation requests.
// It consults the entitlement service, decides allow/deny, and on allow
// records the consumption before the caller invokes the generator.
type UsageGate struct {
	entitlements *EntitlementService
	mu           sync.RWMutex
	dailyQuota   int
	logger       zerolog.Logger
}

// NewUsageGate creates a usage gate with the configured daily quota.
func NewUsageGate(entitlements *EntitlementService, dailyQuota int, logger zerolog.Logger) *UsageGate {
	return &UsageGate{
		entitlements: entitlements,
		dailyQuota:   dailyQuota,
		logger:       logger,
	}
}

// DailyQuota returns the current free daily quota.
func (g *UsageGate) DailyQuota() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.dailyQuota
}

// SetDailyQuota updates the quota (config hot reload).
func (g *UsageGate) SetDailyQuota(n int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.dailyQuota = n
}

// CheckAndConsume decides whether a generation request is allowed and,
// for free-tier users, records the consumption. Paid users are always
// allowed. The whole read-modify-write runs under the per-user lock so
// concurrent requests cannot exceed the quota; the generator call
// happens after the lock is released, quota is charged up front.
func (g *UsageGate) CheckAndConsume(ctx context.Context, userID string) (Decision, error) {
	unlock := g.entitlements.locks.acquire(userID)
	defer unlock()

	rec, err := g.entitlements.GetOrCreate(ctx, userID)
	if err != nil {
		return Decision{}, err
	}

	rec, err = g.entitlements.ResetIfNewDay(ctx, rec)
	if err != nil {
		return Decision{}, err
	}

	if rec.IsPaid {
		return Decision{Allowed: true, IsPaid: true}, nil
	}

	quota := g.DailyQuota()
	if rec.FreeUsedToday >= quota {
		g.logger.Debug().
			Str("user_id", userID).
			Int("free_used", rec.FreeUsedToday).
			Msg("generation denied")
		return Decision{Allowed: false, Reason: DenyQuotaExhausted}, nil
	}

	rec, err = g.entitlements.RecordFreeUsage(ctx, rec)
	if err != nil {
		return Decision{}, err
	}

	return Decision{
		Allowed:       true,
		RemainingFree: quota - rec.FreeUsedToday,
	}, nil
}
