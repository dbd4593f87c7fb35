package app

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/contentpro/ideagate/domain/payment"
	"github.com/rs/zerolog"
)

// CreditResult is the outcome of a confirmed payment.
type CreditResult struct {
	Currency  payment.Currency
	PaidUntil time.Time
	Days      int
}

// PaymentFlow issues purchase offers, answers pre-checkout queries, and
// on confirmed payment instructs the entitlement service to credit a
// subscription. Offers are never persisted: confirmation is resolved
// from payload content alone, so a restart between offer and payment
// loses nothing.
type PaymentFlow struct {
	entitlements     *EntitlementService
	mu               sync.RWMutex
	prices           payment.PriceTable
	subscriptionDays int
	logger           zerolog.Logger
}

// NewPaymentFlow creates a payment flow with the configured price table
// and subscription length.
func NewPaymentFlow(entitlements *EntitlementService, prices payment.PriceTable, subscriptionDays int, logger zerolog.Logger) *PaymentFlow {
	return &PaymentFlow{
		entitlements:     entitlements,
		prices:           prices,
		subscriptionDays: subscriptionDays,
		logger:           logger,
	}
}

// SetPrices replaces the price table (config hot reload).
func (f *PaymentFlow) SetPrices(prices payment.PriceTable) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prices = prices
}

// SetSubscriptionDays updates the credited period (config hot reload).
func (f *PaymentFlow) SetSubscriptionDays(days int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subscriptionDays = days
}

// Currencies lists configured currencies in stable order.
func (f *PaymentFlow) Currencies() []payment.Currency {
	f.mu.RLock()
	defer f.mu.RUnlock()

	currencies := make([]payment.Currency, 0, len(f.prices))
	for c := range f.prices {
		currencies = append(currencies, c)
	}
	sort.Slice(currencies, func(i, j int) bool { return currencies[i] < currencies[j] })
	return currencies
}

// CreateOffer builds an ephemeral offer for a currency. No side effect
// beyond the returned value.
func (f *PaymentFlow) CreateOffer(currency payment.Currency) (payment.Offer, error) {
	f.mu.RLock()
	prices := f.prices
	f.mu.RUnlock()

	offer, err := payment.NewOffer(currency, prices, f.entitlements.clock.Now())
	if err != nil {
		return payment.Offer{}, err
	}

	f.logger.Info().
		Str("currency", string(offer.Currency)).
		Int64("amount_minor", offer.Price.AmountMinorUnits).
		Str("payload", offer.PayloadToken).
		Msg("purchase offer created")
	return offer, nil
}

// ValidatePreCheckout answers the payment rail's synchronous
// pre-checkout query. There is no stock or availability to check, so it
// always accepts; kept as an explicit step so a stricter validator can
// be substituted without touching Confirm.
func (f *PaymentFlow) ValidatePreCheckout(queryID, payload string) error {
	f.logger.Debug().
		Str("query_id", queryID).
		Str("payload", payload).
		Msg("pre-checkout accepted")
	return nil
}

// Confirm handles a successful-payment notification. It parses the
// payload to recover the currency and credits the fixed subscription
// length. The payment rail may deliver duplicates; repeated calls with
// the same payload extend the subscription rather than corrupt it.
//
// Every currency tier credits the same number of days. Three price
// points for one duration is inherited product behavior; changing it is
// a pricing decision, not a bug fix.
func (f *PaymentFlow) Confirm(ctx context.Context, payload, userID string) (CreditResult, error) {
	currency, _, err := payment.ParsePayload(payload)
	if err != nil {
		return CreditResult{}, fmt.Errorf("confirm payment for user %s: %w", userID, err)
	}

	f.mu.RLock()
	days := f.subscriptionDays
	f.mu.RUnlock()

	paidUntil, err := f.entitlements.Credit(ctx, userID, days)
	if err != nil {
		return CreditResult{}, err
	}

	f.logger.Info().
		Str("user_id", userID).
		Str("currency", string(currency)).
		Time("paid_until", paidUntil).
		Msg("payment confirmed")

	return CreditResult{
		Currency:  currency,
		PaidUntil: paidUntil,
		Days:      days,
	}, nil
}
