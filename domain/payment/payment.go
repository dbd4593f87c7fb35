// Package payment provides purchase offer value types and the payload
// token format used to correlate payment confirmations back to offers.
// All functions are pure; the payment rail itself lives behind ports.
package payment

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Currency identifies a supported payment currency.
type Currency string

const (
	CurrencyUSDT  Currency = "USDT"
	CurrencyTON   Currency = "TON"
	CurrencyStars Currency = "STARS"
)

// ErrUnknownCurrency is returned for currencies outside the supported set.
var ErrUnknownCurrency = errors.New("unknown currency")

// ErrInvalidPayload is returned when a confirmation payload cannot be
// parsed back into an offer.
var ErrInvalidPayload = errors.New("invalid payment payload")

// payloadPrefix is the leading component of every payload token.
// Format: subscription_<currency>_<RFC3339 creation time>.
const payloadPrefix = "subscription"

// Price is a fixed price point for one currency (value type).
type Price struct {
	AmountMinorUnits int64  // e.g. cents, nanotons, stars*100
	Denomination     string // ISO-ish code handed to the payment rail ("USD", "XTR")
}

// PriceTable maps each supported currency to its configured price.
type PriceTable map[Currency]Price

// Offer is an ephemeral purchase option shown to a user before payment.
// Offers are never persisted: a confirmation must be resolvable from
// the payload token alone, surviving a restart between offer and payment.
type Offer struct {
	Currency     Currency
	Price        Price
	PayloadToken string
	CreatedAt    time.Time
}

// ParseCurrency normalizes and validates a currency string.
// This is a PURE function.
func ParseCurrency(s string) (Currency, error) {
	switch Currency(strings.ToUpper(strings.TrimSpace(s))) {
	case CurrencyUSDT:
		return CurrencyUSDT, nil
	case CurrencyTON:
		return CurrencyTON, nil
	case CurrencyStars:
		return CurrencyStars, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownCurrency, s)
}

// BuildPayload encodes a currency and creation time into the payload
// token carried through the payment rail. The token is a correlation
// value, not a cryptographically verified credential.
// This is a PURE function.
func BuildPayload(currency Currency, createdAt time.Time) string {
	return fmt.Sprintf("%s_%s_%s",
		payloadPrefix,
		strings.ToLower(string(currency)),
		createdAt.UTC().Format(time.RFC3339),
	)
}

// ParsePayload recovers the currency and creation time from a payload
// token. Returns ErrInvalidPayload when the token does not match the
// expected shape. This is a PURE function.
func ParsePayload(payload string) (Currency, time.Time, error) {
	parts := strings.SplitN(payload, "_", 3)
	if len(parts) != 3 || parts[0] != payloadPrefix {
		return "", time.Time{}, fmt.Errorf("%w: %q", ErrInvalidPayload, payload)
	}

	currency, err := ParseCurrency(parts[1])
	if err != nil {
		return "", time.Time{}, fmt.Errorf("%w: %q", ErrInvalidPayload, payload)
	}

	createdAt, err := time.Parse(time.RFC3339, parts[2])
	if err != nil {
		return "", time.Time{}, fmt.Errorf("%w: bad timestamp in %q", ErrInvalidPayload, payload)
	}

	return currency, createdAt, nil
}

// NewOffer builds an offer for a currency using the given price table.
// This is a PURE function.
func NewOffer(currency Currency, prices PriceTable, now time.Time) (Offer, error) {
	price, ok := prices[currency]
	if !ok {
		return Offer{}, fmt.Errorf("%w: no price configured for %s", ErrUnknownCurrency, currency)
	}
	return Offer{
		Currency:     currency,
		Price:        price,
		PayloadToken: BuildPayload(currency, now),
		CreatedAt:    now.UTC(),
	}, nil
}

// Label returns the invoice line for an offer.
// This is a PURE function.
func (o Offer) Label() string {
	return fmt.Sprintf("IdeaGate subscription, 1 month (%s)", o.Currency)
}
