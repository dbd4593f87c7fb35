package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/contentpro/ideagate/domain/payment"
)

func TestCurrenciesStableOrder(t *testing.T) {
	env := newTestEnv()

	got := env.payments.Currencies()
	want := []payment.Currency{payment.CurrencyStars, payment.CurrencyTON, payment.CurrencyUSDT}
	if len(got) != len(want) {
		t.Fatalf("Currencies = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Currencies[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestCreateOffer(t *testing.T) {
	env := newTestEnv()

	offer, err := env.payments.CreateOffer(payment.CurrencyTON)
	if err != nil {
		t.Fatalf("CreateOffer error: %v", err)
	}
	if offer.Price.AmountMinorUnits != 1500 {
		t.Errorf("amount = %d, want 1500", offer.Price.AmountMinorUnits)
	}
	if offer.PayloadToken != payment.BuildPayload(payment.CurrencyTON, testStart) {
		t.Errorf("payload = %q", offer.PayloadToken)
	}

	if _, err := env.payments.CreateOffer(payment.Currency("BTC")); !errors.Is(err, payment.ErrUnknownCurrency) {
		t.Errorf("unknown currency: error = %v, want ErrUnknownCurrency", err)
	}
}

func TestValidatePreCheckoutAlwaysAccepts(t *testing.T) {
	env := newTestEnv()

	if err := env.payments.ValidatePreCheckout("q1", "anything at all"); err != nil {
		t.Errorf("ValidatePreCheckout error: %v", err)
	}
}

func TestConfirmCreditsSubscription(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	offer, err := env.payments.CreateOffer(payment.CurrencyUSDT)
	if err != nil {
		t.Fatalf("CreateOffer error: %v", err)
	}

	result, err := env.payments.Confirm(ctx, offer.PayloadToken, "42")
	if err != nil {
		t.Fatalf("Confirm error: %v", err)
	}
	if result.Currency != payment.CurrencyUSDT || result.Days != 30 {
		t.Errorf("result = %+v", result)
	}
	want := testStart.AddDate(0, 0, 30)
	if !result.PaidUntil.Equal(want) {
		t.Errorf("PaidUntil = %v, want %v", result.PaidUntil, want)
	}
}

func TestConfirmSurvivesRestart(t *testing.T) {
	// The offer was issued by a previous process instance; only the
	// payload carries state, so a fresh instance can still confirm it.
	payload := payment.BuildPayload(payment.CurrencyStars, testStart.Add(-time.Hour))

	fresh := newTestEnv()
	result, err := fresh.payments.Confirm(context.Background(), payload, "42")
	if err != nil {
		t.Fatalf("Confirm after restart error: %v", err)
	}
	if result.Currency != payment.CurrencyStars {
		t.Errorf("currency = %q, want STARS", result.Currency)
	}
}

func TestConfirmDuplicateDeliveryExtends(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	payload := payment.BuildPayload(payment.CurrencyTON, testStart)

	if _, err := env.payments.Confirm(ctx, payload, "42"); err != nil {
		t.Fatalf("first Confirm error: %v", err)
	}
	result, err := env.payments.Confirm(ctx, payload, "42")
	if err != nil {
		t.Fatalf("duplicate Confirm error: %v", err)
	}
	want := testStart.AddDate(0, 0, 60)
	if !result.PaidUntil.Equal(want) {
		t.Errorf("PaidUntil after duplicate = %v, want %v", result.PaidUntil, want)
	}
}

func TestConfirmRejectsMalformedPayload(t *testing.T) {
	env := newTestEnv()

	_, err := env.payments.Confirm(context.Background(), "order_12345", "42")
	if !errors.Is(err, payment.ErrInvalidPayload) {
		t.Errorf("error = %v, want ErrInvalidPayload", err)
	}

	// Nothing was credited.
	rec, getErr := env.users.Get(context.Background(), "42")
	if getErr == nil && rec.IsPaid {
		t.Error("user credited despite malformed payload")
	}
}

func TestHotReloadUpdatesPricesAndDays(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	env.payments.SetPrices(payment.PriceTable{
		payment.CurrencyUSDT: {AmountMinorUnits: 2000, Denomination: "USD"},
	})
	env.payments.SetSubscriptionDays(7)

	if got := env.payments.Currencies(); len(got) != 1 || got[0] != payment.CurrencyUSDT {
		t.Errorf("Currencies after reload = %v", got)
	}
	offer, err := env.payments.CreateOffer(payment.CurrencyUSDT)
	if err != nil {
		t.Fatalf("CreateOffer error: %v", err)
	}
	if offer.Price.AmountMinorUnits != 2000 {
		t.Errorf("amount = %d, want 2000", offer.Price.AmountMinorUnits)
	}

	result, err := env.payments.Confirm(ctx, offer.PayloadToken, "42")
	if err != nil {
		t.Fatalf("Confirm error: %v", err)
	}
	if result.Days != 7 {
		t.Errorf("Days = %d, want 7", result.Days)
	}
}
