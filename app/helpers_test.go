package app

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/contentpro/ideagate/adapters/clock"
	"github.com/contentpro/ideagate/adapters/generator"
	"github.com/contentpro/ideagate/adapters/memory"
	"github.com/contentpro/ideagate/adapters/metrics"
	"github.com/contentpro/ideagate/domain/conversation"
	"github.com/contentpro/ideagate/domain/entitlement"
	"github.com/contentpro/ideagate/domain/payment"
	"github.com/contentpro/ideagate/ports"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

var testStart = time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)

var testPrices = payment.PriceTable{
	payment.CurrencyUSDT:  {AmountMinorUnits: 1000, Denomination: "USD"},
	payment.CurrencyTON:   {AmountMinorUnits: 1500, Denomination: "USD"},
	payment.CurrencyStars: {AmountMinorUnits: 10000, Denomination: "XTR"},
}

// testEnv wires the service layer with fakes for one test.
type testEnv struct {
	users         *memory.UserStore
	conversations *memory.ConversationStore
	clock         *clock.Fake
	generator     *generator.Static
	messenger     *fakeMessenger
	entitlements  *EntitlementService
	gate          *UsageGate
	payments      *PaymentFlow
	bot           *Bot
}

func newTestEnv() *testEnv {
	users := memory.NewUserStore()
	conversations := memory.NewConversationStore()
	clk := clock.NewFake(testStart)
	gen := generator.NewStatic()
	msgr := &fakeMessenger{}
	collector := metrics.NewWith(prometheus.NewRegistry())
	logger := zerolog.Nop()

	entitlements := NewEntitlementService(users, clk, collector, logger)
	gate := NewUsageGate(entitlements, 3, logger)
	payments := NewPaymentFlow(entitlements, testPrices, 30, logger)

	bot := NewBot(BotConfig{
		Entitlements:  entitlements,
		Gate:          gate,
		Payments:      payments,
		Generator:     gen,
		Conversations: conversations,
		Messenger:     msgr,
		Clock:         clk,
		Metrics:       collector,
		Logger:        logger,
	})

	return &testEnv{
		users:         users,
		conversations: conversations,
		clock:         clk,
		generator:     gen,
		messenger:     msgr,
		entitlements:  entitlements,
		gate:          gate,
		payments:      payments,
		bot:           bot,
	}
}

// fakeMessenger records every outbound interaction.
type fakeMessenger struct {
	mu          sync.Mutex
	sent        []string
	menus       [][]payment.Currency
	offers      []payment.Offer
	preCheckout []bool
	callbacks   []string
	sendErr     error
}

func (m *fakeMessenger) Send(ctx context.Context, chatID int64, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sendErr != nil {
		return m.sendErr
	}
	m.sent = append(m.sent, text)
	return nil
}

func (m *fakeMessenger) SendCurrencyMenu(ctx context.Context, chatID int64, currencies []payment.Currency) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.menus = append(m.menus, currencies)
	return nil
}

func (m *fakeMessenger) SendOffer(ctx context.Context, chatID int64, offer payment.Offer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.offers = append(m.offers, offer)
	return nil
}

func (m *fakeMessenger) AnswerPreCheckout(ctx context.Context, queryID string, ok bool, errMsg string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.preCheckout = append(m.preCheckout, ok)
	return nil
}

func (m *fakeMessenger) AnswerCallback(ctx context.Context, callbackID string, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callbacks = append(m.callbacks, text)
	return nil
}

func (m *fakeMessenger) lastSent() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.sent) == 0 {
		return ""
	}
	return m.sent[len(m.sent)-1]
}

var _ ports.Messenger = (*fakeMessenger)(nil)

// failingUserStore wraps a store and fails writes on demand.
type failingUserStore struct {
	ports.UserStore
	failWrites bool
}

var errStoreDown = errors.New("store down")

func (s *failingUserStore) Create(ctx context.Context, rec entitlement.UserRecord) error {
	if s.failWrites {
		return errStoreDown
	}
	return s.UserStore.Create(ctx, rec)
}

func (s *failingUserStore) Update(ctx context.Context, rec entitlement.UserRecord) error {
	if s.failWrites {
		return errStoreDown
	}
	return s.UserStore.Update(ctx, rec)
}

// failingConversationStore fails every append.
type failingConversationStore struct{}

func (failingConversationStore) Append(ctx context.Context, e conversation.Entry) error {
	return errStoreDown
}

func (failingConversationStore) ListByUser(ctx context.Context, userID string, limit int) ([]conversation.Entry, error) {
	return nil, nil
}
