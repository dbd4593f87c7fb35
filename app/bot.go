package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/contentpro/ideagate/adapters/metrics"
	"github.com/contentpro/ideagate/domain/conversation"
	"github.com/contentpro/ideagate/domain/payment"
	"github.com/contentpro/ideagate/ports"
	"github.com/rs/zerolog"
)

// User-facing texts. The transport renders them verbatim.
const (
	msgWelcome = "IdeaGate generates content ideas and short post texts.\n\n" +
		"Commands:\n" +
		"/ideas <topic> - 5 ideas with sample texts\n" +
		"/buy - subscription\n" +
		"/status - subscription and quota status"
	msgIdeasUsage     = "Usage: /ideas <topic> - for example /ideas coffee shop"
	msgQuotaExhausted = "Your free daily quota is used up. Get unlimited access with /buy."
	msgGenerating     = "Generating ideas, hold on..."
	msgGenerationFail = "Sorry, idea generation failed. Please try again in a moment."
	msgStorageRetry   = "Something went wrong on our side. Please try again."
	msgChooseCurrency = "Choose a payment currency (1 month subscription):"
	msgPaymentBroken  = "We could not match your payment to an offer. Support has been notified."
	msgUnknown        = "Unknown command. Use /ideas <topic> or /buy."
)

// Bot routes inbound chat commands and payment events through the
// entitlement core. It is transport-agnostic: the telegram adapter (or
// a test) feeds it parsed updates and it replies via the Messenger port.
type Bot struct {
	entitlements  *EntitlementService
	gate          *UsageGate
	payments      *PaymentFlow
	generator     ports.Generator
	conversations ports.ConversationStore
	messenger     ports.Messenger
	clock         ports.Clock
	metrics       *metrics.Collector
	logger        zerolog.Logger
}

// BotConfig wires a Bot's collaborators.
type BotConfig struct {
	Entitlements  *EntitlementService
	Gate          *UsageGate
	Payments      *PaymentFlow
	Generator     ports.Generator
	Conversations ports.ConversationStore
	Messenger     ports.Messenger
	Clock         ports.Clock
	Metrics       *metrics.Collector
	Logger        zerolog.Logger
}

// NewBot creates the command router.
func NewBot(cfg BotConfig) *Bot {
	return &Bot{
		entitlements:  cfg.Entitlements,
		gate:          cfg.Gate,
		payments:      cfg.Payments,
		generator:     cfg.Generator,
		conversations: cfg.Conversations,
		messenger:     cfg.Messenger,
		clock:         cfg.Clock,
		metrics:       cfg.Metrics,
		logger:        cfg.Logger,
	}
}

// HandleCommand dispatches a slash command from a chat.
func (b *Bot) HandleCommand(ctx context.Context, chatID int64, userID, command, args string) error {
	switch command {
	case "start", "help":
		return b.handleStart(ctx, chatID, userID)
	case "status":
		return b.handleStatus(ctx, chatID, userID)
	case "ideas":
		return b.handleIdeas(ctx, chatID, userID, args)
	case "buy":
		return b.handleBuy(ctx, chatID)
	default:
		return b.messenger.Send(ctx, chatID, msgUnknown)
	}
}

// HandleText handles a non-command message.
func (b *Bot) HandleText(ctx context.Context, chatID int64) error {
	return b.messenger.Send(ctx, chatID, msgUnknown)
}

func (b *Bot) handleStart(ctx context.Context, chatID int64, userID string) error {
	// Touch the record so the user exists from first contact, matching
	// the lazy-creation lifecycle. A storage failure only costs the
	// eager creation; the welcome still goes out.
	if _, err := b.entitlements.GetOrCreate(ctx, userID); err != nil {
		b.logger.Error().Err(err).Str("user_id", userID).Msg("get-or-create on start failed")
	}
	return b.messenger.Send(ctx, chatID, msgWelcome)
}

func (b *Bot) handleStatus(ctx context.Context, chatID int64, userID string) error {
	status, err := b.entitlements.Status(ctx, userID, b.gate.DailyQuota())
	if err != nil {
		b.metrics.StorageErrors.Inc()
		b.logger.Error().Err(err).Str("user_id", userID).Msg("status lookup failed")
		return b.messenger.Send(ctx, chatID, msgStorageRetry)
	}

	paidUntil := "-"
	if status.PaidUntil != nil {
		paidUntil = status.PaidUntil.UTC().Format("2006-01-02 15:04 MST")
	}
	subscription := "none"
	if status.IsPaid {
		subscription = "active"
	}

	text := fmt.Sprintf(
		"Subscription: %s\nValid until: %s\nFree generations left today: %d",
		subscription, paidUntil, status.RemainingFree,
	)
	return b.messenger.Send(ctx, chatID, text)
}

func (b *Bot) handleIdeas(ctx context.Context, chatID int64, userID, topic string) error {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return b.messenger.Send(ctx, chatID, msgIdeasUsage)
	}

	decision, err := b.gate.CheckAndConsume(ctx, userID)
	if err != nil {
		// A failed persist means the consumption was not committed;
		// tell the user to retry instead of silently claiming success.
		b.metrics.StorageErrors.Inc()
		b.logger.Error().Err(err).Str("user_id", userID).Msg("usage check failed")
		return b.messenger.Send(ctx, chatID, msgStorageRetry)
	}
	if !decision.Allowed {
		b.metrics.QuotaDenied.Inc()
		b.metrics.GenerationsTotal.WithLabelValues("denied").Inc()
		return b.messenger.Send(ctx, chatID, msgQuotaExhausted)
	}

	if err := b.messenger.Send(ctx, chatID, msgGenerating); err != nil {
		b.logger.Warn().Err(err).Int64("chat_id", chatID).Msg("progress message failed")
	}

	// Quota is already charged; the slow upstream call runs outside any
	// entitlement lock. A failure here does not refund the consumption.
	started := b.clock.Now()
	result, err := b.generator.Generate(ctx, topic)
	b.metrics.GenerationDuration.Observe(b.clock.Now().Sub(started).Seconds())
	if err != nil {
		genErr := &GenerationError{Err: err}
		b.metrics.GenerationErrors.Inc()
		b.metrics.GenerationsTotal.WithLabelValues("failed").Inc()
		b.logger.Error().Err(genErr).Str("user_id", userID).Str("topic", topic).Msg("generation failed")
		return b.messenger.Send(ctx, chatID, msgGenerationFail)
	}

	outcome := "allowed_free"
	if decision.IsPaid {
		outcome = "allowed_paid"
	}
	b.metrics.GenerationsTotal.WithLabelValues(outcome).Inc()

	entry := conversation.Entry{
		UserID:    userID,
		Timestamp: b.clock.Now().UTC(),
		Topic:     topic,
		Result:    result,
	}
	if err := b.conversations.Append(ctx, entry); err != nil {
		// Audit trail only; the user still gets the result.
		b.logger.Error().Err(err).Str("user_id", userID).Msg("conversation append failed")
	}

	return b.messenger.Send(ctx, chatID, result)
}

func (b *Bot) handleBuy(ctx context.Context, chatID int64) error {
	if err := b.messenger.Send(ctx, chatID, msgChooseCurrency); err != nil {
		return err
	}
	return b.messenger.SendCurrencyMenu(ctx, chatID, b.payments.Currencies())
}

// HandleCurrencySelected handles a buy_<currency> callback: creates an
// offer and hands it to the transport as an invoice.
func (b *Bot) HandleCurrencySelected(ctx context.Context, chatID int64, callbackID, currencyArg string) error {
	currency, err := payment.ParseCurrency(currencyArg)
	if err != nil {
		b.logger.Warn().Err(err).Str("arg", currencyArg).Msg("callback with unknown currency")
		return b.messenger.AnswerCallback(ctx, callbackID, "Unknown currency")
	}

	offer, err := b.payments.CreateOffer(currency)
	if err != nil {
		b.logger.Error().Err(err).Str("currency", string(currency)).Msg("offer creation failed")
		return b.messenger.AnswerCallback(ctx, callbackID, "This option is unavailable right now")
	}

	if err := b.messenger.SendOffer(ctx, chatID, offer); err != nil {
		b.logger.Error().Err(err).Int64("chat_id", chatID).Msg("invoice delivery failed")
		return b.messenger.AnswerCallback(ctx, callbackID, "Could not send the invoice, try again")
	}
	b.metrics.OffersCreated.WithLabelValues(string(currency)).Inc()
	return b.messenger.AnswerCallback(ctx, callbackID, "")
}

// HandlePreCheckout answers the payment rail's pre-checkout query.
// Must respond within the rail's deadline.
func (b *Bot) HandlePreCheckout(ctx context.Context, queryID, payload string) error {
	if err := b.payments.ValidatePreCheckout(queryID, payload); err != nil {
		return b.messenger.AnswerPreCheckout(ctx, queryID, false, err.Error())
	}
	return b.messenger.AnswerPreCheckout(ctx, queryID, true, "")
}

// HandlePaymentConfirmed handles a successful-payment notification from
// the rail. Duplicate deliveries are safe; a malformed payload is
// logged and reported without crashing the serving loop.
func (b *Bot) HandlePaymentConfirmed(ctx context.Context, chatID int64, userID, payload string) error {
	result, err := b.payments.Confirm(ctx, payload, userID)
	if err != nil {
		if errors.Is(err, payment.ErrInvalidPayload) {
			b.logger.Error().Err(err).Str("user_id", userID).Str("payload", payload).
				Msg("payment confirmation with invalid payload")
			return b.messenger.Send(ctx, chatID, msgPaymentBroken)
		}
		b.metrics.StorageErrors.Inc()
		b.logger.Error().Err(err).Str("user_id", userID).Msg("payment crediting failed")
		return b.messenger.Send(ctx, chatID, msgStorageRetry)
	}
	b.metrics.PaymentsConfirmed.WithLabelValues(string(result.Currency)).Inc()
	b.metrics.DaysCredited.Add(float64(result.Days))

	text := fmt.Sprintf(
		"Payment received! Your subscription is active until %s.",
		result.PaidUntil.UTC().Format("2006-01-02"),
	)
	return b.messenger.Send(ctx, chatID, text)
}
