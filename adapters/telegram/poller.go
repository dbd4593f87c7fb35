package telegram

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/contentpro/ideagate/adapters/metrics"
	"github.com/contentpro/ideagate/app"
	"github.com/contentpro/ideagate/ports"
	"github.com/rs/zerolog"
)

// pollTimeout is the long-poll hold time requested from getUpdates.
const pollTimeout = 30 * time.Second

// update mirrors the subset of the Bot API Update object we consume.
type update struct {
	UpdateID         int64             `json:"update_id"`
	Message          *message          `json:"message"`
	CallbackQuery    *callbackQuery    `json:"callback_query"`
	PreCheckoutQuery *preCheckoutQuery `json:"pre_checkout_query"`
}

type message struct {
	From              *user              `json:"from"`
	Chat              chat               `json:"chat"`
	Text              string             `json:"text"`
	SuccessfulPayment *successfulPayment `json:"successful_payment"`
}

type user struct {
	ID int64 `json:"id"`
}

type chat struct {
	ID int64 `json:"id"`
}

type callbackQuery struct {
	ID      string   `json:"id"`
	From    *user    `json:"from"`
	Message *message `json:"message"`
	Data    string   `json:"data"`
}

type preCheckoutQuery struct {
	ID             string `json:"id"`
	From           *user  `json:"from"`
	InvoicePayload string `json:"invoice_payload"`
}

type successfulPayment struct {
	Currency       string `json:"currency"`
	TotalAmount    int64  `json:"total_amount"`
	InvoicePayload string `json:"invoice_payload"`
}

// Poller runs the getUpdates long-poll loop and dispatches updates
// into the bot. Updates are handled concurrently; per-user safety is
// the entitlement service's keyed locking.
type Poller struct {
	client  *Client
	bot     *app.Bot
	metrics *metrics.Collector
	ids     ports.IDGenerator
	logger  zerolog.Logger
	offset  int64
}

// NewPoller creates a poller. ids tags each dispatched update with a
// correlation id for log grouping.
func NewPoller(client *Client, bot *app.Bot, collector *metrics.Collector, ids ports.IDGenerator, logger zerolog.Logger) *Poller {
	return &Poller{
		client:  client,
		bot:     bot,
		metrics: collector,
		ids:     ids,
		logger:  logger,
	}
}

// Run polls until the context is cancelled. In-flight handlers are
// waited for before returning.
func (p *Poller) Run(ctx context.Context) error {
	p.logger.Info().Msg("starting update poll loop")

	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		updates, err := p.fetch(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || ctx.Err() != nil {
				p.logger.Info().Msg("poll loop stopping")
				return nil
			}
			p.logger.Error().Err(err).Msg("getUpdates failed, backing off")
			select {
			case <-time.After(3 * time.Second):
			case <-ctx.Done():
				return nil
			}
			continue
		}

		for _, u := range updates {
			if u.UpdateID >= p.offset {
				p.offset = u.UpdateID + 1
			}
			wg.Add(1)
			go func(u update) {
				defer wg.Done()
				p.dispatch(ctx, u)
			}(u)
		}
	}
}

// fetch performs one getUpdates call.
func (p *Poller) fetch(ctx context.Context) ([]update, error) {
	var result []update
	err := p.client.call(ctx, "getUpdates", map[string]any{
		"offset":          p.offset,
		"timeout":         int(pollTimeout.Seconds()),
		"allowed_updates": []string{"message", "callback_query", "pre_checkout_query"},
	}, &result)
	return result, err
}

// dispatch routes a single update to the right bot handler. Handler
// errors are logged, never fatal to the loop.
func (p *Poller) dispatch(ctx context.Context, u update) {
	logger := p.logger.With().
		Str("request_id", p.ids.New()).
		Int64("update_id", u.UpdateID).
		Logger()

	var err error

	switch {
	case u.PreCheckoutQuery != nil:
		p.metrics.UpdatesTotal.WithLabelValues("precheckout").Inc()
		err = p.bot.HandlePreCheckout(ctx, u.PreCheckoutQuery.ID, u.PreCheckoutQuery.InvoicePayload)

	case u.CallbackQuery != nil:
		p.metrics.UpdatesTotal.WithLabelValues("callback").Inc()
		err = p.dispatchCallback(ctx, u.CallbackQuery)

	case u.Message != nil && u.Message.SuccessfulPayment != nil:
		p.metrics.UpdatesTotal.WithLabelValues("payment").Inc()
		err = p.bot.HandlePaymentConfirmed(ctx, u.Message.Chat.ID,
			userIDOf(u.Message.From), u.Message.SuccessfulPayment.InvoicePayload)

	case u.Message != nil:
		err = p.dispatchMessage(ctx, u.Message)
	}

	if err != nil {
		logger.Error().Err(err).Msg("update handling failed")
	}
}

func (p *Poller) dispatchMessage(ctx context.Context, m *message) error {
	command, args, isCommand := parseCommand(m.Text)
	if !isCommand {
		p.metrics.UpdatesTotal.WithLabelValues("text").Inc()
		return p.bot.HandleText(ctx, m.Chat.ID)
	}

	p.metrics.UpdatesTotal.WithLabelValues("command").Inc()
	return p.bot.HandleCommand(ctx, m.Chat.ID, userIDOf(m.From), command, args)
}

func (p *Poller) dispatchCallback(ctx context.Context, q *callbackQuery) error {
	chatID := int64(0)
	if q.Message != nil {
		chatID = q.Message.Chat.ID
	}

	if cur, ok := strings.CutPrefix(q.Data, "buy_"); ok {
		return p.bot.HandleCurrencySelected(ctx, chatID, q.ID, cur)
	}

	p.logger.Warn().Str("data", q.Data).Msg("unrecognized callback")
	return p.client.AnswerCallback(ctx, q.ID, "")
}

// parseCommand splits "/ideas coffee shop" into ("ideas", "coffee shop").
// Bot-addressed commands like "/ideas@SomeBot" are normalized.
// This is a PURE function.
func parseCommand(text string) (command, args string, ok bool) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return "", "", false
	}

	command, args, _ = strings.Cut(text[1:], " ")
	command, _, _ = strings.Cut(command, "@")
	if command == "" {
		return "", "", false
	}
	return strings.ToLower(command), strings.TrimSpace(args), true
}

// userIDOf converts the platform identity into the opaque store key.
// This is a PURE function.
func userIDOf(u *user) string {
	if u == nil {
		return ""
	}
	return strconv.FormatInt(u.ID, 10)
}
