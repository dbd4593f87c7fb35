// Package telegram provides the chat transport: a Bot API client
// implementing ports.Messenger and a long-poll loop that translates
// inbound updates into bot calls.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/contentpro/ideagate/domain/payment"
	"github.com/contentpro/ideagate/ports"
)

// Client talks to the Telegram Bot API.
type Client struct {
	httpClient    *http.Client
	baseURL       string
	token         string
	providerToken string
}

// ClientConfig configures the Bot API client.
type ClientConfig struct {
	BaseURL       string // default https://api.telegram.org
	Token         string
	ProviderToken string // payment provider token for fiat invoices
	Timeout       time.Duration
}

// NewClient creates a Bot API client.
func NewClient(cfg ClientConfig) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://api.telegram.org"
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		// Long polling holds requests open for up to pollTimeout.
		timeout = 50 * time.Second
	}

	return &Client{
		httpClient:    &http.Client{Timeout: timeout},
		baseURL:       strings.TrimSuffix(baseURL, "/"),
		token:         cfg.Token,
		providerToken: cfg.ProviderToken,
	}
}

// apiResponse is the Bot API envelope.
type apiResponse struct {
	OK          bool            `json:"ok"`
	Description string          `json:"description"`
	Result      json.RawMessage `json:"result"`
}

// call invokes a Bot API method and decodes the result envelope.
func (c *Client) call(ctx context.Context, method string, params, result any) error {
	data, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("marshal %s params: %w", method, err)
	}

	url := fmt.Sprintf("%s/bot%s/%s", c.baseURL, c.token, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("create %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute %s: %w", method, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read %s response: %w", method, err)
	}

	var envelope apiResponse
	if err := json.Unmarshal(body, &envelope); err != nil {
		return fmt.Errorf("decode %s response: %w", method, err)
	}
	if !envelope.OK {
		return &APIError{Method: method, Description: envelope.Description}
	}

	if result != nil {
		if err := json.Unmarshal(envelope.Result, result); err != nil {
			return fmt.Errorf("decode %s result: %w", method, err)
		}
	}
	return nil
}

// APIError is a Bot API level failure (ok=false).
type APIError struct {
	Method      string
	Description string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("telegram %s: %s", e.Method, e.Description)
}

// Send delivers a plain text message to a chat.
func (c *Client) Send(ctx context.Context, chatID int64, text string) error {
	return c.call(ctx, "sendMessage", map[string]any{
		"chat_id": chatID,
		"text":    text,
	}, nil)
}

// SendCurrencyMenu shows an inline keyboard with one button per
// supported currency. Button callbacks carry "buy_<currency>".
func (c *Client) SendCurrencyMenu(ctx context.Context, chatID int64, currencies []payment.Currency) error {
	var rows [][]map[string]string
	for _, cur := range currencies {
		rows = append(rows, []map[string]string{{
			"text":          fmt.Sprintf("Pay with %s", cur),
			"callback_data": "buy_" + strings.ToLower(string(cur)),
		}})
	}

	return c.call(ctx, "sendMessage", map[string]any{
		"chat_id":      chatID,
		"text":         "Pick a currency:",
		"reply_markup": map[string]any{"inline_keyboard": rows},
	}, nil)
}

// SendOffer presents a purchase offer as an invoice. Telegram Stars
// invoices use the XTR denomination and no provider token.
func (c *Client) SendOffer(ctx context.Context, chatID int64, offer payment.Offer) error {
	params := map[string]any{
		"chat_id":     chatID,
		"title":       "IdeaGate subscription (1 month)",
		"description": fmt.Sprintf("Payment in %s. Unlimited ideas for 30 days.", offer.Currency),
		"payload":     offer.PayloadToken,
		"currency":    offer.Price.Denomination,
		"prices": []map[string]any{
			{"label": offer.Label(), "amount": offer.Price.AmountMinorUnits},
		},
		"start_parameter": "sub_" + strings.ToLower(string(offer.Currency)),
	}
	if offer.Price.Denomination != "XTR" {
		params["provider_token"] = c.providerToken
	}

	return c.call(ctx, "sendInvoice", params, nil)
}

// AnswerPreCheckout answers a pre-checkout query.
func (c *Client) AnswerPreCheckout(ctx context.Context, queryID string, ok bool, errMsg string) error {
	params := map[string]any{
		"pre_checkout_query_id": queryID,
		"ok":                    ok,
	}
	if !ok && errMsg != "" {
		params["error_message"] = errMsg
	}
	return c.call(ctx, "answerPreCheckoutQuery", params, nil)
}

// AnswerCallback acknowledges an inline keyboard callback.
func (c *Client) AnswerCallback(ctx context.Context, callbackID string, text string) error {
	params := map[string]any{
		"callback_query_id": callbackID,
	}
	if text != "" {
		params["text"] = text
	}
	return c.call(ctx, "answerCallbackQuery", params, nil)
}

// Ensure interface compliance.
var _ ports.Messenger = (*Client)(nil)
