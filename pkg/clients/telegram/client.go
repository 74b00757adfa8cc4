package telegram

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/adiallo/spendbot/internal/config"
)

// Client exposes the Telegram Bot API operations used by the application.
type Client interface {
	SendMessage(ctx context.Context, req SendMessageRequest) (*SendMessageResponse, error)
	SetWebhook(ctx context.Context, url, secretToken string) error
}

// APIClient is a resty-backed implementation of Client.
type APIClient struct {
	httpClient *resty.Client
}

// NewClient builds a Telegram Bot API client using the provided configuration values.
func NewClient(cfg config.TelegramConfig) *APIClient {
	base := strings.TrimSuffix(cfg.BaseURL, "/")

	restyClient := resty.New()
	restyClient.
		SetBaseURL(fmt.Sprintf("%s/bot%s", base, cfg.BotToken)).
		SetHeader("Content-Type", "application/json").
		SetTimeout(15 * time.Second)

	return &APIClient{httpClient: restyClient}
}

// SendMessageRequest represents a simplified text message payload.
type SendMessageRequest struct {
	ChatID int64
	Text   string
}

// SendMessageResponse mirrors the successful response from Telegram.
type SendMessageResponse struct {
	OK     bool `json:"ok"`
	Result struct {
		MessageID int64 `json:"message_id"`
	} `json:"result"`
}

// apiError represents a Telegram Bot API error payload.
type apiError struct {
	OK          bool   `json:"ok"`
	ErrorCode   int    `json:"error_code"`
	Description string `json:"description"`
}

// SendMessage delivers a plain-text message to the given chat.
func (c *APIClient) SendMessage(ctx context.Context, req SendMessageRequest) (*SendMessageResponse, error) {
	payload := map[string]any{
		"chat_id": req.ChatID,
		"text":    req.Text,
	}

	result := new(SendMessageResponse)
	apiErr := new(apiError)

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(payload).
		SetResult(result).
		SetError(apiErr).
		Post("/sendMessage")
	if err != nil {
		return nil, fmt.Errorf("send telegram message: %w", err)
	}

	if resp.IsError() || !result.OK {
		return nil, fmt.Errorf("telegram api error: code=%d, description=%s", apiErr.ErrorCode, apiErr.Description)
	}

	return result, nil
}

// SetWebhook registers the public callback URL for inbound updates. The secret
// token, when set, is echoed back by Telegram in the
// X-Telegram-Bot-Api-Secret-Token header of every webhook call.
func (c *APIClient) SetWebhook(ctx context.Context, url, secretToken string) error {
	payload := map[string]any{"url": url}
	if secretToken != "" {
		payload["secret_token"] = secretToken
	}

	apiErr := new(apiError)

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(payload).
		SetError(apiErr).
		Post("/setWebhook")
	if err != nil {
		return fmt.Errorf("set telegram webhook: %w", err)
	}

	if resp.IsError() {
		return fmt.Errorf("telegram api error: code=%d, description=%s", apiErr.ErrorCode, apiErr.Description)
	}

	return nil
}
