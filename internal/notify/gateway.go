package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Gateway delivers one message to one destination handle.
type Gateway interface {
	Send(ctx context.Context, handle, message string) error
	Name() string
}

// TelegramGateway posts messages through the Telegram Bot API.
type TelegramGateway struct {
	apiBase string
	token   string
	timeout time.Duration
}

// NewTelegramGateway builds a gateway. apiBase is normally https://api.telegram.org.
func NewTelegramGateway(apiBase, token string, timeout time.Duration) *TelegramGateway {
	return &TelegramGateway{
		apiBase: strings.TrimRight(apiBase, "/"),
		token:   token,
		timeout: timeout,
	}
}

type telegramMessage struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode"`
}

type telegramResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

// Name identifies the gateway in logs.
func (g *TelegramGateway) Name() string { return "telegram" }

// Send performs a single sendMessage call.
func (g *TelegramGateway) Send(ctx context.Context, handle, message string) error {
	url := fmt.Sprintf("%s/bot%s/sendMessage", g.apiBase, g.token)
	code, body, err := postJSON(ctx, url, telegramMessage{ChatID: handle, Text: message, ParseMode: "HTML"}, g.timeout)
	if err != nil {
		return err
	}
	if code < 200 || code >= 300 {
		return fmt.Errorf("telegram status %d: %s", code, truncate(string(body), 200))
	}
	var resp telegramResponse
	if err := json.Unmarshal(body, &resp); err == nil && !resp.OK {
		return fmt.Errorf("telegram rejected message: %s", resp.Description)
	}
	return nil
}

// WebhookGateway posts {handle, message} JSON to a configured URL.
type WebhookGateway struct {
	url     string
	timeout time.Duration
}

// NewWebhookGateway builds a webhook gateway.
func NewWebhookGateway(url string, timeout time.Duration) *WebhookGateway {
	return &WebhookGateway{url: url, timeout: timeout}
}

// Name identifies the gateway in logs.
func (g *WebhookGateway) Name() string { return "webhook" }

// Send performs a single POST.
func (g *WebhookGateway) Send(ctx context.Context, handle, message string) error {
	payload := map[string]string{"handle": handle, "message": message}
	code, body, err := postJSON(ctx, g.url, payload, g.timeout)
	if err != nil {
		return err
	}
	if code < 200 || code >= 300 {
		return fmt.Errorf("webhook status %d: %s", code, truncate(string(body), 200))
	}
	return nil
}

// NoopGateway logs instead of sending. Used when nothing is configured.
type NoopGateway struct {
	logger *zap.Logger
}

// NewNoopGateway builds a logging-only gateway.
func NewNoopGateway(logger *zap.Logger) *NoopGateway {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NoopGateway{logger: logger}
}

// Name identifies the gateway in logs.
func (g *NoopGateway) Name() string { return "noop" }

// Send only logs.
func (g *NoopGateway) Send(_ context.Context, handle, message string) error {
	g.logger.Debug("notification skipped, no gateway configured",
		zap.String("handle", handle),
		zap.Int("length", len(message)))
	return nil
}

func postJSON(ctx context.Context, url string, payload any, timeout time.Duration) (int, []byte, error) {
	if err := ctx.Err(); err != nil {
		return 0, nil, err
	}
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); timeout <= 0 || remaining < timeout {
			timeout = remaining
		}
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	agent := fiber.Post(url)
	agent.Timeout(timeout)
	agent.JSON(payload)
	code, body, errs := agent.Bytes()
	if len(errs) > 0 {
		return code, body, errors.Join(errs...)
	}
	return code, body, nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
