package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/DanielPopoola/creski-storefront/internal/config"
	"github.com/DanielPopoola/creski-storefront/internal/domain"
)

// TelegramError is an ok=false answer from the Bot API.
type TelegramError struct {
	Code        int
	Description string
}

func (e *TelegramError) Error() string {
	return fmt.Sprintf("telegram error %d: %s", e.Code, e.Description)
}

type telegramResponse[T any] struct {
	OK          bool   `json:"ok"`
	Result      T      `json:"result"`
	ErrorCode   int    `json:"error_code"`
	Description string `json:"description"`
}

type sendMessageRequest struct {
	ChatID                int64  `json:"chat_id"`
	Text                  string `json:"text"`
	ParseMode             string `json:"parse_mode"`
	DisableWebPagePreview bool   `json:"disable_web_page_preview"`
}

type sentMessage struct {
	MessageID int64 `json:"message_id"`
}

// Telegram posts the order into the shop's chat. The message id is returned
// so the order can be found again when someone reacts to the message.
type Telegram struct {
	cfg        config.TelegramConfig
	httpClient *http.Client
}

func NewTelegram(cfg config.TelegramConfig) *Telegram {
	return &Telegram{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

func (c *Telegram) Name() string { return "telegram" }

func (c *Telegram) Send(ctx context.Context, ev domain.NotificationEvent) (Delivery, error) {
	if err := c.cfg.Validate(); err != nil {
		return Delivery{}, err
	}

	text, err := render("telegram", eventView(ev))
	if err != nil {
		return Delivery{}, err
	}

	msg, err := callBot[sendMessageRequest, sentMessage](ctx, c, "sendMessage", sendMessageRequest{
		ChatID:                c.cfg.ChatID,
		Text:                  text,
		ParseMode:             "HTML",
		DisableWebPagePreview: true,
	})
	if err != nil {
		return Delivery{}, err
	}

	id := msg.MessageID
	return Delivery{ChatMessageID: &id}, nil
}

func callBot[Req any, Resp any](ctx context.Context, c *Telegram, method string, req Req) (*Resp, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("error marshalling json: %w", err)
	}

	endpoint := fmt.Sprintf("%s/bot%s/%s", strings.TrimRight(c.cfg.BaseURL, "/"), c.cfg.BotToken, method)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", redactToken(err, c.cfg.BotToken))
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("error making request: %w", redactToken(err, c.cfg.BotToken))
	}
	defer resp.Body.Close()

	var out telegramResponse[Resp]
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("error decoding telegram response (status %d): %w", resp.StatusCode, err)
	}
	if !out.OK {
		return nil, &TelegramError{Code: out.ErrorCode, Description: out.Description}
	}
	return &out.Result, nil
}

// redactToken keeps the bot token out of logged transport errors.
func redactToken(err error, token string) error {
	var urlErr *url.Error
	if token != "" && errors.As(err, &urlErr) {
		urlErr.URL = strings.ReplaceAll(urlErr.URL, token, "<redacted>")
	}
	return err
}
