package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"NewsPoster/internal/config"
	"NewsPoster/internal/ports"
)

const defaultBaseURL = "https://api.telegram.org"

// Sender posts records to a Telegram channel via the bot API. Captions are
// rendered with HTML parse mode; items with a media URL go out as photos,
// the rest as plain messages.
type Sender struct {
	baseURL   string
	botToken  string
	channelID string
	client    *http.Client
}

var _ ports.Messenger = (*Sender)(nil)

// NewSender registers bot token and channel identifier.
func NewSender(cfg config.TelegramConfig) *Sender {
	return &Sender{
		baseURL:   defaultBaseURL,
		botToken:  cfg.BotToken,
		channelID: cfg.ChannelID,
		client:    &http.Client{Timeout: 20 * time.Second},
	}
}

type apiResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

// Send delivers the caption to the channel. Per-call deadlines come from ctx.
// Failures where Telegram cannot resolve the referenced content wrap
// ports.ErrContentGone so the caller can leave the record retryable.
func (s *Sender) Send(ctx context.Context, mediaURL, caption string) error {
	if s.botToken == "" || s.channelID == "" {
		return fmt.Errorf("telegram sender misconfigured")
	}

	form := url.Values{}
	form.Set("chat_id", s.channelID)
	form.Set("parse_mode", "HTML")

	method := "sendMessage"
	if mediaURL != "" {
		method = "sendPhoto"
		form.Set("photo", mediaURL)
		form.Set("caption", caption)
	} else {
		form.Set("text", caption)
	}

	endpoint := fmt.Sprintf("%s/bot%s/%s", s.baseURL, s.botToken, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	var api apiResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 4096)).Decode(&api); err != nil {
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("telegram error: %s", resp.Status)
		}
		return fmt.Errorf("decode telegram response: %w", err)
	}

	if !api.OK {
		return classify(api.Description, resp.Status)
	}

	return nil
}

func classify(description, status string) error {
	if strings.Contains(strings.ToLower(description), "not found") {
		return fmt.Errorf("telegram: %s: %w", description, ports.ErrContentGone)
	}
	if description == "" {
		description = status
	}
	return fmt.Errorf("telegram error: %s", description)
}
