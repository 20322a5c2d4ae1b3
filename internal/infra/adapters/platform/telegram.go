package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"notification-hub/internal/config"
	"notification-hub/internal/domain/model"
	"notification-hub/internal/domain/ports/adapter"
)

const telegramAPIBase = "https://api.telegram.org"

var _ adapter.PlatformAdapter = (*TelegramAdapter)(nil)

// TelegramAdapter sends one message per invocation through the Telegram bot
// API sendMessage method.
type TelegramAdapter struct {
	botToken      string
	defaultChatID string
	apiBase       string
	client        *http.Client
}

func NewTelegramAdapter(cfg config.TelegramConfig, client *http.Client) *TelegramAdapter {
	base := cfg.APIBase
	if base == "" {
		base = telegramAPIBase
	}
	if client == nil {
		client = &http.Client{}
	}
	return &TelegramAdapter{
		botToken:      cfg.BotToken,
		defaultChatID: cfg.DefaultChatID,
		apiBase:       base,
		client:        client,
	}
}

func (a *TelegramAdapter) Send(ctx context.Context, content, destination, sender string) adapter.SendOutcome {
	chatID := destination
	if chatID == "" {
		chatID = a.defaultChatID
	}
	out := adapter.SendOutcome{Platform: model.PlatformTelegram, Destination: chatID}

	body := map[string]interface{}{
		"chat_id":    chatID,
		"text":       fmt.Sprintf("📨 *From: %s*\n\n%s", sender, content),
		"parse_mode": "Markdown",
	}
	payload, err := json.Marshal(body)
	if err != nil {
		out.ErrorMessage = fmt.Sprintf("request failed: marshal body: %v", err)
		return out
	}

	endpoint := a.apiBase + "/bot" + a.botToken + "/sendMessage"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		out.ErrorMessage = fmt.Sprintf("request failed: %v", err)
		return out
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		out.ErrorMessage = fmt.Sprintf("request failed: %v", err)
		return out
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		out.ErrorMessage = fmt.Sprintf("request failed: read response: %v", err)
		return out
	}
	var reply map[string]interface{}
	if err := json.Unmarshal(raw, &reply); err != nil {
		out.ErrorMessage = fmt.Sprintf("request failed: malformed reply: %v", err)
		return out
	}

	// Telegram reports success through the "ok" field, not just the status.
	if ok, _ := reply["ok"].(bool); !ok || resp.StatusCode < 200 || resp.StatusCode >= 300 {
		out.ErrorMessage = "telegram api error: " + string(raw)
		return out
	}
	out.Response = reply
	return out
}

func (a *TelegramAdapter) PlatformType() model.Platform { return model.PlatformTelegram }

func (a *TelegramAdapter) IsConfigured() bool {
	if a.botToken == "" || a.defaultChatID == "" {
		return false
	}
	u, err := url.Parse(a.apiBase)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
