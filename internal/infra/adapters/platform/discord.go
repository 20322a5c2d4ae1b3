package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"notification-hub/internal/config"
	"notification-hub/internal/domain/model"
	"notification-hub/internal/domain/ports/adapter"
)

const discordWebhookPrefix = "https://discord.com/api/webhooks/"

var _ adapter.PlatformAdapter = (*DiscordAdapter)(nil)

// DiscordAdapter posts through a Discord incoming webhook. Webhooks are bound
// to one channel, so a non-empty destination is recorded for tracking but the
// post always goes to the configured webhook URL. Discord answers 204 No
// Content on success; the response payload is synthesized.
type DiscordAdapter struct {
	webhookURL string
	botName    string
	client     *http.Client
}

func NewDiscordAdapter(cfg config.DiscordConfig, client *http.Client) *DiscordAdapter {
	if client == nil {
		client = &http.Client{}
	}
	return &DiscordAdapter{
		webhookURL: cfg.WebhookURL,
		botName:    cfg.BotName,
		client:     client,
	}
}

func (a *DiscordAdapter) Send(ctx context.Context, content, destination, sender string) adapter.SendOutcome {
	dest := destination
	if dest == "" {
		dest = a.webhookURL
	}
	out := adapter.SendOutcome{Platform: model.PlatformDiscord, Destination: dest}

	body := map[string]interface{}{
		"content":  fmt.Sprintf("📨 **From: %s**\n\n%s", sender, content),
		"username": a.botName,
	}
	payload, err := json.Marshal(body)
	if err != nil {
		out.ErrorMessage = fmt.Sprintf("request failed: marshal body: %v", err)
		return out
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.webhookURL, bytes.NewReader(payload))
	if err != nil {
		out.ErrorMessage = fmt.Sprintf("request failed: %v", err)
		return out
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		out.ErrorMessage = fmt.Sprintf("request failed: %v", err)
		return out
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(resp.Body)
		out.ErrorMessage = fmt.Sprintf("discord webhook error: status %d: %s", resp.StatusCode, string(raw))
		return out
	}

	out.Response = map[string]interface{}{
		"status":    "success",
		"code":      resp.StatusCode,
		"timestamp": time.Now().Format(time.RFC3339),
	}
	return out
}

func (a *DiscordAdapter) PlatformType() model.Platform { return model.PlatformDiscord }

func (a *DiscordAdapter) IsConfigured() bool {
	return strings.HasPrefix(a.webhookURL, discordWebhookPrefix)
}
