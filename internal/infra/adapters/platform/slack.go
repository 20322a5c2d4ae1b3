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

const slackWebhookPrefix = "https://hooks.slack.com/services/"

var _ adapter.PlatformAdapter = (*SlackAdapter)(nil)

// SlackAdapter posts through a Slack incoming webhook. Slack replies with a
// plain "ok" body on success.
type SlackAdapter struct {
	webhookURL     string
	defaultChannel string
	client         *http.Client
}

func NewSlackAdapter(cfg config.SlackConfig, client *http.Client) *SlackAdapter {
	if client == nil {
		client = &http.Client{}
	}
	return &SlackAdapter{
		webhookURL:     cfg.WebhookURL,
		defaultChannel: cfg.DefaultChannel,
		client:         client,
	}
}

func (a *SlackAdapter) Send(ctx context.Context, content, destination, sender string) adapter.SendOutcome {
	channel := destination
	if channel == "" {
		channel = a.defaultChannel
	}
	out := adapter.SendOutcome{Platform: model.PlatformSlack, Destination: channel}

	body := map[string]interface{}{
		"text": fmt.Sprintf("📨 *From: %s*\n\n%s", sender, content),
	}
	if channel != "" {
		body["channel"] = channel
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

	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		out.ErrorMessage = fmt.Sprintf("slack webhook error: status %d: %s", resp.StatusCode, string(raw))
		return out
	}

	out.Response = map[string]interface{}{
		"status":    strings.TrimSpace(string(raw)), // "ok"
		"timestamp": time.Now().Format(time.RFC3339),
	}
	return out
}

func (a *SlackAdapter) PlatformType() model.Platform { return model.PlatformSlack }

func (a *SlackAdapter) IsConfigured() bool {
	return strings.HasPrefix(a.webhookURL, slackWebhookPrefix)
}
