package platform

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"notification-hub/internal/config"
	"notification-hub/internal/domain/model"
)

func telegramAdapterFor(srv *httptest.Server) *TelegramAdapter {
	return NewTelegramAdapter(config.TelegramConfig{
		BotToken:      "test-token",
		DefaultChatID: "777",
		APIBase:       srv.URL,
	}, srv.Client())
}

func TestTelegramSendSuccess(t *testing.T) {
	var gotPath string
	var gotBody map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"ok":     true,
			"result": map[string]interface{}{"message_id": float64(42)},
		})
	}))
	defer srv.Close()

	out := telegramAdapterFor(srv).Send(context.Background(), "hello", "123", "alice")
	if !out.Delivered() {
		t.Fatalf("Delivered() = false: %s", out.ErrorMessage)
	}
	if out.Platform != model.PlatformTelegram || out.Destination != "123" {
		t.Errorf("outcome = %s/%s", out.Platform, out.Destination)
	}
	if gotPath != "/bottest-token/sendMessage" {
		t.Errorf("path = %q", gotPath)
	}
	if gotBody["chat_id"] != "123" || gotBody["parse_mode"] != "Markdown" {
		t.Errorf("body = %v", gotBody)
	}
	text, _ := gotBody["text"].(string)
	if !strings.Contains(text, "From: alice") || !strings.Contains(text, "hello") {
		t.Errorf("text = %q, want sender line and content", text)
	}
	if ok, _ := out.Response["ok"].(bool); !ok {
		t.Errorf("response not captured: %v", out.Response)
	}
}

func TestTelegramSendUsesDefaultChatID(t *testing.T) {
	var gotBody map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&gotBody)
		json.NewEncoder(w).Encode(map[string]interface{}{"ok": true})
	}))
	defer srv.Close()

	out := telegramAdapterFor(srv).Send(context.Background(), "hello", "", "alice")
	if !out.Delivered() {
		t.Fatalf("Delivered() = false: %s", out.ErrorMessage)
	}
	if gotBody["chat_id"] != "777" || out.Destination != "777" {
		t.Errorf("chat_id = %v, destination = %q; want default 777", gotBody["chat_id"], out.Destination)
	}
}

func TestTelegramSendAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"ok":          false,
			"description": "Bad Request: chat not found",
		})
	}))
	defer srv.Close()

	out := telegramAdapterFor(srv).Send(context.Background(), "hello", "123", "alice")
	if out.Delivered() {
		t.Fatal("Delivered() = true for ok:false reply")
	}
	if !strings.HasPrefix(out.ErrorMessage, "telegram api error:") {
		t.Errorf("error = %q, want telegram api error prefix", out.ErrorMessage)
	}
	if !strings.Contains(out.ErrorMessage, "chat not found") {
		t.Errorf("error = %q, want provider description preserved", out.ErrorMessage)
	}
}

func TestTelegramSendTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close() // refuse all connections

	out := telegramAdapterFor(srv).Send(context.Background(), "hello", "123", "alice")
	if out.Delivered() {
		t.Fatal("Delivered() = true with no server")
	}
	if !strings.HasPrefix(out.ErrorMessage, "request failed:") {
		t.Errorf("error = %q, want request failed prefix", out.ErrorMessage)
	}
}

func TestTelegramSendMalformedReply(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>gateway timeout</html>"))
	}))
	defer srv.Close()

	out := telegramAdapterFor(srv).Send(context.Background(), "hello", "123", "alice")
	if out.Delivered() {
		t.Fatal("Delivered() = true for non-JSON reply")
	}
	if !strings.HasPrefix(out.ErrorMessage, "request failed: malformed reply") {
		t.Errorf("error = %q", out.ErrorMessage)
	}
}

func TestTelegramIsConfigured(t *testing.T) {
	cases := []struct {
		name string
		cfg  config.TelegramConfig
		want bool
	}{
		{"complete", config.TelegramConfig{BotToken: "t", DefaultChatID: "1", APIBase: "https://api.telegram.org"}, true},
		{"default base", config.TelegramConfig{BotToken: "t", DefaultChatID: "1"}, true},
		{"missing token", config.TelegramConfig{DefaultChatID: "1"}, false},
		{"missing chat id", config.TelegramConfig{BotToken: "t"}, false},
		{"bad base url", config.TelegramConfig{BotToken: "t", DefaultChatID: "1", APIBase: "::not-a-url"}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := NewTelegramAdapter(tc.cfg, nil).IsConfigured(); got != tc.want {
				t.Errorf("IsConfigured() = %v, want %v", got, tc.want)
			}
		})
	}
}
