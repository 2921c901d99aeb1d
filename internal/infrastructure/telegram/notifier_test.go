package telegram

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func TestNotify(t *testing.T) {
	var gotChat, gotText, gotMode string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/sendMessage") {
			_ = r.ParseForm()
			gotChat = r.Form.Get("chat_id")
			gotText = r.Form.Get("text")
			gotMode = r.Form.Get("parse_mode")
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true,"result":{}}`))
	}))
	defer server.Close()

	api := &tgbotapi.BotAPI{Token: "test-token", Client: server.Client(), Buffer: 100}
	api.SetAPIEndpoint(server.URL + "/bot%s/%s")

	n := NewNotifier(api)
	if err := n.Notify(context.Background(), 42, "hello *world*"); err != nil {
		t.Fatalf("Notify: %v", err)
	}

	if gotChat != "42" {
		t.Errorf("chat_id = %q, want 42", gotChat)
	}
	if gotText != "hello *world*" {
		t.Errorf("text = %q", gotText)
	}
	if gotMode != tgbotapi.ModeMarkdown {
		t.Errorf("parse_mode = %q, want Markdown", gotMode)
	}
}

func TestNotify_PerRecipientError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"ok":false,"error_code":403,"description":"Forbidden: bot was blocked by the user"}`))
	}))
	defer server.Close()

	api := &tgbotapi.BotAPI{Token: "test-token", Client: server.Client(), Buffer: 100}
	api.SetAPIEndpoint(server.URL + "/bot%s/%s")

	n := NewNotifier(api)
	if err := n.Notify(context.Background(), 42, "hi"); err == nil {
		t.Fatal("expected error for blocked recipient")
	}
}

func TestNotify_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	n := NewNotifier(&tgbotapi.BotAPI{})
	if err := n.Notify(ctx, 1, "hi"); err == nil {
		t.Fatal("expected context error")
	}
}
