package telegram

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"NewsPoster/internal/config"
	"NewsPoster/internal/ports"
)

func newTestSender(t *testing.T, handler http.HandlerFunc) *Sender {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	sender := NewSender(config.TelegramConfig{BotToken: "token", ChannelID: "-100123"})
	sender.baseURL = server.URL
	sender.client = server.Client()
	return sender
}

func TestSendPhoto(t *testing.T) {
	t.Parallel()

	var gotPath string
	var gotForm map[string]string
	sender := newTestSender(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_ = r.ParseForm()
		gotForm = map[string]string{
			"chat_id":    r.PostFormValue("chat_id"),
			"photo":      r.PostFormValue("photo"),
			"caption":    r.PostFormValue("caption"),
			"parse_mode": r.PostFormValue("parse_mode"),
		}
		_, _ = w.Write([]byte(`{"ok":true}`))
	})

	err := sender.Send(context.Background(), "https://img.example/1.jpg", "<b>Заголовок</b> текст")
	if err != nil {
		t.Fatalf("Send error: %v", err)
	}

	if gotPath != "/bottoken/sendPhoto" {
		t.Fatalf("unexpected path: %s", gotPath)
	}
	if gotForm["chat_id"] != "-100123" || gotForm["parse_mode"] != "HTML" {
		t.Fatalf("unexpected form: %v", gotForm)
	}
	if gotForm["photo"] != "https://img.example/1.jpg" {
		t.Fatalf("unexpected photo: %s", gotForm["photo"])
	}
}

func TestSendMessageWithoutMedia(t *testing.T) {
	t.Parallel()

	var gotPath, gotText string
	sender := newTestSender(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_ = r.ParseForm()
		gotText = r.PostFormValue("text")
		_, _ = w.Write([]byte(`{"ok":true}`))
	})

	if err := sender.Send(context.Background(), "", "просто текст"); err != nil {
		t.Fatalf("Send error: %v", err)
	}
	if gotPath != "/bottoken/sendMessage" {
		t.Fatalf("unexpected path: %s", gotPath)
	}
	if gotText != "просто текст" {
		t.Fatalf("unexpected text: %q", gotText)
	}
}

func TestSendClassifiesContentGone(t *testing.T) {
	t.Parallel()

	sender := newTestSender(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"ok":false,"description":"Bad Request: message to send not found"}`))
	})

	err := sender.Send(context.Background(), "https://img.example/gone.jpg", "caption")
	if !errors.Is(err, ports.ErrContentGone) {
		t.Fatalf("expected ErrContentGone, got %v", err)
	}
}

func TestSendGenericFailure(t *testing.T) {
	t.Parallel()

	sender := newTestSender(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"ok":false,"description":"Bad Request: chat not allowed"}`))
	})

	err := sender.Send(context.Background(), "", "caption")
	if err == nil {
		t.Fatal("expected error")
	}
	if errors.Is(err, ports.ErrContentGone) {
		t.Fatalf("generic failure misclassified as content gone: %v", err)
	}
}
