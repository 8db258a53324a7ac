package ollama

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"NewsPoster/internal/config"
)

func newTestClient(host string) *Client {
	return NewClient(config.OllamaConfig{
		Host:                  host,
		Model:                 "test-model",
		ReadinessRetries:      3,
		ReadinessDelaySeconds: 0,
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestGenerateThreadsConversation(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req generateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Model != "test-model" {
			t.Errorf("unexpected model: %s", req.Model)
		}
		if req.Stream {
			t.Error("expected non-streaming request")
		}

		next := append(append([]int(nil), req.Context...), len(req.Context)+1)
		_ = json.NewEncoder(w).Encode(generateResponse{Response: "summary text", Context: next})
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	ctx := context.Background()

	text, conv, err := client.Generate(ctx, "instruction", nil)
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}
	if text != "summary text" {
		t.Fatalf("unexpected text: %q", text)
	}
	if len(conv) != 1 {
		t.Fatalf("expected primed conversation, got %v", conv)
	}

	_, conv2, err := client.Generate(ctx, "article", conv)
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}
	if len(conv2) != 2 {
		t.Fatalf("conversation not threaded: %v", conv2)
	}
}

func TestWaitReadyRecovers(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			http.Error(w, "loading model", http.StatusServiceUnavailable)
			return
		}
		_ = json.NewEncoder(w).Encode(generateResponse{Response: "pong"})
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	if err := client.WaitReady(context.Background()); err != nil {
		t.Fatalf("WaitReady error: %v", err)
	}
	if calls.Load() != 3 {
		t.Fatalf("expected 3 probes, got %d", calls.Load())
	}
}

func TestWaitReadyZeroRetriesStillProbesOnce(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewClient(config.OllamaConfig{Host: server.URL, Model: "test-model"}, slog.New(slog.NewTextHandler(io.Discard, nil)))

	err := client.WaitReady(context.Background())
	if err == nil {
		t.Fatal("expected error from unreachable backend")
	}
	if calls.Load() != 1 {
		t.Fatalf("expected exactly 1 probe, got %d", calls.Load())
	}
}

func TestWaitReadyExhaustsRetries(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	if err := client.WaitReady(context.Background()); err == nil {
		t.Fatal("expected error after exhausted retries")
	}
}
