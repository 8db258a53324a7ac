// Package ollama talks to an Ollama-compatible generate API.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"NewsPoster/internal/config"
	"NewsPoster/internal/ports"
)

// Client implements ports.Generator over the non-streaming generate endpoint.
type Client struct {
	host       string
	model      string
	retries    int
	retryDelay time.Duration
	httpClient *http.Client
	logger     *slog.Logger
}

var _ ports.Generator = (*Client)(nil)

// NewClient builds a client from configuration; readiness retries are
// clamped to at least one probe.
func NewClient(cfg config.OllamaConfig, logger *slog.Logger) *Client {
	retries := cfg.ReadinessRetries
	if retries < 1 {
		retries = 1
	}
	return &Client{
		host:       strings.TrimSuffix(cfg.Host, "/"),
		model:      cfg.Model,
		retries:    retries,
		retryDelay: cfg.ReadinessDelay(),
		httpClient: &http.Client{Timeout: 120 * time.Second},
		logger:     logger,
	}
}

type generateRequest struct {
	Model   string `json:"model"`
	Prompt  string `json:"prompt"`
	Stream  bool   `json:"stream"`
	Context []int  `json:"context,omitempty"`
}

type generateResponse struct {
	Response string `json:"response"`
	Context  []int  `json:"context"`
}

// WaitReady probes the backend with a minimal generate call, retrying a
// bounded number of times at a fixed delay. Exhausting the retries returns
// the last probe error.
func (c *Client) WaitReady(ctx context.Context) error {
	var lastErr error
	for attempt := 1; attempt <= c.retries; attempt++ {
		if _, _, lastErr = c.Generate(ctx, "ping", nil); lastErr == nil {
			c.logger.Debug("generation backend ready", "attempt", attempt)
			return nil
		}

		c.logger.Warn("waiting for generation backend", "attempt", attempt, "retries", c.retries, "error", lastErr)
		if attempt == c.retries {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.retryDelay):
		}
	}
	return fmt.Errorf("backend not ready after %d attempts: %w", c.retries, lastErr)
}

// Generate posts the prompt with the threaded conversation state and returns
// the response text together with the updated state.
func (c *Client) Generate(ctx context.Context, prompt string, conv ports.Conversation) (string, ports.Conversation, error) {
	body, err := json.Marshal(generateRequest{
		Model:   c.model,
		Prompt:  prompt,
		Stream:  false,
		Context: conv,
	})
	if err != nil {
		return "", nil, fmt.Errorf("marshal generate payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.host+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return "", nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", nil, fmt.Errorf("generate: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", nil, fmt.Errorf("generate error %s: %s", resp.Status, strings.TrimSpace(string(payload)))
	}

	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", nil, fmt.Errorf("decode generate response: %w", err)
	}

	return out.Response, out.Context, nil
}
