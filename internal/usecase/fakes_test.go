package usecase

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"

	"NewsPoster/internal/domain"
	"NewsPoster/internal/ports"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeFeed struct {
	items []domain.FeedItem
	err   error
}

func (f *fakeFeed) Fetch(ctx context.Context) ([]domain.FeedItem, error) {
	return f.items, f.err
}

type fakeExtractor struct {
	pages map[string]domain.Page
	errs  map[string]error
	calls []string
}

func (f *fakeExtractor) Extract(ctx context.Context, pageURL string) (domain.Page, error) {
	f.calls = append(f.calls, pageURL)
	if err := f.errs[pageURL]; err != nil {
		return domain.Page{}, err
	}
	return f.pages[pageURL], nil
}

type fakeGenerator struct {
	readyErr   error
	failSubstr string
	generated  int
}

func (g *fakeGenerator) WaitReady(ctx context.Context) error {
	return g.readyErr
}

func (g *fakeGenerator) Generate(ctx context.Context, prompt string, conv ports.Conversation) (string, ports.Conversation, error) {
	if g.failSubstr != "" && strings.Contains(prompt, g.failSubstr) {
		return "", nil, errors.New("generation backend error")
	}
	g.generated++
	// Literal backslash-n pairs, as generation backends tend to emit.
	return "<b>Пост</b>\\n\\nТекст поста", append(conv, g.generated), nil
}

type memStore struct {
	mu      sync.Mutex
	records []domain.Record
	saves   int
}

func (s *memStore) Load(ctx context.Context) ([]domain.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Record(nil), s.records...), nil
}

func (s *memStore) Update(ctx context.Context, mutate func([]domain.Record) ([]domain.Record, bool, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := append([]domain.Record(nil), s.records...)
	updated, changed, err := mutate(snapshot)
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}
	s.records = updated
	s.saves++
	return nil
}

type funcMessenger struct {
	fn func(ctx context.Context, mediaURL, caption string) error
}

func (m *funcMessenger) Send(ctx context.Context, mediaURL, caption string) error {
	return m.fn(ctx, mediaURL, caption)
}

type fakeMessenger struct {
	mu       sync.Mutex
	failures []error // outcome per successive call; nil entry = success
	calls    int
	sent     []string
}

func (m *fakeMessenger) Send(ctx context.Context, mediaURL, caption string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	idx := m.calls
	m.calls++
	if idx < len(m.failures) && m.failures[idx] != nil {
		return m.failures[idx]
	}
	m.sent = append(m.sent, caption)
	return nil
}
