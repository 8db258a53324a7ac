package rss

import (
	"context"
	"encoding/xml"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"

	"NewsPoster/internal/domain"
	"NewsPoster/internal/ports"
)

var idExpr = regexp.MustCompile(`/(\d+)/`)

// Source fetches the RSS feed snapshot and maps items into feed entries.
type Source struct {
	url    string
	client *http.Client
	logger *slog.Logger
}

var _ ports.FeedSource = (*Source)(nil)

// NewSource wires an HTTP client; a nil client gets a 20s-timeout default.
func NewSource(feedURL string, client *http.Client, logger *slog.Logger) *Source {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	return &Source{url: feedURL, client: client, logger: logger}
}

type rssEnvelope struct {
	Channel struct {
		Items []rssItem `xml:"item"`
	} `xml:"channel"`
}

type rssItem struct {
	Title     string        `xml:"title"`
	Link      string        `xml:"link"`
	GUID      string        `xml:"guid"`
	PubDate   string        `xml:"pubDate"`
	Enclosure *rssEnclosure `xml:"enclosure"`
}

type rssEnclosure struct {
	URL string `xml:"url,attr"`
}

// Fetch downloads and decodes the feed. Items whose GUID carries no numeric
// identifier are dropped with a logged warning; a transport or decode error
// aborts the whole fetch.
func (s *Source) Fetch(ctx context.Context) ([]domain.FeedItem, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "NewsPoster/1.0")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("feed returned %s", resp.Status)
	}

	var envelope rssEnvelope
	if err := xml.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("decode feed: %w", err)
	}

	items := make([]domain.FeedItem, 0, len(envelope.Channel.Items))
	for _, raw := range envelope.Channel.Items {
		guid := strings.TrimSpace(raw.GUID)
		id, err := ItemID(guid)
		if err != nil {
			s.logger.Warn("skip feed item", "guid", guid, "error", err)
			continue
		}

		item := domain.FeedItem{
			ID:          id,
			GUID:        guid,
			Link:        strings.TrimSpace(raw.Link),
			Title:       strings.TrimSpace(raw.Title),
			PublishedAt: strings.TrimSpace(raw.PubDate),
		}
		if raw.Enclosure != nil {
			item.MediaURL = strings.TrimSpace(raw.Enclosure.URL)
		}
		items = append(items, item)
	}

	return items, nil
}

// ItemID extracts the stable numeric identifier from an item GUID. It is a
// pure function of the GUID and the sole dedup key.
func ItemID(guid string) (string, error) {
	match := idExpr.FindStringSubmatch(guid)
	if match == nil {
		return "", fmt.Errorf("guid %q carries no numeric id", guid)
	}
	return match[1], nil
}
