package page

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"NewsPoster/internal/domain"
	"NewsPoster/internal/ports"
	"NewsPoster/internal/textutil"
)

const (
	breadcrumbSelector = "span.left.nowrap a.breadcrumb"
	contentSelector    = "div.js-mediator-article"
)

// Extractor resolves an article's detail page into its category and body
// text. The category is matched case-insensitively against the configured
// allow-list; no match leaves Page.Category empty.
type Extractor struct {
	client     *http.Client
	categories map[string]struct{}
}

var _ ports.PageExtractor = (*Extractor)(nil)

// NewExtractor takes an already-normalized (trimmed, lowercased) allow-list.
func NewExtractor(client *http.Client, allowlist []string) *Extractor {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	categories := make(map[string]struct{}, len(allowlist))
	for _, c := range allowlist {
		categories[c] = struct{}{}
	}
	return &Extractor{client: client, categories: categories}
}

// Extract downloads the page, picks the first allow-listed breadcrumb
// category and returns the cleaned article body.
func (e *Extractor) Extract(ctx context.Context, pageURL string) (domain.Page, error) {
	doc, err := e.fetchDocument(ctx, pageURL)
	if err != nil {
		return domain.Page{}, err
	}

	var category string
	doc.Find(breadcrumbSelector).EachWithBreak(func(i int, link *goquery.Selection) bool {
		title := strings.ToLower(strings.TrimSpace(link.AttrOr("title", "")))
		if _, ok := e.categories[title]; ok {
			category = title
			return false
		}
		return true
	})

	content := strings.TrimSpace(doc.Find(contentSelector).First().Text())
	content = textutil.StripAttribution(content)

	return domain.Page{Category: category, Content: content}, nil
}

func (e *Extractor) fetchDocument(ctx context.Context, pageURL string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "NewsPoster/1.0")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("page returned %s", resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse page: %w", err)
	}

	return doc, nil
}
