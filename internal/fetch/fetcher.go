package fetch

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/horizonbi/backend/pkg/logger"
)

const maxBodyLength = 100_000

// Fetched is a scraped article ready for ingestion.
type Fetched struct {
	URL   string
	Title string
	Body  string
}

// Fetcher retrieves news articles by URL and strips them down to title and
// body text.
type Fetcher struct {
	httpClient *http.Client
	userAgent  string
}

func NewFetcher(timeout time.Duration) *Fetcher {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Fetcher{
		httpClient: &http.Client{Timeout: timeout},
		userAgent:  "HorizonBI/1.0 (+news-indicator-pipeline)",
	}
}

func (f *Fetcher) FetchArticle(ctx context.Context, rawURL string) (*Fetched, error) {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("invalid article URL: %s", rawURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch article: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("article fetch returned status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	doc.Find("script, style, nav, footer, header, aside, form").Remove()

	title := strings.TrimSpace(doc.Find("title").First().Text())
	if title == "" {
		title = strings.TrimSpace(doc.Find("h1").First().Text())
	}

	// Prefer article/main containers over the whole body to keep boilerplate
	// out of the classifier input.
	body := extractText(doc, "article")
	if body == "" {
		body = extractText(doc, "main")
	}
	if body == "" {
		body = extractText(doc, "body")
	}

	if len(body) > maxBodyLength {
		body = body[:maxBodyLength]
	}

	if title == "" && body == "" {
		return nil, fmt.Errorf("no readable content at %s", rawURL)
	}

	logger.Debug("Article fetched",
		zap.String("url", rawURL),
		zap.Int("body_length", len(body)),
	)

	return &Fetched{
		URL:   rawURL,
		Title: title,
		Body:  body,
	}, nil
}

func extractText(doc *goquery.Document, selector string) string {
	text := doc.Find(selector).First().Text()
	return strings.Join(strings.Fields(text), " ")
}
