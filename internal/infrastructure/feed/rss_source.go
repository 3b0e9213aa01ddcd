package feed

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/mail"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"

	"github.com/ChuheLin/cs2-wang/internal/config"
	"github.com/ChuheLin/cs2-wang/internal/domain"
	"github.com/ChuheLin/cs2-wang/internal/ports"
)

var whitespace = regexp.MustCompile(`\s+`)

// RSSSource downloads a syndication feed and maps its entries to news items.
type RSSSource struct {
	client    *http.Client
	url       string
	userAgent string
	logger    *slog.Logger
}

var _ ports.NewsSource = (*RSSSource)(nil)

// NewRSSSource wires an HTTP client; a nil client gets the configured timeout.
func NewRSSSource(client *http.Client, cfg config.FeedConfig, log *slog.Logger) *RSSSource {
	if client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 20 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	return &RSSSource{client: client, url: cfg.URL, userAgent: cfg.UserAgent, logger: log}
}

// Fetch returns every entry with a parsable publish time, in feed order.
func (s *RSSSource) Fetch(ctx context.Context) ([]domain.NewsItem, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if s.userAgent != "" {
		req.Header.Set("User-Agent", s.userAgent)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("feed returned %s", resp.Status)
	}

	parsed, err := gofeed.NewParser().Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}

	items := make([]domain.NewsItem, 0, len(parsed.Items))
	for _, entry := range parsed.Items {
		if entry == nil {
			continue
		}
		published, ok := publishedAt(entry)
		if !ok {
			s.debug("skip entry without publish date", "title", entry.Title)
			continue
		}
		items = append(items, domain.NewsItem{
			Title:     strings.TrimSpace(entry.Title),
			Summary:   plainText(entry.Description),
			Link:      strings.TrimSpace(entry.Link),
			Published: published.UTC(),
		})
	}

	s.debug("feed fetched", "entries", len(parsed.Items), "dated", len(items))
	return items, nil
}

func publishedAt(entry *gofeed.Item) (time.Time, bool) {
	if entry.PublishedParsed != nil {
		return *entry.PublishedParsed, true
	}
	raw := strings.TrimSpace(entry.Published)
	if raw == "" {
		return time.Time{}, false
	}
	ts, err := mail.ParseDate(raw)
	if err != nil {
		return time.Time{}, false
	}
	return ts, true
}

// plainText flattens an HTML fragment into a single line of text.
func plainText(fragment string) string {
	fragment = strings.TrimSpace(fragment)
	if fragment == "" {
		return ""
	}
	text := fragment
	if doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment)); err == nil {
		text = doc.Text()
	}
	return strings.TrimSpace(whitespace.ReplaceAllString(text, " "))
}

func (s *RSSSource) debug(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}
