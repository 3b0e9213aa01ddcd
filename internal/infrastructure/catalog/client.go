package catalog

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

	"github.com/ChuheLin/cs2-wang/internal/config"
	"github.com/ChuheLin/cs2-wang/internal/domain"
	"github.com/ChuheLin/cs2-wang/internal/ports"
)

// Client downloads the bulk price catalog in a single request.
type Client struct {
	endpoint  string
	userAgent string
	http      *http.Client
	logger    *slog.Logger
}

var _ ports.CatalogSource = (*Client)(nil)

// NewClient creates a client with a generous timeout; catalog bodies run to several megabytes.
func NewClient(cfg config.CatalogConfig, log *slog.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		endpoint:  cfg.Endpoint,
		userAgent: cfg.UserAgent,
		http:      &http.Client{Timeout: timeout},
		logger:    log,
	}
}

type catalogResponse struct {
	Success   json.RawMessage            `json:"success"`
	ItemsList map[string]json.RawMessage `json:"items_list"`
}

// Fetch returns the item mapping. A non-success status, an undecodable body or a
// body without a truthy success flag yields an empty catalog, not an error.
// Transport failures are returned.
func (c *Client) Fetch(ctx context.Context) (domain.Catalog, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request catalog: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.warn("catalog returned non-success status", "status", resp.Status, "body", strings.TrimSpace(string(payload)))
		return domain.Catalog{}, nil
	}

	var body catalogResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		c.warn("catalog body undecodable", "error", err)
		return domain.Catalog{}, nil
	}

	if !truthy(body.Success) {
		c.warn("catalog reported failure", "success", string(body.Success))
		return domain.Catalog{}, nil
	}

	if body.ItemsList == nil {
		return domain.Catalog{}, nil
	}
	return domain.Catalog(body.ItemsList), nil
}

func truthy(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	switch strings.ToLower(strings.Trim(string(raw), `"`)) {
	case "true", "1":
		return true
	default:
		return false
	}
}

func (c *Client) warn(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Warn(msg, args...)
	}
}
