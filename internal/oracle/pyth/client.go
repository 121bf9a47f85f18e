// Package pyth fetches price readings from a Pyth Hermes endpoint.
package pyth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/oraclebets/oraclebets/internal/domain"
	"github.com/oraclebets/oraclebets/internal/settlement"
)

// feedMatches compares feed ids ignoring an optional 0x prefix, which Hermes
// strips from the ids it echoes back.
func feedMatches(got, want string) bool {
	return strings.TrimPrefix(strings.ToLower(got), "0x") ==
		strings.TrimPrefix(strings.ToLower(want), "0x")
}

// Client is the REST client for the Hermes price API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	now        func() time.Time
}

// NewClient creates a Hermes client.
//
// baseURL is the Hermes root, e.g. "https://hermes.pyth.network".
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		now: time.Now,
	}
}

// priceUpdate mirrors the Hermes /v2/updates/price/latest response.
type priceUpdate struct {
	Parsed []struct {
		ID    string `json:"id"`
		Price struct {
			Price       string `json:"price"`
			Expo        int32  `json:"expo"`
			PublishTime int64  `json:"publish_time"`
		} `json:"price"`
	} `json:"parsed"`
}

// GetPrice returns the latest reading for a feed. The reading is validated
// against maxAge before being returned, so callers never see a stale or
// mismatched price.
func (c *Client) GetPrice(ctx context.Context, feedID string, maxAge time.Duration) (domain.OracleReading, error) {
	params := url.Values{}
	params.Add("ids[]", feedID)
	params.Set("parsed", "true")

	path := "/v2/updates/price/latest?" + params.Encode()

	body, err := c.doGet(ctx, path)
	if err != nil {
		return domain.OracleReading{}, fmt.Errorf("pyth: get price %s: %w", feedID, err)
	}

	var update priceUpdate
	if err := json.Unmarshal(body, &update); err != nil {
		return domain.OracleReading{}, fmt.Errorf("pyth: decode price update: %w", err)
	}
	if len(update.Parsed) == 0 {
		return domain.OracleReading{}, fmt.Errorf("pyth: %w: feed=%s", domain.ErrNotFound, feedID)
	}

	p := update.Parsed[0]
	price, err := strconv.ParseInt(p.Price.Price, 10, 64)
	if err != nil {
		return domain.OracleReading{}, fmt.Errorf("pyth: parse price %q: %w", p.Price.Price, domain.ErrInvalidOracleData)
	}

	if !feedMatches(p.ID, feedID) {
		return domain.OracleReading{}, domain.ErrOracleMismatch
	}
	if p.Price.PublishTime <= 0 {
		return domain.OracleReading{}, domain.ErrInvalidOracleData
	}

	reading := domain.OracleReading{
		FeedID:      feedID,
		Price:       price,
		Expo:        p.Price.Expo,
		PublishedAt: time.Unix(p.Price.PublishTime, 0).UTC(),
	}

	if maxAge <= 0 {
		maxAge = settlement.DefaultMaxPriceAge
	}
	if c.now().Sub(reading.PublishedAt) > maxAge {
		return domain.OracleReading{}, domain.ErrStalePrice
	}
	return reading, nil
}

// doGet sends an unauthenticated GET request to the Hermes API.
func (c *Client) doGet(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, truncate(body, 200))
	}

	return body, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}

// Compile-time interface check.
var _ domain.PriceSource = (*Client)(nil)
