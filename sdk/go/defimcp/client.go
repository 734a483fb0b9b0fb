// Package defimcp provides a small Go client for the daemon's operational
// REST API: the trade journal, the managed account list and the health
// endpoint. Agent-facing tooling should talk MCP instead.
package defimcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"time"
)

// DefaultHTTPTimeout defines the timeout used by clients created without a
// custom http.Client. It is intentionally short to avoid hanging network calls.
const DefaultHTTPTimeout = 15 * time.Second

// Client wraps the HTTP interactions with the defimcp operational API.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
}

// Trade mirrors a journal entry as returned by the API.
type Trade struct {
	ID           string `json:"id"`
	Kind         string `json:"kind"`
	Chain        string `json:"chain"`
	Account      string `json:"account"`
	Counterparty string `json:"counterparty"`
	AmountWei    string `json:"amount_wei"`
	MinimumOut   string `json:"minimum_out,omitempty"`
	TxHash       string `json:"tx_hash,omitempty"`
	GasUsed      uint64 `json:"gas_used"`
	Status       string `json:"status"`
	ErrorCode    string `json:"error_code,omitempty"`
	LastError    string `json:"last_error,omitempty"`
	CreatedAt    int64  `json:"created_at"`
}

// Health mirrors the /healthz payload.
type Health struct {
	Status string `json:"status"`
}

// APIError represents server side validation or internal errors.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("defimcp api error (%d): %s", e.StatusCode, e.Message)
}

// NewClient instantiates a client for the defimcp operational API. When
// httpClient is nil, a default client with a sensible timeout is used.
func NewClient(rawURL string, httpClient *http.Client) (*Client, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base url: %w", err)
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultHTTPTimeout}
	}
	return &Client{baseURL: parsed, httpClient: httpClient}, nil
}

// ListTrades fetches the most recent journal entries, newest first.
func (c *Client) ListTrades(ctx context.Context, limit int) ([]Trade, error) {
	endpoint := "/api/v1/trades"
	if limit > 0 {
		endpoint = fmt.Sprintf("%s?limit=%d", endpoint, limit)
	}
	var trades []Trade
	if err := c.get(ctx, endpoint, &trades); err != nil {
		return nil, err
	}
	return trades, nil
}

// GetTrade fetches a single journal entry by identifier.
func (c *Client) GetTrade(ctx context.Context, id string) (Trade, error) {
	var trade Trade
	if err := c.get(ctx, "/api/v1/trades/"+url.PathEscape(id), &trade); err != nil {
		return Trade{}, err
	}
	return trade, nil
}

// ListAccounts returns the wallet addresses managed by the daemon.
func (c *Client) ListAccounts(ctx context.Context) ([]string, error) {
	var payload struct {
		Accounts []string `json:"accounts"`
	}
	if err := c.get(ctx, "/api/v1/accounts", &payload); err != nil {
		return nil, err
	}
	return payload.Accounts, nil
}

// Healthz checks daemon liveness.
func (c *Client) Healthz(ctx context.Context) (Health, error) {
	var health Health
	if err := c.get(ctx, "/healthz", &health); err != nil {
		return Health{}, err
	}
	return health, nil
}

func (c *Client) get(ctx context.Context, endpoint string, out any) error {
	parsed, err := url.Parse(endpoint)
	if err != nil {
		return fmt.Errorf("invalid endpoint: %w", err)
	}
	rel := &url.URL{Path: path.Join(c.baseURL.Path, parsed.Path), RawQuery: parsed.RawQuery}
	u := c.baseURL.ResolveReference(rel)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("perform request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("read error response: %w", err)
		}
		return &APIError{
			StatusCode: resp.StatusCode,
			Message:    string(bytes.TrimSpace(data)),
		}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
