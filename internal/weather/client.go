package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Refresher asks the weather collaborator to fetch fresh data now.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// Source provides the current weather summary.
type Source interface {
	FetchCurrent(ctx context.Context) (Snapshot, error)
}

// Ensure Client implements both interfaces at compile time.
var (
	_ Refresher = (*Client)(nil)
	_ Source    = (*Client)(nil)
)

// Client talks to the weather service HTTP API.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	userAgent string
}

const (
	defaultAPIBind   = "127.0.0.1:7490"
	defaultUserAgent = "sunface/0.1"
	requestTimeout   = 5 * time.Second
	maxIconBytes     = 256 << 10
)

// currentResponse mirrors GET /api/weather/current.
type currentResponse struct {
	High        float64 `json:"high"`
	Low         float64 `json:"low"`
	ConditionID int     `json:"condition_id"`
	IconURL     string  `json:"icon_url,omitempty"`
}

// NewClient builds a Client for the host:port or URL in apiBind.
func NewClient(apiBind string) (*Client, error) {
	base, err := parseBaseURL(apiBind)
	if err != nil {
		return nil, err
	}
	return &Client{
		baseURL: base,
		http: &http.Client{
			Timeout: requestTimeout,
		},
		userAgent: defaultUserAgent,
	}, nil
}

// Refresh triggers an immediate weather update on the service.
func (c *Client) Refresh(ctx context.Context) error {
	if c == nil {
		return fmt.Errorf("client is nil")
	}
	return c.do(ctx, http.MethodPost, "/api/weather/refresh", nil)
}

// FetchCurrent retrieves the latest summary. The icon is downloaded when the
// service advertises one; a failed download leaves the icon empty.
func (c *Client) FetchCurrent(ctx context.Context) (Snapshot, error) {
	if c == nil {
		return Snapshot{}, fmt.Errorf("client is nil")
	}
	var payload currentResponse
	if err := c.do(ctx, http.MethodGet, "/api/weather/current", &payload); err != nil {
		return Snapshot{}, err
	}
	snap := Snapshot{High: payload.High, Low: payload.Low, ConditionID: payload.ConditionID}
	if strings.TrimSpace(payload.IconURL) != "" {
		if icon, err := c.fetchIcon(ctx, payload.IconURL); err == nil {
			snap.Icon = icon
		}
	}
	return snap, nil
}

func (c *Client) fetchIcon(ctx context.Context, raw string) ([]byte, error) {
	rel, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse icon url: %w", err)
	}
	resp, err := c.send(ctx, http.MethodGet, rel)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()
	return io.ReadAll(io.LimitReader(resp.Body, maxIconBytes))
}

func (c *Client) do(ctx context.Context, method, path string, dest any) error {
	resp, err := c.send(ctx, method, &url.URL{Path: path})
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if dest == nil {
		return nil
	}
	decoder := json.NewDecoder(resp.Body)
	if err := decoder.Decode(dest); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) send(ctx context.Context, method string, rel *url.URL) (*http.Response, error) {
	reqURL := c.baseURL.ResolveReference(rel)
	req, err := http.NewRequestWithContext(ctx, method, reqURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	if resp.StatusCode >= 400 {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("api %s returned status %d", rel.String(), resp.StatusCode)
	}
	return resp, nil
}

func parseBaseURL(apiBind string) (*url.URL, error) {
	trimmed := strings.TrimSpace(apiBind)
	if trimmed == "" {
		trimmed = defaultAPIBind
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse weather_api %q: %w", apiBind, err)
	}
	u.Path = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
