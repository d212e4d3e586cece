package sparql

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"unicode/utf8"

	"github.com/gregjones/httpcache"
	"golang.org/x/oauth2"
)

// Client runs queries against a SPARQL endpoint. Responses are cached in
// memory according to their HTTP caching headers.
type Client struct {
	endpoint   string
	token      string
	userAgent  string
	httpClient *http.Client
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithToken authenticates every request with a static bearer token.
func WithToken(token string) Option {
	return func(c *Client) {
		c.token = token
	}
}

// WithUserAgent sets the User-Agent header. Public endpoints such as the
// Wikidata Query Service ask bots to identify themselves.
// Default: "Wikitext-SPARQL/1.0"
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// WithHTTPClient replaces the caching HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithLogger sets the logger. Default: slog.Default()
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a client for the given endpoint URL.
func NewClient(endpoint string, opts ...Option) *Client {
	c := &Client{
		endpoint:  endpoint,
		userAgent: "Wikitext-SPARQL/1.0",
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.httpClient == nil {
		cacheTs := httpcache.NewMemoryCacheTransport()
		if c.token != "" {
			cacheTs.Transport = &oauth2.Transport{
				Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: c.token}),
			}
		}
		c.httpClient = &http.Client{Transport: cacheTs}
	}
	return c
}

// Query sends query to the endpoint and decodes the JSON results.
func (c *Client) Query(ctx context.Context, query string) (*Results, error) {
	u, err := url.Parse(c.endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid endpoint %q: %w", c.endpoint, err)
	}
	q := u.Query()
	q.Set("query", query)
	q.Set("format", "json")
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/sparql-results+json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sparql request failed: %w", err)
	}
	defer func(body io.ReadCloser) {
		_ = body.Close()
	}(resp.Body)

	// Read to EOF so the cache transport can store the response.
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read sparql response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("sparql endpoint returned %s: %s", resp.Status, truncate(string(body), 200))
	}

	var res Results
	if err = json.Unmarshal(body, &res); err != nil {
		return nil, fmt.Errorf("failed to decode sparql results: %w", err)
	}

	c.logger.DebugContext(ctx, "SPARQL query completed",
		slog.String("endpoint", c.endpoint),
		slog.Int("rows", len(res.Results.Bindings)),
		slog.Bool("cached", resp.Header.Get(httpcache.XFromCache) != ""),
	)
	return &res, nil
}

// truncate shortens s to at most n bytes without splitting a UTF-8 sequence.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}
