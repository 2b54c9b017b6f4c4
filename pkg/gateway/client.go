package gateway

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
	"unicode/utf8"

	"github.com/aretw0/citychat/internal/logging"
)

// Defaults for the public smart-city deployment.
const (
	DefaultBaseURL  = "https://smartcitylivinglab.iiit.ac.in"
	DefaultPasteURL = "https://api.stagb.in/dev/content"
	DefaultShareURL = "https://stagb.in"

	// DefaultQueryField is the JSON field carrying a natural-language question.
	DefaultQueryField = "query"
)

// User-facing fallbacks. Raw errors never reach the chat.
const (
	ApologyUnreachable = "Sorry, I couldn't connect to the backend service. Please try again later."
	ApologyFormat      = "Server returned an unexpected response format. Please try again later."
	ApologyEmpty       = "Sorry, I couldn't process your question."
)

// Observer is notified after every backend call.
type Observer func(op string, elapsed time.Duration, err error)

// HTTPStatusError captures non-2xx upstream responses.
type HTTPStatusError struct {
	StatusCode int
	URL        string
	Body       string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("gateway: unexpected status %d from %s: %s", e.StatusCode, e.URL, e.Body)
}

// Client is the HTTP implementation of ports.DataGateway.
type Client struct {
	baseURL    string
	pasteURL   string
	shareURL   string
	queryField string
	httpClient *http.Client
	logger     *slog.Logger
	observer   Observer
}

type Option func(*Client)

// WithBaseURL sets the smart-city API host.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	}
}

// WithPasteURL sets the endpoint tables are published to.
func WithPasteURL(pasteURL string) Option {
	return func(c *Client) {
		c.pasteURL = strings.TrimSpace(pasteURL)
	}
}

// WithShareURL sets the public host of published tables.
func WithShareURL(shareURL string) Option {
	return func(c *Client) {
		c.shareURL = strings.TrimRight(strings.TrimSpace(shareURL), "/")
	}
}

// WithQueryField sets the JSON field carrying the question ("query" by default).
func WithQueryField(field string) Option {
	return func(c *Client) {
		if field != "" {
			c.queryField = field
		}
	}
}

// WithHTTPClient replaces the HTTP client. No timeout is applied by default.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithLogger sets the logger used for diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithObserver registers a callback for call latency and outcome.
func WithObserver(o Observer) Option {
	return func(c *Client) {
		c.observer = o
	}
}

// New creates a gateway client.
func New(opts ...Option) *Client {
	c := &Client{
		baseURL:    DefaultBaseURL,
		pasteURL:   DefaultPasteURL,
		shareURL:   DefaultShareURL,
		queryField: DefaultQueryField,
		httpClient: &http.Client{},
		logger:     logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the configured API host.
func (c *Client) BaseURL() string { return c.baseURL }

func (c *Client) url(path string) string {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return c.baseURL + path
}

func (c *Client) observe(op string, start time.Time, err error) {
	if c.observer != nil {
		c.observer(op, time.Since(start), err)
	}
}

// response is a fully read upstream response.
type response struct {
	status      int
	contentType string
	body        []byte
}

func (r *response) isJSON() bool {
	return strings.Contains(r.contentType, "application/json")
}

// do sends a request with an optional JSON body and reads the full response.
func (c *Client) do(ctx context.Context, method, url string, payload any) (*response, error) {
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json; charset=utf-8")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	return &response{
		status:      resp.StatusCode,
		contentType: resp.Header.Get("Content-Type"),
		body:        data,
	}, nil
}

// doOK is do plus a 2xx check.
func (c *Client) doOK(ctx context.Context, method, url string, payload any) (*response, error) {
	resp, err := c.do(ctx, method, url, payload)
	if err != nil {
		return nil, err
	}
	if resp.status < 200 || resp.status > 299 {
		return nil, &HTTPStatusError{StatusCode: resp.status, URL: url, Body: truncate(string(resp.body), 256)}
	}
	return resp, nil
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "…"
}
