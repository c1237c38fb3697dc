package commerceapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/angelmondragon/storefront-core/pkg/auth"
	pkgerrors "github.com/angelmondragon/storefront-core/pkg/errors"
	"github.com/angelmondragon/storefront-core/pkg/logger"
	"github.com/angelmondragon/storefront-core/pkg/metrics"
)

const (
	defaultTimeout             = 15 * time.Second
	errorBodyReadLimit   int64 = 4096
	idempotencyKeyHeader       = "Idempotency-Key"
)

var errBaseURLRequired = errors.New("commerce api base url is required")

// Client talks to the remote commerce authority. It holds no commerce state;
// every money value it returns is exactly what the server sent.
type Client struct {
	httpClient *http.Client
	baseURL    string
	tokens     auth.TokenSource
	metrics    *metrics.APIMetrics
	logg       *logger.Logger
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithTimeout sets the per-request timeout on the default HTTP client.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient.Timeout = timeout
		}
	}
}

// WithTokenSource attaches the bearer credential used on every call.
func WithTokenSource(tokens auth.TokenSource) Option {
	return func(c *Client) {
		c.tokens = tokens
	}
}

// WithMetrics records request durations.
func WithMetrics(m *metrics.APIMetrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// WithLogger enables request logging.
func WithLogger(logg *logger.Logger) Option {
	return func(c *Client) {
		c.logg = logg
	}
}

// NewClient builds a commerce API client rooted at baseURL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	trimmed := strings.TrimSpace(baseURL)
	if trimmed == "" {
		return nil, errBaseURLRequired
	}
	parsed, err := url.Parse(trimmed)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("invalid commerce api base url %q", baseURL)
	}

	client := &Client{
		baseURL:    strings.TrimRight(trimmed, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client, nil
}

type request struct {
	op      string
	method  string
	path    string
	query   url.Values
	body    any
	headers map[string]string
}

func (c *Client) do(ctx context.Context, req request, out any) (err error) {
	if c == nil {
		return pkgerrors.New(pkgerrors.CodeInternal, "commerce api client not configured")
	}
	start := time.Now()
	defer func() {
		outcome := "ok"
		if err != nil {
			outcome = string(pkgerrors.CodeOf(err))
		}
		c.metrics.Observe(req.op, outcome, time.Since(start))
	}()

	token, err := c.token(ctx)
	if err != nil {
		return err
	}

	var body io.Reader
	if req.body != nil {
		payload, marshalErr := json.Marshal(req.body)
		if marshalErr != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, marshalErr, "marshal "+req.op+" request")
		}
		body = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, c.buildURL(req.path, req.query), body)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build "+req.op+" request")
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+token)
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	for k, v := range req.headers {
		httpReq.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.logg.Warn(c.logg.WithFields(ctx, map[string]any{"operation": req.op, "error": err.Error()}), "commerce api unreachable")
		return pkgerrors.Wrap(pkgerrors.CodeNetwork, err, req.op+": commerce service unreachable")
	}
	defer func() { _ = resp.Body.Close() }()

	c.logg.Debug(c.logg.WithFields(ctx, map[string]any{
		"operation":   req.op,
		"status":      resp.StatusCode,
		"duration_ms": time.Since(start).Milliseconds(),
	}), "commerce api request")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyReadLimit))
		return classify(req.op, resp.StatusCode, raw)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decode "+req.op+" response")
	}
	return nil
}

func (c *Client) token(ctx context.Context) (string, error) {
	if c.tokens == nil {
		return "", pkgerrors.New(pkgerrors.CodeAuth, "no access token; login required")
	}
	token, err := c.tokens.Token(ctx)
	if err != nil {
		if pkgerrors.As(err) != nil {
			return "", err
		}
		return "", pkgerrors.Wrap(pkgerrors.CodeAuth, err, "access token unavailable")
	}
	if strings.TrimSpace(token) == "" {
		return "", pkgerrors.New(pkgerrors.CodeAuth, "no access token; login required")
	}
	return token, nil
}

func (c *Client) buildURL(path string, query url.Values) string {
	u := fmt.Sprintf("%s/%s", c.baseURL, strings.TrimLeft(path, "/"))
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}
