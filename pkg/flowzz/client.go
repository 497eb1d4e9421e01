package flowzz

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	pkgerrors "github.com/angelmondragon/flowzz-ingest/pkg/errors"
)

const (
	defaultBaseURL   = "https://flowzz.com/api"
	defaultUserAgent = "Mozilla/5.0 (compatible; FlowzzScraper/1.0)"
	defaultTimeout   = 10 * time.Second

	errorBodySnippet int64 = 200
)

// Client talks to the public flowzz JSON API. It performs exactly one HTTP
// request per call; retry policy belongs to the caller.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	userAgent   string
	credentials Credentials
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

// WithBaseURL overrides the API base URL.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/")
		if trimmed != "" {
			c.baseURL = trimmed
		}
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if strings.TrimSpace(ua) != "" {
			c.userAgent = ua
		}
	}
}

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient = &http.Client{Timeout: d}
		}
	}
}

// WithCredentials attaches the session capability used by the vendor endpoint.
func WithCredentials(creds Credentials) Option {
	return func(c *Client) {
		if creds != nil {
			c.credentials = creds
		}
	}
}

// NewClient builds a flowzz client.
func NewClient(opts ...Option) *Client {
	client := &Client{
		httpClient:  &http.Client{Timeout: defaultTimeout},
		baseURL:     defaultBaseURL,
		userAgent:   defaultUserAgent,
		credentials: Anonymous{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client
}

// get executes a GET and returns the body of a 200 response. Non-200 statuses
// come back with a short body snippet and no error; the caller decides what
// they mean.
func (c *Client) get(ctx context.Context, url string, headers map[string]string, creds Credentials) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build request")
	}
	req.Header.Set("User-Agent", c.userAgent)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	if creds != nil {
		creds.Apply(req)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, pkgerrors.Wrap(pkgerrors.CodeTransport, err, "execute request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodySnippet))
		return snippet, resp.StatusCode, nil
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, pkgerrors.Wrap(pkgerrors.CodeTransport, err, "read response body")
	}
	return body, resp.StatusCode, nil
}

func statusError(url string, status int, snippet []byte) error {
	return pkgerrors.New(pkgerrors.CodeProtocol,
		fmt.Sprintf("%s => HTTP %d, %s", url, status, strings.TrimSpace(string(snippet)))).
		WithDetails(map[string]any{"status": status})
}

// IsRateLimited reports whether err is the vendor endpoint's "too many
// requests" signal.
func IsRateLimited(err error) bool {
	return pkgerrors.HasCode(err, pkgerrors.CodeRateLimit)
}
