// Package client provides an HTTP client for the timer server's
// request/response API: project and rundown reads, event patches, playback
// commands, and the health probe. Streaming state updates are handled by
// the transport package, not here.
package client

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	oterrors "github.com/AquamanRanda/OnTIme/internal/ontime/errors"
)

// DefaultTimeout bounds every request/response call unless the caller
// supplies its own HTTP client.
const DefaultTimeout = 10 * time.Second

// Client provides methods for interacting with the timer server API
type Client struct {
	// baseURL is the root URL for all API requests
	baseURL string
	// httpClient is the underlying HTTP client
	httpClient *http.Client
	// logger records request failures
	logger zerolog.Logger
}

// ClientOption configures a Client
type ClientOption func(*Client)

// WithHTTPClient sets the underlying HTTP client
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithTimeout sets the per-request timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithTLSConfig sets custom TLS configuration
func WithTLSConfig(config *tls.Config) ClientOption {
	return func(c *Client) {
		tr := &http.Transport{
			TLSClientConfig: config,
		}
		c.httpClient = &http.Client{
			Transport: tr,
			Timeout:   DefaultTimeout,
		}
	}
}

// WithLogger sets the logger used for request failures
func WithLogger(logger zerolog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger.With().Str("component", "client").Logger()
	}
}

// NewClient creates a new API client
func NewClient(baseURL string, options ...ClientOption) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid base URL %q: scheme and host are required", baseURL)
	}
	u.Path = ""

	c := &Client{
		baseURL: u.String(),
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		logger: zerolog.Nop(),
	}

	for _, opt := range options {
		opt(c)
	}

	return c, nil
}

// doRequest performs an HTTP request with common headers and error wrapping
func (c *Client) doRequest(ctx context.Context, method, pathStr string, body interface{}) (*http.Response, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	u.Path = path.Join(u.Path, pathStr)

	var bodyReader io.Reader
	if body != nil {
		bodyBytes, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("error encoding request body: %w", err)
		}
		bodyReader = bytes.NewReader(bodyBytes)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), bodyReader)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error().Err(err).Str("method", method).Str("path", pathStr).Msg("request failed")
		return nil, wrapTransport(method+" "+pathStr, err)
	}
	return resp, nil
}

// wrapTransport classifies a failure below the HTTP layer. Context
// cancellation passes through untouched so callers can tell a torn-down
// engine from a dead server.
func wrapTransport(op string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return oterrors.NewError("UNREACHABLE", err.Error(), op, oterrors.ErrUnreachable)
}
