package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/saam-fiscal/rotina178/internal/config"
)

// Response is a fully read HTTP answer.
type Response struct {
	StatusCode int
	Body       []byte
}

// Text returns the body as a string.
func (r *Response) Text() string { return string(r.Body) }

// Client issues requests against the configured base URL.
type Client struct {
	baseURL   string
	userAgent string
	timeout   time.Duration
	http      *http.Client
}

// NewClient builds a Client from the backend section of the configuration.
// An empty base URL is accepted; every request then fails as a transport error.
func NewClient(cfg config.BackendConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = config.DefaultBackendTimeout
	}
	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = config.DefaultUserAgent
	}
	return &Client{
		baseURL:   cfg.BaseURL,
		userAgent: userAgent,
		timeout:   timeout,
		http: &http.Client{
			Transport: &http.Transport{
				Proxy:             http.ProxyFromEnvironment,
				DisableKeepAlives: true,
			},
		},
	}
}

// Fetch sends method to endpoint (appended to the base URL). A non-nil body is sent as
// JSON. timeout <= 0 selects the client default. Any HTTP status is a successful Fetch;
// only the absence of a response is an error (*TransportError).
func (c *Client) Fetch(ctx context.Context, method, endpoint string, body any, timeout time.Duration) (*Response, error) {
	if timeout <= 0 {
		timeout = c.timeout
	}
	url := c.baseURL + endpoint

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, &TransportError{Method: method, URL: url, Err: err}
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &TransportError{Method: method, URL: url, Err: err, timeout: isTimeout(err)}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Method: method, URL: url, Err: fmt.Errorf("read body: %w", err), timeout: isTimeout(err)}
	}
	return &Response{StatusCode: resp.StatusCode, Body: data}, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
