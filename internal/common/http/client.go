// internal/common/http/client.go
package http

import (
	"bytes"
	"context"
	"net/http"
	"time"
)

type Client struct {
	httpClient *http.Client
}

func NewClient(timeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

func (c *Client) Do(req *http.Request) (*http.Response, error) {
	return c.httpClient.Do(req)
}

func (c *Client) DoWithContext(ctx context.Context, req *http.Request) (*http.Response, error) {
	req = req.WithContext(ctx)
	return c.httpClient.Do(req)
}

// DoWithRetry retries transient failures (network errors and 5xx) with
// exponential backoff. The request body is replayed from bodyBytes on each
// attempt. 4xx responses are returned as-is without retrying.
func (c *Client) DoWithRetry(ctx context.Context, req *http.Request, bodyBytes []byte, maxRetries int) (*http.Response, error) {
	var resp *http.Response
	var lastErr error

	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(100*(1<<(attempt-1))) * time.Millisecond
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		attemptReq := req.Clone(ctx)
		if bodyBytes != nil {
			attemptReq.Body = nopCloser(bodyBytes)
		}

		resp, lastErr = c.httpClient.Do(attemptReq)
		if lastErr == nil {
			if resp.StatusCode < http.StatusInternalServerError {
				return resp, nil
			}
			resp.Body.Close()
			lastErr = &StatusError{Code: resp.StatusCode}
			resp = nil
		}

		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}

	return nil, lastErr
}

// StatusError reports a non-2xx response that exhausted retries.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return http.StatusText(e.Code)
}

func nopCloser(b []byte) *readCloser {
	return &readCloser{Reader: bytes.NewReader(b)}
}

type readCloser struct {
	*bytes.Reader
}

func (r *readCloser) Close() error { return nil }
