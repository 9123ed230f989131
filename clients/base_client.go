package clients

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

type BaseClient struct {
	baseURL string
	client  *http.Client
	headers map[string]string
}

func NewBaseClient(baseURL string) *BaseClient {
	return &BaseClient{
		baseURL: baseURL,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		headers: make(map[string]string),
	}
}

func (c *BaseClient) SetHeader(key, value string) {
	c.headers[key] = value
}

func (c *BaseClient) SetTimeout(timeout time.Duration) {
	c.client.Timeout = timeout
}

// StatusError is returned for non-2xx responses so callers can tell a
// rejected action from a transport failure.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("API returned status code: %d, response: %s", e.Code, e.Body)
}

func (c *BaseClient) MakeRequest(ctx context.Context, method, endpoint string, body io.Reader, headers ...map[string]string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	for key, value := range c.headers {
		req.Header.Set(key, value)
	}
	for _, extra := range headers {
		for key, value := range extra {
			req.Header.Set(key, value)
		}
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	responseBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{Code: resp.StatusCode, Body: string(responseBody)}
	}

	return responseBody, nil
}

func (c *BaseClient) Get(ctx context.Context, endpoint string) ([]byte, error) {
	return c.MakeRequest(ctx, "GET", endpoint, nil)
}

func (c *BaseClient) Post(ctx context.Context, endpoint string, body io.Reader, headers ...map[string]string) ([]byte, error) {
	return c.MakeRequest(ctx, "POST", endpoint, body, headers...)
}
