package imagegen

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"time"
)

const (
	// defaultMaxRetries is the maximum number of retry attempts per request
	defaultMaxRetries = 2
	// defaultBaseRetryDelay is the base delay for exponential backoff
	defaultBaseRetryDelay = 2 * time.Second
	// maxDownloadBytes caps artifact downloads from provider-returned URLs
	maxDownloadBytes = 32 << 20
)

// APIError represents an error returned by a provider API
type APIError struct {
	Message    string
	StatusCode int
	Retryable  bool
}

func (e *APIError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("API error (status %d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("API error: %s", e.Message)
}

// restClient is a small retrying JSON client shared by the provider adapters
type restClient struct {
	httpClient     *http.Client
	logger         *slog.Logger
	maxRetries     int
	baseRetryDelay time.Duration
}

func newRESTClient(logger *slog.Logger) *restClient {
	return &restClient{
		// Per-request deadlines come from the caller's context; the chain
		// bounds every attempt with the provider timeout.
		httpClient:     &http.Client{},
		logger:         logger,
		maxRetries:     defaultMaxRetries,
		baseRetryDelay: defaultBaseRetryDelay,
	}
}

// postJSON sends the request with exponential backoff on retryable failures
// and unmarshals the response body into out
func (c *restClient) postJSON(ctx context.Context, url string, headers map[string]string, reqBody, out any) error {
	body, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(math.Pow(2, float64(attempt-1))) * c.baseRetryDelay
			c.logger.Warn("Retrying provider request",
				"attempt", attempt,
				"max_retries", c.maxRetries,
				"backoff", backoff,
				"url", url)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
		}

		err := c.doOnce(ctx, url, headers, body, out)
		if err == nil {
			return nil
		}
		lastErr = err

		var apiErr *APIError
		if !errors.As(err, &apiErr) || !apiErr.Retryable {
			return err
		}
	}

	return fmt.Errorf("max retries exceeded: %w", lastErr)
}

func (c *restClient) doOnce(ctx context.Context, url string, headers map[string]string, body []byte, out any) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		httpReq.Header.Set(k, v)
	}

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return &APIError{Message: fmt.Sprintf("request failed: %v", err), Retryable: true}
	}
	defer func() {
		if err := httpResp.Body.Close(); err != nil {
			c.logger.Warn("Failed to close response body", "error", err)
		}
	}()

	respBody, err := io.ReadAll(io.LimitReader(httpResp.Body, maxDownloadBytes))
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if httpResp.StatusCode != http.StatusOK {
		return &APIError{
			Message:    string(respBody),
			StatusCode: httpResp.StatusCode,
			Retryable:  isStatusCodeRetryable(httpResp.StatusCode),
		}
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

// download fetches a provider-returned artifact URL
func (c *restClient) download(ctx context.Context, url string) ([]byte, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create download request: %w", err)
	}

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("download failed: %w", err)
	}
	defer func() {
		if err := httpResp.Body.Close(); err != nil {
			c.logger.Warn("Failed to close download body", "error", err)
		}
	}()

	if httpResp.StatusCode != http.StatusOK {
		return nil, &APIError{
			Message:    fmt.Sprintf("download returned status %d", httpResp.StatusCode),
			StatusCode: httpResp.StatusCode,
		}
	}

	return io.ReadAll(io.LimitReader(httpResp.Body, maxDownloadBytes))
}

func isStatusCodeRetryable(statusCode int) bool {
	return statusCode == http.StatusTooManyRequests ||
		statusCode == http.StatusInternalServerError ||
		statusCode == http.StatusBadGateway ||
		statusCode == http.StatusServiceUnavailable ||
		statusCode == http.StatusGatewayTimeout
}
