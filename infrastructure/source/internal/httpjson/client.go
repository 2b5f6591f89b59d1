// Package httpjson is the shared HTTP layer of the version sources: one
// client configuration and a retrying JSON GET.
package httpjson

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const (
	requestTimeout = 30 * time.Second
	userAgent      = "treeupdt/0.1.0"
	maxRetries     = 3
)

func NewClient() *http.Client {
	return &http.Client{Timeout: requestTimeout}
}

// Get fetches a URL and decodes the JSON response into out. Server errors
// and 429s are retried with exponential backoff; other client errors fail
// immediately.
func Get(
	ctx context.Context,
	client *http.Client,
	url string,
	headers map[string]string,
	out any,
) error {
	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("failed to build request: %w", err))
		}
		req.Header.Set("User-Agent", userAgent)
		for k, v := range headers {
			req.Header.Set(k, v)
		}

		resp, err := client.Do(req)
		if err != nil {
			return fmt.Errorf("failed to fetch %s: %w", url, err)
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusOK:
		case resp.StatusCode >= http.StatusInternalServerError ||
			resp.StatusCode == http.StatusTooManyRequests:
			return fmt.Errorf("server error %d from %s", resp.StatusCode, url)
		default:
			return backoff.Permanent(fmt.Errorf("unexpected status %d from %s", resp.StatusCode, url))
		}

		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return backoff.Permanent(fmt.Errorf("failed to decode response from %s: %w", url, err))
		}
		return nil
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), maxRetries), ctx)
	return backoff.Retry(operation, policy)
}
