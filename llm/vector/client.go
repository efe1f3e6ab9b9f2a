package vector

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"

	"quiver/llm"
)

// readRetries bounds the backoff wrapper around idempotent reads. Writes
// are never retried; callers own that policy.
const readRetries = 3

// httpDo executes one JSON request and decodes the envelope into out when
// out is non-nil. Non-2xx responses become NetworkError with the body
// attached for diagnosis.
func httpDo(ctx context.Context, client *http.Client, op, method, url string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: marshal request: %w", op, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return fmt.Errorf("%s: create request: %w", op, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := client.Do(req)
	if err != nil {
		return &llm.NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &llm.NetworkError{Op: op, Status: resp.StatusCode, Body: string(detail)}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: decode response: %w", op, err)
	}
	return nil
}

// retryRead wraps an idempotent read in bounded exponential backoff,
// retrying only transient failures (no response, or a 5xx).
func retryRead(ctx context.Context, fn func() error) error {
	bo := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), readRetries), ctx)
	return backoff.Retry(func() error {
		err := fn()
		if err == nil {
			return nil
		}
		var ne *llm.NetworkError
		if errors.As(err, &ne) && ne.Retryable() {
			return err
		}
		return backoff.Permanent(err)
	}, bo)
}

// newHTTPClient is the shared client construction for store and embedding
// calls.
func newHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout}
}
