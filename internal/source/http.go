package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/avast/retry-go/v4"
)

// StatusError is a non-2xx response.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP error: %d", e.Code)
}

// HTTP fetches datasets over HTTP, retrying network failures and 5xx
// responses.
type HTTP struct {
	Client   *http.Client
	Attempts uint
	Delay    time.Duration
}

func NewHTTP(timeout time.Duration, attempts int) *HTTP {
	if attempts < 1 {
		attempts = 1
	}
	return &HTTP{
		Client:   &http.Client{Timeout: timeout},
		Attempts: uint(attempts),
		Delay:    500 * time.Millisecond,
	}
}

func (h *HTTP) Fetch(ctx context.Context, source string) (string, error) {
	var body string
	err := retry.Do(
		func() error {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
			if err != nil {
				return retry.Unrecoverable(err)
			}
			req.Header.Set("Accept", "text/csv, text/plain;q=0.9, */*;q=0.1")

			resp, err := h.Client.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			if resp.StatusCode < 200 || resp.StatusCode > 299 {
				serr := &StatusError{Code: resp.StatusCode}
				if resp.StatusCode < 500 {
					return retry.Unrecoverable(serr)
				}
				return serr
			}
			b, err := io.ReadAll(resp.Body)
			if err != nil {
				return err
			}
			body = string(b)
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(h.Attempts),
		retry.Delay(h.Delay),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return "", err
	}
	return body, nil
}
