package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// classify wraps a provider error with the matching sentinel so callers can
// tell timeouts and rate limits apart from other failures.
func classify(provider string, err error, statusCode int) error {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%s: %w: %w", provider, ErrTimeout, err)
	case statusCode == http.StatusTooManyRequests:
		return fmt.Errorf("%s: %w: %w", provider, ErrRateLimited, err)
	case statusCode == http.StatusRequestTimeout || statusCode == http.StatusGatewayTimeout:
		return fmt.Errorf("%s: %w: %w", provider, ErrTimeout, err)
	default:
		return fmt.Errorf("%s API error: %w", provider, err)
	}
}
