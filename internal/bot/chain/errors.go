package chain

import (
	"context"
	"errors"
	"net/http"

	"google.golang.org/genai"

	errx "github.com/ragbot-core/server/internal/core/error"
)

// ClassifyModelErr maps a model invocation failure onto the service error
// taxonomy: deadline -> timeout, 429/5xx from the API -> retryable
// unavailable, any other API answer -> definitive upstream error.
func ClassifyModelErr(err error) error {
	if err == nil {
		return nil
	}

	var appErr *errx.Error
	if errors.As(err, &appErr) {
		return err
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return errx.Timeout(err)
	}

	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.Code == http.StatusTooManyRequests || apiErr.Code >= http.StatusInternalServerError {
			return errx.UpstreamUnavailable(err)
		}
		return errx.Upstream(err)
	}

	// network-level failures (dial, reset, DNS) are considered transient
	return errx.UpstreamUnavailable(err)
}
