package errx

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/redis/go-redis/v9"
)

func TestConstructors(t *testing.T) {
	cause := errors.New("boom")
	tests := []struct {
		name       string
		err        *Error
		wantStatus int
		wantMsg    string
	}{
		{"invalid input", InvalidInput("message is required"), 400, "message is required"},
		{"invalid input default", InvalidInput(""), 400, InvalidInputMessage},
		{"unavailable", UpstreamUnavailable(cause), 502, UpstreamUnavailableMessage},
		{"upstream", Upstream(cause), 500, UpstreamErrorMessage},
		{"timeout", Timeout(cause), 504, TimeoutMessage},
		{"not found", NotFound(""), 404, NotFoundMessage},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.err.Status != tc.wantStatus {
				t.Errorf("status = %d, want %d", tc.err.Status, tc.wantStatus)
			}
			if tc.err.Message != tc.wantMsg {
				t.Errorf("message = %q, want %q", tc.err.Message, tc.wantMsg)
			}
		})
	}
}

func TestStatusAndMessageExtraction(t *testing.T) {
	wrapped := fmt.Errorf("handler: %w", Timeout(errors.New("deadline")))
	if got := StatusOf(wrapped); got != http.StatusGatewayTimeout {
		t.Errorf("StatusOf = %d, want 504", got)
	}
	if got := MessageOf(wrapped); got != TimeoutMessage {
		t.Errorf("MessageOf = %q", got)
	}

	plain := errors.New("no status attached")
	if got := StatusOf(plain); got != http.StatusInternalServerError {
		t.Errorf("StatusOf(plain) = %d, want 500", got)
	}
	if got := MessageOf(plain); got != SystemErrorMessage {
		t.Errorf("MessageOf(plain) = %q", got)
	}
}

func TestIsUnwrapsCause(t *testing.T) {
	cause := errors.New("root cause")
	err := UpstreamUnavailable(fmt.Errorf("call failed: %w", cause))
	if !errors.Is(err, cause) {
		t.Error("errors.Is must see through the wrapper")
	}
}

func TestWrapRedis(t *testing.T) {
	if got := StatusOf(WrapRedis(redis.Nil)); got != http.StatusNotFound {
		t.Errorf("redis.Nil status = %d, want 404", got)
	}
	if got := StatusOf(WrapRedis(errors.New("connection refused"))); got != http.StatusBadGateway {
		t.Errorf("redis failure status = %d, want 502", got)
	}
}
