package common

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestErrorCodeUnwrapsThroughWrapping(t *testing.T) {
	base := NewAppError(CodeRateLimited, "slow down", nil)
	wrapped := fmt.Errorf("extract stage: %w", base)

	if got := ErrorCode(wrapped); got != CodeRateLimited {
		t.Fatalf("code = %q, want %q", got, CodeRateLimited)
	}
}

func TestErrorCodeDefaultsToInternal(t *testing.T) {
	if got := ErrorCode(errors.New("who knows")); got != CodeInternal {
		t.Fatalf("code = %q, want %q", got, CodeInternal)
	}
}

func TestHTTPStatusMapping(t *testing.T) {
	tests := []struct {
		code string
		want int
	}{
		{CodeInvalidInput, http.StatusBadRequest},
		{CodeUnauthorized, http.StatusUnauthorized},
		{CodeNotFound, http.StatusNotFound},
		{CodeAssetUnavailable, http.StatusNotFound},
		{CodeInvalidState, http.StatusConflict},
		{CodeEmptyTranscript, http.StatusUnprocessableEntity},
		{CodeShortTranscript, http.StatusUnprocessableEntity},
		{CodeRateLimited, http.StatusTooManyRequests},
		{CodeProviderError, http.StatusBadGateway},
		{CodeUnrepairableExtraction, http.StatusBadGateway},
		{CodeConfigError, http.StatusInternalServerError},
		{CodeInternal, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		err := NewAppError(tt.code, "x", nil)
		if got := HTTPStatus(err); got != tt.want {
			t.Fatalf("HTTPStatus(%s) = %d, want %d", tt.code, got, tt.want)
		}
	}
}

func TestAppErrorUnwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := NewAppError(CodeProviderError, "call failed", cause)
	if !errors.Is(err, cause) {
		t.Fatal("AppError must unwrap to its cause")
	}
}
