package common

import (
	"errors"
	"fmt"
	"net/http"
)

// AppError represents application-specific errors
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Common application errors
var (
	ErrNotFound     = errors.New("resource not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrUnauthorized = errors.New("unauthorized")
	ErrInternal     = errors.New("internal error")
	ErrDatabase     = errors.New("database error")
)

// Pipeline error codes. Clients route on these, so the strings are stable.
const (
	CodeInvalidState           = "INVALID_STATE"
	CodeAssetUnavailable       = "ASSET_UNAVAILABLE"
	CodeProviderError          = "PROVIDER_ERROR"
	CodeEmptyTranscript        = "EMPTY_TRANSCRIPT"
	CodeShortTranscript        = "SUSPICIOUSLY_SHORT_TRANSCRIPT"
	CodeUnrepairableExtraction = "UNREPAIRABLE_EXTRACTION"
	CodeRateLimited            = "RATE_LIMITED"
	CodeConfigError            = "CONFIG_ERROR"
	CodeNotFound               = "NOT_FOUND"
	CodeUnauthorized           = "UNAUTHORIZED"
	CodeInvalidInput           = "INVALID_INPUT"
	CodeInternal               = "INTERNAL"
)

// NewAppError builds an AppError with an optional cause.
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// ErrorCode extracts the AppError code, defaulting to INTERNAL.
func ErrorCode(err error) string {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae.Code
	}
	if errors.Is(err, ErrNotFound) {
		return CodeNotFound
	}
	if errors.Is(err, ErrInvalidInput) {
		return CodeInvalidInput
	}
	if errors.Is(err, ErrUnauthorized) {
		return CodeUnauthorized
	}
	return CodeInternal
}

// HTTPStatus maps the error taxonomy onto response statuses: caller errors 4xx,
// provider failures 502, config and unknown failures 5xx.
func HTTPStatus(err error) int {
	switch ErrorCode(err) {
	case CodeInvalidInput:
		return http.StatusBadRequest
	case CodeEmptyTranscript, CodeShortTranscript:
		return http.StatusUnprocessableEntity
	case CodeInvalidState:
		return http.StatusConflict
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeNotFound, CodeAssetUnavailable:
		return http.StatusNotFound
	case CodeRateLimited:
		return http.StatusTooManyRequests
	case CodeProviderError, CodeUnrepairableExtraction:
		return http.StatusBadGateway
	case CodeConfigError:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
