package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"

	openai "github.com/sashabaranov/go-openai"

	"github.com/kailas-cloud/shopdex/internal/domain"
	"github.com/kailas-cloud/shopdex/internal/resilience"
)

// ProviderError is a failed call to an OpenAI-compatible API.
// It matches its domain kind with errors.Is, and domain.ErrRateLimited on HTTP 429.
type ProviderError struct {
	StatusCode int // 0 when no HTTP response was received
	Message    string
	kind       error
	cause      error
}

func (e *ProviderError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("%s: %s", e.kind, e.Message)
	}
	return fmt.Sprintf("%s: status %d: %s", e.kind, e.StatusCode, e.Message)
}

func (e *ProviderError) Unwrap() []error {
	errs := []error{e.kind}
	if e.StatusCode == http.StatusTooManyRequests {
		errs = append(errs, domain.ErrRateLimited)
	}
	if e.cause != nil {
		errs = append(errs, e.cause)
	}
	return errs
}

// parseAPIError extracts a human-readable error from the API response and tags it with kind.
func parseAPIError(kind, err error) error {
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		msg := extractDetail(reqErr.Body)
		if msg == "" {
			msg = string(reqErr.Body)
		}
		return &ProviderError{StatusCode: reqErr.HTTPStatusCode, Message: msg, kind: kind}
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &ProviderError{StatusCode: apiErr.HTTPStatusCode, Message: apiErr.Message, kind: kind}
	}

	return &ProviderError{Message: "request failed", kind: kind, cause: err}
}

// extractDetail extracts the "detail" field from a JSON error body (Nebius error format).
func extractDetail(body []byte) string {
	var parsed struct {
		Detail string `json:"detail"`
	}
	if json.Unmarshal(body, &parsed) == nil && parsed.Detail != "" {
		return parsed.Detail
	}
	return ""
}

// Classify tells the resilience executor how to treat a provider failure.
// Throttling, timeouts, 5xx and network errors are retried; other 4xx responses
// are neither retried nor counted against the breaker, except auth failures.
func Classify(err error) resilience.ErrorClassification {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return resilience.ErrorClassification{}
	}

	var pe *ProviderError
	if !errors.As(err, &pe) {
		return resilience.TransientClassifier(err)
	}

	switch code := pe.StatusCode; {
	case code == 0:
		var netErr net.Error
		if errors.As(pe.cause, &netErr) {
			return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
		}
		return resilience.ErrorClassification{RecordFailure: true}
	case code == http.StatusTooManyRequests, code == http.StatusRequestTimeout, code >= 500:
		return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
	case code == http.StatusUnauthorized, code == http.StatusForbidden:
		return resilience.ErrorClassification{RecordFailure: true}
	default:
		return resilience.ErrorClassification{}
	}
}
