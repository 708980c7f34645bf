package errors

import (
	stderrors "errors"
	"fmt"
	"time"
)

// Error codes
const (
	CodeAdvisorError     = "ADVISOR_ERROR"
	CodeAPIError         = "API_ERROR"
	CodeProviderDisabled = "PROVIDER_DISABLED"
	CodeCooldown         = "PROVIDER_COOLDOWN"
	CodeValidation       = "VALIDATION_ERROR"
	CodeCache            = "CACHE_ERROR"
	CodeService          = "SERVICE_ERROR"
)

// ErrRecommendationsUnavailable is returned when no provider (primary, fallback or cache)
// produced any output for a collection run.
var ErrRecommendationsUnavailable = stderrors.New("recommendations unavailable")

type AdvisorError struct {
	Message    string
	Code       string
	StatusCode int
	Context    map[string]any
	Cause      error
}

func (e *AdvisorError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AdvisorError) Unwrap() error {
	return e.Cause
}

func NewAdvisorError(message, code string, statusCode int, context map[string]any) *AdvisorError {
	return &AdvisorError{
		Message:    message,
		Code:       code,
		StatusCode: statusCode,
		Context:    context,
	}
}

func (e *AdvisorError) WithCause(cause error) *AdvisorError {
	e.Cause = cause
	return e
}

// APIError is a failed provider call. Temporary marks failures that were retried
// (timeouts, 429/5xx, malformed JSON) before being surfaced.
type APIError struct {
	*AdvisorError
	Source    string
	Temporary bool
}

func NewAPIError(source, message string, statusCode int, context map[string]any) *APIError {
	return &APIError{
		AdvisorError: &AdvisorError{
			Message:    message,
			Code:       CodeAPIError,
			StatusCode: statusCode,
			Context:    context,
		},
		Source: source,
	}
}

// NewTemporaryAPIError wraps a transient failure that survived every retry.
func NewTemporaryAPIError(source, message string, statusCode int, cause error) *APIError {
	apiErr := NewAPIError(source, message, statusCode, nil)
	apiErr.Temporary = true
	apiErr.Cause = cause
	return apiErr
}

type ProviderDisabledError struct {
	*AdvisorError
	Provider string
}

func NewProviderDisabledError(provider string) *ProviderDisabledError {
	return &ProviderDisabledError{
		AdvisorError: &AdvisorError{
			Message: fmt.Sprintf("%s is not configured", provider),
			Code:    CodeProviderDisabled,
			Context: map[string]any{
				"provider": provider,
			},
		},
		Provider: provider,
	}
}

type CooldownError struct {
	*AdvisorError
	Provider   string
	RetryAfter time.Duration
}

func NewCooldownError(provider string, retryAfter time.Duration, cause error) *CooldownError {
	return &CooldownError{
		AdvisorError: &AdvisorError{
			Message:    fmt.Sprintf("%s is temporarily unavailable", provider),
			Code:       CodeCooldown,
			StatusCode: 503,
			Context: map[string]any{
				"provider":       provider,
				"retry_after_ms": retryAfter.Milliseconds(),
			},
			Cause: cause,
		},
		Provider:   provider,
		RetryAfter: retryAfter,
	}
}

type ValidationError struct {
	*AdvisorError
	Field string
	Value any
}

func NewValidationError(message, field string, value any) *ValidationError {
	return &ValidationError{
		AdvisorError: &AdvisorError{
			Message:    message,
			Code:       CodeValidation,
			StatusCode: 400,
			Context: map[string]any{
				"field": field,
				"value": value,
			},
		},
		Field: field,
		Value: value,
	}
}

type CacheError struct {
	*AdvisorError
	Operation string
	Key       string
}

func NewCacheError(message, operation, key string, cause error) *CacheError {
	return &CacheError{
		AdvisorError: &AdvisorError{
			Message:    message,
			Code:       CodeCache,
			StatusCode: 500,
			Context: map[string]any{
				"operation": operation,
				"key":       key,
			},
			Cause: cause,
		},
		Operation: operation,
		Key:       key,
	}
}

type ServiceError struct {
	*AdvisorError
	Service   string
	Operation string
}

func NewServiceError(message, service, operation string, cause error) *ServiceError {
	return &ServiceError{
		AdvisorError: &AdvisorError{
			Message:    message,
			Code:       CodeService,
			StatusCode: 500,
			Context: map[string]any{
				"service":   service,
				"operation": operation,
			},
			Cause: cause,
		},
		Service:   service,
		Operation: operation,
	}
}

// IsPermanent reports whether err is a provider answer that retrying cannot fix
// (4xx other than 429). Such answers mean "no data", not an outage.
func IsPermanent(err error) bool {
	var apiErr *APIError
	if !stderrors.As(err, &apiErr) {
		return false
	}
	if apiErr.Temporary {
		return false
	}
	return apiErr.StatusCode >= 400 && apiErr.StatusCode < 500 && apiErr.StatusCode != 429
}

func IsCooldown(err error) bool {
	var cooldownErr *CooldownError
	return stderrors.As(err, &cooldownErr)
}

func IsDisabled(err error) bool {
	var disabledErr *ProviderDisabledError
	return stderrors.As(err, &disabledErr)
}
