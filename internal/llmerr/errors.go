package llmerr

import (
	"strings"
	"time"

	"whetstone/internal/services"
)

// Kind identifies a failure category in the closed taxonomy.
type Kind string

const (
	KindInvalidInput  Kind = "INVALID_INPUT"
	KindBackendFailed Kind = "BACKEND_FAILED"
	KindRateLimited   Kind = "RATE_LIMITED"
	KindAuthFailed    Kind = "AUTH_FAILED"
	KindTimeout       Kind = "TIMEOUT"
)

// ParseKind maps a wire string back onto a Kind.
func ParseKind(value string) (Kind, bool) {
	switch Kind(strings.ToUpper(strings.TrimSpace(value))) {
	case KindInvalidInput:
		return KindInvalidInput, true
	case KindBackendFailed:
		return KindBackendFailed, true
	case KindRateLimited:
		return KindRateLimited, true
	case KindAuthFailed:
		return KindAuthFailed, true
	case KindTimeout:
		return KindTimeout, true
	default:
		return "", false
	}
}

func (k Kind) marker() error {
	switch k {
	case KindInvalidInput:
		return services.ErrInvalidInput
	case KindRateLimited:
		return services.ErrRateLimited
	case KindAuthFailed:
		return services.ErrAuth
	case KindTimeout:
		return services.ErrTimeout
	default:
		return services.ErrBackend
	}
}

// Details carries the safe subset of a raw failure. Only the numeric status
// and the provider error code are retained; raw messages and headers never
// travel with the error.
type Details struct {
	Status int    `json:"status,omitempty"`
	Code   string `json:"code,omitempty"`
}

// ClassifiedError is a normalized failure with a fixed-vocabulary kind,
// independent of which backend produced it. Constructed once per failure and
// never mutated afterwards.
type ClassifiedError struct {
	Kind     Kind
	Provider string
	Message  string
	Hint     string
	Details  Details

	// RetryAfter is the provider's requested wait, when one was supplied.
	RetryAfter time.Duration

	cause error
}

// New constructs a classified error without an underlying cause.
func New(kind Kind, provider, message, hint string) *ClassifiedError {
	return &ClassifiedError{Kind: kind, Provider: provider, Message: message, Hint: hint}
}

func (e *ClassifiedError) Error() string {
	return e.Message
}

// Unwrap exposes the taxonomy marker and the underlying cause so callers can
// branch with errors.Is against either.
func (e *ClassifiedError) Unwrap() []error {
	if e.cause != nil {
		return []error{e.Kind.marker(), e.cause}
	}
	return []error{e.Kind.marker()}
}

// Retryable reports whether re-issuing the same logical request is expected
// to sometimes succeed. Auth and input failures never are; rate limiting
// always is; anything else only when it carries a known transient status.
func (e *ClassifiedError) Retryable() bool {
	switch e.Kind {
	case KindAuthFailed, KindInvalidInput:
		return false
	case KindRateLimited:
		return true
	default:
		return transientStatus(e.Details.Status)
	}
}

var transientStatuses = map[int]struct{}{
	429: {},
	500: {},
	502: {},
	503: {},
	504: {},
}

func transientStatus(status int) bool {
	_, ok := transientStatuses[status]
	return ok
}
