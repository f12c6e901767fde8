package remote

import (
	"errors"
	"fmt"
	"net/http"
)

// Category is the normalized failure taxonomy for calls to external services.
type Category string

const (
	// CategoryTransient covers 5xx responses, timeouts and connection failures.
	CategoryTransient Category = "transient"

	// CategoryPermanent covers 4xx responses other than 404.
	CategoryPermanent Category = "permanent"

	// CategoryNotFound indicates the requested entity does not exist.
	CategoryNotFound Category = "not_found"

	// CategoryBadData indicates the service answered with a body we could not decode.
	CategoryBadData Category = "bad_data"
)

// Error wraps a failed call to one of the hub's collaborators.
type Error struct {
	Category   Category
	Service    string
	StatusCode int
	Message    string
	Underlying error
	Retryable  bool
}

func (e *Error) Error() string {
	status := ""
	if e.StatusCode != 0 {
		status = fmt.Sprintf(" (status %d)", e.StatusCode)
	}
	if e.Underlying != nil {
		return fmt.Sprintf("%s [%s]%s: %s: %v", e.Service, e.Category, status, e.Message, e.Underlying)
	}
	return fmt.Sprintf("%s [%s]%s: %s", e.Service, e.Category, status, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Underlying
}

// NewError builds an Error; only transient failures are retryable.
func NewError(category Category, service, message string, status int, underlying error) *Error {
	return &Error{
		Category:   category,
		Service:    service,
		StatusCode: status,
		Message:    message,
		Underlying: underlying,
		Retryable:  category == CategoryTransient,
	}
}

// FromStatus classifies a non-2xx HTTP status.
func FromStatus(service string, status int, body string) *Error {
	switch {
	case status == http.StatusNotFound:
		return NewError(CategoryNotFound, service, body, status, nil)
	case status >= 500:
		return NewError(CategoryTransient, service, body, status, nil)
	default:
		return NewError(CategoryPermanent, service, body, status, nil)
	}
}

// IsRetryable reports whether err is worth retrying.
func IsRetryable(err error) bool {
	var re *Error
	if errors.As(err, &re) {
		return re.Retryable
	}
	return false
}

// IsPermanent reports whether err is a remote failure that must not be retried.
func IsPermanent(err error) bool {
	var re *Error
	if errors.As(err, &re) {
		return !re.Retryable
	}
	return false
}

// IsNotFound reports whether err is a remote 404.
func IsNotFound(err error) bool {
	return GetCategory(err) == CategoryNotFound
}

// GetCategory extracts the category from err, or "" when err is not remote.
func GetCategory(err error) Category {
	var re *Error
	if errors.As(err, &re) {
		return re.Category
	}
	return ""
}

// GetStatusCode extracts the HTTP status from err, or 0.
func GetStatusCode(err error) int {
	var re *Error
	if errors.As(err, &re) {
		return re.StatusCode
	}
	return 0
}
