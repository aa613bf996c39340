// Package apperrors carries the error categories use cases return and the HTTP
// status each category maps to.
package apperrors

import (
	"errors"
	"net/http"
)

// Category defines error category
type Category int

const (
	CategoryNoError Category = iota
	// CategoryDataError covers malformed input and violated business rules.
	CategoryDataError
	CategoryUnauthorized
	// CategoryForbidden is returned when the caller does not own the resource.
	CategoryForbidden
	CategoryResourceNotFound
	CategoryRateLimited
	// CategoryUnavailable means an optional dependency is not configured.
	CategoryUnavailable
	// CategoryDependencyFailure means the database, object store or payment
	// processor returned an error.
	CategoryDependencyFailure
	CategoryGeneralError
)

// Repository-level sentinels. Use cases translate them into ServiceErrors.
var (
	ErrNotFound          = errors.New("record not found")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrDuplicate         = errors.New("duplicate record")
	ErrLimitReached      = errors.New("target reached")
	ErrInvalidState      = errors.New("invalid state for operation")
	ErrInvalidTransfer   = errors.New("invalid transfer")
)

func (c Category) String() string {
	switch c {
	case CategoryDataError:
		return "CategoryDataError"
	case CategoryUnauthorized:
		return "CategoryUnauthorized"
	case CategoryForbidden:
		return "CategoryForbidden"
	case CategoryResourceNotFound:
		return "CategoryResourceNotFound"
	case CategoryRateLimited:
		return "CategoryRateLimited"
	case CategoryUnavailable:
		return "CategoryUnavailable"
	case CategoryDependencyFailure:
		return "CategoryDependencyFailure"
	default:
		return "CategoryGeneralError"
	}
}

// ServiceError is the error type use cases hand to the HTTP layer. Message is
// shown to the client, Err is logged.
type ServiceError struct {
	Category Category
	Message  string
	Err      error
}

func (err *ServiceError) Error() string {
	if err.Err != nil {
		return err.Message + ": " + err.Err.Error()
	}
	return err.Message
}

func (err *ServiceError) Unwrap() error {
	return err.Err
}

// StatusCode returns the HTTP status code for the error category
func (err *ServiceError) StatusCode() int {
	switch err.Category {
	case CategoryDataError:
		return http.StatusBadRequest
	case CategoryUnauthorized:
		return http.StatusUnauthorized
	case CategoryForbidden:
		return http.StatusForbidden
	case CategoryResourceNotFound:
		return http.StatusNotFound
	case CategoryRateLimited:
		return http.StatusTooManyRequests
	case CategoryUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Is checks that provided error is a ServiceError with desired Category
func Is(err error, cat Category) bool {
	var svcErr *ServiceError
	return errors.As(err, &svcErr) && svcErr.Category == cat
}

// IsInternalError reports whether err should be treated as a server-side failure.
func IsInternalError(err error) bool {
	var svcErr *ServiceError
	if errors.As(err, &svcErr) {
		return svcErr.Category >= CategoryDependencyFailure
	}
	return true
}

func newError(cat Category, err error, message string) error {
	return &ServiceError{Category: cat, Message: message, Err: err}
}

func BadRequestError(err error, message string) error {
	return newError(CategoryDataError, err, message)
}

func UnauthorizedError(err error, message string) error {
	return newError(CategoryUnauthorized, err, message)
}

func ForbiddenError(err error, message string) error {
	return newError(CategoryForbidden, err, message)
}

func NotFoundError(err error, message string) error {
	return newError(CategoryResourceNotFound, err, message)
}

func RateLimitedError(message string) error {
	return newError(CategoryRateLimited, nil, message)
}

func UnavailableError(err error, message string) error {
	return newError(CategoryUnavailable, err, message)
}

// DependencyError wraps a failure of the database, object store or payment
// processor.
func DependencyError(err error, message string) error {
	return newError(CategoryDependencyFailure, err, message)
}

// InternalError is a 500 with a specific client-facing message.
func InternalError(err error, message string) error {
	return newError(CategoryGeneralError, err, message)
}

// GeneralError returns a general service error
func GeneralError(err error) error {
	if err == nil {
		err = errors.New("internal server error")
	}
	return newError(CategoryGeneralError, err, "Internal server error")
}
