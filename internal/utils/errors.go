package utils

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrorKind classifies failures so callers can decide between retrying,
// repairing credentials, or treating the result as a logical absence.
type ErrorKind string

const (
	// KindTransient covers rate limiting, timeouts and upstream 5xx; safe to
	// retry.
	KindTransient ErrorKind = "transient"
	// KindAuth covers invalid or expired credentials and missing permissions;
	// never retried.
	KindAuth ErrorKind = "auth"
	// KindNotFound marks a resource that no longer exists.
	KindNotFound ErrorKind = "not_found"
	// KindInvalid marks malformed filters, identifiers or parameters.
	KindInvalid ErrorKind = "invalid"
)

// AppError wraps an operation, a failure classification, a human-facing
// message, and the underlying error.
type AppError struct {
	Op   string
	Kind ErrorKind
	Msg  string
	Err  error
}

func (e *AppError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Msg)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Msg, e.Err)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError constructs an AppError.
func NewAppError(op string, kind ErrorKind, msg string, err error) error {
	return &AppError{Op: op, Kind: kind, Msg: msg, Err: err}
}

// KindOf extracts the classification from an error chain. Unclassified errors
// default to KindTransient so unexpected failures stay retryable.
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Kind != "" {
		return appErr.Kind
	}
	return KindTransient
}

// IsAuth reports whether the error chain carries an auth classification.
func IsAuth(err error) bool { return KindOf(err) == KindAuth }

// IsNotFound reports whether the error chain marks a logical absence.
func IsNotFound(err error) bool { return KindOf(err) == KindNotFound }

// IsInvalid reports whether the error chain marks a validation failure.
func IsInvalid(err error) bool { return KindOf(err) == KindInvalid }

// IsRetryable reports whether another attempt may succeed.
func IsRetryable(err error) bool { return KindOf(err) == KindTransient }

// KindFromStatus maps an HTTP status code to a failure classification.
func KindFromStatus(code int) ErrorKind {
	switch code {
	case http.StatusUnauthorized, http.StatusForbidden:
		return KindAuth
	case http.StatusNotFound, http.StatusGone:
		return KindNotFound
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return KindInvalid
	default:
		return KindTransient
	}
}

var (
	authPhrases     = []string{"unauthorized", "forbidden", "invalid credentials", "expired token", "authenticationfailed", "authorizationfailed", "access denied"}
	notFoundPhrases = []string{"not found", "notfound", "does not exist", "resourcenotfound"}
	invalidPhrases  = []string{"invalid parameter", "invalidparameter", "validation", "malformed"}
)

// KindFromMessage classifies vendor error text by well-known phrases. Used
// where vendors signal failures in message bodies rather than status codes.
func KindFromMessage(msg string) ErrorKind {
	lower := strings.ToLower(msg)
	for _, p := range authPhrases {
		if strings.Contains(lower, p) {
			return KindAuth
		}
	}
	for _, p := range notFoundPhrases {
		if strings.Contains(lower, p) {
			return KindNotFound
		}
	}
	for _, p := range invalidPhrases {
		if strings.Contains(lower, p) {
			return KindInvalid
		}
	}
	return KindTransient
}
