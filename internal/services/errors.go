package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"
)

// Kind is the closed error taxonomy shared by the API and its clients.
type Kind string

const (
	KindValidation     Kind = "validation"
	KindAuthentication Kind = "authentication"
	KindAuthorization  Kind = "authorization"
	KindRateLimit      Kind = "rate-limit"
	KindNotFound       Kind = "not-found"
	KindStorage        Kind = "storage"
	KindFileUpload     Kind = "file-upload"
	KindUnknown        Kind = "unknown"
)

var kindCodes = map[Kind]string{
	KindValidation:     "VALIDATION_ERROR",
	KindAuthentication: "AUTHENTICATION_ERROR",
	KindAuthorization:  "AUTHORIZATION_ERROR",
	KindRateLimit:      "RATE_LIMIT_ERROR",
	KindNotFound:       "NOT_FOUND",
	KindStorage:        "STORAGE_ERROR",
	KindFileUpload:     "FILE_UPLOAD_ERROR",
	KindUnknown:        "UNKNOWN_ERROR",
}

var kindStatus = map[Kind]int{
	KindValidation:     http.StatusBadRequest,
	KindAuthentication: http.StatusUnauthorized,
	KindAuthorization:  http.StatusForbidden,
	KindRateLimit:      http.StatusTooManyRequests,
	KindNotFound:       http.StatusNotFound,
	KindStorage:        http.StatusInternalServerError,
	KindFileUpload:     http.StatusBadRequest,
	KindUnknown:        http.StatusInternalServerError,
}

// Code returns the machine-readable code sent in the envelope.
func (k Kind) Code() string {
	if code, ok := kindCodes[k]; ok {
		return code
	}
	return kindCodes[KindUnknown]
}

// Status returns the HTTP status the kind maps to.
func (k Kind) Status() int {
	if status, ok := kindStatus[k]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// Retryable reports whether a client may offer a retry for this kind.
func (k Kind) Retryable() bool {
	switch k {
	case KindStorage, KindRateLimit, KindUnknown:
		return true
	}
	return false
}

// KindFromCode maps an envelope code back to its kind.
func KindFromCode(code string) Kind {
	for kind, value := range kindCodes {
		if value == code {
			return kind
		}
	}
	return KindUnknown
}

type ServiceError struct {
	Kind    Kind
	Status  int
	Message string
	Details map[string]any
	Err     error
}

func (e *ServiceError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

func (e *ServiceError) Retryable() bool {
	return e.Kind.Retryable()
}

// WithDetail returns the error with an extra structured detail attached.
func (e *ServiceError) WithDetail(key string, value any) *ServiceError {
	if e.Details == nil {
		e.Details = map[string]any{}
	}
	e.Details[key] = value
	return e
}

func newError(kind Kind, msg string, cause error) *ServiceError {
	return &ServiceError{Kind: kind, Status: kind.Status(), Message: msg, Err: cause}
}

func ErrValidation(msg string, fieldErrors map[string]string) *ServiceError {
	err := newError(KindValidation, msg, nil)
	if len(fieldErrors) > 0 {
		err.WithDetail("fields", fieldErrors)
	}
	return err
}

func ErrUnauthenticated(msg string) *ServiceError {
	return newError(KindAuthentication, msg, nil)
}

func ErrForbidden(msg string) *ServiceError {
	return newError(KindAuthorization, msg, nil)
}

func ErrRateLimited(retryAfter time.Duration) *ServiceError {
	seconds := int(retryAfter.Round(time.Second) / time.Second)
	if seconds < 1 {
		seconds = 1
	}
	return newError(KindRateLimit, "Too many requests, retry in "+strconv.Itoa(seconds)+"s", nil).
		WithDetail("retryAfterSeconds", seconds)
}

func ErrNotFound(msg string) *ServiceError {
	return newError(KindNotFound, msg, nil)
}

func ErrStorage(msg string, cause error) *ServiceError {
	return newError(KindStorage, msg, cause)
}

func ErrFileUpload(msg string) *ServiceError {
	return newError(KindFileUpload, msg, nil)
}

func ErrUnknown(cause error) *ServiceError {
	return newError(KindUnknown, "Unexpected error", cause)
}

// AsServiceError classifies any error into the taxonomy. Deadline expiry is a
// storage-class error so clients treat it as retryable.
func AsServiceError(err error) *ServiceError {
	if err == nil {
		return nil
	}
	var serr *ServiceError
	if errors.As(err, &serr) {
		return serr
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrStorage("Request timed out", err)
	}
	if errors.Is(err, context.Canceled) {
		return ErrStorage("Request cancelled", err)
	}
	return ErrUnknown(err)
}

func WrapError(err error, msg string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, err)
}
