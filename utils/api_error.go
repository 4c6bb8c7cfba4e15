package utils

import (
	"encoding/json"
	"fmt"
	"net/http"
)

type ErrorKind string

const (
	KindInvalidInput       ErrorKind = "INVALID_INPUT"
	KindUnauthorized       ErrorKind = "UNAUTHORIZED"
	KindInvalidCredentials ErrorKind = "INVALID_CREDENTIALS"
	KindInvalidToken       ErrorKind = "INVALID_TOKEN"
	KindTokenReused        ErrorKind = "TOKEN_REUSED"
	KindNotFound           ErrorKind = "NOT_FOUND"
	KindConflict           ErrorKind = "CONFLICT"
	KindRateLimited        ErrorKind = "RATE_LIMITED"
	KindInternal           ErrorKind = "INTERNAL"
)

var kindStatus = map[ErrorKind]int{
	KindInvalidInput:       http.StatusBadRequest,
	KindUnauthorized:       http.StatusUnauthorized,
	KindInvalidCredentials: http.StatusUnauthorized,
	KindInvalidToken:       http.StatusUnauthorized,
	KindTokenReused:        http.StatusUnauthorized,
	KindNotFound:           http.StatusNotFound,
	KindConflict:           http.StatusConflict,
	KindRateLimited:        http.StatusTooManyRequests,
	KindInternal:           http.StatusInternalServerError,
}

// ApiError is the failure side of the response envelope. Cause is kept for
// logs only and never serialised.
type ApiError struct {
	StatusCode int
	Kind       ErrorKind
	Message    string
	Errors     []string
	cause      error
}

// Sentinels for errors.Is; matching is by Kind only.
var (
	ErrInvalidInput       = &ApiError{Kind: KindInvalidInput}
	ErrUnauthorized       = &ApiError{Kind: KindUnauthorized}
	ErrInvalidCredentials = &ApiError{Kind: KindInvalidCredentials}
	ErrInvalidToken       = &ApiError{Kind: KindInvalidToken}
	ErrTokenReused        = &ApiError{Kind: KindTokenReused}
	ErrNotFound           = &ApiError{Kind: KindNotFound}
	ErrConflict           = &ApiError{Kind: KindConflict}
	ErrInternal           = &ApiError{Kind: KindInternal}
)

func NewApiError(kind ErrorKind, message string, details ...string) *ApiError {
	status, ok := kindStatus[kind]
	if !ok {
		kind, status = KindInternal, http.StatusInternalServerError
	}
	if message == "" {
		message = "Something went wrong"
	}
	return &ApiError{StatusCode: status, Kind: kind, Message: message, Errors: details}
}

func InvalidInput(message string, details ...string) *ApiError {
	return NewApiError(KindInvalidInput, message, details...)
}

func Unauthorized(message string) *ApiError { return NewApiError(KindUnauthorized, message) }

func InvalidCredentials(message string) *ApiError {
	return NewApiError(KindInvalidCredentials, message)
}

func InvalidToken(message string) *ApiError { return NewApiError(KindInvalidToken, message) }

func TokenReused(message string) *ApiError { return NewApiError(KindTokenReused, message) }

func NotFound(message string) *ApiError { return NewApiError(KindNotFound, message) }

func Conflict(message string) *ApiError { return NewApiError(KindConflict, message) }

// Internal wraps cause so it reaches the request log, while the client only
// ever sees message.
func Internal(message string, cause error) *ApiError {
	e := NewApiError(KindInternal, message)
	e.cause = cause
	return e
}

func (e *ApiError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *ApiError) Unwrap() error { return e.cause }

func (e *ApiError) Is(target error) bool {
	t, ok := target.(*ApiError)
	return ok && t.Kind == e.Kind
}

func (e *ApiError) MarshalJSON() ([]byte, error) {
	errs := e.Errors
	if errs == nil {
		errs = []string{}
	}
	return json.Marshal(struct {
		StatusCode int      `json:"statusCode"`
		Message    string   `json:"message"`
		Success    bool     `json:"success"`
		Errors     []string `json:"errors"`
	}{e.StatusCode, e.Message, false, errs})
}
