package notifyapi

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrNotFound      = errors.New("notifyapi: not found")
	ErrUnauthorized  = errors.New("notifyapi: unauthorized")
	ErrDecode        = errors.New("notifyapi: failed to decode response")
	ErrRequestFailed = errors.New("notifyapi: request reported failure")
	ErrInvalidURL    = errors.New("notifyapi: invalid base url")
)

// StatusError reports an unexpected HTTP status.
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string // first bytes of the response body
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("notifyapi: %s %s: unexpected status %d: %s", e.Method, e.Path, e.StatusCode, e.Body)
}

// Unwrap maps well-known statuses to sentinel errors.
func (e *StatusError) Unwrap() error {
	switch e.StatusCode {
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusUnauthorized:
		return ErrUnauthorized
	}
	return nil
}
