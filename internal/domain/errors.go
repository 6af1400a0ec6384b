package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors for domain operations
var (
	// ErrUnauthorized indicates the session is no longer valid (HTTP 401)
	ErrUnauthorized = errors.New("session expired, please log in again")

	// ErrNetwork indicates no response was received from the API
	ErrNetwork = errors.New("network error")

	// ErrNotFound indicates the requested resource does not exist
	ErrNotFound = errors.New("resource not found")

	// ErrMissingParam indicates a gated read was attempted without its required parameter
	ErrMissingParam = errors.New("required parameter is missing")

	// ErrNotConfigured indicates the API base URL has not been set up
	ErrNotConfigured = errors.New("api base url is not configured")
)

// APIError is the normalized error shape for every failed API call.
// Status is 0 when no response was received.
type APIError struct {
	Status  int
	Message string
	Payload []byte
}

func (e *APIError) Error() string {
	if e.Status == 0 {
		return e.Message
	}
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

// Unwrap maps well-known statuses onto sentinels so callers can use errors.Is
func (e *APIError) Unwrap() error {
	switch e.Status {
	case 0:
		return ErrNetwork
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusNotFound:
		return ErrNotFound
	}
	return nil
}

// NewNetworkError returns the transport-failure error
func NewNetworkError() *APIError {
	return &APIError{Status: 0, Message: "network error"}
}

// UserMessage extracts the text a caller should render for err
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return err.Error()
}
