package models

import (
	"errors"
	"fmt"
)

// Sentinel errors
var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNotAuthenticated   = errors.New("not authenticated")
	ErrVaultInitFailed    = errors.New("vault initialization failed")
	ErrVaultNotLoaded     = errors.New("vault not loaded")
	ErrVaultNotFound      = errors.New("vault not found")
	ErrItemNotFound       = errors.New("item not found")
	ErrRemoteStore        = errors.New("remote store error")
)

// APIError represents an error returned by the backend.
type APIError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"status_code"`
	RequestID  string `json:"request_id,omitempty"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error %d (%s): %s", e.StatusCode, e.Code, e.Message)
}

// ValidationError reports a field that failed validation or sanitization.
// It always precedes encryption and network I/O, so a rejected mutation
// can never have touched remote state.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid field %q: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}
