// Package apperr defines the error taxonomy shared by the store, the
// providers and the HTTP layer. Match sentinels with errors.Is and the typed
// errors with errors.As.
package apperr

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks bad or missing input.
	ErrValidation = errors.New("validation error")
	// ErrAuth marks a missing, invalid or expired session.
	ErrAuth = errors.New("authentication required")
	// ErrAccessDenied marks a valid session that does not own the resource.
	ErrAccessDenied = errors.New("access denied")
	// ErrNotFound marks an unknown document or user.
	ErrNotFound = errors.New("not found")
)

// Validation wraps ErrValidation with a message.
func Validation(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// NotFound wraps ErrNotFound with the kind and id of the missing record.
func NotFound(kind, id string) error {
	return fmt.Errorf("%s %q: %w", kind, id, ErrNotFound)
}

// ProviderError is an upstream AI/TTS failure. Status is the upstream HTTP
// status when one was received, 0 otherwise.
type ProviderError struct {
	Provider string
	Status   int
	Body     string
	Err      error
}

func (e *ProviderError) Error() string {
	msg := e.Provider + " provider error"
	if e.Status != 0 {
		msg += fmt.Sprintf(" %d", e.Status)
	}
	if e.Body != "" {
		msg += ": " + e.Body
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ProviderError) Unwrap() error { return e.Err }

// Provider returns a ProviderError without an upstream response.
func Provider(provider string, err error) error {
	return &ProviderError{Provider: provider, Err: err}
}

// ProviderStatus returns a ProviderError carrying the upstream status and body.
func ProviderStatus(provider string, status int, body string) error {
	return &ProviderError{Provider: provider, Status: status, Body: body}
}

// StorageError is a key-value or blob operation failure.
type StorageError struct {
	Op  string
	Key string
	Err error
}

func (e *StorageError) Error() string {
	if e.Key == "" {
		return "storage " + e.Op + ": " + e.Err.Error()
	}
	return fmt.Sprintf("storage %s %q: %v", e.Op, e.Key, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// Storage wraps err as a StorageError. A nil err stays nil.
func Storage(op, key string, err error) error {
	if err == nil {
		return nil
	}
	return &StorageError{Op: op, Key: key, Err: err}
}
