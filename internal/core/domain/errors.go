package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrValidation indicates malformed or invalid input.
	ErrValidation = errors.New("validation failed")

	// ErrUnsupportedFile indicates an upload of a file type that cannot be ingested.
	ErrUnsupportedFile = errors.New("unsupported file type")

	// Infrastructure Errors.

	// ErrGateway indicates an embedding or completion call failed.
	ErrGateway = errors.New("gateway error")

	// ErrStorage indicates a persistence failure.
	ErrStorage = errors.New("storage error")

	// ErrCorruptRecord indicates a stored record failed validation on read.
	ErrCorruptRecord = errors.New("corrupt record")

	// ErrLLMUnavailable indicates the LLM service is not configured.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrEmbeddingUnavailable indicates the embedding service is not configured.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")
)

// GatewayError describes a failed call to an embedding or completion provider.
type GatewayError struct {
	// Provider is the backend name, e.g. "openai".
	Provider string

	// Op is the failed operation, e.g. "embed" or "stream chat".
	Op string

	// StatusCode is the HTTP status returned by the provider, 0 if none.
	StatusCode int

	// Retryable is true for timeouts, rate limiting and server-side failures.
	Retryable bool

	// Err is the underlying cause.
	Err error
}

func (e *GatewayError) Error() string {
	msg := fmt.Sprintf("%s %s", e.Provider, e.Op)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (status %d)", e.StatusCode)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *GatewayError) Unwrap() error {
	return e.Err
}

// Is matches ErrGateway.
func (e *GatewayError) Is(target error) bool {
	return target == ErrGateway
}

// StorageError describes a failed persistence operation.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying cause.
func (e *StorageError) Unwrap() error {
	return e.Err
}

// Is matches ErrStorage.
func (e *StorageError) Is(target error) bool {
	return target == ErrStorage
}

// IsRetryable reports whether err is a gateway failure worth retrying.
func IsRetryable(err error) bool {
	var gwErr *GatewayError
	if errors.As(err, &gwErr) {
		return gwErr.Retryable
	}
	return false
}

// RetryableStatus reports whether an HTTP status from a provider is transient.
func RetryableStatus(code int) bool {
	return code == 408 || code == 429 || code >= 500
}
