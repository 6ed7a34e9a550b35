package errors

import (
	"errors"
	"fmt"
)

// StorageError represents a storage-specific error
type StorageError struct {
	Code    int
	Message string
	Cause   error
}

func (e *StorageError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("storage error %d: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("storage error %d: %s", e.Code, e.Message)
}

func (e *StorageError) Unwrap() error {
	return e.Cause
}

// Is maps error codes onto the exported sentinels so callers can use errors.Is
// without keeping the concrete type around.
func (e *StorageError) Is(target error) bool {
	switch target {
	case ErrInvalidArgument:
		return e.Code == ErrCodeInvalidArgument
	case ErrCorrupted:
		return e.Code == ErrCodeCorrupted
	case ErrDisposed:
		return e.Code == ErrCodeDisposed
	case ErrVersionMismatch:
		return e.Code == ErrCodeVersionMismatch
	case ErrIO:
		return e.Code == ErrCodeIO
	}
	return false
}

// Error codes
const (
	ErrCodeUnknown         = 0
	ErrCodeInvalidArgument = 1000
	ErrCodeCorrupted       = 2000
	ErrCodeDisposed        = 3000
	ErrCodeVersionMismatch = 4000
	ErrCodeIO              = 5000
)

// Sentinels for errors.Is checks
var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrCorrupted       = errors.New("storage corrupted")
	ErrDisposed        = errors.New("storage already closed")
	ErrVersionMismatch = errors.New("storage format version mismatch")
	ErrIO              = errors.New("storage i/o failure")
)

// NewStorageError creates a new storage error
func NewStorageError(code int, message string, cause error) error {
	return &StorageError{Code: code, Message: message, Cause: cause}
}

// NewInvalidArgument creates an invalid-argument error
func NewInvalidArgument(message string) error {
	return NewStorageError(ErrCodeInvalidArgument, message, nil)
}

// NewCorrupted creates a corruption error
func NewCorrupted(message string, cause error) error {
	return NewStorageError(ErrCodeCorrupted, message, cause)
}

// NewDisposed creates a disposed-resource error
func NewDisposed(message string) error {
	return NewStorageError(ErrCodeDisposed, message, nil)
}

// NewVersionMismatch creates a format-version mismatch error
func NewVersionMismatch(message string) error {
	return NewStorageError(ErrCodeVersionMismatch, message, nil)
}

// NewIO creates an I/O error
func NewIO(message string, cause error) error {
	return NewStorageError(ErrCodeIO, message, cause)
}
