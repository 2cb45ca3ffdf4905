// Package domain defines domain-specific errors.
// These errors represent business logic failures and are independent of infrastructure.
package domain

import (
	"errors"
	"fmt"
)

// Common errors that services can return.
var (
	// ErrCatalogUnavailable is returned when the remote catalog cannot be fetched.
	ErrCatalogUnavailable = errors.New("catalog unavailable")

	// ErrSongNotFound is returned when a play-by-id command names an id absent from the queue.
	ErrSongNotFound = errors.New("song not found in queue")

	// ErrUnknownParent is returned when a browse query names a parent other than the root.
	ErrUnknownParent = errors.New("unknown browse parent")

	// ErrNotPrepared is returned when a transport command needs a prepared queue.
	ErrNotPrepared = errors.New("nothing prepared")

	// ErrInvalidIndex is returned when a queue index is out of bounds.
	ErrInvalidIndex = errors.New("invalid queue index")

	// ErrEngineReleased is returned when a released engine receives a command.
	ErrEngineReleased = errors.New("engine released")

	// ErrUnsupportedFormat is returned when an audio format cannot be decoded.
	ErrUnsupportedFormat = errors.New("unsupported audio format")

	// ErrSessionClosed is returned when a command reaches a closed session.
	ErrSessionClosed = errors.New("session closed")

	// ErrCancelled is the result of a future that was cancelled before resolution.
	ErrCancelled = errors.New("cancelled")

	// ErrDisconnected is returned by a connection after Disconnect.
	ErrDisconnected = errors.New("connection closed")
)

// FetchError represents a failed catalog fetch.
// It matches ErrCatalogUnavailable with errors.Is.
type FetchError struct {
	Source string // Store backend (e.g., "http", "sqlite", "local")
	Err    error  // Underlying error
}

// Error implements the error interface.
func (e *FetchError) Error() string {
	if e.Source != "" {
		return fmt.Sprintf("catalog fetch from %s failed: %v", e.Source, e.Err)
	}
	return fmt.Sprintf("catalog fetch failed: %v", e.Err)
}

// Unwrap returns the underlying error.
func (e *FetchError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrCatalogUnavailable.
func (e *FetchError) Is(target error) bool {
	return target == ErrCatalogUnavailable
}

// NewFetchError creates a new FetchError.
func NewFetchError(source string, err error) *FetchError {
	return &FetchError{Source: source, Err: err}
}

// EngineError represents a decode or source failure in the playback engine.
type EngineError struct {
	Op       string // Operation that failed (e.g., "prepare", "decode", "seek")
	MediaURI string // Media being handled (if applicable)
	Err      error  // Underlying error
}

// Error implements the error interface.
func (e *EngineError) Error() string {
	if e.MediaURI != "" {
		return fmt.Sprintf("playback engine %s failed for '%s': %v", e.Op, e.MediaURI, e.Err)
	}
	return fmt.Sprintf("playback engine %s failed: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e *EngineError) Unwrap() error {
	return e.Err
}

// NewEngineError creates a new EngineError.
func NewEngineError(op, mediaURI string, err error) *EngineError {
	return &EngineError{
		Op:       op,
		MediaURI: mediaURI,
		Err:      err,
	}
}

// ServiceError represents an error from a service layer operation.
type ServiceError struct {
	Service string // Service name (e.g., "SessionService", "CatalogService")
	Op      string // Operation that failed
	Message string // Error message
	Err     error  // Underlying error
}

// Error implements the error interface.
func (e *ServiceError) Error() string {
	return fmt.Sprintf("service %s.%s failed: %s", e.Service, e.Op, e.Message)
}

// Unwrap returns the underlying error.
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// NewServiceError creates a new ServiceError.
func NewServiceError(service, op, message string, err error) *ServiceError {
	return &ServiceError{
		Service: service,
		Op:      op,
		Message: message,
		Err:     err,
	}
}
