// Package errors provides standardized error handling for the OnTime console engine
package errors

import (
	"errors"
	"fmt"
)

// Common sentinel errors that can be used across the engine
var (
	// ErrMalformedFrame indicates an undecodable streaming frame; such
	// frames are logged and dropped, never surfaced to consumers
	ErrMalformedFrame = errors.New("malformed frame")

	// ErrTransport indicates the streaming channel failed to open or dropped
	ErrTransport = errors.New("transport failure")

	// ErrRequest indicates a request/response call failed
	ErrRequest = errors.New("request failed")

	// ErrUnreachable indicates the server health check failed
	ErrUnreachable = errors.New("server unreachable")

	// ErrNotFound indicates a requested resource doesn't exist
	ErrNotFound = errors.New("resource not found")

	// ErrInvalidInput indicates invalid input parameters
	ErrInvalidInput = errors.New("invalid input")

	// ErrClosed indicates an operation on an engine that was torn down
	ErrClosed = errors.New("engine closed")
)

// Error represents an engine error with additional context
type Error struct {
	// Code is a machine-readable error code
	Code string
	// Message is a human-readable error description
	Message string
	// Op describes the operation that failed
	Op string
	// Err is the underlying error
	Err error
}

// Error implements the error interface with a formatted message
func (e *Error) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}
	return e.Message
}

// Unwrap returns the underlying error for error chain handling
func (e *Error) Unwrap() error {
	return e.Err
}

// NewError creates a new Error with the given details
func NewError(code string, message string, op string, err error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Op:      op,
		Err:     err,
	}
}

// IsMalformedFrame returns true if err represents an undecodable frame
func IsMalformedFrame(err error) bool {
	return errors.Is(err, ErrMalformedFrame)
}

// IsTransport returns true if err represents a streaming channel failure
func IsTransport(err error) bool {
	return errors.Is(err, ErrTransport)
}

// IsRequest returns true if err represents a failed request/response call
func IsRequest(err error) bool {
	return errors.Is(err, ErrRequest)
}

// IsUnreachable returns true if err represents a failed health check
func IsUnreachable(err error) bool {
	return errors.Is(err, ErrUnreachable)
}

// IsNotFound returns true if err represents a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsInvalidInput returns true if err represents an invalid input error
func IsInvalidInput(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsClosed returns true if err represents use after teardown
func IsClosed(err error) bool {
	return errors.Is(err, ErrClosed)
}
