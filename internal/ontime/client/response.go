package client

import (
	"encoding/json"
	"fmt"
	"net/http"

	oterrors "github.com/AquamanRanda/OnTIme/internal/ontime/errors"
)

// RequestError describes a non-2xx API response
type RequestError struct {
	// Status is the HTTP status code
	Status int
	// Code is the machine-readable error code, when the server sent one
	Code string
	// Message is the human-readable error message
	Message string
}

// Error implements the error interface with a formatted message
func (e *RequestError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("HTTP %d: %s", e.Status, http.StatusText(e.Status))
	}
	return fmt.Sprintf("HTTP %d: %s", e.Status, e.Message)
}

// Is marks every RequestError as ErrRequest, and 404 responses as
// ErrNotFound as well.
func (e *RequestError) Is(target error) bool {
	switch target {
	case oterrors.ErrRequest:
		return true
	case oterrors.ErrNotFound:
		return e.Status == http.StatusNotFound
	}
	return false
}

// decodeResponse decodes a JSON response into the provided target
func decodeResponse(resp *http.Response, target interface{}) error {
	if err := handleResponse(resp); err != nil {
		return err
	}
	if target != nil {
		if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
			return fmt.Errorf("error decoding response: %w", err)
		}
	}
	return nil
}

// handleResponse processes an API response and returns an error if the status code indicates failure
func handleResponse(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	var apiErr struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&apiErr); err != nil {
		return &RequestError{Status: resp.StatusCode}
	}

	return &RequestError{Status: resp.StatusCode, Code: apiErr.Code, Message: apiErr.Message}
}
