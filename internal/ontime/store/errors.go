package store

import (
	"fmt"

	oterrors "github.com/AquamanRanda/OnTIme/internal/ontime/errors"
)

// ErrUnknownEvent indicates an event lookup failure
type ErrUnknownEvent struct {
	ID string
}

func (e ErrUnknownEvent) Error() string {
	return fmt.Sprintf("unknown event: %s", e.ID)
}

func (e ErrUnknownEvent) Unwrap() error { return oterrors.ErrNotFound }

// ErrInvalidRundown indicates a rundown that violates its invariants
type ErrInvalidRundown struct {
	Reason string
}

func (e ErrInvalidRundown) Error() string {
	return fmt.Sprintf("invalid rundown: %s", e.Reason)
}

func (e ErrInvalidRundown) Unwrap() error { return oterrors.ErrInvalidInput }
