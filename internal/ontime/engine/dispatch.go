package engine

import (
	"context"

	"github.com/AquamanRanda/OnTIme/api/types/v1alpha1"
)

// Command dispatch. Each operation issues exactly one request/response
// call. Playback commands never mutate the local snapshot; the next
// streaming or polled update carries the new truth, and at console
// latencies that is fast enough. Failures surface to the caller and are
// never retried here.

// Start starts the currently selected event
func (e *Engine) Start(ctx context.Context) error {
	if err := e.guard("Start"); err != nil {
		return err
	}
	return e.client.Start(ctx)
}

// StartID starts the event with the given id
func (e *Engine) StartID(ctx context.Context, id string) error {
	if err := e.guard("StartID"); err != nil {
		return err
	}
	return e.client.StartID(ctx, id)
}

// StartIndex starts the event at the given rundown position
func (e *Engine) StartIndex(ctx context.Context, index int) error {
	if err := e.guard("StartIndex"); err != nil {
		return err
	}
	return e.client.StartIndex(ctx, index)
}

// StartCue starts the event with the given cue label
func (e *Engine) StartCue(ctx context.Context, cue string) error {
	if err := e.guard("StartCue"); err != nil {
		return err
	}
	return e.client.StartCue(ctx, cue)
}

// StartNext starts the event after the current one
func (e *Engine) StartNext(ctx context.Context) error {
	if err := e.guard("StartNext"); err != nil {
		return err
	}
	return e.client.StartNext(ctx)
}

// StartPrevious starts the event before the current one
func (e *Engine) StartPrevious(ctx context.Context) error {
	if err := e.guard("StartPrevious"); err != nil {
		return err
	}
	return e.client.StartPrevious(ctx)
}

// Pause pauses the running timer
func (e *Engine) Pause(ctx context.Context) error {
	if err := e.guard("Pause"); err != nil {
		return err
	}
	return e.client.Pause(ctx)
}

// Stop stops playback
func (e *Engine) Stop(ctx context.Context) error {
	if err := e.guard("Stop"); err != nil {
		return err
	}
	return e.client.Stop(ctx)
}

// Reload reloads the current event's timer
func (e *Engine) Reload(ctx context.Context) error {
	if err := e.guard("Reload"); err != nil {
		return err
	}
	return e.client.Reload(ctx)
}

// AddTime adds seconds to the running timer
func (e *Engine) AddTime(ctx context.Context, seconds int64) error {
	if err := e.guard("AddTime"); err != nil {
		return err
	}
	return e.client.AddTime(ctx, seconds)
}

// RemoveTime removes seconds from the running timer
func (e *Engine) RemoveTime(ctx context.Context, seconds int64) error {
	if err := e.guard("RemoveTime"); err != nil {
		return err
	}
	return e.client.RemoveTime(ctx, seconds)
}

// UpdateEvent applies a partial update to an event's fields and returns
// the event as the server now holds it. The store copy is refreshed on
// the next rundown fetch, not mutated here.
func (e *Engine) UpdateEvent(ctx context.Context, id string, update v1alpha1.EventUpdateRequest) (*v1alpha1.Event, error) {
	if err := e.guard("UpdateEvent"); err != nil {
		return nil, err
	}
	return e.client.UpdateEvent(ctx, id, update)
}

// UpdateCustomField writes one custom field value optimistically: the new
// value is visible in the store immediately, then the PATCH confirms it.
// On failure the store rolls back to the pre-edit value before the error
// returns to the caller; the rollback is a no-op if an authoritative
// rundown landed in between. Rapid re-edits of the same field are not
// serialized; the server resolves them last-request-wins.
func (e *Engine) UpdateCustomField(ctx context.Context, eventID, field, value string) error {
	if err := e.guard("UpdateCustomField"); err != nil {
		return err
	}

	rollback, err := e.store.ApplyCustomEdit(eventID, field, value)
	if err != nil {
		return err
	}

	if _, err := e.client.UpdateCustomField(ctx, eventID, field, value); err != nil {
		rollback()
		return err
	}
	return nil
}
