package client

import (
	"context"
	"net/http"

	"github.com/AquamanRanda/OnTIme/api/types/v1alpha1"
	oterrors "github.com/AquamanRanda/OnTIme/internal/ontime/errors"
)

// Playback posts a playback command. Most commands need no body; start can
// address an event and the time adjustments carry a magnitude. Success has
// no meaningful response body; callers rely on the next state update to
// reflect the new truth.
func (c *Client) Playback(ctx context.Context, command v1alpha1.PlaybackCommand, req *v1alpha1.PlaybackRequest) error {
	var body interface{}
	if req != nil {
		body = req
	}

	resp, err := c.doRequest(ctx, http.MethodPost, "/api/playback/"+string(command), body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	return handleResponse(resp)
}

// Start starts the currently selected event
func (c *Client) Start(ctx context.Context) error {
	return c.Playback(ctx, v1alpha1.CommandStart, nil)
}

// StartID starts the event with the given id
func (c *Client) StartID(ctx context.Context, id string) error {
	if id == "" {
		return oterrors.NewError("INVALID_INPUT", "event id is required", "StartID", oterrors.ErrInvalidInput)
	}
	return c.Playback(ctx, v1alpha1.CommandStart, &v1alpha1.PlaybackRequest{EventID: id})
}

// StartIndex starts the event at the given rundown position
func (c *Client) StartIndex(ctx context.Context, index int) error {
	if index < 0 {
		return oterrors.NewError("INVALID_INPUT", "event index must not be negative", "StartIndex", oterrors.ErrInvalidInput)
	}
	return c.Playback(ctx, v1alpha1.CommandStart, &v1alpha1.PlaybackRequest{EventIndex: &index})
}

// StartCue starts the event with the given cue label
func (c *Client) StartCue(ctx context.Context, cue string) error {
	if cue == "" {
		return oterrors.NewError("INVALID_INPUT", "cue is required", "StartCue", oterrors.ErrInvalidInput)
	}
	return c.Playback(ctx, v1alpha1.CommandStart, &v1alpha1.PlaybackRequest{EventCue: cue})
}

// StartNext starts the event after the current one
func (c *Client) StartNext(ctx context.Context) error {
	return c.Playback(ctx, v1alpha1.CommandStartNext, nil)
}

// StartPrevious starts the event before the current one
func (c *Client) StartPrevious(ctx context.Context) error {
	return c.Playback(ctx, v1alpha1.CommandStartPrevious, nil)
}

// Pause pauses the running timer
func (c *Client) Pause(ctx context.Context) error {
	return c.Playback(ctx, v1alpha1.CommandPause, nil)
}

// Stop stops playback
func (c *Client) Stop(ctx context.Context) error {
	return c.Playback(ctx, v1alpha1.CommandStop, nil)
}

// Reload reloads the current event's timer
func (c *Client) Reload(ctx context.Context) error {
	return c.Playback(ctx, v1alpha1.CommandReload, nil)
}

// AddTime adds seconds to the running timer
func (c *Client) AddTime(ctx context.Context, seconds int64) error {
	if seconds <= 0 {
		return oterrors.NewError("INVALID_INPUT", "seconds must be positive", "AddTime", oterrors.ErrInvalidInput)
	}
	return c.Playback(ctx, v1alpha1.CommandAddTime, &v1alpha1.PlaybackRequest{Seconds: seconds})
}

// RemoveTime removes seconds from the running timer
func (c *Client) RemoveTime(ctx context.Context, seconds int64) error {
	if seconds <= 0 {
		return oterrors.NewError("INVALID_INPUT", "seconds must be positive", "RemoveTime", oterrors.ErrInvalidInput)
	}
	return c.Playback(ctx, v1alpha1.CommandRemoveTime, &v1alpha1.PlaybackRequest{Seconds: seconds})
}
