package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/AquamanRanda/OnTIme/api/types/v1alpha1"
	oterrors "github.com/AquamanRanda/OnTIme/internal/ontime/errors"
)

// UpdateEvent applies a partial update to an event's fields and returns
// the event as the server now holds it
func (c *Client) UpdateEvent(ctx context.Context, id string, update v1alpha1.EventUpdateRequest) (*v1alpha1.Event, error) {
	if id == "" {
		return nil, oterrors.NewError("INVALID_INPUT", "event id is required", "UpdateEvent", oterrors.ErrInvalidInput)
	}
	if update.Cue != nil && len(*update.Cue) > v1alpha1.CueMaxLen {
		msg := fmt.Sprintf("cue %q exceeds %d characters", *update.Cue, v1alpha1.CueMaxLen)
		return nil, oterrors.NewError("INVALID_INPUT", msg, "UpdateEvent", oterrors.ErrInvalidInput)
	}

	resp, err := c.doRequest(ctx, http.MethodPatch, "/data/event/"+url.PathEscape(id), update)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var event v1alpha1.Event
	if err := decodeResponse(resp, &event); err != nil {
		return nil, err
	}
	return &event, nil
}

// UpdateCustomField writes a single custom field value on an event and
// returns the event as the server now holds it
func (c *Client) UpdateCustomField(ctx context.Context, id, field, value string) (*v1alpha1.Event, error) {
	if id == "" {
		return nil, oterrors.NewError("INVALID_INPUT", "event id is required", "UpdateCustomField", oterrors.ErrInvalidInput)
	}
	if field == "" {
		return nil, oterrors.NewError("INVALID_INPUT", "field id is required", "UpdateCustomField", oterrors.ErrInvalidInput)
	}

	body := v1alpha1.CustomFieldValueRequest{Field: field, Value: value}
	resp, err := c.doRequest(ctx, http.MethodPatch, "/data/event/"+url.PathEscape(id)+"/custom", body)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var event v1alpha1.Event
	if err := decodeResponse(resp, &event); err != nil {
		return nil, err
	}
	return &event, nil
}
