package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/AquamanRanda/OnTIme/api/types/v1alpha1"
)

// GetProject fetches the production metadata
func (c *Client) GetProject(ctx context.Context) (*v1alpha1.ProjectData, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/data/project", nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var project v1alpha1.ProjectData
	if err := decodeResponse(resp, &project); err != nil {
		return nil, err
	}
	return &project, nil
}

// GetRundown fetches the ordered rundown together with any custom field
// definitions the server publishes
func (c *Client) GetRundown(ctx context.Context) (*v1alpha1.NormalisedRundown, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/data/rundown/normalised", nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var rundown v1alpha1.NormalisedRundown
	if err := decodeResponse(resp, &rundown); err != nil {
		return nil, err
	}
	return &rundown, nil
}

// PollRuntime fetches one runtime state frame over HTTP. The body shape
// varies across server versions, so it is returned raw for the message
// normalizer rather than decoded here.
func (c *Client) PollRuntime(ctx context.Context) (json.RawMessage, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/api/poll", nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := handleResponse(resp); err != nil {
		return nil, err
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading poll response: %w", err)
	}
	return raw, nil
}
