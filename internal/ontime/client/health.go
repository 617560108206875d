package client

import (
	"context"
	"net/http"

	"github.com/AquamanRanda/OnTIme/api/types/v1alpha1"
)

// Health probes the server's health endpoint. A transport-level failure
// comes back wrapping ErrUnreachable; a served non-2xx comes back as a
// RequestError. Either way the server is not considered healthy.
func (c *Client) Health(ctx context.Context) (*v1alpha1.HealthStatus, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/api/health", nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var health v1alpha1.HealthStatus
	if err := decodeResponse(resp, &health); err != nil {
		return nil, err
	}
	return &health, nil
}
