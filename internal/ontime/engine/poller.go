package engine

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/AquamanRanda/OnTIme/internal/ontime/client"
	"github.com/AquamanRanda/OnTIme/internal/ontime/protocol"
)

// Refresh fetches the project metadata and the rundown over HTTP and
// installs them in the store. It serves the initial load, manual refresh,
// and the safety-net ticker, and never touches the streaming channel's
// lifecycle.
func (e *Engine) Refresh(ctx context.Context) error {
	if err := e.guard("Refresh"); err != nil {
		return err
	}

	project, err := e.client.GetProject(ctx)
	if err != nil {
		return err
	}

	rundown, err := e.client.GetRundown(ctx)
	if err != nil {
		return err
	}
	if err := e.store.SetRundown(*rundown); err != nil {
		return err
	}
	e.store.SetProject(*project)

	e.logger.Debug().Int("events", len(rundown.Order)).Msg("refreshed")
	return nil
}

func (e *Engine) refreshLoop(ctx context.Context) error {
	ticker := time.NewTicker(e.opts.RefreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := e.Refresh(ctx); err != nil {
				e.logger.Warn().Err(err).Msg("safety-net refresh failed")
			}
		}
	}
}

// Poll fetches one runtime snapshot over HTTP and merges it into the
// store. It is the one-shot form of the fallback poll loop, for callers
// that want current state without running the engine loops.
func (e *Engine) Poll(ctx context.Context) error {
	if err := e.guard("Poll"); err != nil {
		return err
	}

	raw, err := e.client.PollRuntime(ctx)
	if err != nil {
		return err
	}
	e.applyPollBody(raw)
	return nil
}

// pollLoop periodically fetches a runtime snapshot over HTTP and feeds it
// through the same normalize-then-merge path as streamed frames. Servers
// without the endpoint answer 404 or 405; the loop then disables itself
// for the rest of the session.
func (e *Engine) pollLoop(ctx context.Context) error {
	ticker := time.NewTicker(e.opts.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			err := e.Poll(ctx)
			if err == nil {
				continue
			}
			if pollUnsupported(err) {
				e.mu.Lock()
				e.pollDisabled = true
				e.mu.Unlock()
				e.logger.Info().Msg("snapshot poll unsupported by server, disabling")
				return nil
			}
			e.logger.Debug().Err(err).Msg("snapshot poll failed")
		}
	}
}

func pollUnsupported(err error) bool {
	var reqErr *client.RequestError
	if !errors.As(err, &reqErr) {
		return false
	}
	return reqErr.Status == http.StatusNotFound || reqErr.Status == http.StatusMethodNotAllowed
}

// applyPollBody merges one polled body into the store. The endpoint
// answers with the streamed poll frame minus its topic, a bare payload
// wrapper; older servers answer with the snapshot object directly. Both
// shapes go through the normalizer so the merge path stays identical to
// the streaming one.
func (e *Engine) applyPollBody(raw json.RawMessage) {
	var wrapper struct {
		Payload json.RawMessage `json:"payload"`
	}
	if err := json.Unmarshal(raw, &wrapper); err == nil && len(wrapper.Payload) > 0 && string(wrapper.Payload) != "null" {
		e.handleFrame(protocol.Envelope{Topic: protocol.TopicPoll, Payload: wrapper.Payload})
		return
	}

	env, err := protocol.Normalize(raw)
	if err != nil {
		e.logger.Debug().Err(err).Msg("dropping malformed poll body")
		return
	}
	if env.Topic == protocol.TopicUnknownData {
		env.Topic = protocol.TopicPoll
	}
	e.handleFrame(env)
}

// CheckHealth probes the server health endpoint once and updates the
// coarse reachability flag reported by Connectivity. Transitions are
// logged once, not every probe.
func (e *Engine) CheckHealth(ctx context.Context) error {
	if err := e.guard("CheckHealth"); err != nil {
		return err
	}

	_, err := e.client.Health(ctx)
	reachable := err == nil

	e.mu.Lock()
	changed := e.httpReachable != reachable
	e.httpReachable = reachable
	e.mu.Unlock()

	if changed {
		if reachable {
			e.logger.Info().Msg("server reachable")
		} else {
			e.logger.Warn().Err(err).Msg("server unreachable")
		}
	}
	return err
}

func (e *Engine) healthLoop(ctx context.Context) error {
	_ = e.CheckHealth(ctx)

	ticker := time.NewTicker(e.opts.HealthInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			_ = e.CheckHealth(ctx)
		}
	}
}
