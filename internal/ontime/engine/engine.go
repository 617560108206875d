// Package engine composes the console's moving parts behind a single
// instance: the request/response client, the streaming transport, the
// runtime state store, and the status deriver. One engine serves one
// session; constructing it explicitly and passing it to consumers keeps
// sessions independent and testable.
package engine

import (
	"context"
	"crypto/tls"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/AquamanRanda/OnTIme/api/types/v1alpha1"
	"github.com/AquamanRanda/OnTIme/internal/ontime/client"
	oterrors "github.com/AquamanRanda/OnTIme/internal/ontime/errors"
	"github.com/AquamanRanda/OnTIme/internal/ontime/protocol"
	"github.com/AquamanRanda/OnTIme/internal/ontime/status"
	"github.com/AquamanRanda/OnTIme/internal/ontime/store"
	"github.com/AquamanRanda/OnTIme/internal/ontime/transport"
)

const (
	// defaultRefreshInterval is the safety-net rundown refresh cadence
	defaultRefreshInterval = 60 * time.Second

	// defaultPollInterval is the fallback snapshot poll cadence
	defaultPollInterval = 5 * time.Second

	// defaultHealthInterval is the reachability probe cadence
	defaultHealthInterval = 15 * time.Second
)

// Options configure an Engine
type Options struct {
	// ServerURL is the timer server base URL (http or https)
	ServerURL string
	// RefreshInterval overrides the safety-net rundown refresh cadence
	RefreshInterval time.Duration
	// PollInterval overrides the fallback snapshot poll cadence
	PollInterval time.Duration
	// HealthInterval overrides the reachability probe cadence
	HealthInterval time.Duration
	// ProbeInterval overrides the streaming state-probe cadence
	ProbeInterval time.Duration
	// Reconnect overrides the streaming reconnect policy
	Reconnect transport.ReconnectPolicy
	// HTTPTimeout overrides the per-request timeout
	HTTPTimeout time.Duration
	// TLSConfig applies to both the request client and the streaming
	// channel when the server URL is https
	TLSConfig *tls.Config
	// Logger receives engine logs; subcomponents scope it themselves
	Logger zerolog.Logger
}

// Engine is the realtime state synchronization engine for one server
// session. Reads are served from the store; mutations go through the
// command dispatcher; both channels feed the store through the same
// normalize-then-merge path.
type Engine struct {
	opts   Options
	logger zerolog.Logger

	client    *client.Client
	transport *transport.Manager
	store     *store.Store

	mu            sync.Mutex
	streamingUp   bool
	httpReachable bool
	pollDisabled  bool
	closed        bool
	cancel        context.CancelFunc

	closeOnce sync.Once
}

// New creates an Engine for the given server. Nothing touches the network
// until Run.
func New(opts Options) (*Engine, error) {
	if opts.ServerURL == "" {
		return nil, oterrors.NewError("INVALID_INPUT", "server URL is required", "engine.New", oterrors.ErrInvalidInput)
	}
	if opts.RefreshInterval <= 0 {
		opts.RefreshInterval = defaultRefreshInterval
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = defaultPollInterval
	}
	if opts.HealthInterval <= 0 {
		opts.HealthInterval = defaultHealthInterval
	}

	logger := opts.Logger.With().Str("component", "engine").Logger()

	clientOpts := []client.ClientOption{client.WithLogger(opts.Logger)}
	if opts.HTTPTimeout > 0 {
		clientOpts = append(clientOpts, client.WithTimeout(opts.HTTPTimeout))
	}
	if opts.TLSConfig != nil {
		clientOpts = append(clientOpts, client.WithTLSConfig(opts.TLSConfig))
	}
	apiClient, err := client.NewClient(opts.ServerURL, clientOpts...)
	if err != nil {
		return nil, err
	}

	wsURL, err := transport.WebsocketURL(opts.ServerURL)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		opts:   opts,
		logger: logger,
		client: apiClient,
		store:  store.New(opts.Logger),
	}

	e.transport, err = transport.New(transport.Options{
		URL:           wsURL,
		ProbeInterval: opts.ProbeInterval,
		Reconnect:     opts.Reconnect,
		TLSConfig:     opts.TLSConfig,
		Logger:        opts.Logger,
		OnFrame:       e.handleFrame,
		OnStateChange: e.handleTransportState,
	})
	if err != nil {
		return nil, err
	}

	return e, nil
}

// Run performs the initial load, opens the streaming channel, and keeps
// the background loops running until ctx is cancelled or Close is called.
// Teardown happens on every exit path before Run returns.
func (e *Engine) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		cancel()
		return oterrors.NewError("CLOSED", "engine closed", "Run", oterrors.ErrClosed)
	}
	e.cancel = cancel
	e.mu.Unlock()

	if err := e.Refresh(ctx); err != nil {
		// The safety-net ticker retries; starting degraded beats not
		// starting.
		e.logger.Warn().Err(err).Msg("initial load failed")
	}

	if err := e.transport.Connect(ctx); err != nil {
		e.logger.Warn().Err(err).Msg("initial connect failed, reconnect armed")
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return e.refreshLoop(ctx) })
	g.Go(func() error { return e.pollLoop(ctx) })
	g.Go(func() error { return e.healthLoop(ctx) })
	err := g.Wait()

	_ = e.Close()
	return err
}

// Close tears the engine down: every timer stops, the streaming channel
// closes, and no further state mutation can occur. Command results that
// arrive after Close are discarded, never a crash. Safe to call more than
// once and on every exit path.
func (e *Engine) Close() error {
	e.closeOnce.Do(func() {
		e.mu.Lock()
		e.closed = true
		cancel := e.cancel
		e.mu.Unlock()

		if cancel != nil {
			cancel()
		}
		_ = e.transport.Close()
		e.logger.Info().Msg("engine closed")
	})
	return nil
}

func (e *Engine) isClosed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.closed
}

// guard rejects operations on a torn-down engine
func (e *Engine) guard(op string) error {
	if e.isClosed() {
		return oterrors.NewError("CLOSED", "engine closed", op, oterrors.ErrClosed)
	}
	return nil
}

// handleFrame receives every normalized frame from the streaming channel
func (e *Engine) handleFrame(env protocol.Envelope) {
	if e.isClosed() {
		return
	}
	if env.Topic == protocol.TopicError {
		e.logger.Warn().Str("payload", string(env.Payload)).Msg("server reported error")
		return
	}
	e.store.Apply(env)
}

func (e *Engine) handleTransportState(s transport.State) {
	e.mu.Lock()
	e.streamingUp = s == transport.StateConnected
	e.mu.Unlock()
}

// Connectivity reports the two coarse health flags: whether the streaming
// channel is open and whether the last HTTP health probe succeeded.
func (e *Engine) Connectivity() (streamingConnected, httpReachable bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.streamingUp, e.httpReachable
}

// Snapshot returns the live runtime snapshot; ok is false before the
// first update from either channel.
func (e *Engine) Snapshot() (v1alpha1.RuntimeSnapshot, bool) {
	return e.store.Snapshot()
}

// Rundown returns the rundown events in presentation order
func (e *Engine) Rundown() []v1alpha1.Event {
	return e.store.EventsInOrder()
}

// Event returns a single rundown event by id
func (e *Engine) Event(id string) (v1alpha1.Event, error) {
	return e.store.Event(id)
}

// CustomFields returns the custom field definitions keyed by field id
func (e *Engine) CustomFields() map[string]v1alpha1.CustomField {
	return e.store.CustomFields()
}

// Project returns the production metadata, if loaded
func (e *Engine) Project() (v1alpha1.ProjectData, bool) {
	return e.store.Project()
}

// Statuses derives the display status of every rundown event from the
// current state
func (e *Engine) Statuses() []v1alpha1.EventWithStatus {
	snap, _ := e.store.Snapshot()
	return status.Derive(e.store.EventsInOrder(), snap)
}

// Subscribe registers fn for the current snapshot and every subsequent
// one; the returned func removes the subscription
func (e *Engine) Subscribe(fn func(v1alpha1.RuntimeSnapshot)) func() {
	return e.store.Subscribe(fn)
}
