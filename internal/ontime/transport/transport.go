// Package transport maintains the streaming channel to the timer server:
// a single websocket connection with automatic reconnection and recurring
// state probes. Inbound frames are normalized before they reach the
// subscriber; the manager itself holds no business state.
package transport

import (
	"context"
	"crypto/tls"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	oterrors "github.com/AquamanRanda/OnTIme/internal/ontime/errors"
	"github.com/AquamanRanda/OnTIme/internal/ontime/protocol"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer; frames can carry whole
	// runtime snapshots including event bodies
	maxMessageSize = 1 << 20

	// Outbound frame buffer; probes are tiny and commands never use this
	// channel, so overflow just drops the frame
	sendBuffer = 16
)

// State represents the connection lifecycle
type State string

const (
	// StateDisconnected means no connection is open or being opened
	StateDisconnected State = "disconnected"
	// StateConnecting means a dial is in flight
	StateConnecting State = "connecting"
	// StateConnected means the channel is open
	StateConnected State = "connected"
)

// ReconnectPolicy controls how the manager re-dials after a drop.
// Reconnection is unbounded: there is no retry cap, only an optional delay
// ceiling. A long-lived operator console favors availability over resource
// economy.
type ReconnectPolicy struct {
	// Interval is the delay before the first reconnect attempt
	Interval time.Duration
	// Multiplier scales the delay after each failed attempt; 1 keeps the
	// interval fixed
	Multiplier float64
	// MaxInterval caps delay growth; zero means no cap
	MaxInterval time.Duration
}

// DefaultReconnectPolicy retries on a fixed short interval forever
var DefaultReconnectPolicy = ReconnectPolicy{
	Interval:   2 * time.Second,
	Multiplier: 1,
}

// Options configure a Manager
type Options struct {
	// URL is the websocket endpoint (ws:// or wss://)
	URL string
	// ProbeInterval is how often state probes are re-sent while the
	// connection is open, compensating for servers that do not push
	ProbeInterval time.Duration
	// ProbeTopics are requested immediately on connect and on every probe
	// tick; defaults to a poll request
	ProbeTopics []protocol.Topic
	// Reconnect is the re-dial policy after a drop
	Reconnect ReconnectPolicy
	// Dialer overrides the websocket dialer
	Dialer *websocket.Dialer
	// TLSConfig applies to the default dialer; ignored when Dialer is set
	TLSConfig *tls.Config
	// Logger receives transport lifecycle logs
	Logger zerolog.Logger
	// OnFrame receives every usable inbound frame, already normalized
	OnFrame func(protocol.Envelope)
	// OnStateChange observes connection state transitions
	OnStateChange func(State)
}

// conn bundles one websocket connection with its outbound queue and
// teardown signal. Pointer identity doubles as the connection generation:
// callbacks from a superseded connection compare unequal and are ignored.
type conn struct {
	ws   *websocket.Conn
	send chan []byte
	done chan struct{}
}

func (c *conn) write(mt int, payload []byte) error {
	if err := c.ws.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.ws.WriteMessage(mt, payload)
}

// Manager owns the streaming channel. At most one connection and one
// reconnection timer exist at any time; Close tears both down and disables
// any further reconnection.
type Manager struct {
	opts   Options
	logger zerolog.Logger
	dialer *websocket.Dialer

	mu        sync.Mutex
	state     State
	cur       *conn
	reconnect *time.Timer
	attempts  int
	closed    bool
}

// New creates a Manager. The channel is not opened until Connect.
func New(opts Options) (*Manager, error) {
	if opts.URL == "" {
		return nil, oterrors.NewError("INVALID_INPUT", "websocket URL is required", "transport.New", oterrors.ErrInvalidInput)
	}
	if opts.ProbeInterval <= 0 {
		opts.ProbeInterval = time.Second
	}
	if len(opts.ProbeTopics) == 0 {
		opts.ProbeTopics = []protocol.Topic{protocol.TopicPoll}
	}
	if opts.Reconnect.Interval <= 0 {
		opts.Reconnect = DefaultReconnectPolicy
	}
	if opts.Reconnect.Multiplier < 1 {
		opts.Reconnect.Multiplier = 1
	}

	dialer := opts.Dialer
	if dialer == nil {
		dialer = &websocket.Dialer{
			HandshakeTimeout: 10 * time.Second,
			TLSClientConfig:  opts.TLSConfig,
		}
	}

	return &Manager{
		opts:   opts,
		logger: opts.Logger.With().Str("component", "transport").Logger(),
		dialer: dialer,
		state:  StateDisconnected,
	}, nil
}

// WebsocketURL derives the streaming endpoint from a server base URL,
// accepting either http(s) or ws(s) schemes.
func WebsocketURL(base string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", oterrors.NewError("INVALID_INPUT", "invalid base URL", "WebsocketURL", oterrors.ErrInvalidInput)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", oterrors.NewError("INVALID_INPUT", "unsupported scheme "+u.Scheme, "WebsocketURL", oterrors.ErrInvalidInput)
	}
	u.Path = "/ws"
	u.RawQuery = ""
	return u.String(), nil
}

// State returns the current connection state
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Connected reports whether the streaming channel is open
func (m *Manager) Connected() bool {
	return m.State() == StateConnected
}

// Connect opens the streaming channel. A call while a connection is open
// or a dial is in flight is a no-op; opening a second channel alongside an
// existing one is forbidden. On failure the reconnection timer is armed
// and the error is returned.
func (m *Manager) Connect(ctx context.Context) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return oterrors.NewError("CLOSED", "transport closed", "Connect", oterrors.ErrClosed)
	}
	if m.state != StateDisconnected {
		m.mu.Unlock()
		return nil
	}
	m.state = StateConnecting
	m.mu.Unlock()
	m.notify(StateConnecting)

	return m.dial(ctx)
}

// dial attempts one websocket dial. The caller must have moved the state
// to Connecting first.
func (m *Manager) dial(ctx context.Context) error {
	ws, _, err := m.dialer.DialContext(ctx, m.opts.URL, nil)
	if err != nil {
		m.dialFailed(err)
		return oterrors.NewError("DIAL_FAILED", err.Error(), "Connect", oterrors.ErrTransport)
	}

	c := &conn{
		ws:   ws,
		send: make(chan []byte, sendBuffer),
		done: make(chan struct{}),
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		_ = ws.Close()
		return oterrors.NewError("CLOSED", "transport closed", "Connect", oterrors.ErrClosed)
	}
	m.cur = c
	m.attempts = 0
	m.stopReconnectLocked()
	m.state = StateConnected
	m.mu.Unlock()
	m.notify(StateConnected)

	m.logger.Info().Str("url", m.opts.URL).Msg("streaming channel connected")

	go m.readPump(c)
	go m.writePump(c)
	go m.probeLoop(c)

	// The protocol has no guaranteed push-on-connect behavior, so request
	// current state right away.
	m.sendProbes(c)

	return nil
}

func (m *Manager) dialFailed(err error) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.state = StateDisconnected
	m.attempts++
	m.armReconnectLocked()
	m.mu.Unlock()
	m.notify(StateDisconnected)

	m.logger.Warn().Err(err).Str("url", m.opts.URL).Msg("streaming connect failed")
}

// connectionLost tears down c after a pump error. Calls for a connection
// that is no longer current are ignored.
func (m *Manager) connectionLost(c *conn, err error) {
	m.mu.Lock()
	if m.closed || m.cur != c {
		m.mu.Unlock()
		return
	}
	m.cur = nil
	close(c.done)
	_ = c.ws.Close()
	m.state = StateDisconnected
	m.armReconnectLocked()
	m.mu.Unlock()
	m.notify(StateDisconnected)

	m.logger.Warn().Err(err).Msg("streaming channel lost")
}

// armReconnectLocked schedules the next reconnect attempt. At most one
// timer is armed at any time.
func (m *Manager) armReconnectLocked() {
	if m.reconnect != nil {
		return
	}
	delay := m.reconnectDelayLocked()
	m.reconnect = time.AfterFunc(delay, m.reconnectTick)
	m.logger.Debug().Dur("delay", delay).Msg("reconnect armed")
}

func (m *Manager) stopReconnectLocked() {
	if m.reconnect != nil {
		m.reconnect.Stop()
		m.reconnect = nil
	}
}

func (m *Manager) reconnectDelayLocked() time.Duration {
	d := m.opts.Reconnect.Interval
	for i := 1; i < m.attempts; i++ {
		d = time.Duration(float64(d) * m.opts.Reconnect.Multiplier)
		if m.opts.Reconnect.MaxInterval > 0 && d >= m.opts.Reconnect.MaxInterval {
			return m.opts.Reconnect.MaxInterval
		}
	}
	return d
}

func (m *Manager) reconnectTick() {
	m.mu.Lock()
	m.reconnect = nil
	if m.closed || m.state != StateDisconnected {
		m.mu.Unlock()
		return
	}
	attempt := m.attempts
	m.state = StateConnecting
	m.mu.Unlock()
	m.notify(StateConnecting)

	m.logger.Info().Int("attempt", attempt).Msg("reconnecting")
	_ = m.dial(context.Background())
}

// Send marshals a {topic, payload} frame and queues it on the open
// channel. Frames are silently dropped while disconnected: only state
// probes travel this way, never commands, so a dropped frame costs one
// probe interval at worst.
func (m *Manager) Send(topic protocol.Topic, payload interface{}) error {
	data, err := protocol.Frame(topic, payload)
	if err != nil {
		return err
	}

	m.mu.Lock()
	c := m.cur
	connected := m.state == StateConnected
	m.mu.Unlock()

	if !connected || c == nil {
		m.logger.Debug().Str("topic", string(topic)).Msg("dropping frame while disconnected")
		return nil
	}

	select {
	case c.send <- data:
	default:
		m.logger.Warn().Str("topic", string(topic)).Msg("send buffer full, dropping frame")
	}
	return nil
}

// Close tears the channel down for good: the reconnection timer is
// cancelled, the connection is closed, and no automatic reconnection will
// happen afterwards. Safe to call more than once.
func (m *Manager) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	m.stopReconnectLocked()
	c := m.cur
	m.cur = nil
	changed := m.state != StateDisconnected
	m.state = StateDisconnected
	m.mu.Unlock()

	if c != nil {
		close(c.done)
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		_ = c.ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
		_ = c.ws.Close()
	}
	if changed {
		m.notify(StateDisconnected)
	}

	m.logger.Info().Msg("streaming channel closed")
	return nil
}

func (m *Manager) notify(s State) {
	if m.opts.OnStateChange != nil {
		m.opts.OnStateChange(s)
	}
}

func (m *Manager) sendProbes(c *conn) {
	for _, topic := range m.opts.ProbeTopics {
		data, err := protocol.Frame(topic, nil)
		if err != nil {
			continue
		}
		select {
		case c.send <- data:
		case <-c.done:
			return
		default:
		}
	}
}

func (m *Manager) probeLoop(c *conn) {
	ticker := time.NewTicker(m.opts.ProbeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			m.sendProbes(c)
		}
	}
}

func (m *Manager) readPump(c *conn) {
	c.ws.SetReadLimit(maxMessageSize)
	if err := c.ws.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		m.connectionLost(c, err)
		return
	}
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				m.logger.Warn().Err(err).Msg("websocket read error")
			}
			m.connectionLost(c, err)
			return
		}

		env, err := protocol.Normalize(raw)
		if err != nil {
			m.logger.Debug().Err(err).Msg("dropping malformed frame")
			continue
		}

		// Anything recognized or object-shaped may carry state; the rest
		// has no possible consumer.
		if !env.Topic.Recognized() && !env.ObjectPayload() {
			m.logger.Debug().Str("topic", string(env.Topic)).Msg("dropping unusable frame")
			continue
		}
		if m.opts.OnFrame != nil {
			m.opts.OnFrame(env)
		}
	}
}

func (m *Manager) writePump(c *conn) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case message := <-c.send:
			if err := c.write(websocket.TextMessage, message); err != nil {
				m.connectionLost(c, err)
				return
			}
		case <-ticker.C:
			if err := c.write(websocket.PingMessage, nil); err != nil {
				m.connectionLost(c, err)
				return
			}
		}
	}
}
