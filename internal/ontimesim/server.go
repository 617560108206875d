package ontimesim

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/AquamanRanda/OnTIme/api/types/v1alpha1"
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

	// Maximum message size allowed from peer. Consoles only send short
	// probe envelopes.
	maxMessageSize = 512

	// tickPeriod is how often running timer state is rebroadcast
	tickPeriod = time.Second
)

// The simulator accepts any origin.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Server serves the timer protocol over HTTP and websocket, backed by a
// State. Snapshot frames are broadcast to every connected console on each
// mutation and once per second while a timer runs.
type Server struct {
	state  *State
	logger zerolog.Logger
	hub    *hub
}

// New creates a server around the given state and registers itself as the
// state's change listener.
func New(state *State, logger zerolog.Logger) *Server {
	s := &Server{
		state:  state,
		logger: logger.With().Str("component", "simserver").Logger(),
		hub:    newHub(logger),
	}
	state.SetOnChange(s.notify)
	return s
}

// Run drives the broadcast hub and the timer tick until ctx is cancelled
func (s *Server) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.hub.run(ctx)
		return nil
	})
	g.Go(func() error {
		return s.tickLoop(ctx)
	})

	return g.Wait()
}

func (s *Server) tickLoop(ctx context.Context) error {
	ticker := time.NewTicker(tickPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if s.state.Running() {
				s.notify()
			}
		}
	}
}

// notify broadcasts the current snapshot. The send is non-blocking so
// state mutations never stall when the hub is not running.
func (s *Server) notify() {
	frame, err := protocol.Frame(protocol.TopicPoll, s.state.Snapshot())
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to encode snapshot frame")
		return
	}
	select {
	case s.hub.broadcast <- frame:
	default:
	}
}

// Router returns the full HTTP surface of the simulated server
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(requestIDHeaderMiddleware)
	r.Use(logMiddleware(s.logger))
	r.Use(recoverMiddleware(s.logger))

	r.Get("/data/project", s.handleProject)
	r.Get("/data/rundown/normalised", s.handleRundown)
	r.Get("/api/poll", s.handlePoll)
	r.Get("/api/health", s.handleHealth)
	r.Patch("/data/event/{eventID}", s.handleEventUpdate)
	r.Patch("/data/event/{eventID}/custom", s.handleCustomField)
	r.Post("/api/playback/{command}", s.handlePlayback)
	r.Get("/ws", s.handleWebsocket)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		errorJSON(w, http.StatusNotFound, "not found")
	})

	return r
}

func (s *Server) handleProject(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.state.Project())
}

func (s *Server) handleRundown(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.state.Rundown())
}

func (s *Server) handlePoll(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, struct {
		Payload v1alpha1.RuntimeSnapshot `json:"payload"`
	}{Payload: s.state.Snapshot()})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, v1alpha1.HealthStatus{Status: "ok"})
}

func (s *Server) handleEventUpdate(w http.ResponseWriter, r *http.Request) {
	var update v1alpha1.EventUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		errorJSON(w, http.StatusBadRequest, "undecodable update")
		return
	}

	ev, err := s.state.UpdateEvent(chi.URLParam(r, "eventID"), update)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, ev)
}

func (s *Server) handleCustomField(w http.ResponseWriter, r *http.Request) {
	var req v1alpha1.CustomFieldValueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errorJSON(w, http.StatusBadRequest, "undecodable custom field write")
		return
	}

	ev, err := s.state.SetCustomField(chi.URLParam(r, "eventID"), req.Field, req.Value)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, ev)
}

func (s *Server) handlePlayback(w http.ResponseWriter, r *http.Request) {
	var req v1alpha1.PlaybackRequest
	body, err := io.ReadAll(r.Body)
	if err != nil {
		errorJSON(w, http.StatusBadRequest, "unreadable request body")
		return
	}
	if len(body) > 0 {
		if err := json.Unmarshal(body, &req); err != nil {
			errorJSON(w, http.StatusBadRequest, "undecodable playback request")
			return
		}
	}

	command := v1alpha1.PlaybackCommand(chi.URLParam(r, "command"))
	if err := s.state.Apply(command, req); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, map[string]string{})
}

func (s *Server) handleWebsocket(w http.ResponseWriter, r *http.Request) {
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error().Err(err).Msg("websocket upgrade failed")
		return
	}

	c := &connection{
		id:     uuid.New(),
		send:   make(chan []byte, 256),
		ws:     ws,
		hub:    s.hub,
		server: s,
		logger: s.logger,
	}

	// Welcome the console with the current snapshot so it has state
	// before the first tick. Queued ahead of registration, drained once
	// the write pump starts.
	if frame, err := protocol.Frame(protocol.TopicPoll, s.state.Snapshot()); err == nil {
		c.send <- frame
	}

	select {
	case c.hub.register <- c:
	case <-c.hub.done:
		_ = ws.Close()
		return
	}

	go c.writePump()
	c.readPump()
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusBadRequest
	if errors.Is(err, oterrors.ErrNotFound) {
		status = http.StatusNotFound
	}
	errorJSON(w, status, err.Error())
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func errorJSON(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"message": message})
}

// connection is a middleman between one websocket console and the hub
type connection struct {
	id     uuid.UUID
	ws     *websocket.Conn
	send   chan []byte
	hub    *hub
	server *Server
	logger zerolog.Logger
}

func (c *connection) cleanup() {
	select {
	case c.hub.unregister <- c:
	case <-c.hub.done:
	}
	_ = c.ws.Close()
}

func (c *connection) readPump() {
	defer c.cleanup()

	c.ws.SetReadLimit(maxMessageSize)
	if err := c.ws.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.logger.Error().Err(err).Str("client", c.id.String()).Msg("failed to set read deadline")
		return
	}
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, message, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Debug().Err(err).Str("client", c.id.String()).Msg("websocket read error")
			}
			return
		}

		env, err := protocol.Normalize(message)
		if err != nil {
			c.logger.Debug().Err(err).Str("client", c.id.String()).Msg("dropping malformed inbound frame")
			continue
		}

		// Consoles probe with bare topic envelopes after connecting.
		// Any state-carrying probe is answered with a fresh snapshot,
		// directly to the asking console.
		if env.Topic.StateCarrying() {
			if frame, err := protocol.Frame(protocol.TopicPoll, c.server.state.Snapshot()); err == nil {
				select {
				case c.send <- frame:
				default:
				}
			}
		}
	}
}

func (c *connection) write(mt int, payload []byte) error {
	if err := c.ws.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.ws.WriteMessage(mt, payload)
}

func (c *connection) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.ws.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			if !ok {
				_ = c.write(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.write(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			if err := c.write(websocket.PingMessage, []byte{}); err != nil {
				return
			}
		}
	}
}

// hub maintains the set of active console connections and fans frames out
// to them
type hub struct {
	connections map[*connection]bool

	register   chan *connection
	unregister chan *connection
	broadcast  chan []byte

	// done is closed when the hub stops, releasing pumps blocked on
	// register or unregister.
	done chan struct{}

	logger zerolog.Logger
}

func newHub(logger zerolog.Logger) *hub {
	return &hub{
		broadcast:   make(chan []byte, 16),
		register:    make(chan *connection),
		unregister:  make(chan *connection),
		connections: make(map[*connection]bool),
		done:        make(chan struct{}),
		logger:      logger.With().Str("component", "simhub").Logger(),
	}
}

func (h *hub) run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for c := range h.connections {
				close(c.send)
				delete(h.connections, c)
			}
			return
		case c := <-h.register:
			h.connections[c] = true
			h.logger.Info().
				Str("client", c.id.String()).
				Int("connections", len(h.connections)).
				Msg("console connected")
		case c := <-h.unregister:
			if _, ok := h.connections[c]; ok {
				delete(h.connections, c)
				close(c.send)
				h.logger.Info().
					Str("client", c.id.String()).
					Int("connections", len(h.connections)).
					Msg("console disconnected")
			}
		case m := <-h.broadcast:
			for c := range h.connections {
				select {
				case c.send <- m:
				default:
					close(c.send)
					delete(h.connections, c)
				}
			}
		}
	}
}
