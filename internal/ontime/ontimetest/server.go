// Package ontimetest provides an in-process fake timer server for tests:
// the request/response API surface backed by mutable canned data, plus a
// websocket endpoint that records inbound frames and can push arbitrary
// frames to connected clients.
package ontimetest

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/AquamanRanda/OnTIme/api/types/v1alpha1"
)

// Request is one captured API call
type Request struct {
	Method string
	Path   string
	Body   string
}

type errorOverride struct {
	status  int
	message string
}

// Server is a fake timer server. All knobs are safe for concurrent use.
type Server struct {
	// URL is the http base of the fake server
	URL string

	srv      *httptest.Server
	upgrader websocket.Upgrader

	mu        sync.Mutex
	project   v1alpha1.ProjectData
	rundown   v1alpha1.NormalisedRundown
	pollFrame json.RawMessage
	welcome   []string
	overrides map[string]errorOverride
	requests  []Request
	conns     map[*websocket.Conn]bool
	received  []string
}

// NewServer starts a fake server and registers its teardown with t.
func NewServer(t testing.TB) *Server {
	t.Helper()

	s := &Server{
		pollFrame: json.RawMessage(`{"payload": {"clock": 0}}`),
		overrides: make(map[string]errorOverride),
		conns:     make(map[*websocket.Conn]bool),
	}

	r := chi.NewRouter()
	r.Get("/data/project", s.handleProject)
	r.Get("/data/rundown/normalised", s.handleRundown)
	r.Get("/api/poll", s.handlePoll)
	r.Get("/api/health", s.handleHealth)
	r.Patch("/data/event/{eventID}", s.handleEventUpdate)
	r.Patch("/data/event/{eventID}/custom", s.handleCustomField)
	r.Post("/api/playback/{command}", s.handlePlayback)
	r.Get("/ws", s.handleWebsocket)

	s.srv = httptest.NewServer(r)
	s.URL = s.srv.URL
	t.Cleanup(s.Close)

	return s
}

// Close shuts the server down and drops all websocket clients
func (s *Server) Close() {
	s.mu.Lock()
	for c := range s.conns {
		_ = c.Close()
	}
	s.conns = make(map[*websocket.Conn]bool)
	s.mu.Unlock()

	s.srv.Close()
}

// WSURL returns the websocket endpoint of the fake server
func (s *Server) WSURL() string {
	return "ws" + strings.TrimPrefix(s.URL, "http") + "/ws"
}

// SetProject replaces the served project metadata
func (s *Server) SetProject(p v1alpha1.ProjectData) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.project = p
}

// SetRundown replaces the served rundown
func (s *Server) SetRundown(rd v1alpha1.NormalisedRundown) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rundown = rd
}

// SetPollFrame replaces the raw body served at the poll endpoint
func (s *Server) SetPollFrame(frame string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pollFrame = json.RawMessage(frame)
}

// SetWelcome sets frames pushed to every websocket client on connect
func (s *Server) SetWelcome(frames ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.welcome = append([]string(nil), frames...)
}

// SetError makes the given path serve an error until cleared
func (s *Server) SetError(path string, status int, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.overrides[path] = errorOverride{status: status, message: message}
}

// ClearError removes an error override
func (s *Server) ClearError(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.overrides, path)
}

// Requests returns all captured API calls in arrival order
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

// RequestsFor returns captured calls whose path matches exactly
func (s *Server) RequestsFor(path string) []Request {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []Request
	for _, req := range s.requests {
		if req.Path == path {
			out = append(out, req)
		}
	}
	return out
}

// Push writes a raw frame to every connected websocket client
func (s *Server) Push(frame string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for c := range s.conns {
		_ = c.WriteMessage(websocket.TextMessage, []byte(frame))
	}
}

// DropClients force-closes every websocket client, simulating a channel
// drop without stopping the server
func (s *Server) DropClients() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for c := range s.conns {
		_ = c.Close()
	}
	s.conns = make(map[*websocket.Conn]bool)
}

// ClientCount returns the number of live websocket clients
func (s *Server) ClientCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.conns)
}

// Received returns all frames clients have sent over the websocket
func (s *Server) Received() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.received...)
}

func (s *Server) capture(r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, Request{
		Method: r.Method,
		Path:   r.URL.Path,
		Body:   string(body),
	})
}

// override writes a configured error response and reports whether one was
// configured for this path
func (s *Server) override(w http.ResponseWriter, r *http.Request) bool {
	s.mu.Lock()
	o, ok := s.overrides[r.URL.Path]
	s.mu.Unlock()
	if !ok {
		return false
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(o.status)
	_ = json.NewEncoder(w).Encode(map[string]string{"message": o.message})
	return true
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) handleProject(w http.ResponseWriter, r *http.Request) {
	s.capture(r)
	if s.override(w, r) {
		return
	}

	s.mu.Lock()
	project := s.project
	s.mu.Unlock()
	writeJSON(w, project)
}

func (s *Server) handleRundown(w http.ResponseWriter, r *http.Request) {
	s.capture(r)
	if s.override(w, r) {
		return
	}

	s.mu.Lock()
	rundown := s.rundown
	s.mu.Unlock()
	writeJSON(w, rundown)
}

func (s *Server) handlePoll(w http.ResponseWriter, r *http.Request) {
	s.capture(r)
	if s.override(w, r) {
		return
	}

	s.mu.Lock()
	frame := s.pollFrame
	s.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(frame)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.capture(r)
	if s.override(w, r) {
		return
	}
	writeJSON(w, v1alpha1.HealthStatus{Status: "ok"})
}

func (s *Server) handleEventUpdate(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	s.mu.Lock()
	s.requests = append(s.requests, Request{Method: r.Method, Path: r.URL.Path, Body: string(body)})
	s.mu.Unlock()
	if s.override(w, r) {
		return
	}

	var update v1alpha1.EventUpdateRequest
	if err := json.Unmarshal(body, &update); err != nil {
		errorJSON(w, http.StatusBadRequest, "undecodable update")
		return
	}

	id := chi.URLParam(r, "eventID")
	s.mu.Lock()
	ev, ok := s.rundown.Events[id]
	if ok {
		applyUpdate(&ev, update)
		s.rundown.Events[id] = ev
		s.rundown.Revision++
	}
	s.mu.Unlock()

	if !ok {
		errorJSON(w, http.StatusNotFound, "event not found")
		return
	}
	writeJSON(w, ev)
}

func (s *Server) handleCustomField(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	s.mu.Lock()
	s.requests = append(s.requests, Request{Method: r.Method, Path: r.URL.Path, Body: string(body)})
	s.mu.Unlock()
	if s.override(w, r) {
		return
	}

	var req v1alpha1.CustomFieldValueRequest
	if err := json.Unmarshal(body, &req); err != nil || req.Field == "" {
		errorJSON(w, http.StatusBadRequest, "undecodable custom field write")
		return
	}

	id := chi.URLParam(r, "eventID")
	s.mu.Lock()
	ev, ok := s.rundown.Events[id]
	if ok {
		if ev.Custom == nil {
			ev.Custom = make(map[string]string)
		}
		ev.Custom[req.Field] = req.Value
		s.rundown.Events[id] = ev
		s.rundown.Revision++
	}
	s.mu.Unlock()

	if !ok {
		errorJSON(w, http.StatusNotFound, "event not found")
		return
	}
	writeJSON(w, ev)
}

var playbackCommands = map[string]bool{
	"start":          true,
	"pause":          true,
	"stop":           true,
	"reload":         true,
	"start-next":     true,
	"start-previous": true,
	"addtime":        true,
	"removetime":     true,
}

func (s *Server) handlePlayback(w http.ResponseWriter, r *http.Request) {
	s.capture(r)
	if s.override(w, r) {
		return
	}

	if !playbackCommands[chi.URLParam(r, "command")] {
		errorJSON(w, http.StatusNotFound, "unknown playback command")
		return
	}
	writeJSON(w, map[string]string{})
}

func (s *Server) handleWebsocket(w http.ResponseWriter, r *http.Request) {
	c, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	s.mu.Lock()
	s.conns[c] = true
	welcome := append([]string(nil), s.welcome...)
	for _, frame := range welcome {
		_ = c.WriteMessage(websocket.TextMessage, []byte(frame))
	}
	s.mu.Unlock()

	go s.readClient(c)
}

func (s *Server) readClient(c *websocket.Conn) {
	for {
		_, raw, err := c.ReadMessage()
		if err != nil {
			s.mu.Lock()
			delete(s.conns, c)
			s.mu.Unlock()
			_ = c.Close()
			return
		}
		s.mu.Lock()
		s.received = append(s.received, string(raw))
		s.mu.Unlock()
	}
}

func errorJSON(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"message": message})
}

func applyUpdate(ev *v1alpha1.Event, update v1alpha1.EventUpdateRequest) {
	if update.Title != nil {
		ev.Title = *update.Title
	}
	if update.Note != nil {
		ev.Note = *update.Note
	}
	if update.Cue != nil {
		ev.Cue = *update.Cue
	}
	if update.Colour != nil {
		ev.Colour = *update.Colour
	}
	if update.IsPublic != nil {
		ev.IsPublic = *update.IsPublic
	}
	if update.Skip != nil {
		ev.Skip = *update.Skip
	}
	if update.TimerType != nil {
		ev.TimerType = *update.TimerType
	}
	if update.Duration != nil {
		ev.Duration = *update.Duration
	}
	if update.TimeStart != nil {
		ev.TimeStart = *update.TimeStart
	}
	if update.TimeEnd != nil {
		ev.TimeEnd = *update.TimeEnd
	}
	if update.TimeWarning != nil {
		ev.TimeWarning = *update.TimeWarning
	}
	if update.TimeDanger != nil {
		ev.TimeDanger = *update.TimeDanger
	}
	if update.EndAction != nil {
		ev.EndAction = *update.EndAction
	}
}
