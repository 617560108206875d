// Package ontimesim implements a simulated event timer server speaking
// the same REST and websocket protocol as the real one. It exists so the
// console can be developed, demonstrated, and load-tested without a
// production timer in the room.
package ontimesim

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/AquamanRanda/OnTIme/api/types/v1alpha1"
	oterrors "github.com/AquamanRanda/OnTIme/internal/ontime/errors"
)

// State is the simulator's authoritative playback state. All mutations go
// through command methods and fire the change hook so transports can
// broadcast the new snapshot.
type State struct {
	logger zerolog.Logger
	clock  func() time.Time

	mu        sync.Mutex
	project   v1alpha1.ProjectData
	rundown   v1alpha1.NormalisedRundown
	state     v1alpha1.PlaybackState
	selected  int
	startedAt time.Time
	elapsed   time.Duration
	added     time.Duration
	onChange  func()
}

// NewState creates a stopped simulator holding the given production
func NewState(project v1alpha1.ProjectData, rundown v1alpha1.NormalisedRundown, logger zerolog.Logger) *State {
	if rundown.Events == nil {
		rundown.Events = make(map[string]v1alpha1.Event)
	}
	return &State{
		logger:   logger.With().Str("component", "sim").Logger(),
		clock:    time.Now,
		project:  project,
		rundown:  rundown,
		state:    v1alpha1.PlaybackStop,
		selected: -1,
	}
}

// SetOnChange registers the hook fired after every successful mutation
func (s *State) SetOnChange(fn func()) {
	s.mu.Lock()
	s.onChange = fn
	s.mu.Unlock()
}

// Project returns the production metadata
func (s *State) Project() v1alpha1.ProjectData {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.project
}

// Rundown returns a copy of the rundown safe to marshal concurrently
func (s *State) Rundown() v1alpha1.NormalisedRundown {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := v1alpha1.NormalisedRundown{
		Events:   make(map[string]v1alpha1.Event, len(s.rundown.Events)),
		Order:    append([]string(nil), s.rundown.Order...),
		Revision: s.rundown.Revision,
	}
	for id, ev := range s.rundown.Events {
		out.Events[id] = cloneEvent(ev)
	}
	if len(s.rundown.CustomFields) > 0 {
		out.CustomFields = make(map[string]v1alpha1.CustomField, len(s.rundown.CustomFields))
		for id, f := range s.rundown.CustomFields {
			f.Options = append([]string(nil), f.Options...)
			out.CustomFields[id] = f
		}
	}
	return out
}

// Snapshot builds the current runtime snapshot
func (s *State) Snapshot() v1alpha1.RuntimeSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *State) snapshotLocked() v1alpha1.RuntimeSnapshot {
	now := s.clock()
	snap := v1alpha1.RuntimeSnapshot{
		Clock:     now.UnixMilli(),
		NumEvents: len(s.rundown.Order),
		Playback:  &v1alpha1.Playback{State: s.state},
	}

	if s.selected < 0 || s.selected >= len(s.rundown.Order) {
		return snap
	}

	id := s.rundown.Order[s.selected]
	idx := s.selected
	ev := s.rundown.Events[id]

	snap.Playback.SelectedEventID = &id
	snap.Playback.SelectedEventIndex = &idx
	snap.Playback.LoadedEventID = &id
	snap.Playback.LoadedEventIndex = &idx

	nowEv := cloneEvent(ev)
	snap.EventNow = &nowEv
	if nowEv.IsPublic {
		pubNow := cloneEvent(ev)
		snap.PublicEventNow = &pubNow
	}

	current := s.currentLocked(now)
	timer := &v1alpha1.TimerState{
		Current:   current.Milliseconds(),
		Duration:  ev.Duration * 1000,
		AddedTime: s.added.Milliseconds(),
	}
	if s.state == v1alpha1.PlaybackStart {
		startedAt := s.startedAt.UnixMilli()
		timer.StartedAt = &startedAt
		timer.ExpectedFinish = now.Add(time.Duration(ev.Duration)*time.Second - current).UnixMilli()
	}
	snap.Timer = timer

	if next, ok := s.seekLocked(s.selected, 1, nil); ok {
		nextEv := cloneEvent(s.rundown.Events[s.rundown.Order[next]])
		snap.EventNext = &nextEv
	}
	public := func(ev v1alpha1.Event) bool { return ev.IsPublic }
	if next, ok := s.seekLocked(s.selected, 1, public); ok {
		nextEv := cloneEvent(s.rundown.Events[s.rundown.Order[next]])
		snap.PublicEventNext = &nextEv
	}

	return snap
}

// currentLocked is the elapsed timer value. Added time counts against it
// so the remaining time consoles derive grows by the adjustment.
func (s *State) currentLocked(now time.Time) time.Duration {
	current := s.elapsed
	if s.state == v1alpha1.PlaybackStart {
		current += now.Sub(s.startedAt)
	}
	return current - s.added
}

// Apply executes one playback command
func (s *State) Apply(command v1alpha1.PlaybackCommand, req v1alpha1.PlaybackRequest) error {
	s.mu.Lock()
	err := s.applyLocked(command, req)
	hook := s.onChange
	s.mu.Unlock()

	if err != nil {
		return err
	}
	s.logger.Debug().Str("command", string(command)).Msg("playback command applied")
	if hook != nil {
		hook()
	}
	return nil
}

func (s *State) applyLocked(command v1alpha1.PlaybackCommand, req v1alpha1.PlaybackRequest) error {
	now := s.clock()

	switch command {
	case v1alpha1.CommandStart:
		return s.startLocked(req, now)

	case v1alpha1.CommandPause:
		if s.state != v1alpha1.PlaybackStart {
			return fmt.Errorf("pause: nothing playing: %w", oterrors.ErrInvalidInput)
		}
		s.elapsed += now.Sub(s.startedAt)
		s.state = v1alpha1.PlaybackPause
		return nil

	case v1alpha1.CommandStop:
		s.state = v1alpha1.PlaybackStop
		s.elapsed = 0
		s.added = 0
		return nil

	case v1alpha1.CommandReload:
		if s.selected < 0 {
			return fmt.Errorf("reload: no event loaded: %w", oterrors.ErrInvalidInput)
		}
		s.elapsed = 0
		s.added = 0
		s.startedAt = now
		return nil

	case v1alpha1.CommandStartNext:
		next, ok := s.seekLocked(s.selected, 1, nil)
		if !ok {
			return fmt.Errorf("start-next: no next event: %w", oterrors.ErrInvalidInput)
		}
		s.selectAndStartLocked(next, now)
		return nil

	case v1alpha1.CommandStartPrevious:
		prev, ok := s.seekLocked(s.selected, -1, nil)
		if !ok {
			return fmt.Errorf("start-previous: no previous event: %w", oterrors.ErrInvalidInput)
		}
		s.selectAndStartLocked(prev, now)
		return nil

	case v1alpha1.CommandAddTime:
		return s.adjustLocked(req.Seconds, 1)

	case v1alpha1.CommandRemoveTime:
		return s.adjustLocked(req.Seconds, -1)

	default:
		return fmt.Errorf("command %q: %w", command, oterrors.ErrNotFound)
	}
}

func (s *State) startLocked(req v1alpha1.PlaybackRequest, now time.Time) error {
	target := -1

	switch {
	case req.EventID != "":
		idx := s.indexOfLocked(req.EventID)
		if idx < 0 {
			return fmt.Errorf("event %q: %w", req.EventID, oterrors.ErrNotFound)
		}
		target = idx

	case req.EventIndex != nil:
		if *req.EventIndex < 0 || *req.EventIndex >= len(s.rundown.Order) {
			return fmt.Errorf("event index %d: %w", *req.EventIndex, oterrors.ErrNotFound)
		}
		target = *req.EventIndex

	case req.EventCue != "":
		for i, id := range s.rundown.Order {
			if s.rundown.Events[id].Cue == req.EventCue {
				target = i
				break
			}
		}
		if target < 0 {
			return fmt.Errorf("cue %q: %w", req.EventCue, oterrors.ErrNotFound)
		}

	default:
		// Resume the paused or loaded event, or fall back to the first
		// playable one.
		if s.selected >= 0 {
			if s.state == v1alpha1.PlaybackPause || s.state == v1alpha1.PlaybackStop {
				s.state = v1alpha1.PlaybackStart
				s.startedAt = now
				return nil
			}
			return nil
		}
		first, ok := s.seekLocked(-1, 1, nil)
		if !ok {
			return fmt.Errorf("start: rundown has no playable events: %w", oterrors.ErrInvalidInput)
		}
		target = first
	}

	if s.rundown.Events[s.rundown.Order[target]].Skip {
		return fmt.Errorf("event %q is skipped: %w", s.rundown.Order[target], oterrors.ErrInvalidInput)
	}
	s.selectAndStartLocked(target, now)
	return nil
}

func (s *State) selectAndStartLocked(idx int, now time.Time) {
	s.selected = idx
	s.state = v1alpha1.PlaybackStart
	s.startedAt = now
	s.elapsed = 0
	s.added = 0
}

func (s *State) adjustLocked(seconds int64, sign int64) error {
	if s.selected < 0 {
		return fmt.Errorf("time adjustment: no event loaded: %w", oterrors.ErrInvalidInput)
	}
	if seconds <= 0 {
		return fmt.Errorf("time adjustment: seconds must be positive: %w", oterrors.ErrInvalidInput)
	}
	s.added += time.Duration(sign*seconds) * time.Second
	return nil
}

// seekLocked walks the order from the given index in the given direction
// and returns the first index whose event is not skipped and passes the
// optional filter. A negative start scans from the edge.
func (s *State) seekLocked(from, dir int, filter func(v1alpha1.Event) bool) (int, bool) {
	i := from + dir
	if from < 0 && dir < 0 {
		i = len(s.rundown.Order) - 1
	}
	for ; i >= 0 && i < len(s.rundown.Order); i += dir {
		ev := s.rundown.Events[s.rundown.Order[i]]
		if ev.Skip {
			continue
		}
		if filter != nil && !filter(ev) {
			continue
		}
		return i, true
	}
	return -1, false
}

func (s *State) indexOfLocked(id string) int {
	for i, candidate := range s.rundown.Order {
		if candidate == id {
			return i
		}
	}
	return -1
}

// UpdateEvent applies a partial update to one event
func (s *State) UpdateEvent(id string, update v1alpha1.EventUpdateRequest) (v1alpha1.Event, error) {
	s.mu.Lock()
	ev, ok := s.rundown.Events[id]
	if !ok {
		s.mu.Unlock()
		return v1alpha1.Event{}, fmt.Errorf("event %q: %w", id, oterrors.ErrNotFound)
	}
	if update.Cue != nil && len(*update.Cue) > v1alpha1.CueMaxLen {
		s.mu.Unlock()
		return v1alpha1.Event{}, fmt.Errorf("cue longer than %d characters: %w", v1alpha1.CueMaxLen, oterrors.ErrInvalidInput)
	}

	applyUpdate(&ev, update)
	s.rundown.Events[id] = ev
	s.rundown.Revision++
	out := cloneEvent(ev)
	hook := s.onChange
	s.mu.Unlock()

	if hook != nil {
		hook()
	}
	return out, nil
}

// SetCustomField writes one custom field value on one event
func (s *State) SetCustomField(id, field, value string) (v1alpha1.Event, error) {
	if field == "" {
		return v1alpha1.Event{}, fmt.Errorf("custom field id is required: %w", oterrors.ErrInvalidInput)
	}

	s.mu.Lock()
	ev, ok := s.rundown.Events[id]
	if !ok {
		s.mu.Unlock()
		return v1alpha1.Event{}, fmt.Errorf("event %q: %w", id, oterrors.ErrNotFound)
	}

	if ev.Custom == nil {
		ev.Custom = make(map[string]string)
	} else {
		custom := make(map[string]string, len(ev.Custom))
		for k, v := range ev.Custom {
			custom[k] = v
		}
		ev.Custom = custom
	}
	ev.Custom[field] = value
	s.rundown.Events[id] = ev
	s.rundown.Revision++
	out := cloneEvent(ev)
	hook := s.onChange
	s.mu.Unlock()

	if hook != nil {
		hook()
	}
	return out, nil
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

func cloneEvent(ev v1alpha1.Event) v1alpha1.Event {
	if ev.Custom != nil {
		custom := make(map[string]string, len(ev.Custom))
		for k, v := range ev.Custom {
			custom[k] = v
		}
		ev.Custom = custom
	}
	return ev
}

// Running reports whether a timer is actively counting
func (s *State) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == v1alpha1.PlaybackStart
}
