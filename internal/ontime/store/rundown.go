package store

import (
	"fmt"

	"github.com/AquamanRanda/OnTIme/api/types/v1alpha1"
)

// SetRundown validates and installs an authoritative rundown, replacing any
// previously held events, order, and custom field definitions. On invariant
// violation the previous rundown is kept and an error is returned. When the
// payload carries no field definitions they are inferred from the event data.
func (s *Store) SetRundown(rd v1alpha1.NormalisedRundown) error {
	if err := validateRundown(rd); err != nil {
		s.logger.Warn().Err(err).Msg("rejecting rundown")
		return err
	}

	events := make(map[string]v1alpha1.Event, len(rd.Events))
	for id, ev := range rd.Events {
		if ev.ID == "" {
			ev.ID = id
		}
		ev.Custom = cloneCustom(ev.Custom)
		events[id] = ev
	}
	order := append([]string(nil), rd.Order...)

	fields := make(map[string]v1alpha1.CustomField, len(rd.CustomFields))
	for id, f := range rd.CustomFields {
		f.Options = append([]string(nil), f.Options...)
		fields[id] = f
	}
	if len(fields) == 0 {
		fields = inferCustomFields(events, order)
	}

	s.mu.Lock()
	s.events = events
	s.order = order
	s.customFields = fields
	s.revision = rd.Revision
	s.generation++
	snap := s.snapshot
	notify := s.hasSnapshot
	subs := append([]subscriber(nil), s.subs...)
	s.mu.Unlock()

	s.logger.Debug().
		Int("events", len(events)).
		Int("fields", len(fields)).
		Msg("rundown installed")

	if notify {
		for _, sub := range subs {
			sub.fn(snap)
		}
	}
	return nil
}

func validateRundown(rd v1alpha1.NormalisedRundown) error {
	seen := make(map[string]struct{}, len(rd.Order))
	for _, id := range rd.Order {
		if _, ok := rd.Events[id]; !ok {
			return ErrInvalidRundown{Reason: fmt.Sprintf("order references unknown event %q", id)}
		}
		if _, dup := seen[id]; dup {
			return ErrInvalidRundown{Reason: fmt.Sprintf("duplicate event %q in order", id)}
		}
		seen[id] = struct{}{}
	}
	return nil
}

// EventsInOrder returns the rundown events in presentation order.
func (s *Store) EventsInOrder() []v1alpha1.Event {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]v1alpha1.Event, 0, len(s.order))
	for _, id := range s.order {
		ev := s.events[id]
		ev.Custom = cloneCustom(ev.Custom)
		out = append(out, ev)
	}
	return out
}

// Order returns the event ids in presentation order.
func (s *Store) Order() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.order...)
}

// Event returns a single rundown event by id.
func (s *Store) Event(id string) (v1alpha1.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ev, ok := s.events[id]
	if !ok {
		return v1alpha1.Event{}, ErrUnknownEvent{ID: id}
	}
	ev.Custom = cloneCustom(ev.Custom)
	return ev, nil
}

// CustomFields returns the custom field definitions keyed by field id.
func (s *Store) CustomFields() map[string]v1alpha1.CustomField {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]v1alpha1.CustomField, len(s.customFields))
	for id, f := range s.customFields {
		f.Options = append([]string(nil), f.Options...)
		out[id] = f
	}
	return out
}

// Revision returns the revision of the installed rundown.
func (s *Store) Revision() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.revision
}

// SetProject installs project metadata.
func (s *Store) SetProject(p v1alpha1.ProjectData) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.project = &p
}

// Project returns the project metadata, if any has been loaded.
func (s *Store) Project() (v1alpha1.ProjectData, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.project == nil {
		return v1alpha1.ProjectData{}, false
	}
	return *s.project, true
}

// ApplyCustomEdit optimistically writes a custom field value on a rundown
// event and returns a rollback that restores the previous value. The rollback
// is a no-op once a newer authoritative rundown has been installed, so a late
// failure cannot clobber fresh server data.
func (s *Store) ApplyCustomEdit(eventID, field, value string) (func(), error) {
	s.mu.Lock()

	ev, ok := s.events[eventID]
	if !ok {
		s.mu.Unlock()
		return nil, ErrUnknownEvent{ID: eventID}
	}

	prev, hadPrev := ev.Custom[field]
	next := cloneCustom(ev.Custom)
	if next == nil {
		next = make(map[string]string, 1)
	}
	next[field] = value
	ev.Custom = next
	s.events[eventID] = ev
	gen := s.generation
	s.mu.Unlock()

	rollback := func() {
		s.mu.Lock()
		defer s.mu.Unlock()

		if s.generation != gen {
			return
		}
		ev, ok := s.events[eventID]
		if !ok {
			return
		}
		restored := cloneCustom(ev.Custom)
		if hadPrev {
			restored[field] = prev
		} else {
			delete(restored, field)
		}
		ev.Custom = restored
		s.events[eventID] = ev
	}
	return rollback, nil
}

func cloneCustom(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
