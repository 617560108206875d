// Package store holds the single authoritative in-memory view of remote
// state: the live runtime snapshot plus the rundown and its custom-field
// definitions. Updates arrive as normalized envelopes from either channel
// (streaming or polling) and are merged slice by slice.
//
// The wire protocol carries no sequence or version numbers, so the store
// applies a last-write-wins policy per slice: a later-arriving message
// always supersedes an earlier one regardless of source channel. True
// ordering between streaming and polling updates cannot be reconstructed;
// this limitation is deliberate and must not be papered over with invented
// ordering guarantees.
package store

import (
	"encoding/json"
	"sync"

	"github.com/rs/zerolog"

	"github.com/AquamanRanda/OnTIme/api/types/v1alpha1"
	"github.com/AquamanRanda/OnTIme/internal/ontime/protocol"
)

// Store is the runtime state store. All exported methods are safe for
// concurrent use; installed snapshot slices are treated as immutable and
// replaced wholesale, never mutated in place.
type Store struct {
	mu     sync.Mutex
	logger zerolog.Logger

	snapshot    v1alpha1.RuntimeSnapshot
	hasSnapshot bool

	events       map[string]v1alpha1.Event
	order        []string
	customFields map[string]v1alpha1.CustomField
	revision     int
	project      *v1alpha1.ProjectData

	// generation increases on every authoritative rundown install; it
	// guards optimistic edit rollbacks against clobbering fresher data
	generation uint64

	subs    []subscriber
	nextSub int
}

type subscriber struct {
	id int
	fn func(v1alpha1.RuntimeSnapshot)
}

// New creates an empty Store
func New(logger zerolog.Logger) *Store {
	return &Store{
		logger:       logger.With().Str("component", "store").Logger(),
		events:       make(map[string]v1alpha1.Event),
		customFields: make(map[string]v1alpha1.CustomField),
	}
}

// Subscribe registers fn to be called synchronously with the current
// snapshot after every store mutation (snapshot merge or rundown change).
// If a snapshot already exists it is replayed to fn immediately, so a late
// subscriber starts from the current state. The returned func removes the
// subscription.
func (s *Store) Subscribe(fn func(v1alpha1.RuntimeSnapshot)) func() {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs = append(s.subs, subscriber{id: id, fn: fn})
	snap := s.snapshot
	replay := s.hasSnapshot
	s.mu.Unlock()

	if replay {
		fn(snap)
	}

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, sub := range s.subs {
			if sub.id == id {
				s.subs = append(s.subs[:i], s.subs[i+1:]...)
				return
			}
		}
	}
}

// Snapshot returns the live runtime snapshot. The second return is false
// until the first successful update from either channel.
func (s *Store) Snapshot() (v1alpha1.RuntimeSnapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot, s.hasSnapshot
}

// Apply merges a normalized envelope into the live snapshot. Only slices
// present in the payload are touched; everything else is left exactly as
// it was. Envelopes whose payload carries no recognizable slice are
// ignored. Subscribers are notified once per applied envelope.
func (s *Store) Apply(env protocol.Envelope) {
	patch, ok := decodeSnapshotPatch(env)
	if !ok {
		s.logger.Debug().Str("topic", string(env.Topic)).Msg("envelope carried no snapshot slices")
		return
	}

	s.mu.Lock()
	patch.applyTo(&s.snapshot)
	s.hasSnapshot = true
	snap := s.snapshot
	subs := append([]subscriber(nil), s.subs...)
	s.mu.Unlock()

	for _, sub := range subs {
		sub.fn(snap)
	}
}

// snapshotPatch carries the independently mergeable slices one state frame
// may update. Presence flags distinguish "absent" from "present as null".
type snapshotPatch struct {
	hasClock bool
	clock    int64

	hasTimer bool
	timer    *v1alpha1.TimerState

	hasPlayback bool
	playback    *v1alpha1.Playback

	hasEventNow bool
	eventNow    *v1alpha1.Event

	hasEventNext bool
	eventNext    *v1alpha1.Event

	hasPublicEventNow bool
	publicEventNow    *v1alpha1.Event

	hasPublicEventNext bool
	publicEventNext    *v1alpha1.Event

	hasNumEvents bool
	numEvents    int
}

func (p *snapshotPatch) any() bool {
	return p.hasClock || p.hasTimer || p.hasPlayback ||
		p.hasEventNow || p.hasEventNext ||
		p.hasPublicEventNow || p.hasPublicEventNext ||
		p.hasNumEvents
}

func (p *snapshotPatch) applyTo(snap *v1alpha1.RuntimeSnapshot) {
	if p.hasClock {
		snap.Clock = p.clock
	}
	if p.hasTimer {
		snap.Timer = p.timer
	}
	if p.hasPlayback {
		snap.Playback = p.playback
	}
	if p.hasEventNow {
		snap.EventNow = p.eventNow
	}
	if p.hasEventNext {
		snap.EventNext = p.eventNext
	}
	if p.hasPublicEventNow {
		snap.PublicEventNow = p.publicEventNow
	}
	if p.hasPublicEventNext {
		snap.PublicEventNext = p.publicEventNext
	}
	if p.hasNumEvents {
		snap.NumEvents = p.numEvents
	}
}

// decodeSnapshotPatch extracts snapshot slices from an envelope payload.
// Wrapper-shaped payloads (runtime/poll frames, or anything that happens to
// carry snapshot keys) are read key by key; a bare payload on a slice topic
// is read as that slice directly. A slice that fails to decode is skipped
// rather than failing the whole frame.
func decodeSnapshotPatch(env protocol.Envelope) (snapshotPatch, bool) {
	var p snapshotPatch

	if !env.ObjectPayload() {
		// A clock frame may carry the wall clock as a bare number.
		if env.Topic == protocol.TopicClock {
			var n int64
			if err := json.Unmarshal(env.Payload, &n); err == nil {
				p.hasClock = true
				p.clock = n
				return p, true
			}
		}
		return p, false
	}

	var keys map[string]json.RawMessage
	if err := json.Unmarshal(env.Payload, &keys); err != nil {
		return p, false
	}

	if raw, ok := keys["clock"]; ok {
		var n int64
		if err := json.Unmarshal(raw, &n); err == nil {
			p.hasClock = true
			p.clock = n
		}
	}
	if raw, ok := keys["timer"]; ok {
		var t *v1alpha1.TimerState
		if err := json.Unmarshal(raw, &t); err == nil {
			p.hasTimer = true
			p.timer = t
		}
	}
	if raw, ok := keys["playback"]; ok {
		var pb *v1alpha1.Playback
		if err := json.Unmarshal(raw, &pb); err == nil {
			p.hasPlayback = true
			p.playback = pb
		}
	}
	if raw, ok := keys["eventNow"]; ok {
		var ev *v1alpha1.Event
		if err := json.Unmarshal(raw, &ev); err == nil {
			p.hasEventNow = true
			p.eventNow = ev
		}
	}
	if raw, ok := keys["eventNext"]; ok {
		var ev *v1alpha1.Event
		if err := json.Unmarshal(raw, &ev); err == nil {
			p.hasEventNext = true
			p.eventNext = ev
		}
	}
	if raw, ok := keys["publicEventNow"]; ok {
		var ev *v1alpha1.Event
		if err := json.Unmarshal(raw, &ev); err == nil {
			p.hasPublicEventNow = true
			p.publicEventNow = ev
		}
	}
	if raw, ok := keys["publicEventNext"]; ok {
		var ev *v1alpha1.Event
		if err := json.Unmarshal(raw, &ev); err == nil {
			p.hasPublicEventNext = true
			p.publicEventNext = ev
		}
	}
	if raw, ok := keys["numEvents"]; ok {
		var n int
		if err := json.Unmarshal(raw, &n); err == nil {
			p.hasNumEvents = true
			p.numEvents = n
		}
	}

	if p.any() || hasSliceKeys(keys) {
		return p, p.any()
	}

	// No wrapper keys at all: a slice topic's payload is the slice itself.
	switch env.Topic {
	case protocol.TopicTimer:
		var t v1alpha1.TimerState
		if err := json.Unmarshal(env.Payload, &t); err == nil {
			p.hasTimer = true
			p.timer = &t
		}
	case protocol.TopicPlayback:
		var pb v1alpha1.Playback
		if err := json.Unmarshal(env.Payload, &pb); err == nil {
			p.hasPlayback = true
			p.playback = &pb
		}
	}

	return p, p.any()
}

var sliceKeys = []string{
	"clock", "timer", "playback",
	"eventNow", "eventNext", "publicEventNow", "publicEventNext",
	"numEvents",
}

func hasSliceKeys(keys map[string]json.RawMessage) bool {
	for _, k := range sliceKeys {
		if _, ok := keys[k]; ok {
			return true
		}
	}
	return false
}
