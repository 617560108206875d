package store

import (
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AquamanRanda/OnTIme/api/types/v1alpha1"
	"github.com/AquamanRanda/OnTIme/internal/ontime/protocol"
)

func newTestStore() *Store {
	return New(zerolog.Nop())
}

func envelope(topic protocol.Topic, payload string) protocol.Envelope {
	return protocol.Envelope{Topic: topic, Payload: json.RawMessage(payload)}
}

func TestStore_SnapshotEmptyUntilFirstUpdate(t *testing.T) {
	s := newTestStore()

	_, ok := s.Snapshot()
	assert.False(t, ok)

	s.Apply(envelope(protocol.TopicClock, `42000`))

	snap, ok := s.Snapshot()
	require.True(t, ok)
	assert.Equal(t, int64(42000), snap.Clock)
}

func TestStore_ApplyMergesSlicesIndependently(t *testing.T) {
	s := newTestStore()

	s.Apply(envelope(protocol.TopicRuntime, `{
		"clock": 1000,
		"timer": {"current": 30000, "duration": 600000},
		"playback": {"state": "start"},
		"eventNow": {"id": "21313f", "title": "Opening"},
		"numEvents": 3
	}`))

	before, ok := s.Snapshot()
	require.True(t, ok)
	require.NotNil(t, before.Timer)
	require.NotNil(t, before.Playback)
	require.NotNil(t, before.EventNow)

	// A timer-only frame must replace the timer and nothing else.
	s.Apply(envelope(protocol.TopicTimer, `{"timer": {"current": 29000, "duration": 600000}}`))

	after, ok := s.Snapshot()
	require.True(t, ok)
	assert.Equal(t, int64(29000), after.Timer.Current)
	assert.Same(t, before.Playback, after.Playback)
	assert.Same(t, before.EventNow, after.EventNow)
	assert.Equal(t, before.Clock, after.Clock)
	assert.Equal(t, before.NumEvents, after.NumEvents)
}

func TestStore_ApplyBarePayloads(t *testing.T) {
	tests := []struct {
		name    string
		env     protocol.Envelope
		verify  func(*testing.T, v1alpha1.RuntimeSnapshot)
		applied bool
	}{
		{
			name:    "bare_timer_object",
			env:     envelope(protocol.TopicTimer, `{"current": 5000, "duration": 60000}`),
			applied: true,
			verify: func(t *testing.T, snap v1alpha1.RuntimeSnapshot) {
				require.NotNil(t, snap.Timer)
				assert.Equal(t, int64(5000), snap.Timer.Current)
			},
		},
		{
			name:    "bare_playback_object",
			env:     envelope(protocol.TopicPlayback, `{"state": "pause"}`),
			applied: true,
			verify: func(t *testing.T, snap v1alpha1.RuntimeSnapshot) {
				require.NotNil(t, snap.Playback)
				assert.Equal(t, v1alpha1.PlaybackPause, snap.Playback.State)
			},
		},
		{
			name:    "bare_clock_number",
			env:     envelope(protocol.TopicClock, `86399000`),
			applied: true,
			verify: func(t *testing.T, snap v1alpha1.RuntimeSnapshot) {
				assert.Equal(t, int64(86399000), snap.Clock)
			},
		},
		{
			name:    "bare_string_ignored",
			env:     envelope(protocol.TopicUnknownData, `"hello"`),
			applied: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestStore()
			s.Apply(tt.env)

			snap, ok := s.Snapshot()
			assert.Equal(t, tt.applied, ok)
			if tt.verify != nil {
				tt.verify(t, snap)
			}
		})
	}
}

func TestStore_ApplyUnknownTopicWithSnapshotKeys(t *testing.T) {
	// A frame the console does not recognize may still carry slices it
	// does.
	s := newTestStore()
	s.Apply(envelope(protocol.TopicUnknownData, `{"clock": 7000, "mystery": true}`))

	snap, ok := s.Snapshot()
	require.True(t, ok)
	assert.Equal(t, int64(7000), snap.Clock)
}

func TestStore_ApplyPayloadWithoutSlices(t *testing.T) {
	s := newTestStore()
	notified := 0
	s.Subscribe(func(v1alpha1.RuntimeSnapshot) { notified++ })

	s.Apply(envelope(protocol.TopicUnknownData, `{"mystery": true}`))

	_, ok := s.Snapshot()
	assert.False(t, ok)
	assert.Zero(t, notified)
}

func TestStore_ApplySkipsUndecodableSlice(t *testing.T) {
	s := newTestStore()
	s.Apply(envelope(protocol.TopicRuntime, `{"clock": 5000, "timer": "not-a-timer"}`))

	snap, ok := s.Snapshot()
	require.True(t, ok)
	assert.Equal(t, int64(5000), snap.Clock)
	assert.Nil(t, snap.Timer)
}

func TestStore_ApplyNullSlice(t *testing.T) {
	s := newTestStore()
	s.Apply(envelope(protocol.TopicRuntime, `{"eventNow": {"id": "421b5a"}}`))

	snap, _ := s.Snapshot()
	require.NotNil(t, snap.EventNow)

	// An explicit null clears the slice; an absent key would not.
	s.Apply(envelope(protocol.TopicRuntime, `{"eventNow": null, "clock": 1}`))

	snap, _ = s.Snapshot()
	assert.Nil(t, snap.EventNow)
}

func TestStore_SubscribeOrderAndUnsubscribe(t *testing.T) {
	s := newTestStore()

	var calls []string
	unsubA := s.Subscribe(func(v1alpha1.RuntimeSnapshot) { calls = append(calls, "a") })
	s.Subscribe(func(v1alpha1.RuntimeSnapshot) { calls = append(calls, "b") })

	s.Apply(envelope(protocol.TopicClock, `1000`))
	require.Equal(t, []string{"a", "b"}, calls)

	unsubA()
	calls = nil

	s.Apply(envelope(protocol.TopicClock, `2000`))
	assert.Equal(t, []string{"b"}, calls)
}

func TestStore_SubscribeReplaysCurrentSnapshot(t *testing.T) {
	s := newTestStore()
	s.Apply(envelope(protocol.TopicClock, `9000`))

	var got []int64
	s.Subscribe(func(snap v1alpha1.RuntimeSnapshot) { got = append(got, snap.Clock) })

	// The late subscriber starts from the current state, then follows.
	require.Equal(t, []int64{9000}, got)

	s.Apply(envelope(protocol.TopicClock, `10000`))
	assert.Equal(t, []int64{9000, 10000}, got)
}

func TestStore_SubscriberSeesAppliedSnapshot(t *testing.T) {
	s := newTestStore()

	var got v1alpha1.RuntimeSnapshot
	s.Subscribe(func(snap v1alpha1.RuntimeSnapshot) { got = snap })

	s.Apply(envelope(protocol.TopicRuntime, `{"clock": 1234, "numEvents": 7}`))

	assert.Equal(t, int64(1234), got.Clock)
	assert.Equal(t, 7, got.NumEvents)
}
