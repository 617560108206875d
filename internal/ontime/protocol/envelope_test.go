package protocol

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	oterrors "github.com/AquamanRanda/OnTIme/internal/ontime/errors"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name        string
		raw         string
		wantTopic   Topic
		wantPayload string
		wantErr     bool
	}{
		{
			name:        "canonical envelope",
			raw:         `{"topic":"timer","payload":{"current":1000}}`,
			wantTopic:   TopicTimer,
			wantPayload: `{"current":1000}`,
		},
		{
			name:        "envelope without payload",
			raw:         `{"topic":"poll"}`,
			wantTopic:   TopicPoll,
			wantPayload: `null`,
		},
		{
			name:        "uppercase topic is canonicalized",
			raw:         `{"topic":"PLAYBACK","payload":{}}`,
			wantTopic:   TopicPlayback,
			wantPayload: `{}`,
		},
		{
			name:        "legacy type with data",
			raw:         `{"type":"clock","data":{"clock":42}}`,
			wantTopic:   TopicClock,
			wantPayload: `{"clock":42}`,
		},
		{
			name:        "legacy type without data keeps whole object",
			raw:         `{"type":"timer","current":5000}`,
			wantTopic:   TopicTimer,
			wantPayload: `{"type":"timer","current":5000}`,
		},
		{
			name:        "legacy ontime prefix stripped",
			raw:         `{"type":"ontime-timer","data":{"current":1}}`,
			wantTopic:   TopicTimer,
			wantPayload: `{"current":1}`,
		},
		{
			name:        "legacy bare ontime maps to runtime",
			raw:         `{"type":"ontime","data":{"numEvents":3}}`,
			wantTopic:   TopicRuntime,
			wantPayload: `{"numEvents":3}`,
		},
		{
			name:        "object without topic or type travels whole",
			raw:         `{"timer":{"current":9},"extra":true}`,
			wantTopic:   TopicUnknownData,
			wantPayload: `{"timer":{"current":9},"extra":true}`,
		},
		{
			name:        "non-textual topic records unknown",
			raw:         `{"topic":42,"payload":{"a":1}}`,
			wantTopic:   TopicUnknown,
			wantPayload: `{"a":1}`,
		},
		{
			name:        "empty topic records unknown",
			raw:         `{"topic":"","payload":{}}`,
			wantTopic:   TopicUnknown,
			wantPayload: `{}`,
		},
		{
			name:        "bare array wraps as unknown-data",
			raw:         `[1,2,3]`,
			wantTopic:   TopicUnknownData,
			wantPayload: `[1,2,3]`,
		},
		{
			name:        "bare string wraps as unknown-data",
			raw:         `"hello"`,
			wantTopic:   TopicUnknownData,
			wantPayload: `"hello"`,
		},
		{
			name:        "bare number wraps as unknown-data",
			raw:         `17`,
			wantTopic:   TopicUnknownData,
			wantPayload: `17`,
		},
		{
			name:    "invalid JSON is malformed",
			raw:     `{"topic":"timer"`,
			wantErr: true,
		},
		{
			name:    "empty frame is malformed",
			raw:     ``,
			wantErr: true,
		},
		{
			name:    "binary garbage is malformed",
			raw:     "\x00\x01\x02",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env, err := Normalize([]byte(tt.raw))

			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, oterrors.ErrMalformedFrame)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantTopic, env.Topic)
			assert.JSONEq(t, tt.wantPayload, string(env.Payload))
		})
	}
}

func TestNormalizeDoesNotAliasInput(t *testing.T) {
	raw := []byte(`{"topic":"timer","payload":{"current":1000}}`)
	env, err := Normalize(raw)
	require.NoError(t, err)

	for i := range raw {
		raw[i] = 'x'
	}

	assert.JSONEq(t, `{"current":1000}`, string(env.Payload))
}

func TestTopicClassification(t *testing.T) {
	tests := []struct {
		topic         Topic
		recognized    bool
		stateCarrying bool
	}{
		{TopicRuntime, true, true},
		{TopicPoll, true, true},
		{TopicTimer, true, true},
		{TopicPlayback, true, true},
		{TopicClock, true, true},
		{TopicError, true, false},
		{TopicUnknown, true, false},
		{TopicUnknownData, true, false},
		{Topic("message"), false, false},
		{Topic("version"), false, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.topic), func(t *testing.T) {
			assert.Equal(t, tt.recognized, tt.topic.Recognized())
			assert.Equal(t, tt.stateCarrying, tt.topic.StateCarrying())
		})
	}
}

func TestObjectPayload(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    bool
	}{
		{"object", `{"a":1}`, true},
		{"object with leading space", `  {"a":1}`, true},
		{"array", `[1]`, false},
		{"string", `"x"`, false},
		{"number", `5`, false},
		{"null", `null`, false},
		{"empty", ``, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := Envelope{Topic: TopicUnknownData, Payload: json.RawMessage(tt.payload)}
			assert.Equal(t, tt.want, env.ObjectPayload())
		})
	}
}

func TestFrame(t *testing.T) {
	data, err := Frame(TopicPoll, nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{"topic":"poll"}`, string(data))

	data, err = Frame(TopicPlayback, map[string]string{"state": "start"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"topic":"playback","payload":{"state":"start"}}`, string(data))

	// A frame must survive its own normalization unchanged.
	env, err := Normalize(data)
	require.NoError(t, err)
	assert.Equal(t, TopicPlayback, env.Topic)
}
