package protocol

import (
	"bytes"
	"encoding/json"
	"fmt"

	oterrors "github.com/AquamanRanda/OnTIme/internal/ontime/errors"
)

// Envelope is the canonical wrapper around one inbound or outbound frame.
// Payload is kept raw; it is decoded exactly once, by whoever consumes the
// envelope for its topic.
type Envelope struct {
	// Topic is the canonical lowercase topic of the frame
	Topic Topic `json:"topic"`
	// Payload is the undecoded frame payload
	Payload json.RawMessage `json:"payload,omitempty"`
}

// ObjectPayload reports whether the payload is a JSON object. Frames whose
// payload is not an object cannot carry snapshot slices and are not
// forwarded to the state store.
func (e Envelope) ObjectPayload() bool {
	trimmed := bytes.TrimSpace(e.Payload)
	return len(trimmed) > 0 && trimmed[0] == '{'
}

// Normalize translates one raw wire frame into a canonical envelope. It
// never panics; undecodable input yields ErrMalformedFrame and the frame
// must be dropped by the caller. Decodable input always yields an
// envelope:
//
//   - a non-object value is wrapped under TopicUnknownData
//   - an object with a "topic" field uses it, with the "payload" field
//     (or null) as payload
//   - an object with a legacy "type" field uses it as the topic, with the
//     "data" field, or failing that the whole object, as payload
//   - any other object travels whole under TopicUnknownData
//
// A topic field that is not textual is recorded as TopicUnknown.
func Normalize(raw []byte) (Envelope, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || !json.Valid(trimmed) {
		return Envelope{}, fmt.Errorf("%w: not valid JSON", oterrors.ErrMalformedFrame)
	}

	if trimmed[0] != '{' {
		return Envelope{Topic: TopicUnknownData, Payload: cloneRaw(trimmed)}, nil
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &obj); err != nil {
		return Envelope{}, fmt.Errorf("%w: %v", oterrors.ErrMalformedFrame, err)
	}

	if rawTopic, ok := obj["topic"]; ok {
		payload, ok := obj["payload"]
		if !ok {
			payload = json.RawMessage("null")
		}
		return Envelope{Topic: topicOf(rawTopic), Payload: cloneRaw(payload)}, nil
	}

	if rawType, ok := obj["type"]; ok {
		payload, ok := obj["data"]
		if !ok {
			payload = trimmed
		}
		return Envelope{Topic: topicOf(rawType), Payload: cloneRaw(payload)}, nil
	}

	return Envelope{Topic: TopicUnknownData, Payload: cloneRaw(trimmed)}, nil
}

// topicOf decodes a topic or type field into a canonical Topic. Non-textual
// values coerce to TopicUnknown rather than failing the frame.
func topicOf(raw json.RawMessage) Topic {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return TopicUnknown
	}
	return canonicalTopic(s)
}

// cloneRaw copies a raw message out of the decode buffer so envelopes stay
// valid after the caller reuses or discards the original frame slice.
func cloneRaw(raw json.RawMessage) json.RawMessage {
	out := make(json.RawMessage, len(raw))
	copy(out, raw)
	return out
}

// Frame encodes an outbound envelope in the canonical {topic, payload}
// wire shape. A nil payload is omitted.
func Frame(topic Topic, payload any) ([]byte, error) {
	frame := struct {
		Topic   Topic `json:"topic"`
		Payload any   `json:"payload,omitempty"`
	}{Topic: topic, Payload: payload}

	data, err := json.Marshal(frame)
	if err != nil {
		return nil, fmt.Errorf("error encoding frame: %w", err)
	}
	return data, nil
}
