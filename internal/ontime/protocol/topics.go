// Package protocol implements the canonical envelope around the server's
// streaming frames. The wire protocol has historically changed its envelope
// shape without a version marker, so decoding is generous: any frame that
// can be read at all is normalized into a {topic, payload} envelope, and
// only truly undecodable frames are rejected.
package protocol

import "strings"

// Topic identifies the kind of payload an envelope carries
type Topic string

const (
	// TopicRuntime carries a full runtime snapshot
	TopicRuntime Topic = "runtime"
	// TopicPoll carries a full runtime snapshot in reply to a poll probe
	TopicPoll Topic = "poll"
	// TopicTimer carries the timer slice only
	TopicTimer Topic = "timer"
	// TopicPlayback carries the playback slice only
	TopicPlayback Topic = "playback"
	// TopicClock carries the server wall clock
	TopicClock Topic = "clock"
	// TopicError carries a server-reported error notice
	TopicError Topic = "error"
	// TopicUnknown marks a frame whose topic field was not textual
	TopicUnknown Topic = "unknown"
	// TopicUnknownData marks a frame with no usable topic at all
	TopicUnknownData Topic = "unknown-data"
)

// canonicalTopic lowercases a raw topic string and resolves the legacy
// server spellings: bare "ontime" was the old full-store topic, and newer
// servers prefix slice topics with "ontime-".
func canonicalTopic(s string) Topic {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return TopicUnknown
	}
	if s == "ontime" {
		return TopicRuntime
	}
	if trimmed := strings.TrimPrefix(s, "ontime-"); trimmed != "" {
		s = trimmed
	}
	return Topic(s)
}

// Recognized reports whether t belongs to the fixed set the engine
// understands, including the unknown and error fallbacks.
func (t Topic) Recognized() bool {
	switch t {
	case TopicRuntime, TopicPoll, TopicTimer, TopicPlayback, TopicClock,
		TopicError, TopicUnknown, TopicUnknownData:
		return true
	}
	return false
}

// StateCarrying reports whether frames with this topic update the runtime
// snapshot. Unrecognized-but-object-shaped frames still reach the store as
// TopicUnknownData; that forwarding decision is made by the caller.
func (t Topic) StateCarrying() bool {
	switch t {
	case TopicRuntime, TopicPoll, TopicTimer, TopicPlayback, TopicClock:
		return true
	}
	return false
}
