package v1alpha1

// PlaybackState represents the server's playback mode
type PlaybackState string

const (
	// PlaybackStart indicates the loaded event's timer is running
	PlaybackStart PlaybackState = "start"
	// PlaybackPause indicates the loaded event's timer is paused
	PlaybackPause PlaybackState = "pause"
	// PlaybackStop indicates nothing is playing
	PlaybackStop PlaybackState = "stop"
	// PlaybackRoll indicates the server is following the schedule clock
	PlaybackRoll PlaybackState = "roll"
)

// Playback represents the playback slice of the runtime snapshot
type Playback struct {
	// State is the current playback mode
	State PlaybackState `json:"state"`
	// SelectedEventID identifies the event the operator has selected
	SelectedEventID *string `json:"selectedEventId,omitempty"`
	// SelectedEventIndex is the rundown position of the selected event
	SelectedEventIndex *int `json:"selectedEventIndex,omitempty"`
	// LoadedEventID identifies the event loaded into the timer
	LoadedEventID *string `json:"loadedEventId,omitempty"`
	// LoadedEventIndex is the rundown position of the loaded event
	LoadedEventIndex *int `json:"loadedEventIndex,omitempty"`
}

// TimerState represents the timer slice of the runtime snapshot. All
// fields are in milliseconds unless noted.
type TimerState struct {
	// Current is the elapsed time on the running timer
	Current int64 `json:"current"`
	// Duration is the total time the timer runs for
	Duration int64 `json:"duration"`
	// ExpectedFinish is the projected finish as epoch milliseconds
	ExpectedFinish int64 `json:"expectedFinish"`
	// StartedAt is when the timer started, epoch milliseconds
	StartedAt *int64 `json:"startedAt,omitempty"`
	// AddedTime is the signed adjustment applied by the operator
	AddedTime int64 `json:"addedTime,omitempty"`
	// Secondary is an auxiliary timer running alongside the main one
	Secondary *TimerState `json:"secondary,omitempty"`
}

// RuntimeSnapshot is the single current view of remote playback, timer,
// and event-pointer state. Exactly one snapshot is live at any instant;
// updates replace or merge into it and no history is retained.
type RuntimeSnapshot struct {
	// Clock is the server's wall clock as epoch milliseconds
	Clock int64 `json:"clock"`
	// Timer is the live timer state, nil before the first timer update
	Timer *TimerState `json:"timer,omitempty"`
	// Playback is the live playback state, nil before the first update
	Playback *Playback `json:"playback,omitempty"`
	// EventNow is the event currently playing
	EventNow *Event `json:"eventNow,omitempty"`
	// EventNext is the event scheduled after EventNow
	EventNext *Event `json:"eventNext,omitempty"`
	// PublicEventNow is the current event on public-facing views
	PublicEventNow *Event `json:"publicEventNow,omitempty"`
	// PublicEventNext is the next event on public-facing views
	PublicEventNext *Event `json:"publicEventNext,omitempty"`
	// NumEvents is the number of events in the server's rundown
	NumEvents int `json:"numEvents"`
}

// PlaybackCommand identifies a playback control operation
type PlaybackCommand string

const (
	// CommandStart starts the selected or addressed event
	CommandStart PlaybackCommand = "start"
	// CommandPause pauses the running timer
	CommandPause PlaybackCommand = "pause"
	// CommandStop stops playback
	CommandStop PlaybackCommand = "stop"
	// CommandReload reloads the current event's timer
	CommandReload PlaybackCommand = "reload"
	// CommandStartNext starts the event after the current one
	CommandStartNext PlaybackCommand = "start-next"
	// CommandStartPrevious starts the event before the current one
	CommandStartPrevious PlaybackCommand = "start-previous"
	// CommandAddTime adds seconds to the running timer
	CommandAddTime PlaybackCommand = "addtime"
	// CommandRemoveTime removes seconds from the running timer
	CommandRemoveTime PlaybackCommand = "removetime"
)

// PlaybackRequest is the body of a playback command POST. All members are
// optional; which ones apply depends on the command.
type PlaybackRequest struct {
	// EventID addresses an event by id for start
	EventID string `json:"eventId,omitempty"`
	// EventIndex addresses an event by rundown position for start
	EventIndex *int `json:"eventIndex,omitempty"`
	// EventCue addresses an event by cue label for start
	EventCue string `json:"eventCue,omitempty"`
	// Seconds is the adjustment magnitude for addtime and removetime
	Seconds int64 `json:"seconds,omitempty"`
}

// HealthStatus is the response of the server health-check endpoint
type HealthStatus struct {
	// Status is "ok" when the server is reachable and serving
	Status string `json:"status"`
}
