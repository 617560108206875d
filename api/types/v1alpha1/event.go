// Package v1alpha1 contains API types for the OnTime console.
package v1alpha1

// TimerType represents how an event's timer behaves while the event is live
type TimerType string

const (
	// TimerTypeCountDown counts from the event duration towards zero
	TimerTypeCountDown TimerType = "count-down"
	// TimerTypeCountUp counts from zero upwards
	TimerTypeCountUp TimerType = "count-up"
	// TimerTypeClock shows the wall clock instead of a running timer
	TimerTypeClock TimerType = "clock"
	// TimerTypeNone disables the timer for this event
	TimerTypeNone TimerType = "none"
)

// EndAction represents what the server does when an event's timer elapses
type EndAction string

const (
	// EndActionNone leaves the timer running past zero
	EndActionNone EndAction = "none"
	// EndActionLoadNext loads the following event without starting it
	EndActionLoadNext EndAction = "load-next"
	// EndActionPlayNext loads and starts the following event
	EndActionPlayNext EndAction = "play-next"
	// EndActionStop stops playback entirely
	EndActionStop EndAction = "stop"
)

// CueMaxLen is the maximum length of an event cue label
const CueMaxLen = 8

// Event represents a single scheduled entry in the rundown. The
// authoritative copy lives on the server; the console only receives,
// normalizes, and patches events, it never creates or destroys them.
type Event struct {
	// ID is the opaque stable identifier assigned by the server
	ID string `json:"id"`
	// Title is the headline shown for this event
	Title string `json:"title"`
	// Note is free-form production text attached to the event
	Note string `json:"note,omitempty"`
	// Cue is the short call label for the event (at most CueMaxLen chars)
	Cue string `json:"cue,omitempty"`
	// Colour is the display colour associated with the event
	Colour string `json:"colour,omitempty"`
	// IsPublic marks the event as visible on public-facing views
	IsPublic bool `json:"isPublic"`
	// Skip excludes the event from scheduling without removing it
	Skip bool `json:"skip"`
	// TimerType selects the timer behaviour while this event is live
	TimerType TimerType `json:"timerType"`
	// Duration is the planned length of the event in seconds
	Duration int64 `json:"duration"`
	// TimeStart is the scheduled start, seconds from midnight
	TimeStart int64 `json:"timeStart"`
	// TimeEnd is the scheduled end, seconds from midnight
	TimeEnd int64 `json:"timeEnd"`
	// TimeWarning is seconds remaining at which the timer turns to warning
	TimeWarning int64 `json:"timeWarning,omitempty"`
	// TimeDanger is seconds remaining at which the timer turns to danger
	TimeDanger int64 `json:"timeDanger,omitempty"`
	// EndAction selects what happens when the event's timer elapses
	EndAction EndAction `json:"endAction"`
	// Custom holds user-defined field values keyed by field id
	Custom map[string]string `json:"custom,omitempty"`
}

// EventStatus represents the derived display status of an event
type EventStatus string

const (
	// EventStatusUpcoming indicates an event that has not yet played
	EventStatusUpcoming EventStatus = "upcoming"
	// EventStatusActive indicates the currently selected event
	EventStatusActive EventStatus = "active"
	// EventStatusCompleted indicates an event before the active one
	EventStatusCompleted EventStatus = "completed"
	// EventStatusSkipped indicates an event excluded from scheduling
	EventStatusSkipped EventStatus = "skipped"
)

// EventWithStatus is a read-only projection of an Event plus its derived
// display status. It is recomputed from the rundown and the live snapshot
// on every change and is never stored as source of truth.
type EventWithStatus struct {
	Event `json:",inline"`

	// Status is the derived display status
	Status EventStatus `json:"status"`
	// IsRunning reports whether the active event's timer is running
	IsRunning bool `json:"isRunning,omitempty"`
	// TimeRemaining is milliseconds left on the active event's timer,
	// unclamped; nil when the event is not active or not derivable
	TimeRemaining *int64 `json:"timeRemaining,omitempty"`
}

// EventUpdateRequest represents a partial update to an event's fields.
// Nil members are left unchanged by the server.
type EventUpdateRequest struct {
	// Title updates the event headline
	Title *string `json:"title,omitempty"`
	// Note updates the production note
	Note *string `json:"note,omitempty"`
	// Cue updates the call label (at most CueMaxLen chars)
	Cue *string `json:"cue,omitempty"`
	// Colour updates the display colour
	Colour *string `json:"colour,omitempty"`
	// IsPublic updates public visibility
	IsPublic *bool `json:"isPublic,omitempty"`
	// Skip updates scheduling exclusion
	Skip *bool `json:"skip,omitempty"`
	// TimerType updates the timer behaviour
	TimerType *TimerType `json:"timerType,omitempty"`
	// Duration updates the planned length in seconds
	Duration *int64 `json:"duration,omitempty"`
	// TimeStart updates the scheduled start, seconds from midnight
	TimeStart *int64 `json:"timeStart,omitempty"`
	// TimeEnd updates the scheduled end, seconds from midnight
	TimeEnd *int64 `json:"timeEnd,omitempty"`
	// TimeWarning updates the warning threshold in seconds
	TimeWarning *int64 `json:"timeWarning,omitempty"`
	// TimeDanger updates the danger threshold in seconds
	TimeDanger *int64 `json:"timeDanger,omitempty"`
	// EndAction updates the end-of-timer behaviour
	EndAction *EndAction `json:"endAction,omitempty"`
}

// CustomFieldValueRequest represents an update to a single custom field
// value on an event
type CustomFieldValueRequest struct {
	// Field is the custom field id being written
	Field string `json:"field"`
	// Value is the new value for the field
	Value string `json:"value"`
}
