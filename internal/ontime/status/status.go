// Package status derives per-event display status from the rundown order
// and the live runtime snapshot. Derivation is a pure projection: it is
// recomputed in full on every change and holds no state between calls, so
// it cannot drift from its inputs.
package status

import (
	"github.com/AquamanRanda/OnTIme/api/types/v1alpha1"
)

// Derive computes the display status of every event in rundown order.
// Precedence: a skipped event is always skipped; the event matching the
// snapshot's selected event is active; events before the active position
// are completed; everything else is upcoming.
//
// TimeRemaining is set only on the active event, when it has a duration
// and the snapshot carries a timer. It is not clamped at zero; an overrun
// shows as a negative value and clamping is left to the presentation.
func Derive(events []v1alpha1.Event, snap v1alpha1.RuntimeSnapshot) []v1alpha1.EventWithStatus {
	activeID := activeEventID(snap)
	activeIdx := -1
	if activeID != "" {
		for i, ev := range events {
			if ev.ID == activeID {
				activeIdx = i
				break
			}
		}
	}

	out := make([]v1alpha1.EventWithStatus, 0, len(events))
	for i, ev := range events {
		ws := v1alpha1.EventWithStatus{Event: ev, Status: v1alpha1.EventStatusUpcoming}
		switch {
		case ev.Skip:
			ws.Status = v1alpha1.EventStatusSkipped
		case i == activeIdx:
			ws.Status = v1alpha1.EventStatusActive
			ws.IsRunning = isRunning(snap)
			ws.TimeRemaining = timeRemaining(ev, snap)
		case activeIdx >= 0 && i < activeIdx:
			ws.Status = v1alpha1.EventStatusCompleted
		}
		out = append(out, ws)
	}
	return out
}

// activeEventID resolves which event the snapshot considers current. The
// operator's selection wins over the loaded event, which wins over the
// server's own now-pointer.
func activeEventID(snap v1alpha1.RuntimeSnapshot) string {
	if pb := snap.Playback; pb != nil {
		if pb.SelectedEventID != nil && *pb.SelectedEventID != "" {
			return *pb.SelectedEventID
		}
		if pb.LoadedEventID != nil && *pb.LoadedEventID != "" {
			return *pb.LoadedEventID
		}
	}
	if snap.EventNow != nil {
		return snap.EventNow.ID
	}
	return ""
}

func isRunning(snap v1alpha1.RuntimeSnapshot) bool {
	return snap.Playback != nil && snap.Playback.State == v1alpha1.PlaybackStart
}

func timeRemaining(ev v1alpha1.Event, snap v1alpha1.RuntimeSnapshot) *int64 {
	if ev.Duration <= 0 || snap.Timer == nil {
		return nil
	}
	remaining := ev.Duration*1000 - snap.Timer.Current
	return &remaining
}
