package store

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AquamanRanda/OnTIme/api/types/v1alpha1"
	oterrors "github.com/AquamanRanda/OnTIme/internal/ontime/errors"
	"github.com/AquamanRanda/OnTIme/internal/ontime/protocol"
)

func testRundown() v1alpha1.NormalisedRundown {
	return v1alpha1.NormalisedRundown{
		Events: map[string]v1alpha1.Event{
			"421b5a": {ID: "421b5a", Title: "Doors", Custom: map[string]string{"Image_Test": "https://example.com/doors.png"}},
			"21313f": {ID: "21313f", Title: "Opening"},
			"146dc4": {ID: "146dc4", Title: "Keynote"},
		},
		Order:    []string{"421b5a", "21313f", "146dc4"},
		Revision: 4,
	}
}

func TestStore_SetRundown(t *testing.T) {
	s := newTestStore()

	require.NoError(t, s.SetRundown(testRundown()))

	events := s.EventsInOrder()
	require.Len(t, events, 3)
	assert.Equal(t, "421b5a", events[0].ID)
	assert.Equal(t, "21313f", events[1].ID)
	assert.Equal(t, "146dc4", events[2].ID)
	assert.Equal(t, []string{"421b5a", "21313f", "146dc4"}, s.Order())
	assert.Equal(t, 4, s.Revision())

	ev, err := s.Event("21313f")
	require.NoError(t, err)
	assert.Equal(t, "Opening", ev.Title)

	_, err = s.Event("nope")
	require.Error(t, err)
	assert.True(t, errors.Is(err, oterrors.ErrNotFound))

	var unknown ErrUnknownEvent
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, "nope", unknown.ID)
}

func TestStore_SetRundownValidation(t *testing.T) {
	tests := []struct {
		name string
		rd   v1alpha1.NormalisedRundown
	}{
		{
			name: "order_references_unknown_event",
			rd: v1alpha1.NormalisedRundown{
				Events: map[string]v1alpha1.Event{"421b5a": {ID: "421b5a"}},
				Order:  []string{"421b5a", "missing"},
			},
		},
		{
			name: "duplicate_event_in_order",
			rd: v1alpha1.NormalisedRundown{
				Events: map[string]v1alpha1.Event{"421b5a": {ID: "421b5a"}},
				Order:  []string{"421b5a", "421b5a"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestStore()
			require.NoError(t, s.SetRundown(testRundown()))

			err := s.SetRundown(tt.rd)
			require.Error(t, err)
			assert.True(t, errors.Is(err, oterrors.ErrInvalidInput))

			// The previous rundown must survive a rejected install.
			assert.Equal(t, []string{"421b5a", "21313f", "146dc4"}, s.Order())
			assert.Equal(t, 4, s.Revision())
		})
	}
}

func TestStore_SetRundownInfersCustomFields(t *testing.T) {
	rd := v1alpha1.NormalisedRundown{
		Events: map[string]v1alpha1.Event{
			"a": {ID: "a", Custom: map[string]string{
				"Image_Test": "https://example.com/a.png",
				"on-air":     "true",
				"rating":     "4.5",
			}},
			"b": {ID: "b", Custom: map[string]string{
				"on-air": "false",
				"rating": "3",
				"notes":  "",
			}},
		},
		Order: []string{"a", "b"},
	}

	s := newTestStore()
	require.NoError(t, s.SetRundown(rd))

	fields := s.CustomFields()
	require.Len(t, fields, 4)

	assert.Equal(t, v1alpha1.CustomFieldText, fields["Image_Test"].Type)
	assert.Equal(t, "Image Test", fields["Image_Test"].Label)

	assert.Equal(t, v1alpha1.CustomFieldBoolean, fields["on-air"].Type)
	assert.Equal(t, "on air", fields["on-air"].Label)

	assert.Equal(t, v1alpha1.CustomFieldNumber, fields["rating"].Type)

	// Only empty values observed: default to text.
	assert.Equal(t, v1alpha1.CustomFieldText, fields["notes"].Type)
}

func TestStore_SetRundownKeepsProvidedFields(t *testing.T) {
	rd := testRundown()
	rd.CustomFields = map[string]v1alpha1.CustomField{
		"Image_Test": {ID: "Image_Test", Label: "Slide image", Type: v1alpha1.CustomFieldText},
	}

	s := newTestStore()
	require.NoError(t, s.SetRundown(rd))

	fields := s.CustomFields()
	require.Len(t, fields, 1)
	assert.Equal(t, "Slide image", fields["Image_Test"].Label)
}

func TestStore_ApplyCustomEdit(t *testing.T) {
	s := newTestStore()
	require.NoError(t, s.SetRundown(testRundown()))

	rollback, err := s.ApplyCustomEdit("421b5a", "Image_Test", "https://example.com/a.png")
	require.NoError(t, err)

	ev, err := s.Event("421b5a")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/a.png", ev.Custom["Image_Test"])

	rollback()

	ev, err = s.Event("421b5a")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/doors.png", ev.Custom["Image_Test"])
}

func TestStore_ApplyCustomEditNewField(t *testing.T) {
	s := newTestStore()
	require.NoError(t, s.SetRundown(testRundown()))

	rollback, err := s.ApplyCustomEdit("21313f", "Image_Test", "https://example.com/open.png")
	require.NoError(t, err)

	rollback()

	// The field did not exist before, so rollback removes it entirely.
	ev, err := s.Event("21313f")
	require.NoError(t, err)
	_, present := ev.Custom["Image_Test"]
	assert.False(t, present)
}

func TestStore_ApplyCustomEditRollbackAfterNewRundown(t *testing.T) {
	s := newTestStore()
	require.NoError(t, s.SetRundown(testRundown()))

	rollback, err := s.ApplyCustomEdit("421b5a", "Image_Test", "https://example.com/a.png")
	require.NoError(t, err)

	// Fresh server data lands before the rollback fires.
	fresh := testRundown()
	fresh.Revision = 5
	fresh.Events["421b5a"] = v1alpha1.Event{
		ID:     "421b5a",
		Title:  "Doors",
		Custom: map[string]string{"Image_Test": "https://example.com/fresh.png"},
	}
	require.NoError(t, s.SetRundown(fresh))

	rollback()

	// The stale rollback must not clobber the authoritative value.
	ev, err := s.Event("421b5a")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/fresh.png", ev.Custom["Image_Test"])
}

func TestStore_ApplyCustomEditUnknownEvent(t *testing.T) {
	s := newTestStore()
	require.NoError(t, s.SetRundown(testRundown()))

	_, err := s.ApplyCustomEdit("nope", "Image_Test", "x")
	require.Error(t, err)
	assert.True(t, errors.Is(err, oterrors.ErrNotFound))
}

func TestStore_AccessorsReturnCopies(t *testing.T) {
	s := newTestStore()
	require.NoError(t, s.SetRundown(testRundown()))

	events := s.EventsInOrder()
	events[0].Custom["Image_Test"] = "mutated"

	ev, err := s.Event("421b5a")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/doors.png", ev.Custom["Image_Test"])

	order := s.Order()
	order[0] = "mutated"
	assert.Equal(t, "421b5a", s.Order()[0])

	fields := s.CustomFields()
	fields["bogus"] = v1alpha1.CustomField{ID: "bogus"}
	_, present := s.CustomFields()["bogus"]
	assert.False(t, present)
}

func TestStore_SetRundownNotifiesOnceSnapshotExists(t *testing.T) {
	s := newTestStore()

	notified := 0
	s.Subscribe(func(v1alpha1.RuntimeSnapshot) { notified++ })

	// Before any snapshot there is nothing for subscribers to re-derive.
	require.NoError(t, s.SetRundown(testRundown()))
	assert.Zero(t, notified)

	s.Apply(envelope(protocol.TopicClock, `1000`))
	require.Equal(t, 1, notified)

	require.NoError(t, s.SetRundown(testRundown()))
	assert.Equal(t, 2, notified)
}

func TestStore_Project(t *testing.T) {
	s := newTestStore()

	_, ok := s.Project()
	assert.False(t, ok)

	s.SetProject(v1alpha1.ProjectData{Title: "Launch Day"})

	p, ok := s.Project()
	require.True(t, ok)
	assert.Equal(t, "Launch Day", p.Title)
}
