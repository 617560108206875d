package store

import (
	"strconv"
	"strings"

	"github.com/AquamanRanda/OnTIme/api/types/v1alpha1"
)

// inferCustomFields derives field definitions from the values present on the
// rundown events, for servers that expose custom data without publishing a
// schema. A field whose every non-empty value is "true" or "false" becomes a
// boolean, one whose values all parse numerically becomes a number, and
// anything else is plain text.
func inferCustomFields(events map[string]v1alpha1.Event, order []string) map[string]v1alpha1.CustomField {
	type tally struct {
		seen    int
		boolean int
		number  int
	}
	tallies := make(map[string]*tally)

	for _, id := range order {
		for field, value := range events[id].Custom {
			t := tallies[field]
			if t == nil {
				t = &tally{}
				tallies[field] = t
			}
			if value == "" {
				continue
			}
			t.seen++
			if value == "true" || value == "false" {
				t.boolean++
			}
			if _, err := strconv.ParseFloat(value, 64); err == nil {
				t.number++
			}
		}
	}

	fields := make(map[string]v1alpha1.CustomField, len(tallies))
	for id, t := range tallies {
		kind := v1alpha1.CustomFieldText
		switch {
		case t.seen > 0 && t.boolean == t.seen:
			kind = v1alpha1.CustomFieldBoolean
		case t.seen > 0 && t.number == t.seen:
			kind = v1alpha1.CustomFieldNumber
		}
		fields[id] = v1alpha1.CustomField{
			ID:    id,
			Label: fieldLabel(id),
			Type:  kind,
		}
	}
	return fields
}

func fieldLabel(id string) string {
	label := strings.ReplaceAll(id, "_", " ")
	return strings.ReplaceAll(label, "-", " ")
}
