package v1alpha1

// CustomFieldType represents the value type of a user-defined field
type CustomFieldType string

const (
	// CustomFieldText holds free-form text
	CustomFieldText CustomFieldType = "text"
	// CustomFieldNumber holds a numeric value
	CustomFieldNumber CustomFieldType = "number"
	// CustomFieldBoolean holds "true" or "false"
	CustomFieldBoolean CustomFieldType = "boolean"
	// CustomFieldOption holds one value out of a fixed option list
	CustomFieldOption CustomFieldType = "option"
)

// CustomField describes a user-defined per-event attribute
type CustomField struct {
	// ID is the stable field identifier used as the key in Event.Custom
	ID string `json:"id"`
	// Label is the human-readable name shown for the field
	Label string `json:"label"`
	// Type is the value type of the field
	Type CustomFieldType `json:"type"`
	// Options lists the allowed values for option-typed fields
	Options []string `json:"options,omitempty"`
	// Colour is the display colour associated with the field
	Colour string `json:"colour,omitempty"`
}

// NormalisedRundown is the ordered rundown as served by the server:
// an event map plus an explicit order list. Every id in Order resolves to
// an entry in Events and no id appears twice.
type NormalisedRundown struct {
	// Events maps event id to the event definition
	Events map[string]Event `json:"events"`
	// Order lists event ids in presentation order
	Order []string `json:"order"`
	// CustomFields maps field id to its definition; may be empty when the
	// server predates field definitions, in which case the console infers
	// them from observed values
	CustomFields map[string]CustomField `json:"customFields,omitempty"`
	// Revision increases on every server-side rundown mutation
	Revision int `json:"revision"`
}

// ProjectData describes the production the server is running
type ProjectData struct {
	// Title is the production title
	Title string `json:"title"`
	// Description is a short description of the production
	Description string `json:"description,omitempty"`
	// URL points at the production's public page
	URL string `json:"url,omitempty"`
	// Info is free-form backstage information
	Info string `json:"info,omitempty"`
}
