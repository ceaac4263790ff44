package pagekit

import (
	"encoding/json"

	"github.com/tidwall/sjson"
)

// OrderByDirection indicates whether results should be sorted in ascending or descending order
type OrderByDirection string

const (
	// OrderByDirectionAsc indicates ascending order
	OrderByDirectionAsc OrderByDirection = "ascending"
	// OrderByDirectionDesc indicates descending order
	OrderByDirectionDesc OrderByDirection = "descending"
)

// OrderBy orders the result set by a property or timestamp in a given
// direction. An ordered list of OrderBy clauses defines multi-key sort
// priority - the first listed clause has the highest priority.
type OrderBy struct {
	// Property is the property to sort on - exactly one of Property/Timestamp is set
	Property string `json:"property,omitempty"`
	// Timestamp is the built-in timestamp to sort on
	Timestamp TimestampKind `json:"timestamp,omitempty"`
	// Direction is the sort direction
	Direction OrderByDirection `json:"direction" validate:"required,oneof='ascending' 'descending'"`
}

// MarshalJSON returns the sort clause's wire shape
func (o OrderBy) MarshalJSON() ([]byte, error) {
	bits := []byte(`{}`)
	var err error
	if o.Property != "" {
		bits, err = sjson.SetBytes(bits, "property", o.Property)
	} else {
		bits, err = sjson.SetBytes(bits, "timestamp", string(o.Timestamp))
	}
	if err != nil {
		return nil, err
	}
	return sjson.SetBytes(bits, "direction", string(o.Direction))
}

// UnmarshalJSON decodes a sort clause from its wire shape
func (o *OrderBy) UnmarshalJSON(bits []byte) error {
	var raw struct {
		Property  string           `json:"property"`
		Timestamp TimestampKind    `json:"timestamp"`
		Direction OrderByDirection `json:"direction"`
	}
	if err := json.Unmarshal(bits, &raw); err != nil {
		return err
	}
	o.Property = raw.Property
	o.Timestamp = raw.Timestamp
	o.Direction = raw.Direction
	return nil
}
