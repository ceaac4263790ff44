package pagekit

import (
	"encoding/json"

	"github.com/autom8ter/pagekit/errors"
	"github.com/samber/lo"
	"github.com/tidwall/sjson"
)

// TimestampKind selects a built-in record timestamp as a filter or sort target
type TimestampKind string

const (
	// TimestampCreatedTime targets the record creation timestamp
	TimestampCreatedTime TimestampKind = "created_time"
	// TimestampLastEditedTime targets the record last-edited timestamp
	TimestampLastEditedTime TimestampKind = "last_edited_time"
)

// Filter is one clause (or a boolean combination of clauses) in a query's
// filter tree. Filters are immutable once constructed and marshal directly to
// their wire shape.
type Filter interface {
	json.Marshaler
	isFilter()
}

// PropertyFilter binds a Condition to a named property. Type is the property's
// declared type and keys the condition in the wire shape, e.g.
// {"property": "Title", "rich_text": {"contains": "project"}}.
//
// Constructing a PropertyFilter directly bypasses operator validation - this is
// the escape hatch for dynamic collections whose schema is not known locally.
// Use Schema.Filter or QueryBuilder.Where for validated construction.
type PropertyFilter struct {
	Property  string       `json:"property" validate:"required"`
	Type      PropertyType `json:"type" validate:"required"`
	Condition Condition    `json:"condition"`
}

func (PropertyFilter) isFilter() {}

// MarshalJSON returns the filter's wire shape
func (f PropertyFilter) MarshalJSON() ([]byte, error) {
	bits, err := sjson.SetBytes([]byte(`{}`), "property", f.Property)
	if err != nil {
		return nil, err
	}
	condBits, err := json.Marshal(f.Condition)
	if err != nil {
		return nil, err
	}
	return sjson.SetRawBytes(bits, string(f.Type), condBits)
}

// TimestampFilter binds a Condition to a built-in record timestamp, e.g.
// {"timestamp": "last_edited_time", "last_edited_time": {"past_week": {}}}
type TimestampFilter struct {
	Timestamp Condition     `json:"condition"`
	Kind      TimestampKind `json:"timestamp" validate:"required"`
}

func (TimestampFilter) isFilter() {}

// MarshalJSON returns the filter's wire shape
func (f TimestampFilter) MarshalJSON() ([]byte, error) {
	bits, err := sjson.SetBytes([]byte(`{}`), "timestamp", string(f.Kind))
	if err != nil {
		return nil, err
	}
	condBits, err := json.Marshal(f.Timestamp)
	if err != nil {
		return nil, err
	}
	return sjson.SetRawBytes(bits, string(f.Kind), condBits)
}

// NewTimestampFilter creates a validated TimestampFilter - timestamps accept
// the date operator set
func NewTimestampFilter(kind TimestampKind, c Condition) (TimestampFilter, error) {
	if kind != TimestampCreatedTime && kind != TimestampLastEditedTime {
		return TimestampFilter{}, errors.New(errors.Validation, "unknown timestamp kind: '%s'", kind)
	}
	if err := c.validateFor(string(kind), PropertyType(kind)); err != nil {
		return TimestampFilter{}, err
	}
	return TimestampFilter{Kind: kind, Timestamp: c}, nil
}

// Filter creates a validated PropertyFilter against the schema. It returns an
// UnknownProperty error if the property is not declared and a SchemaType error
// if the operator is invalid for the property's declared type.
func (s *Schema) Filter(name string, c Condition) (PropertyFilter, error) {
	p, ok := s.Property(name)
	if !ok {
		return PropertyFilter{}, errors.New(errors.UnknownProperty, "unknown property: '%s'", name)
	}
	if err := c.validateFor(name, p.Type); err != nil {
		return PropertyFilter{}, err
	}
	if len(p.Options) > 0 {
		if operand, ok := c.Value.(string); ok && !lo.Contains(p.Options, operand) {
			return PropertyFilter{}, errors.New(errors.SchemaType, "'%s': option '%s' is not declared for type '%s'", name, operand, p.Type)
		}
	}
	return PropertyFilter{Property: name, Type: p.Type, Condition: c}, nil
}

// CompoundOp is a boolean combination operator for filters
type CompoundOp string

const (
	// CompoundAnd requires every child filter to match
	CompoundAnd CompoundOp = "and"
	// CompoundOr requires at least one child filter to match
	CompoundOr CompoundOp = "or"
)

// CompoundFilter is a boolean combination of filters, e.g. {"and": [...]}
type CompoundFilter struct {
	Op      CompoundOp `json:"op" validate:"required,oneof='and' 'or'"`
	Filters []Filter   `json:"filters" validate:"min=1"`
}

func (CompoundFilter) isFilter() {}

// MarshalJSON returns the filter's wire shape
func (f CompoundFilter) MarshalJSON() ([]byte, error) {
	children := make([]json.RawMessage, 0, len(f.Filters))
	for _, child := range f.Filters {
		bits, err := child.MarshalJSON()
		if err != nil {
			return nil, err
		}
		children = append(children, bits)
	}
	childBits, err := json.Marshal(children)
	if err != nil {
		return nil, err
	}
	return sjson.SetRawBytes([]byte(`{}`), string(f.Op), childBits)
}

// And combines the given filters so every one must match. Child filters that
// are themselves And combinations are flattened into a single "and" array so
// chained clauses never nest pairwise.
func And(filters ...Filter) Filter {
	return combine(CompoundAnd, filters)
}

// Or combines the given filters so at least one must match. Child filters that
// are themselves Or combinations are flattened into a single "or" array.
func Or(filters ...Filter) Filter {
	return combine(CompoundOr, filters)
}

func combine(op CompoundOp, filters []Filter) Filter {
	filters = lo.Filter(filters, func(f Filter, _ int) bool {
		return f != nil
	})
	switch len(filters) {
	case 0:
		return nil
	case 1:
		return filters[0]
	}
	flat := make([]Filter, 0, len(filters))
	for _, f := range filters {
		if compound, ok := f.(CompoundFilter); ok && compound.Op == op {
			flat = append(flat, compound.Filters...)
			continue
		}
		flat = append(flat, f)
	}
	return CompoundFilter{Op: op, Filters: flat}
}
