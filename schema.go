package pagekit

import (
	"time"

	"github.com/autom8ter/pagekit/errors"
	"github.com/autom8ter/pagekit/util"
	"github.com/samber/lo"
	"github.com/spf13/cast"
	"github.com/tidwall/gjson"
)

// PropertyType is the declared type of a collection property. The type selects
// the operator set available to filters and the native value accepted by Set.
type PropertyType string

const (
	// PropertyTypeTitle is the title text property
	PropertyTypeTitle PropertyType = "title"
	// PropertyTypeRichText is a text property
	PropertyTypeRichText PropertyType = "rich_text"
	// PropertyTypeNumber is a numeric property
	PropertyTypeNumber PropertyType = "number"
	// PropertyTypeCheckbox is a boolean property
	PropertyTypeCheckbox PropertyType = "checkbox"
	// PropertyTypeSelect is a single enumerated option property
	PropertyTypeSelect PropertyType = "select"
	// PropertyTypeStatus is a single enumerated status property
	PropertyTypeStatus PropertyType = "status"
	// PropertyTypeMultiSelect is a multi-valued enumerated option property
	PropertyTypeMultiSelect PropertyType = "multi_select"
	// PropertyTypeDate is a date/datetime property
	PropertyTypeDate PropertyType = "date"
	// PropertyTypePeople is a list of user references
	PropertyTypePeople PropertyType = "people"
	// PropertyTypeFiles is a list of file references
	PropertyTypeFiles PropertyType = "files"
	// PropertyTypeRelation is a list of related record references
	PropertyTypeRelation PropertyType = "relation"
	// PropertyTypeURL is a url text property
	PropertyTypeURL PropertyType = "url"
	// PropertyTypeEmail is an email text property
	PropertyTypeEmail PropertyType = "email"
	// PropertyTypePhoneNumber is a phone number text property
	PropertyTypePhoneNumber PropertyType = "phone_number"
	// PropertyTypeCreatedTime is the read-only record creation timestamp
	PropertyTypeCreatedTime PropertyType = "created_time"
	// PropertyTypeLastEditedTime is the read-only record edit timestamp
	PropertyTypeLastEditedTime PropertyType = "last_edited_time"
)

var propertyTypes = []PropertyType{
	PropertyTypeTitle,
	PropertyTypeRichText,
	PropertyTypeNumber,
	PropertyTypeCheckbox,
	PropertyTypeSelect,
	PropertyTypeStatus,
	PropertyTypeMultiSelect,
	PropertyTypeDate,
	PropertyTypePeople,
	PropertyTypeFiles,
	PropertyTypeRelation,
	PropertyTypeURL,
	PropertyTypeEmail,
	PropertyTypePhoneNumber,
	PropertyTypeCreatedTime,
	PropertyTypeLastEditedTime,
}

// Property is a single named, typed property in a collection schema
type Property struct {
	// Name is the property name as it appears on the remote collection
	Name string `json:"name" validate:"required"`
	// Type is the declared property type
	Type PropertyType `json:"type" validate:"required"`
	// Options are the enumerated options for select/status/multi_select properties.
	// An empty list skips option membership checks.
	Options []string `json:"options,omitempty"`
}

// ReadOnly returns true if the property is maintained by the remote collection
// and may not be set locally
func (p Property) ReadOnly() bool {
	return p.Type == PropertyTypeCreatedTime || p.Type == PropertyTypeLastEditedTime
}

// Coerce validates the given native value against the property's declared type
// and returns its canonical form. It returns a PropertyType error on mismatch.
func (p Property) Coerce(value any) (any, error) {
	if p.ReadOnly() {
		return nil, errors.New(errors.PropertyType, "property '%s' is read-only", p.Name)
	}
	switch p.Type {
	case PropertyTypeTitle, PropertyTypeRichText, PropertyTypeURL, PropertyTypeEmail, PropertyTypePhoneNumber:
		v, ok := value.(string)
		if !ok {
			return nil, errors.New(errors.PropertyType, "property '%s' (%s) requires a string value, got %T", p.Name, p.Type, value)
		}
		return v, nil
	case PropertyTypeNumber:
		if _, isBool := value.(bool); isBool {
			return nil, errors.New(errors.PropertyType, "property '%s' (number) requires a numeric value, got bool", p.Name)
		}
		if _, isString := value.(string); isString {
			return nil, errors.New(errors.PropertyType, "property '%s' (number) requires a numeric value, got string", p.Name)
		}
		v, err := cast.ToFloat64E(value)
		if err != nil {
			return nil, errors.New(errors.PropertyType, "property '%s' (number) requires a numeric value, got %T", p.Name, value)
		}
		return v, nil
	case PropertyTypeCheckbox:
		v, ok := value.(bool)
		if !ok {
			return nil, errors.New(errors.PropertyType, "property '%s' (checkbox) requires a bool value, got %T", p.Name, value)
		}
		return v, nil
	case PropertyTypeSelect, PropertyTypeStatus:
		v, ok := value.(string)
		if !ok {
			return nil, errors.New(errors.PropertyType, "property '%s' (%s) requires a string value, got %T", p.Name, p.Type, value)
		}
		if len(p.Options) > 0 && !lo.Contains(p.Options, v) {
			return nil, errors.New(errors.PropertyType, "property '%s' (%s) does not allow option '%s'", p.Name, p.Type, v)
		}
		return v, nil
	case PropertyTypeMultiSelect:
		vals, err := cast.ToStringSliceE(value)
		if err != nil {
			return nil, errors.New(errors.PropertyType, "property '%s' (multi_select) requires a string list value, got %T", p.Name, value)
		}
		if len(p.Options) > 0 {
			for _, v := range vals {
				if !lo.Contains(p.Options, v) {
					return nil, errors.New(errors.PropertyType, "property '%s' (multi_select) does not allow option '%s'", p.Name, v)
				}
			}
		}
		return vals, nil
	case PropertyTypeDate:
		switch v := value.(type) {
		case time.Time:
			return v, nil
		case string:
			t, err := time.Parse(time.RFC3339, v)
			if err != nil {
				return nil, errors.New(errors.PropertyType, "property '%s' (date) requires an RFC3339 value: %s", p.Name, v)
			}
			return t, nil
		default:
			return nil, errors.New(errors.PropertyType, "property '%s' (date) requires a time or RFC3339 string value, got %T", p.Name, value)
		}
	case PropertyTypePeople, PropertyTypeFiles, PropertyTypeRelation:
		vals, err := cast.ToStringSliceE(value)
		if err != nil {
			return nil, errors.New(errors.PropertyType, "property '%s' (%s) requires a string list value, got %T", p.Name, p.Type, value)
		}
		return vals, nil
	}
	return nil, errors.New(errors.PropertyType, "property '%s' has unsupported type '%s'", p.Name, p.Type)
}

// decodeWire decodes the wire-shaped property value ({"<type-tag>": payload})
// into its native form
func (p Property) decodeWire(value gjson.Result) (any, error) {
	payload := value.Get(string(p.Type))
	if !payload.Exists() {
		return nil, errors.New(errors.PropertyType, "property '%s' is missing its '%s' payload", p.Name, p.Type)
	}
	switch p.Type {
	case PropertyTypeTitle, PropertyTypeRichText, PropertyTypeURL, PropertyTypeEmail, PropertyTypePhoneNumber, PropertyTypeSelect, PropertyTypeStatus:
		return payload.String(), nil
	case PropertyTypeNumber:
		return payload.Float(), nil
	case PropertyTypeCheckbox:
		return payload.Bool(), nil
	case PropertyTypeMultiSelect, PropertyTypePeople, PropertyTypeFiles, PropertyTypeRelation:
		return cast.ToStringSlice(payload.Value()), nil
	case PropertyTypeDate, PropertyTypeCreatedTime, PropertyTypeLastEditedTime:
		t, err := time.Parse(time.RFC3339, payload.String())
		if err != nil {
			return nil, errors.New(errors.PropertyType, "property '%s' (%s) has a non-RFC3339 payload: %s", p.Name, p.Type, payload.String())
		}
		return t, nil
	}
	return payload.Value(), nil
}

// encodeWire encodes a coerced native value into its wire shape
func (p Property) encodeWire(value any) map[string]any {
	if t, ok := value.(time.Time); ok {
		return map[string]any{string(p.Type): t.Format(time.RFC3339)}
	}
	return map[string]any{string(p.Type): value}
}

// Schema is an immutable, ordered mapping of property names to their declared
// types for one remote collection. A Schema is safe to share by reference
// across records.
type Schema struct {
	props map[string]Property
	order []string
}

// NewSchema creates a Schema from the given ordered property declarations
func NewSchema(properties ...Property) (*Schema, error) {
	s := &Schema{props: map[string]Property{}}
	for _, p := range properties {
		if err := util.ValidateStruct(&p); err != nil {
			return nil, err
		}
		if !lo.Contains(propertyTypes, p.Type) {
			return nil, errors.New(errors.Validation, "schema property '%s' has unknown type '%s'", p.Name, p.Type)
		}
		if _, ok := s.props[p.Name]; ok {
			return nil, errors.New(errors.Validation, "schema property '%s' is declared more than once", p.Name)
		}
		s.props[p.Name] = p
		s.order = append(s.order, p.Name)
	}
	return s, nil
}

// SchemaFromYAML creates a Schema from a yaml (or json) declaration of the shape:
//
//	properties:
//	  - name: Title
//	    type: title
//	  - name: Priority
//	    type: select
//	    options: [Low, Medium, High]
func SchemaFromYAML(content []byte) (*Schema, error) {
	jsonContent, err := util.YAMLToJSON(content)
	if err != nil {
		return nil, errors.Wrap(err, errors.Validation, "failed to parse schema yaml")
	}
	var decl struct {
		Properties []Property `json:"properties"`
	}
	if err := util.Decode(cast.ToStringMap(gjson.ParseBytes(jsonContent).Value()), &decl); err != nil {
		return nil, errors.Wrap(err, errors.Validation, "failed to decode schema declaration")
	}
	return NewSchema(decl.Properties...)
}

// Property returns the declared property with the given name
func (s *Schema) Property(name string) (Property, bool) {
	if s == nil {
		return Property{}, false
	}
	p, ok := s.props[name]
	return p, ok
}

// Has returns true if the schema declares a property with the given name
func (s *Schema) Has(name string) bool {
	_, ok := s.Property(name)
	return ok
}

// Properties returns the declared properties in registration order
func (s *Schema) Properties() []Property {
	if s == nil {
		return nil
	}
	return lo.Map(s.order, func(name string, _ int) Property {
		return s.props[name]
	})
}

// Len returns the number of declared properties
func (s *Schema) Len() int {
	if s == nil {
		return 0
	}
	return len(s.order)
}
