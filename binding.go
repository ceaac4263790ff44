package pagekit

import (
	"sort"

	"github.com/autom8ter/pagekit/errors"
)

// Binding maps a schema-constrained set of named properties onto typed get/set
// accessors over a raw property bag, tracking which properties were mutated
// since load for selective write-back. The schema is shared by reference; the
// values and dirty set are exclusively owned by one record instance.
type Binding struct {
	schema *Schema
	values map[string]any
	dirty  map[string]struct{}
}

// NewBinding creates an empty Binding over the given schema
func NewBinding(schema *Schema) *Binding {
	return &Binding{
		schema: schema,
		values: map[string]any{},
		dirty:  map[string]struct{}{},
	}
}

// BindRecord creates a Binding populated from the raw record's property bag.
// Properties absent from the record are left unset; the dirty set starts
// empty.
func BindRecord(schema *Schema, rec *Record) (*Binding, error) {
	b := NewBinding(schema)
	for _, p := range schema.Properties() {
		raw := rec.Property(p.Name)
		if !raw.Exists() {
			continue
		}
		v, err := p.decodeWire(raw)
		if err != nil {
			return nil, err
		}
		b.values[p.Name] = v
	}
	return b, nil
}

// Get returns the current native value of the named property, or nil if the
// property is declared but unset. It returns an UnknownProperty error for
// names absent from the schema. Reads never mark the property dirty.
func (b *Binding) Get(name string) (any, error) {
	if !b.schema.Has(name) {
		return nil, errors.New(errors.UnknownProperty, "unknown property: '%s'", name)
	}
	return b.values[name], nil
}

// Set validates the value against the property's declared type (including
// enumerated-option membership for select properties), stores its canonical
// form and marks the property dirty. On failure the stored value and dirty
// set are left unchanged.
func (b *Binding) Set(name string, value any) error {
	p, ok := b.schema.Property(name)
	if !ok {
		return errors.New(errors.UnknownProperty, "unknown property: '%s'", name)
	}
	coerced, err := p.Coerce(value)
	if err != nil {
		return err
	}
	b.values[name] = coerced
	b.dirty[name] = struct{}{}
	return nil
}

// IsSet returns true if the named property currently holds a value
func (b *Binding) IsSet(name string) bool {
	_, ok := b.values[name]
	return ok
}

// Dirty returns the sorted names of properties mutated since load or since
// the last ClearDirty
func (b *Binding) Dirty() []string {
	names := make([]string, 0, len(b.dirty))
	for name := range b.dirty {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsDirty returns true if any property has been mutated since load or since
// the last ClearDirty
func (b *Binding) IsDirty() bool {
	return len(b.dirty) > 0
}

// Snapshot returns only the dirty properties in the wire shape expected for a
// partial update: {"<name>": {"<type-tag>": payload}}
func (b *Binding) Snapshot() map[string]any {
	snapshot := map[string]any{}
	for name := range b.dirty {
		p, _ := b.schema.Property(name)
		snapshot[name] = p.encodeWire(b.values[name])
	}
	return snapshot
}

// ClearDirty empties the dirty set - called only after a successful remote
// write-back
func (b *Binding) ClearDirty() {
	b.dirty = map[string]struct{}{}
}

// Schema returns the shared schema backing this binding
func (b *Binding) Schema() *Schema {
	return b.schema
}
