package pagekit

import (
	"context"
	"time"

	"github.com/autom8ter/pagekit/errors"
	"github.com/spf13/cast"
	"github.com/tidwall/gjson"
)

// Entry is a schema-typed record bound to one remote collection. Bound entries
// come from fetched raw records; new entries come from Collection.NewEntry and
// have no remote id until committed. Commit is never implicit - dropping an
// Entry discards uncommitted mutations with no side effects.
//
// An Entry is owned by a single caller and is not safe for concurrent use.
type Entry struct {
	collection     *Collection
	binding        *Binding
	record         *Record
	id             string
	createdTime    time.Time
	lastEditedTime time.Time
}

// ID returns the record's opaque remote id, or "" for an uncommitted new entry
func (e *Entry) ID() string {
	return e.id
}

// CreatedTime returns the remote creation timestamp - read-only, refreshed
// only by remote reload
func (e *Entry) CreatedTime() time.Time {
	return e.createdTime
}

// LastEditedTime returns the remote last-edited timestamp - read-only,
// refreshed only by remote reload
func (e *Entry) LastEditedTime() time.Time {
	return e.lastEditedTime
}

// Persisted returns true once the entry has a remote identity
func (e *Entry) Persisted() bool {
	return e.record != nil
}

// Get returns the current native value of the named property
func (e *Entry) Get(name string) (any, error) {
	return e.binding.Get(name)
}

// GetString returns the named property as a string
func (e *Entry) GetString(name string) string {
	v, _ := e.binding.Get(name)
	return cast.ToString(v)
}

// GetFloat returns the named property as a float
func (e *Entry) GetFloat(name string) float64 {
	v, _ := e.binding.Get(name)
	return cast.ToFloat64(v)
}

// GetBool returns the named property as a bool
func (e *Entry) GetBool(name string) bool {
	v, _ := e.binding.Get(name)
	return cast.ToBool(v)
}

// GetTime returns the named property as a time
func (e *Entry) GetTime(name string) time.Time {
	v, _ := e.binding.Get(name)
	return cast.ToTime(v)
}

// Set validates and stores a property value, marking it for write-back on the
// next Commit
func (e *Entry) Set(name string, value any) error {
	return e.binding.Set(name, value)
}

// SetAll sets each of the given property values, stopping at the first failure
func (e *Entry) SetAll(values map[string]any) error {
	for name, value := range values {
		if err := e.binding.Set(name, value); err != nil {
			return err
		}
	}
	return nil
}

// Raw returns the named property's nested wire value from the underlying raw
// record - the escape hatch for advanced callers. Reads never mark the
// property dirty. New entries have no raw record and return a zero result.
func (e *Entry) Raw(name string) gjson.Result {
	if e.record == nil {
		return gjson.Result{}
	}
	return e.record.Property(name)
}

// Record returns the underlying raw record, or nil for an uncommitted new entry
func (e *Entry) Record() *Record {
	return e.record
}

// Dirty returns the sorted names of properties mutated since load or last commit
func (e *Entry) Dirty() []string {
	return e.binding.Dirty()
}

// Commit pushes local mutations to the remote collection. A new entry issues
// one create call with all set properties and adopts the returned remote
// identity; a bound entry with dirty properties issues one partial update; a
// bound entry with nothing dirty is a no-op and issues no call. On failure the
// dirty set is preserved so retrying Commit is safe.
func (e *Entry) Commit(ctx context.Context) error {
	if e.record == nil {
		rec, err := e.collection.remote.Create(ctx, e.collection.id, e.binding.Snapshot())
		if err != nil {
			return errors.Wrap(err, errors.RemoteWrite, "failed to create record in collection '%s'", e.collection.id)
		}
		return e.adopt(rec)
	}
	if !e.binding.IsDirty() {
		return nil
	}
	rec, err := e.collection.remote.Update(ctx, e.id, e.binding.Snapshot())
	if err != nil {
		return errors.Wrap(err, errors.RemoteWrite, "failed to update record '%s'", e.id)
	}
	return e.adopt(rec)
}

// Refresh discards all local uncommitted mutations and re-binds the entry
// from a fresh remote fetch. This is a deliberate last-write-wins-locally
// policy: there is no merge.
func (e *Entry) Refresh(ctx context.Context) error {
	if e.record == nil {
		return errors.New(errors.Validation, "cannot refresh an entry that has never been committed")
	}
	rec, err := e.collection.remote.Retrieve(ctx, e.id)
	if err != nil {
		return errors.Wrap(err, errors.RemoteFetch, "failed to refresh record '%s'", e.id)
	}
	return e.adopt(rec)
}

// adopt re-binds the entry to a freshly fetched raw record, discarding local
// state and clearing the dirty set
func (e *Entry) adopt(rec *Record) error {
	binding, err := BindRecord(e.collection.schema, rec)
	if err != nil {
		return err
	}
	e.record = rec
	e.binding = binding
	e.id = rec.ID()
	e.createdTime = rec.CreatedTime()
	e.lastEditedTime = rec.LastEditedTime()
	return nil
}
