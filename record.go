package pagekit

import (
	"encoding/json"
	"io"
	"strings"
	"time"

	"github.com/autom8ter/pagekit/errors"
	"github.com/autom8ter/pagekit/util"
	flat2 "github.com/nqd/flat"
	"github.com/samber/lo"
	"github.com/spf13/cast"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// Record is a raw record fetched from a remote collection: an opaque JSON
// document carrying an id, created/last-edited timestamps and a properties
// bag keyed by property name, each value tagged with its type
// ({"<property-name>": {"<type-tag>": payload}}).
type Record struct {
	result gjson.Result
}

// NewRecord creates a new empty record
func NewRecord() *Record {
	return &Record{result: gjson.Parse("{}")}
}

// NewRecordFromBytes creates a new record from the given json bytes
func NewRecordFromBytes(jsonBytes []byte) (*Record, error) {
	if !gjson.ValidBytes(jsonBytes) {
		return nil, errors.New(errors.Validation, "invalid json: %s", string(jsonBytes))
	}
	r := &Record{result: gjson.ParseBytes(jsonBytes)}
	if !r.Valid() {
		return nil, errors.New(errors.Validation, "invalid record")
	}
	return r, nil
}

// NewRecordFrom creates a new record from the given value - the value must be json compatible
func NewRecordFrom(value any) (*Record, error) {
	bits, err := json.Marshal(value)
	if err != nil {
		return nil, errors.New(errors.Validation, "failed to json encode value: %#v", value)
	}
	return NewRecordFromBytes(bits)
}

// UnmarshalJSON satisfies the json Unmarshaler interface
func (r *Record) UnmarshalJSON(bits []byte) error {
	rec, err := NewRecordFromBytes(bits)
	if err != nil {
		return err
	}
	*r = *rec
	return nil
}

// MarshalJSON satisfies the json Marshaler interface
func (r *Record) MarshalJSON() ([]byte, error) {
	return r.Bytes(), nil
}

// Valid returns whether the record is a valid json object
func (r *Record) Valid() bool {
	return gjson.ValidBytes(r.Bytes()) && !r.result.IsArray()
}

// String returns the record as a json string
func (r *Record) String() string {
	return r.result.Raw
}

// Bytes returns the record as json bytes
func (r *Record) Bytes() []byte {
	return []byte(r.result.Raw)
}

// Value returns the record as a map
func (r *Record) Value() map[string]any {
	return cast.ToStringMap(r.result.Value())
}

// Clone allocates a new record with identical values
func (r *Record) Clone() *Record {
	return &Record{result: gjson.Parse(r.result.Raw)}
}

// ID returns the record's opaque id assigned by the remote collection
func (r *Record) ID() string {
	return r.result.Get("id").String()
}

// CreatedTime returns the record's creation timestamp, or the zero time if absent
func (r *Record) CreatedTime() time.Time {
	t, _ := time.Parse(time.RFC3339, r.result.Get("created_time").String())
	return t
}

// LastEditedTime returns the record's last-edited timestamp, or the zero time if absent
func (r *Record) LastEditedTime() time.Time {
	t, _ := time.Parse(time.RFC3339, r.result.Get("last_edited_time").String())
	return t
}

// Properties returns the raw properties bag
func (r *Record) Properties() gjson.Result {
	return r.result.Get("properties")
}

// Property returns the raw wire value of the named property
func (r *Record) Property(name string) gjson.Result {
	return r.result.Get("properties." + escapePath(name))
}

// Get gets a field on the record. Get has GJSON syntax support and supports dot notation
func (r *Record) Get(field string) any {
	return r.result.Get(field).Value()
}

// GetString gets a string field value on the record
func (r *Record) GetString(field string) string {
	return r.result.Get(field).String()
}

// GetBool gets a bool field value on the record
func (r *Record) GetBool(field string) bool {
	return cast.ToBool(r.Get(field))
}

// GetFloat gets a float field value on the record
func (r *Record) GetFloat(field string) float64 {
	return cast.ToFloat64(r.Get(field))
}

// Set sets a field on the record. Dot notation is supported.
func (r *Record) Set(field string, val any) error {
	return r.SetAll(map[string]any{
		field: val,
	})
}

func (r *Record) set(field string, val any) error {
	var (
		result string
		err    error
	)
	switch val := val.(type) {
	case gjson.Result:
		result, err = sjson.Set(r.result.Raw, field, val.Value())
	case []byte:
		result, err = sjson.SetRaw(r.result.Raw, field, string(val))
	default:
		result, err = sjson.Set(r.result.Raw, field, val)
	}
	if err != nil {
		return err
	}
	if !gjson.Valid(result) {
		return errors.New(errors.Validation, "invalid record")
	}
	r.result = gjson.Parse(result)
	return nil
}

// SetAll sets all fields on the record. Dot notation is supported.
func (r *Record) SetAll(values map[string]any) error {
	var err error
	for k, v := range values {
		err = r.set(k, v)
		if err != nil {
			return err
		}
	}
	return nil
}

// Del deletes a field from the record
func (r *Record) Del(field string) error {
	result, err := sjson.Delete(r.result.Raw, field)
	if err != nil {
		return err
	}
	r.result = gjson.Parse(result)
	return nil
}

// Merge merges the record with the provided record. This is not an overwrite.
func (r *Record) Merge(with *Record) error {
	if !with.Valid() {
		return errors.New(errors.Validation, "invalid record")
	}
	withMap := with.Value()
	flattened, err := flat2.Flatten(withMap, nil)
	if err != nil {
		return err
	}
	return r.SetAll(flattened)
}

// Scan scans the record into the value based on json tags
func (r *Record) Scan(value any) error {
	return util.Decode(r.Value(), &value)
}

// Encode encodes the record to the io writer
func (r *Record) Encode(w io.Writer) error {
	_, err := w.Write(r.Bytes())
	return errors.Wrap(err, errors.Internal, "failed to encode record")
}

// escapePath escapes gjson/sjson path control characters in a property name
func escapePath(name string) string {
	replacer := strings.NewReplacer(".", `\.`, "*", `\*`, "?", `\?`)
	return replacer.Replace(name)
}

// Records is an array of records
type Records []*Record

// Slice slices the records into a subarray of records
func (records Records) Slice(start, end int) Records {
	return lo.Slice[*Record](records, start, end)
}

// Filter applies the filter function against the records
func (records Records) Filter(predicate func(record *Record, i int) bool) Records {
	return lo.Filter[*Record](records, predicate)
}

// Map applies the mapper function against the records
func (records Records) Map(mapper func(record *Record, i int) *Record) Records {
	return lo.Map[*Record, *Record](records, mapper)
}

// ForEach applies the function to each record in the records
func (records Records) ForEach(fn func(next *Record, i int)) {
	lo.ForEach[*Record](records, fn)
}
