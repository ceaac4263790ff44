package pagekit

import (
	"context"

	"github.com/autom8ter/pagekit/errors"
	"github.com/autom8ter/pagekit/util"
)

// defaultPageSize is the server-side page size hint used when the caller does
// not set one
const defaultPageSize = 100

// maxPageSize is the largest page size hint accepted by the remote API
const maxPageSize = 100

// Query is the compiled wire payload for one query against a remote
// collection. Compiling the same builder state twice yields byte-for-byte
// identical payloads.
type Query struct {
	// Filter is the root of the filter tree
	Filter Filter `json:"filter,omitempty"`
	// Sorts is the ordered multi-key sort - first clause has highest priority
	Sorts []OrderBy `json:"sorts,omitempty" validate:"dive"`
	// PageSize is the server-side page size hint - distinct from the caller's total limit
	PageSize int `json:"page_size,omitempty" validate:"min=0,max=100"`
	// StartCursor is the opaque continuation token carried between page fetches
	StartCursor string `json:"start_cursor,omitempty"`
}

// Validate validates the query and returns a validation error if one exists
func (q Query) Validate() error {
	if err := util.ValidateStruct(&q); err != nil {
		return err
	}
	for _, s := range q.Sorts {
		if s.Property == "" && s.Timestamp == "" {
			return errors.New(errors.Validation, "sort clause requires a property or timestamp target")
		}
		if s.Property != "" && s.Timestamp != "" {
			return errors.New(errors.Validation, "sort clause cannot target both a property and a timestamp")
		}
	}
	return nil
}

// QueryBuilder accumulates filters, sorts and limits via chainable methods and
// compiles them into a Query. Repeated Where calls combine into a single
// flattened top-level "and" group; explicit OR grouping goes through WhereAny.
// The first validation error encountered sticks and is surfaced by
// Compile/Execute. A QueryBuilder is owned by a single caller and is not safe
// for concurrent use.
type QueryBuilder struct {
	collection *Collection
	filters    []Filter
	sorts      []OrderBy
	pageSize   int
	limit      int
	cursor     string
	err        error
}

// Where appends a property filter validated against the collection schema,
// AND-combined with any existing filters
func (q *QueryBuilder) Where(property string, c Condition) *QueryBuilder {
	if q.err != nil {
		return q
	}
	if q.collection.schema == nil {
		q.err = errors.New(errors.Validation, "collection '%s' has no schema; use WhereFilter with an explicit property type", q.collection.id)
		return q
	}
	f, err := q.collection.schema.Filter(property, c)
	if err != nil {
		q.err = err
		return q
	}
	q.filters = append(q.filters, f)
	return q
}

// WhereTimestamp appends a created/last-edited timestamp filter, AND-combined
// with any existing filters
func (q *QueryBuilder) WhereTimestamp(kind TimestampKind, c Condition) *QueryBuilder {
	if q.err != nil {
		return q
	}
	f, err := NewTimestampFilter(kind, c)
	if err != nil {
		q.err = err
		return q
	}
	q.filters = append(q.filters, f)
	return q
}

// WhereFilter appends a pre-built filter without schema validation - the
// escape hatch for dynamic collections
func (q *QueryBuilder) WhereFilter(f Filter) *QueryBuilder {
	if q.err != nil {
		return q
	}
	if f == nil {
		q.err = errors.New(errors.Validation, "nil filter")
		return q
	}
	q.filters = append(q.filters, f)
	return q
}

// WhereAny appends an explicit OR group of the given filters as a sibling of
// any existing AND clauses. Mixing AND and OR at the same level without
// explicit grouping is rejected rather than guessing precedence, so OR always
// arrives through this method (or a pre-built Or filter).
func (q *QueryBuilder) WhereAny(filters ...Filter) *QueryBuilder {
	if q.err != nil {
		return q
	}
	if len(filters) < 2 {
		q.err = errors.New(errors.Validation, "WhereAny requires at least two filters")
		return q
	}
	q.filters = append(q.filters, Or(filters...))
	return q
}

// OrderBy appends a property sort clause - repeated calls define an ordered
// multi-key sort
func (q *QueryBuilder) OrderBy(property string, direction OrderByDirection) *QueryBuilder {
	if q.err != nil {
		return q
	}
	if q.collection.schema != nil && !q.collection.schema.Has(property) {
		q.err = errors.New(errors.UnknownProperty, "unknown property: '%s'", property)
		return q
	}
	q.sorts = append(q.sorts, OrderBy{Property: property, Direction: direction})
	return q
}

// OrderByTimestamp appends a timestamp sort clause
func (q *QueryBuilder) OrderByTimestamp(kind TimestampKind, direction OrderByDirection) *QueryBuilder {
	if q.err != nil {
		return q
	}
	if kind != TimestampCreatedTime && kind != TimestampLastEditedTime {
		q.err = errors.New(errors.Validation, "unknown timestamp kind: '%s'", kind)
		return q
	}
	q.sorts = append(q.sorts, OrderBy{Timestamp: kind, Direction: direction})
	return q
}

// Limit caps the total number of records yielded across all pages. The cap is
// enforced by the iterator, which stops fetching once it is reached.
func (q *QueryBuilder) Limit(n int) *QueryBuilder {
	if q.err != nil {
		return q
	}
	if n <= 0 {
		q.err = errors.New(errors.Validation, "limit must be greater than zero, got %d", n)
		return q
	}
	q.limit = n
	return q
}

// PageSize sets the server-side page size hint (1..100). This controls batch
// granularity only - use Limit to cap total results.
func (q *QueryBuilder) PageSize(n int) *QueryBuilder {
	if q.err != nil {
		return q
	}
	if n <= 0 || n > maxPageSize {
		q.err = errors.New(errors.Validation, "page size must be between 1 and %d, got %d", maxPageSize, n)
		return q
	}
	q.pageSize = n
	return q
}

// StartAt sets the start cursor for the first page fetch
func (q *QueryBuilder) StartAt(cursor string) *QueryBuilder {
	if q.err != nil {
		return q
	}
	q.cursor = cursor
	return q
}

// Err returns the builder's sticky validation error, if any
func (q *QueryBuilder) Err() error {
	return q.err
}

// Compile compiles the builder state into its wire payload. Compilation is
// deterministic: identical builder state produces identical bytes.
func (q *QueryBuilder) Compile() (Query, error) {
	if q.err != nil {
		return Query{}, q.err
	}
	pageSize := q.pageSize
	if pageSize == 0 {
		pageSize = q.collection.pageSize
	}
	compiled := Query{
		Filter:      And(q.filters...),
		Sorts:       q.sorts,
		PageSize:    pageSize,
		StartCursor: q.cursor,
	}
	if err := compiled.Validate(); err != nil {
		return Query{}, err
	}
	return compiled, nil
}

// Execute compiles the query and returns a lazy iterator over the matching raw
// records. No fetch is issued until the first Next call. Re-executing creates
// a fresh iterator with fresh cursor state.
func (q *QueryBuilder) Execute(ctx context.Context) (*Iterator, error) {
	compiled, err := q.Compile()
	if err != nil {
		return nil, err
	}
	q.collection.logger.Debug(ctx, "executing query", map[string]any{
		"collection": q.collection.id,
		"query":      util.JSONString(compiled),
	})
	return newIterator(q.collection.remote, q.collection.logger, q.collection.id, compiled, q.limit), nil
}

// First executes the query with a page size hint of one and returns the first
// matching raw record, or nil if the result set is empty. An empty result is
// not an error.
func (q *QueryBuilder) First(ctx context.Context) (*Record, error) {
	if q.err != nil {
		return nil, q.err
	}
	first := *q
	first.pageSize = 1
	it, err := first.Execute(ctx)
	if err != nil {
		return nil, err
	}
	rec, err := it.Next(ctx)
	if err == Done {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// FirstEntry is like First but binds the record to the collection schema
func (q *QueryBuilder) FirstEntry(ctx context.Context) (*Entry, error) {
	rec, err := q.First(ctx)
	if err != nil || rec == nil {
		return nil, err
	}
	return q.collection.Bind(rec)
}

// Count executes the query and drains the iterator, returning the total
// number of matching records (capped by Limit if one is set)
func (q *QueryBuilder) Count(ctx context.Context) (int, error) {
	it, err := q.Execute(ctx)
	if err != nil {
		return 0, err
	}
	count := 0
	for {
		_, err := it.Next(ctx)
		if err == Done {
			return count, nil
		}
		if err != nil {
			return count, err
		}
		count++
	}
}
