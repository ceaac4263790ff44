package pagekit

import (
	"context"

	"github.com/autom8ter/pagekit/errors"
)

// Collection binds a declared schema to a remote collection id and the remote
// capability used to query and mutate it. The schema is immutable after
// construction and shared by reference across every Entry bound to the
// collection.
type Collection struct {
	id       string
	schema   *Schema
	remote   Remote
	logger   Logger
	pageSize int
}

// CollectionOpt is an option for configuring a collection
type CollectionOpt func(c *Collection)

// WithLogger sets the collection's structured logger
func WithLogger(logger Logger) CollectionOpt {
	return func(c *Collection) {
		c.logger = logger
	}
}

// WithPageSize sets the default server-side page size hint for queries
// against the collection
func WithPageSize(pageSize int) CollectionOpt {
	return func(c *Collection) {
		c.pageSize = pageSize
	}
}

// NewCollection creates a Collection bound to the given remote collection id.
// A nil schema creates a dynamic collection: queries skip operator validation
// (filters go through WhereFilter) and raw records cannot be bound to entries.
func NewCollection(id string, schema *Schema, remote Remote, opts ...CollectionOpt) (*Collection, error) {
	if id == "" {
		return nil, errors.New(errors.Validation, "empty collection id")
	}
	if remote == nil {
		return nil, errors.New(errors.Validation, "collection '%s' requires a remote", id)
	}
	c := &Collection{
		id:       id,
		schema:   schema,
		remote:   remote,
		logger:   noopLogger{},
		pageSize: defaultPageSize,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.pageSize <= 0 || c.pageSize > maxPageSize {
		return nil, errors.New(errors.Validation, "collection '%s' page size must be between 1 and %d", id, maxPageSize)
	}
	return c, nil
}

// ID returns the remote collection id
func (c *Collection) ID() string {
	return c.id
}

// Schema returns the collection's declared schema, or nil for a dynamic collection
func (c *Collection) Schema() *Schema {
	return c.schema
}

// Query returns a new QueryBuilder against the collection
func (c *Collection) Query() *QueryBuilder {
	return &QueryBuilder{collection: c}
}

// NewEntry returns a new unsaved entry - it has no remote identity until
// committed, and every property set before the first Commit is included in
// the create request
func (c *Collection) NewEntry() *Entry {
	return &Entry{
		collection: c,
		binding:    NewBinding(c.schema),
	}
}

// Bind adapts a raw fetched record into a schema-typed Entry with an empty
// dirty set
func (c *Collection) Bind(rec *Record) (*Entry, error) {
	if c.schema == nil {
		return nil, errors.New(errors.Validation, "collection '%s' has no schema; cannot bind records", c.id)
	}
	e := &Entry{collection: c}
	if err := e.adopt(rec); err != nil {
		return nil, err
	}
	return e, nil
}

// BindAll adapts each raw record into an Entry
func (c *Collection) BindAll(records Records) ([]*Entry, error) {
	entries := make([]*Entry, 0, len(records))
	for _, rec := range records {
		e, err := c.Bind(rec)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// Get fetches a single record by id and binds it to the collection schema
func (c *Collection) Get(ctx context.Context, id string) (*Entry, error) {
	rec, err := c.remote.Retrieve(ctx, id)
	if err != nil {
		if errors.Is(err, errors.NotFound) {
			return nil, err
		}
		return nil, errors.Wrap(err, errors.RemoteFetch, "failed to get record '%s'", id)
	}
	return c.Bind(rec)
}
