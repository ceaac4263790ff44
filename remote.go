package pagekit

import "context"

// Page is one batch of raw records returned by a Querier along with its
// continuation state
type Page struct {
	// Records are the raw records that make up the page
	Records Records `json:"records"`
	// HasMore indicates that more pages are available
	HasMore bool `json:"has_more"`
	// NextCursor is the opaque continuation token for the next page
	NextCursor string `json:"next_cursor,omitempty"`
}

// Querier is the remote collection endpoint capability consumed by the
// pagination engine. Implementations own transport, authentication, timeouts
// and retry policy - the engine performs no retries of its own.
type Querier interface {
	// Query executes one page fetch against the given collection
	Query(ctx context.Context, collection string, query Query) (*Page, error)
}

// Writer is the remote create/update capability consumed by Entry.Commit
type Writer interface {
	// Create creates a record in the given collection from wire-shaped properties
	Create(ctx context.Context, collection string, properties map[string]any) (*Record, error)
	// Update applies a partial wire-shaped property update to an existing record
	Update(ctx context.Context, recordID string, properties map[string]any) (*Record, error)
}

// Fetcher is the remote record retrieval capability consumed by Entry.Refresh
// and Collection.Get
type Fetcher interface {
	// Retrieve fetches a single record by id
	Retrieve(ctx context.Context, recordID string) (*Record, error)
}

// Remote is the full remote collection capability
type Remote interface {
	Querier
	Writer
	Fetcher
}
