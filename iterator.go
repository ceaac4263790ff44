package pagekit

import (
	"context"

	"github.com/autom8ter/pagekit/errors"
)

// Done is returned by Iterator.Next when no more records remain. It is a
// sentinel - compare with == rather than unwrapping.
var Done = errors.New(errors.NotFound, "iterator: no more records")

type iteratorState int

const (
	// stateFetching - more pages may be available; the next pull may issue a fetch
	stateFetching iteratorState = iota
	// stateExhausted - terminal; no further fetches are issued
	stateExhausted
)

// Iterator is a pull-based, forward-only sequence of raw records spanning
// pagination boundaries. It is lazy - no fetch occurs until the first Next
// call - and finite, bounded by remote exhaustion or the query's total limit.
// An Iterator is not restartable: re-invoke QueryBuilder.Execute for a fresh
// cursor state. An abandoned Iterator holds no resources requiring release.
//
// An Iterator is owned by a single caller and is not safe for concurrent use.
type Iterator struct {
	remote     Querier
	logger     Logger
	collection string
	query      Query
	limit      int
	state      iteratorState
	buf        Records
	idx        int
	cursor     string
	yielded    int
	pages      int
}

func newIterator(remote Querier, logger Logger, collection string, query Query, limit int) *Iterator {
	return &Iterator{
		remote:     remote,
		logger:     logger,
		collection: collection,
		query:      query,
		limit:      limit,
		state:      stateFetching,
		cursor:     query.StartCursor,
	}
}

// Next returns the next record in the sequence, fetching the next page from
// the remote collection when the current batch is drained. It returns Done at
// exhaustion and a RemoteFetch error (carrying the records-yielded count in
// its metadata) if a page fetch fails. Records already yielded remain valid
// after a failure; no retry is attempted.
func (it *Iterator) Next(ctx context.Context) (*Record, error) {
	if it.limit > 0 && it.yielded >= it.limit {
		it.state = stateExhausted
		return nil, Done
	}
	for it.idx >= len(it.buf) {
		if it.state == stateExhausted {
			return nil, Done
		}
		if err := it.fetch(ctx); err != nil {
			return nil, err
		}
	}
	rec := it.buf[it.idx]
	it.idx++
	it.yielded++
	return rec, nil
}

func (it *Iterator) fetch(ctx context.Context) error {
	query := it.query
	query.StartCursor = it.cursor
	page, err := it.remote.Query(ctx, it.collection, query)
	if err != nil {
		it.state = stateExhausted
		return errors.Extract(errors.Wrap(err, errors.RemoteFetch, "page fetch failed against collection '%s'", it.collection)).
			WithMeta("records_yielded", it.yielded)
	}
	it.buf = page.Records
	it.idx = 0
	it.cursor = page.NextCursor
	it.pages++
	if !page.HasMore {
		it.state = stateExhausted
	}
	it.logger.Debug(ctx, "loaded page", map[string]any{
		"collection":  it.collection,
		"page":        it.pages,
		"records":     len(page.Records),
		"has_more":    page.HasMore,
		"next_cursor": page.NextCursor,
	})
	return nil
}

// All drains the iterator and returns every remaining record
func (it *Iterator) All(ctx context.Context) (Records, error) {
	var records Records
	for {
		rec, err := it.Next(ctx)
		if err == Done {
			return records, nil
		}
		if err != nil {
			return records, err
		}
		records = append(records, rec)
	}
}

// ForEach applies fn to each remaining record - returning false from fn stops
// iteration early
func (it *Iterator) ForEach(ctx context.Context, fn func(record *Record) bool) error {
	for {
		rec, err := it.Next(ctx)
		if err == Done {
			return nil
		}
		if err != nil {
			return err
		}
		if !fn(rec) {
			return nil
		}
	}
}

// Yielded returns the number of records yielded so far
func (it *Iterator) Yielded() int {
	return it.yielded
}

// PageCount returns the number of page fetches issued so far
func (it *Iterator) PageCount() int {
	return it.pages
}
