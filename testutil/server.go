package testutil

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/autom8ter/pagekit"
	"github.com/autom8ter/pagekit/errors"
	"github.com/segmentio/ksuid"
	"github.com/spf13/cast"
	"github.com/tidwall/gjson"
)

// Server is an in-memory Remote that evaluates filters, applies multi-key
// sorts and paginates with opaque offset cursors. It records call counts so
// tests can assert how many round trips an operation issued.
type Server struct {
	records      map[string]pagekit.Records
	collectionOf map[string]string

	QueryCalls    int
	CreateCalls   int
	UpdateCalls   int
	RetrieveCalls int
	lastQuery     *pagekit.Query

	// QueryErr fails every Query call when set
	QueryErr error
	// WriteErr fails every Create/Update call when set
	WriteErr error
}

// NewServer creates an empty in-memory server
func NewServer() *Server {
	return &Server{
		records:      map[string]pagekit.Records{},
		collectionOf: map[string]string{},
	}
}

// Query executes one page fetch: filter, sort, then slice by cursor/page size
func (s *Server) Query(ctx context.Context, collection string, query pagekit.Query) (*pagekit.Page, error) {
	s.QueryCalls++
	s.lastQuery = &query
	if s.QueryErr != nil {
		return nil, s.QueryErr
	}
	matched := s.records[collection].Filter(func(rec *pagekit.Record, _ int) bool {
		return matches(rec, query.Filter)
	})
	sortRecords(matched, query.Sorts)

	start := 0
	if query.StartCursor != "" {
		start = cast.ToInt(query.StartCursor)
	}
	size := query.PageSize
	if size <= 0 {
		size = 100
	}
	end := start + size
	if end > len(matched) {
		end = len(matched)
	}
	if start > end {
		start = end
	}
	page := &pagekit.Page{
		Records: matched.Slice(start, end),
		HasMore: end < len(matched),
	}
	if page.HasMore {
		page.NextCursor = cast.ToString(end)
	}
	return page, nil
}

// LastQuery returns the payload of the most recent Query call, or nil if none
// has been made
func (s *Server) LastQuery() *pagekit.Query {
	return s.lastQuery
}

// Create creates a record with a generated id and server timestamps
func (s *Server) Create(ctx context.Context, collection string, properties map[string]any) (*pagekit.Record, error) {
	s.CreateCalls++
	if s.WriteErr != nil {
		return nil, s.WriteErr
	}
	now := time.Now().UTC().Format(time.RFC3339)
	rec, err := pagekit.NewRecordFrom(map[string]any{
		"id":               ksuid.New().String(),
		"created_time":     now,
		"last_edited_time": now,
		"properties":       properties,
	})
	if err != nil {
		return nil, err
	}
	s.records[collection] = append(s.records[collection], rec)
	s.collectionOf[rec.ID()] = collection
	return rec.Clone(), nil
}

// Update applies a partial property update to an existing record
func (s *Server) Update(ctx context.Context, recordID string, properties map[string]any) (*pagekit.Record, error) {
	s.UpdateCalls++
	if s.WriteErr != nil {
		return nil, s.WriteErr
	}
	rec, err := s.find(recordID)
	if err != nil {
		return nil, err
	}
	patch, err := pagekit.NewRecordFrom(map[string]any{"properties": properties})
	if err != nil {
		return nil, err
	}
	if err := rec.Merge(patch); err != nil {
		return nil, err
	}
	if err := rec.Set("last_edited_time", time.Now().UTC().Format(time.RFC3339)); err != nil {
		return nil, err
	}
	return rec.Clone(), nil
}

// Retrieve fetches a single record by id
func (s *Server) Retrieve(ctx context.Context, recordID string) (*pagekit.Record, error) {
	s.RetrieveCalls++
	rec, err := s.find(recordID)
	if err != nil {
		return nil, err
	}
	return rec.Clone(), nil
}

// SetProperty mutates a stored record directly, simulating a concurrent
// remote edit
func (s *Server) SetProperty(recordID string, name string, payload map[string]any) error {
	rec, err := s.find(recordID)
	if err != nil {
		return err
	}
	patch, err := pagekit.NewRecordFrom(map[string]any{"properties": map[string]any{name: payload}})
	if err != nil {
		return err
	}
	return rec.Merge(patch)
}

func (s *Server) find(recordID string) (*pagekit.Record, error) {
	collection, ok := s.collectionOf[recordID]
	if !ok {
		return nil, errors.New(errors.NotFound, "record '%s' does not exist", recordID)
	}
	for _, rec := range s.records[collection] {
		if rec.ID() == recordID {
			return rec, nil
		}
	}
	return nil, errors.New(errors.NotFound, "record '%s' does not exist", recordID)
}

// matches evaluates the filter tree against a record by walking the filter's
// wire shape
func matches(rec *pagekit.Record, f pagekit.Filter) bool {
	if f == nil {
		return true
	}
	bits, err := json.Marshal(f)
	if err != nil {
		return false
	}
	return matchNode(rec, gjson.ParseBytes(bits))
}

func matchNode(rec *pagekit.Record, node gjson.Result) bool {
	if and := node.Get("and"); and.Exists() {
		for _, child := range and.Array() {
			if !matchNode(rec, child) {
				return false
			}
		}
		return true
	}
	if or := node.Get("or"); or.Exists() {
		for _, child := range or.Array() {
			if matchNode(rec, child) {
				return true
			}
		}
		return false
	}
	if ts := node.Get("timestamp"); ts.Exists() {
		value := gjson.Parse(`"` + rec.GetString(ts.String()) + `"`)
		return matchCondition(value, node.Get(ts.String()))
	}
	if prop := node.Get("property"); prop.Exists() {
		var cond gjson.Result
		node.ForEach(func(key, value gjson.Result) bool {
			if key.String() != "property" {
				// the remaining key is the type tag holding the condition
				cond = value
			}
			return true
		})
		return matchCondition(payloadOf(rec.Property(prop.String())), cond)
	}
	return false
}

// payloadOf unwraps a wire property value ({"<type-tag>": payload}) to its payload
func payloadOf(value gjson.Result) gjson.Result {
	var payload gjson.Result
	value.ForEach(func(key, v gjson.Result) bool {
		payload = v
		return true
	})
	return payload
}

func matchCondition(value gjson.Result, cond gjson.Result) bool {
	result := true
	cond.ForEach(func(key, operand gjson.Result) bool {
		if !matchOp(value, pagekit.Op(key.String()), operand) {
			result = false
			return false
		}
		return true
	})
	return result
}

func matchOp(value gjson.Result, op pagekit.Op, operand gjson.Result) bool {
	switch op {
	case pagekit.OpEquals:
		return value.Value() == operand.Value()
	case pagekit.OpDoesNotEqual:
		return value.Value() != operand.Value()
	case pagekit.OpContains:
		if value.IsArray() {
			for _, element := range value.Array() {
				if element.Value() == operand.Value() {
					return true
				}
			}
			return false
		}
		return strings.Contains(value.String(), operand.String())
	case pagekit.OpDoesNotContain:
		return !matchOp(value, pagekit.OpContains, operand)
	case pagekit.OpStartsWith:
		return strings.HasPrefix(value.String(), operand.String())
	case pagekit.OpEndsWith:
		return strings.HasSuffix(value.String(), operand.String())
	case pagekit.OpGreaterThan:
		return value.Exists() && value.Float() > operand.Float()
	case pagekit.OpGreaterThanOrEqualTo:
		return value.Exists() && value.Float() >= operand.Float()
	case pagekit.OpLessThan:
		return value.Exists() && value.Float() < operand.Float()
	case pagekit.OpLessThanOrEqualTo:
		return value.Exists() && value.Float() <= operand.Float()
	case pagekit.OpBefore:
		return timeOf(value).Before(timeOf(operand))
	case pagekit.OpAfter:
		return timeOf(value).After(timeOf(operand))
	case pagekit.OpOnOrBefore:
		return !timeOf(value).After(timeOf(operand))
	case pagekit.OpOnOrAfter:
		return !timeOf(value).Before(timeOf(operand))
	case pagekit.OpPastWeek:
		return within(value, -7*24*time.Hour)
	case pagekit.OpPastMonth:
		return within(value, -30*24*time.Hour)
	case pagekit.OpPastYear:
		return within(value, -365*24*time.Hour)
	case pagekit.OpNextWeek:
		return within(value, 7*24*time.Hour)
	case pagekit.OpNextMonth:
		return within(value, 30*24*time.Hour)
	case pagekit.OpNextYear:
		return within(value, 365*24*time.Hour)
	case pagekit.OpIsEmpty:
		return isEmpty(value)
	case pagekit.OpIsNotEmpty:
		return !isEmpty(value)
	}
	return false
}

func timeOf(value gjson.Result) time.Time {
	t, _ := time.Parse(time.RFC3339, value.String())
	return t
}

func within(value gjson.Result, window time.Duration) bool {
	t := timeOf(value)
	if t.IsZero() {
		return false
	}
	now := time.Now()
	if window < 0 {
		return t.After(now.Add(window)) && t.Before(now)
	}
	return t.After(now) && t.Before(now.Add(window))
}

func isEmpty(value gjson.Result) bool {
	if !value.Exists() || value.Type == gjson.Null {
		return true
	}
	if value.IsArray() {
		return len(value.Array()) == 0
	}
	return value.String() == ""
}

// sortRecords applies a stable multi-key sort - the first clause has the
// highest priority
func sortRecords(records pagekit.Records, sorts []pagekit.OrderBy) {
	if len(sorts) == 0 {
		return
	}
	sort.SliceStable(records, func(i, j int) bool {
		for _, clause := range sorts {
			a, b := sortKey(records[i], clause), sortKey(records[j], clause)
			if a == b {
				continue
			}
			if clause.Direction == pagekit.OrderByDirectionDesc {
				return a > b
			}
			return a < b
		}
		return false
	})
}

// sortKey produces a comparable key string for a record under one sort
// clause. Numbers are padded so lexicographic order matches numeric order;
// RFC3339 timestamps already sort lexicographically.
func sortKey(rec *pagekit.Record, clause pagekit.OrderBy) string {
	var payload gjson.Result
	if clause.Timestamp != "" {
		payload = gjson.Parse(`"` + rec.GetString(string(clause.Timestamp)) + `"`)
	} else {
		payload = payloadOf(rec.Property(clause.Property))
	}
	if payload.Type == gjson.Number {
		return padNumber(payload.Float())
	}
	return payload.String()
}

func padNumber(f float64) string {
	// offset keeps negatives ordered below positives
	return fmt.Sprintf("%020d", int64(f*1000)+(1<<40))
}
