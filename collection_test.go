package pagekit_test

import (
	"context"
	"testing"
	"time"

	"github.com/autom8ter/pagekit"
	"github.com/autom8ter/pagekit/errors"
	"github.com/autom8ter/pagekit/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCollection(t *testing.T) {
	server := testutil.NewServer()
	t.Run("requires an id and a remote", func(t *testing.T) {
		_, err := pagekit.NewCollection("", testutil.TaskSchema, server)
		assert.True(t, errors.Is(err, errors.Validation))
		_, err = pagekit.NewCollection("tasks", testutil.TaskSchema, nil)
		assert.True(t, errors.Is(err, errors.Validation))
	})
	t.Run("page size bounds", func(t *testing.T) {
		_, err := pagekit.NewCollection("tasks", testutil.TaskSchema, server, pagekit.WithPageSize(0))
		assert.True(t, errors.Is(err, errors.Validation))
		_, err = pagekit.NewCollection("tasks", testutil.TaskSchema, server, pagekit.WithPageSize(101))
		assert.True(t, errors.Is(err, errors.Validation))
	})
	t.Run("accessors", func(t *testing.T) {
		tasks, err := pagekit.NewCollection("tasks", testutil.TaskSchema, server)
		require.NoError(t, err)
		assert.Equal(t, "tasks", tasks.ID())
		assert.Equal(t, testutil.TaskSchema, tasks.Schema())
	})
}

func TestCollectionGet(t *testing.T) {
	ctx := context.Background()
	tasks, server := testutil.NewTaskCollection()
	rec, err := server.Create(ctx, tasks.ID(), testutil.TaskProperties("write report", "High", time.Now(), false, 3))
	require.NoError(t, err)

	entry, err := tasks.Get(ctx, rec.ID())
	require.NoError(t, err)
	assert.Equal(t, rec.ID(), entry.ID())
	assert.Equal(t, "write report", entry.GetString("Title"))

	_, err = tasks.Get(ctx, "missing")
	assert.True(t, errors.Is(err, errors.NotFound))
}

func TestCollectionBind(t *testing.T) {
	tasks, _ := testutil.NewTaskCollection()
	recs := pagekit.Records{}
	for i := 0; i < 3; i++ {
		rec, err := pagekit.NewRecordFromBytes([]byte(taskJSON))
		require.NoError(t, err)
		recs = append(recs, rec)
	}
	entries, err := tasks.BindAll(recs)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	for _, e := range entries {
		assert.Equal(t, "write report", e.GetString("Title"))
		assert.Empty(t, e.Dirty())
	}
}

// End to end: filter, multi-page fetch, sort and limit against the in-memory
// remote.
func TestCollectionQueryEndToEnd(t *testing.T) {
	ctx := context.Background()
	tasks, server := testutil.NewTaskCollection()

	base := time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)
	titles := []string{"five", "three", "one", "four", "two"}
	for i, title := range titles {
		// due dates deliberately out of insertion order
		due := base.AddDate(0, 0, []int{5, 3, 1, 4, 2}[i])
		_, err := server.Create(ctx, tasks.ID(), testutil.TaskProperties(title, "High", due, false, float64(i)))
		require.NoError(t, err)
	}
	// noise that must not match
	for i := 0; i < 4; i++ {
		_, err := server.Create(ctx, tasks.ID(), testutil.TaskProperties("noise", "Low", base, true, 1))
		require.NoError(t, err)
	}

	it, err := tasks.Query().
		Where("Priority", pagekit.Equals("High")).
		Where("Done", pagekit.Equals(false)).
		OrderBy("Due Date", pagekit.OrderByDirectionAsc).
		PageSize(2).
		Limit(2).
		Execute(ctx)
	require.NoError(t, err)

	records, err := it.All(ctx)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "one", records[0].Property("Title").Get("title").String())
	assert.Equal(t, "two", records[1].Property("Title").Get("title").String())
	// the limit stops fetching after the first page
	assert.Equal(t, 1, server.QueryCalls)

	// without the limit the iterator drains every matching page
	it, err = tasks.Query().
		Where("Priority", pagekit.Equals("High")).
		Where("Done", pagekit.Equals(false)).
		OrderBy("Due Date", pagekit.OrderByDirectionAsc).
		PageSize(2).
		Execute(ctx)
	require.NoError(t, err)
	records, err = it.All(ctx)
	require.NoError(t, err)
	require.Len(t, records, 5)
	assert.Equal(t, 3, it.PageCount())
	names := make([]string, 0, len(records))
	for _, rec := range records {
		names = append(names, rec.Property("Title").Get("title").String())
	}
	assert.Equal(t, []string{"one", "two", "three", "four", "five"}, names)
}

func TestDynamicCollection(t *testing.T) {
	ctx := context.Background()
	server := testutil.NewServer()
	dynamic, err := pagekit.NewCollection("scratch", nil, server)
	require.NoError(t, err)

	_, err = server.Create(ctx, "scratch", map[string]any{
		"Field": map[string]any{"rich_text": "dynamic value"},
	})
	require.NoError(t, err)

	t.Run("where requires a schema", func(t *testing.T) {
		err := dynamic.Query().Where("Field", pagekit.Equals("x")).Err()
		assert.True(t, errors.Is(err, errors.Validation))
	})
	t.Run("where filter bypasses validation", func(t *testing.T) {
		records, err := dynamic.Query().
			WhereFilter(pagekit.PropertyFilter{
				Property:  "Field",
				Type:      pagekit.PropertyTypeRichText,
				Condition: pagekit.Contains("dynamic"),
			}).
			Execute(ctx)
		require.NoError(t, err)
		all, err := records.All(ctx)
		require.NoError(t, err)
		assert.Len(t, all, 1)
	})
	t.Run("raw records cannot be bound", func(t *testing.T) {
		rec, err := pagekit.NewRecordFromBytes([]byte(taskJSON))
		require.NoError(t, err)
		_, err = dynamic.Bind(rec)
		assert.True(t, errors.Is(err, errors.Validation))
	})
}
