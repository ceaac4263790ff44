package pagekit_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/autom8ter/pagekit"
	"github.com/autom8ter/pagekit/errors"
	"github.com/autom8ter/pagekit/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompile(t *testing.T) {
	due := time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)
	t.Run("repeated where compiles to a single and group", func(t *testing.T) {
		tasks, _ := testutil.NewTaskCollection()
		query, err := tasks.Query().
			Where("Priority", pagekit.Equals("High")).
			Where("Done", pagekit.Equals(false)).
			Where("Due Date", pagekit.OnOrBefore(due)).
			Compile()
		require.NoError(t, err)
		bits, err := json.Marshal(query.Filter)
		require.NoError(t, err)
		assert.JSONEq(t, `{"and":[
			{"property":"Priority","select":{"equals":"High"}},
			{"property":"Done","checkbox":{"equals":false}},
			{"property":"Due Date","date":{"on_or_before":"2023-06-01T00:00:00Z"}}
		]}`, string(bits))
	})
	t.Run("single where stays unwrapped", func(t *testing.T) {
		tasks, _ := testutil.NewTaskCollection()
		query, err := tasks.Query().Where("Done", pagekit.Equals(true)).Compile()
		require.NoError(t, err)
		bits, err := json.Marshal(query.Filter)
		require.NoError(t, err)
		assert.JSONEq(t, `{"property":"Done","checkbox":{"equals":true}}`, string(bits))
	})
	t.Run("deterministic payload", func(t *testing.T) {
		build := func() *pagekit.QueryBuilder {
			tasks, _ := testutil.NewTaskCollection()
			return tasks.Query().
				Where("Priority", pagekit.Equals("High")).
				WhereTimestamp(pagekit.TimestampLastEditedTime, pagekit.PastWeek()).
				OrderBy("Due Date", pagekit.OrderByDirectionAsc).
				OrderByTimestamp(pagekit.TimestampCreatedTime, pagekit.OrderByDirectionDesc).
				PageSize(25).
				StartAt("cursor-1")
		}
		first, err := build().Compile()
		require.NoError(t, err)
		second, err := build().Compile()
		require.NoError(t, err)
		firstBits, err := json.Marshal(first)
		require.NoError(t, err)
		secondBits, err := json.Marshal(second)
		require.NoError(t, err)
		assert.Equal(t, string(firstBits), string(secondBits))
		assert.Equal(t, 25, first.PageSize)
		assert.Equal(t, "cursor-1", first.StartCursor)
	})
	t.Run("empty builder compiles without filter", func(t *testing.T) {
		tasks, _ := testutil.NewTaskCollection()
		query, err := tasks.Query().Compile()
		require.NoError(t, err)
		assert.Nil(t, query.Filter)
		assert.Empty(t, query.Sorts)
	})
	t.Run("where any groups under or", func(t *testing.T) {
		tasks, _ := testutil.NewTaskCollection()
		schema := tasks.Schema()
		high, err := schema.Filter("Priority", pagekit.Equals("High"))
		require.NoError(t, err)
		overdue, err := schema.Filter("Due Date", pagekit.Before(due))
		require.NoError(t, err)
		query, err := tasks.Query().
			Where("Done", pagekit.Equals(false)).
			WhereAny(high, overdue).
			Compile()
		require.NoError(t, err)
		bits, err := json.Marshal(query.Filter)
		require.NoError(t, err)
		assert.JSONEq(t, `{"and":[
			{"property":"Done","checkbox":{"equals":false}},
			{"or":[
				{"property":"Priority","select":{"equals":"High"}},
				{"property":"Due Date","date":{"before":"2023-06-01T00:00:00Z"}}
			]}
		]}`, string(bits))
	})
}

func TestBuilderValidation(t *testing.T) {
	t.Run("sticky error survives later calls", func(t *testing.T) {
		tasks, _ := testutil.NewTaskCollection()
		builder := tasks.Query().
			Where("Nonexistent", pagekit.Equals("x")).
			Where("Done", pagekit.Equals(true)).
			Limit(10)
		require.Error(t, builder.Err())
		assert.True(t, errors.Is(builder.Err(), errors.UnknownProperty))
		_, err := builder.Compile()
		assert.Equal(t, builder.Err(), err)
		_, err = builder.Execute(context.Background())
		assert.Equal(t, builder.Err(), err)
	})
	t.Run("limit must be positive", func(t *testing.T) {
		tasks, _ := testutil.NewTaskCollection()
		assert.True(t, errors.Is(tasks.Query().Limit(0).Err(), errors.Validation))
		assert.True(t, errors.Is(tasks.Query().Limit(-3).Err(), errors.Validation))
	})
	t.Run("page size bounds", func(t *testing.T) {
		tasks, _ := testutil.NewTaskCollection()
		assert.True(t, errors.Is(tasks.Query().PageSize(0).Err(), errors.Validation))
		assert.True(t, errors.Is(tasks.Query().PageSize(101).Err(), errors.Validation))
		assert.NoError(t, tasks.Query().PageSize(100).Err())
	})
	t.Run("order by unknown property", func(t *testing.T) {
		tasks, _ := testutil.NewTaskCollection()
		err := tasks.Query().OrderBy("Nope", pagekit.OrderByDirectionAsc).Err()
		assert.True(t, errors.Is(err, errors.UnknownProperty))
	})
	t.Run("where any requires two filters", func(t *testing.T) {
		tasks, _ := testutil.NewTaskCollection()
		high, err := tasks.Schema().Filter("Priority", pagekit.Equals("High"))
		require.NoError(t, err)
		assert.True(t, errors.Is(tasks.Query().WhereAny(high).Err(), errors.Validation))
	})
	t.Run("operator mismatch surfaces schema type error", func(t *testing.T) {
		tasks, _ := testutil.NewTaskCollection()
		err := tasks.Query().Where("Done", pagekit.Contains("x")).Err()
		assert.True(t, errors.Is(err, errors.SchemaType))
	})
}

func TestFirst(t *testing.T) {
	ctx := context.Background()
	t.Run("returns first match with page size hint of one", func(t *testing.T) {
		tasks, server := testutil.NewTaskCollection()
		testutil.SeedTasks(server, 5)
		_, err := server.Create(ctx, tasks.ID(), testutil.TaskProperties("urgent", "High", time.Now(), false, 3))
		require.NoError(t, err)
		rec, err := tasks.Query().Where("Priority", pagekit.Equals("High")).First(ctx)
		require.NoError(t, err)
		require.NotNil(t, rec)
		assert.Equal(t, 1, server.QueryCalls)
		last := server.LastQuery()
		require.NotNil(t, last)
		assert.Equal(t, 1, last.PageSize)
	})
	t.Run("nil on empty result set", func(t *testing.T) {
		tasks, _ := testutil.NewTaskCollection()
		rec, err := tasks.Query().Where("Priority", pagekit.Equals("High")).First(ctx)
		require.NoError(t, err)
		assert.Nil(t, rec)
	})
	t.Run("first entry binds the record", func(t *testing.T) {
		tasks, server := testutil.NewTaskCollection()
		_, err := server.Create(ctx, tasks.ID(), testutil.TaskProperties("urgent", "High", time.Now(), false, 3))
		require.NoError(t, err)
		entry, err := tasks.Query().Where("Title", pagekit.Equals("urgent")).FirstEntry(ctx)
		require.NoError(t, err)
		require.NotNil(t, entry)
		assert.Equal(t, "urgent", entry.GetString("Title"))
	})
}

func TestCount(t *testing.T) {
	ctx := context.Background()
	tasks, server := testutil.NewTaskCollection()
	testutil.SeedTasks(server, 7)
	count, err := tasks.Query().PageSize(3).Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 7, count)
	count, err = tasks.Query().Limit(4).Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, count)
}
