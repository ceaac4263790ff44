package pagekit_test

import (
	"context"
	"testing"
	"time"

	"github.com/autom8ter/pagekit/errors"
	"github.com/autom8ter/pagekit/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntryCreate(t *testing.T) {
	ctx := context.Background()
	tasks, server := testutil.NewTaskCollection()

	entry := tasks.NewEntry()
	assert.False(t, entry.Persisted())
	assert.Empty(t, entry.ID())

	due := time.Date(2023, 7, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, entry.Set("Title", "write report"))
	require.NoError(t, entry.Set("Priority", "High"))
	require.NoError(t, entry.Set("Due Date", due))
	assert.Equal(t, []string{"Due Date", "Priority", "Title"}, entry.Dirty())

	require.NoError(t, entry.Commit(ctx))
	assert.Equal(t, 1, server.CreateCalls)
	assert.True(t, entry.Persisted())
	assert.NotEmpty(t, entry.ID())
	assert.False(t, entry.CreatedTime().IsZero())
	assert.Empty(t, entry.Dirty())
	assert.Equal(t, "write report", entry.GetString("Title"))
	assert.Equal(t, due, entry.GetTime("Due Date"))

	// committing again with nothing dirty issues no call
	require.NoError(t, entry.Commit(ctx))
	assert.Equal(t, 1, server.CreateCalls)
	assert.Equal(t, 0, server.UpdateCalls)
}

func TestEntryUpdate(t *testing.T) {
	ctx := context.Background()
	tasks, server := testutil.NewTaskCollection()
	rec, err := server.Create(ctx, tasks.ID(), testutil.TaskProperties("write report", "Low", time.Now(), false, 3))
	require.NoError(t, err)

	entry, err := tasks.Bind(rec)
	require.NoError(t, err)
	require.NoError(t, entry.Set("Done", true))
	require.NoError(t, entry.Set("Priority", "High"))

	calls := server.UpdateCalls
	require.NoError(t, entry.Commit(ctx))
	assert.Equal(t, calls+1, server.UpdateCalls)
	assert.Empty(t, entry.Dirty())

	// only the mutated properties reached the remote; the rest survived
	fetched, err := server.Retrieve(ctx, entry.ID())
	require.NoError(t, err)
	assert.True(t, fetched.GetBool("properties.Done.checkbox"))
	assert.Equal(t, "High", fetched.Property("Priority").Get("select").String())
	assert.Equal(t, "write report", fetched.Property("Title").Get("title").String())
}

func TestEntryCommitFailure(t *testing.T) {
	ctx := context.Background()
	tasks, server := testutil.NewTaskCollection()
	rec, err := server.Create(ctx, tasks.ID(), testutil.TaskProperties("write report", "Low", time.Now(), false, 3))
	require.NoError(t, err)
	entry, err := tasks.Bind(rec)
	require.NoError(t, err)

	require.NoError(t, entry.Set("Done", true))
	server.WriteErr = errors.New(errors.Internal, "remote unavailable")
	err = entry.Commit(ctx)
	assert.True(t, errors.Is(err, errors.RemoteWrite))
	// the dirty set survives a failed write so Commit can be retried
	assert.Equal(t, []string{"Done"}, entry.Dirty())

	server.WriteErr = nil
	require.NoError(t, entry.Commit(ctx))
	assert.Empty(t, entry.Dirty())
	fetched, err := server.Retrieve(ctx, entry.ID())
	require.NoError(t, err)
	assert.True(t, fetched.GetBool("properties.Done.checkbox"))
}

func TestEntryRefresh(t *testing.T) {
	ctx := context.Background()
	t.Run("discards local mutations", func(t *testing.T) {
		tasks, server := testutil.NewTaskCollection()
		rec, err := server.Create(ctx, tasks.ID(), testutil.TaskProperties("write report", "Low", time.Now(), false, 3))
		require.NoError(t, err)
		entry, err := tasks.Bind(rec)
		require.NoError(t, err)

		require.NoError(t, entry.Set("Priority", "High"))
		// a concurrent edit lands on the remote
		require.NoError(t, server.SetProperty(entry.ID(), "Title", map[string]any{"title": "renamed"}))

		require.NoError(t, entry.Refresh(ctx))
		assert.Equal(t, "renamed", entry.GetString("Title"))
		assert.Equal(t, "Low", entry.GetString("Priority"))
		assert.Empty(t, entry.Dirty())
	})
	t.Run("never-committed entry cannot refresh", func(t *testing.T) {
		tasks, _ := testutil.NewTaskCollection()
		entry := tasks.NewEntry()
		err := entry.Refresh(ctx)
		assert.True(t, errors.Is(err, errors.Validation))
	})
}

func TestEntryAccessors(t *testing.T) {
	ctx := context.Background()
	tasks, server := testutil.NewTaskCollection()
	rec, err := server.Create(ctx, tasks.ID(), testutil.TaskProperties("write report", "Low", time.Now(), false, 3, "q3", "reports"))
	require.NoError(t, err)
	entry, err := tasks.Bind(rec)
	require.NoError(t, err)

	assert.Equal(t, rec.ID(), entry.ID())
	assert.Equal(t, 3.0, entry.GetFloat("Estimate"))
	assert.False(t, entry.GetBool("Done"))
	tags, err := entry.Get("Tags")
	require.NoError(t, err)
	assert.Equal(t, []string{"q3", "reports"}, tags)

	// raw wire access bypasses the binding
	assert.Equal(t, "write report", entry.Raw("Title").Get("title").String())
	assert.False(t, tasks.NewEntry().Raw("Title").Exists())

	require.NoError(t, entry.SetAll(map[string]any{
		"Done":     true,
		"Estimate": 5,
	}))
	assert.Equal(t, []string{"Done", "Estimate"}, entry.Dirty())

	err = entry.SetAll(map[string]any{"Estimate": "nope"})
	assert.True(t, errors.Is(err, errors.PropertyType))
}
