package testutil

import (
	"context"
	"time"

	"github.com/autom8ter/pagekit"
	"github.com/brianvoe/gofakeit/v6"
)

// TaskSchema is the canned schema used across package tests
var TaskSchema *pagekit.Schema

func init() {
	var err error
	TaskSchema, err = pagekit.NewSchema(
		pagekit.Property{Name: "Title", Type: pagekit.PropertyTypeTitle},
		pagekit.Property{Name: "Priority", Type: pagekit.PropertyTypeSelect, Options: []string{"Low", "Medium", "High"}},
		pagekit.Property{Name: "Due Date", Type: pagekit.PropertyTypeDate},
		pagekit.Property{Name: "Done", Type: pagekit.PropertyTypeCheckbox},
		pagekit.Property{Name: "Estimate", Type: pagekit.PropertyTypeNumber},
		pagekit.Property{Name: "Tags", Type: pagekit.PropertyTypeMultiSelect},
		pagekit.Property{Name: "Assignees", Type: pagekit.PropertyTypePeople},
	)
	if err != nil {
		panic(err)
	}
}

// TaskProperties builds a wire-shaped property bag for the task schema
func TaskProperties(title, priority string, due time.Time, done bool, estimate float64, tags ...string) map[string]any {
	props := map[string]any{
		"Title":    map[string]any{"title": title},
		"Priority": map[string]any{"select": priority},
		"Due Date": map[string]any{"date": due.Format(time.RFC3339)},
		"Done":     map[string]any{"checkbox": done},
		"Estimate": map[string]any{"number": estimate},
	}
	if len(tags) > 0 {
		props["Tags"] = map[string]any{"multi_select": tags}
	}
	return props
}

// RandomTaskProperties builds a randomized wire-shaped property bag for the task schema
func RandomTaskProperties() map[string]any {
	return TaskProperties(
		gofakeit.LoremIpsumSentence(4),
		gofakeit.RandomString([]string{"Low", "Medium", "High"}),
		gofakeit.DateRange(time.Now(), time.Now().Add(30*24*time.Hour)),
		gofakeit.Bool(),
		float64(gofakeit.IntRange(1, 16)),
		gofakeit.HipsterWord(),
	)
}

// NewTaskCollection creates a task collection backed by a fresh in-memory server
func NewTaskCollection(opts ...pagekit.CollectionOpt) (*pagekit.Collection, *Server) {
	server := NewServer()
	collection, err := pagekit.NewCollection("tasks", TaskSchema, server, opts...)
	if err != nil {
		panic(err)
	}
	return collection, server
}

// SeedTasks creates n randomized task records on the server
func SeedTasks(server *Server, n int) pagekit.Records {
	var records pagekit.Records
	for i := 0; i < n; i++ {
		rec, err := server.Create(context.Background(), "tasks", RandomTaskProperties())
		if err != nil {
			panic(err)
		}
		records = append(records, rec)
	}
	return records
}
