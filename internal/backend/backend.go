package backend

import (
	"context"

	"qingest/internal/question"
)

// Writer persists validated question records into a document store.
type Writer interface {
	// InsertQuestions writes records as one batch and reports what the store
	// accepted. An empty batch is a no-op.
	InsertQuestions(ctx context.Context, records []question.Record) (Result, error)
	// EnsureIndexes creates the unique question_id index when missing.
	EnsureIndexes(ctx context.Context) error
	Close(ctx context.Context) error
}

// Result describes a completed batch insert.
type Result struct {
	Inserted int
	IDs      []string
}
