package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"qingest/internal/backend"
	"qingest/internal/question"
)

// ErrClosed is returned by writes after Close.
var ErrClosed = errors.New("memory backend is closed")

// Document is a stored question with its store-assigned id.
type Document struct {
	ID       string
	Record   question.Record
	LoadedAt time.Time
}

// MemoryBackend stores question documents in memory. It behaves like an
// ordered batch insert: records are written in order and the batch stops at
// the first duplicate once the unique index exists.
type MemoryBackend struct {
	mu      sync.Mutex
	clock   Clock
	docs    []Document
	ids     map[string]struct{}
	unique  bool
	closed  bool
	batches int
}

// New creates a MemoryBackend with the provided clock.
func New(clock Clock) *MemoryBackend {
	if clock == nil {
		clock = realClock{}
	}
	return &MemoryBackend{
		clock: clock,
		ids:   map[string]struct{}{},
	}
}

// InsertQuestions appends records as one batch.
func (m *MemoryBackend) InsertQuestions(ctx context.Context, records []question.Record) (backend.Result, error) {
	if err := ctx.Err(); err != nil {
		return backend.Result{}, &backend.WriteError{Err: err}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return backend.Result{}, &backend.WriteError{Err: ErrClosed}
	}
	if len(records) == 0 {
		return backend.Result{}, nil
	}
	m.batches++

	now := m.clock.Now()
	result := backend.Result{IDs: make([]string, 0, len(records))}
	for _, record := range records {
		questionID := record.Summary().ID
		if _, exists := m.ids[questionID]; exists && m.unique {
			failed := []backend.FailedRecord{{
				Index:      record.Index,
				QuestionID: questionID,
				Duplicate:  true,
				Message:    fmt.Sprintf("duplicate key question_id %q", questionID),
			}}
			cause := fmt.Errorf("duplicate key question_id %q", questionID)
			if result.Inserted == 0 {
				return backend.Result{}, &backend.WriteError{Failed: failed, Err: cause}
			}
			return result, &backend.PartialWriteError{Inserted: result.Inserted, Failed: failed, Err: cause}
		}
		id := uuid.NewString()
		m.docs = append(m.docs, Document{ID: id, Record: record, LoadedAt: now})
		m.ids[questionID] = struct{}{}
		result.Inserted++
		result.IDs = append(result.IDs, id)
	}
	return result, nil
}

// EnsureIndexes turns on unique question_id enforcement. It fails when the
// stored documents already contain duplicates.
func (m *MemoryBackend) EnsureIndexes(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.ids) != len(m.docs) {
		return errors.New("memory backend: existing documents contain duplicate question_id values")
	}
	m.unique = true
	return nil
}

// Close marks the backend closed. Stored documents stay readable.
func (m *MemoryBackend) Close(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Documents returns a copy of the stored documents in insertion order.
func (m *MemoryBackend) Documents() []Document {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Document, len(m.docs))
	copy(out, m.docs)
	return out
}

// Batches reports how many non-empty batches reached the store.
func (m *MemoryBackend) Batches() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.batches
}

// Closed reports whether Close was called.
func (m *MemoryBackend) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}
