// Package duckdb stores question documents in an embedded DuckDB file, one
// JSON document per row.
package duckdb

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	duckdbdriver "github.com/duckdb/duckdb-go/v2"
	"github.com/google/uuid"

	"qingest/internal/backend"
	"qingest/internal/question"
)

const (
	backendName    = "duckdb"
	driverName     = "duckdb"
	defaultTimeout = 10 * time.Second
)

// Config selects the database file and table. An empty Path opens an
// in-memory database.
type Config struct {
	Path           string
	Table          string
	ConnectTimeout time.Duration
}

// Writer inserts question documents into a DuckDB table.
type Writer struct {
	db    *sql.DB
	table string
	now   func() time.Time
}

// Open opens the database, verifies it responds and applies the schema.
func Open(ctx context.Context, cfg Config) (*Writer, error) {
	timeout := cfg.ConnectTimeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	openCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	target := cfg.Path
	if target == "" {
		target = ":memory:"
	}
	conn, err := sql.Open(driverName, cfg.Path)
	if err != nil {
		return nil, &backend.ConnectionError{Backend: backendName, Target: target, Err: err}
	}
	if err := conn.PingContext(openCtx); err != nil {
		_ = conn.Close()
		return nil, &backend.ConnectionError{Backend: backendName, Target: target, Err: err}
	}
	// A single connection keeps in-memory databases visible across calls.
	conn.SetMaxOpenConns(1)
	if err := EnsureSchema(openCtx, conn, cfg.Table); err != nil {
		_ = conn.Close()
		return nil, &backend.ConnectionError{Backend: backendName, Target: target, Err: fmt.Errorf("apply schema: %w", err)}
	}
	return &Writer{db: conn, table: cfg.Table, now: func() time.Time { return time.Now().UTC() }}, nil
}

// InsertQuestions writes every record inside one transaction. Any rejected
// row rolls the whole batch back.
func (w *Writer) InsertQuestions(ctx context.Context, records []question.Record) (backend.Result, error) {
	if len(records) == 0 {
		return backend.Result{}, nil
	}
	tx, err := w.db.BeginTx(ctx, nil)
	if err != nil {
		return backend.Result{}, &backend.WriteError{Err: fmt.Errorf("begin transaction: %w", err)}
	}
	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(
		`INSERT INTO %s (row_id, question_id, title, document, loaded_at) VALUES (?, ?, ?, ?, ?)`,
		quoteIdent(w.table),
	))
	if err != nil {
		_ = tx.Rollback()
		return backend.Result{}, &backend.WriteError{Err: fmt.Errorf("prepare insert: %w", err)}
	}
	defer stmt.Close()

	loadedAt := w.now()
	ids := make([]string, 0, len(records))
	for _, record := range records {
		document, err := compactDocument(record.Raw)
		if err != nil {
			_ = tx.Rollback()
			return backend.Result{}, &backend.WriteError{Err: fmt.Errorf("encode records[%d]: %w", record.Index, err)}
		}
		summary := record.Summary()
		id := uuid.NewString()
		if _, err := stmt.ExecContext(ctx, id, summary.ID, summary.Title, document, loadedAt); err != nil {
			_ = tx.Rollback()
			return backend.Result{}, &backend.WriteError{
				Failed: []backend.FailedRecord{{
					Index:      record.Index,
					QuestionID: summary.ID,
					Duplicate:  isConstraintError(err),
					Message:    err.Error(),
				}},
				Err: err,
			}
		}
		ids = append(ids, id)
	}
	if err := tx.Commit(); err != nil {
		return backend.Result{}, &backend.WriteError{Err: fmt.Errorf("commit: %w", err)}
	}
	return backend.Result{Inserted: len(ids), IDs: ids}, nil
}

// EnsureIndexes creates a unique index on question_id.
func (w *Writer) EnsureIndexes(ctx context.Context) error {
	indexName := quoteIdent(w.table + "_question_id_unique")
	statement := fmt.Sprintf(`CREATE UNIQUE INDEX IF NOT EXISTS %s ON %s (question_id)`, indexName, quoteIdent(w.table))
	if _, err := w.db.ExecContext(ctx, statement); err != nil {
		return fmt.Errorf("create question_id index: %w", err)
	}
	return nil
}

// Close closes the database.
func (w *Writer) Close(context.Context) error {
	return w.db.Close()
}

// DB exposes the underlying connection for inspection.
func (w *Writer) DB() *sql.DB {
	return w.db
}

// compactDocument strips insignificant whitespace while keeping field order.
func compactDocument(raw json.RawMessage) (string, error) {
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func isConstraintError(err error) bool {
	var duckErr *duckdbdriver.Error
	if errors.As(err, &duckErr) {
		return duckErr.Type == duckdbdriver.ErrorTypeConstraint
	}
	return false
}
