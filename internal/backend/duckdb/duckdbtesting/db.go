package duckdbtesting

import (
	"database/sql"
	"testing"
	"time"

	"qingest/internal/backend/duckdb"
	"qingest/internal/testutil"
)

const (
	defaultTimeout = 2 * time.Second
)

// Open opens an in-memory question table and closes it when the test ends.
func Open(t testing.TB, table string) *duckdb.Writer {
	t.Helper()
	ctx := testutil.Context(t, defaultTimeout)
	writer, err := duckdb.Open(ctx, duckdb.Config{Table: table})
	if err != nil {
		t.Fatalf("open duckdb: %v", err)
	}
	t.Cleanup(func() {
		_ = writer.Close(ctx)
	})
	return writer
}

// CountRows returns the number of rows stored in table.
func CountRows(t testing.TB, db *sql.DB, table string) int {
	t.Helper()
	ctx := testutil.Context(t, defaultTimeout)
	var count int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM "`+table+`"`).Scan(&count); err != nil {
		t.Fatalf("count rows: %v", err)
	}
	return count
}

// QuestionIDs returns stored question ids in insertion order.
func QuestionIDs(t testing.TB, db *sql.DB, table string) []string {
	t.Helper()
	ctx := testutil.Context(t, defaultTimeout)
	rows, err := db.QueryContext(ctx, `SELECT question_id FROM "`+table+`" ORDER BY rowid`)
	if err != nil {
		t.Fatalf("query ids: %v", err)
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			t.Fatalf("scan id: %v", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		t.Fatalf("iterate ids: %v", err)
	}
	return ids
}
