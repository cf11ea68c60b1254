package duckdb

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"strings"
)

// schemaDDL holds the question table definition. {{table}} is replaced with
// the quoted table name.
//
//go:embed schema.sql
var schemaDDL string

// SchemaDDL returns the table DDL for the given table name.
func SchemaDDL(table string) string {
	return strings.ReplaceAll(schemaDDL, "{{table}}", quoteIdent(table))
}

// EnsureSchema applies the table DDL to the provided database connection.
func EnsureSchema(ctx context.Context, db *sql.DB, table string) error {
	if db == nil {
		return errors.New("duckdb: db is nil")
	}
	_, err := db.ExecContext(ctx, SchemaDDL(table))
	return err
}

// quoteIdent quotes a SQL identifier.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
