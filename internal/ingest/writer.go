package ingest

import (
	"context"
	"fmt"

	"qingest/internal/backend"
	"qingest/internal/backend/duckdb"
	"qingest/internal/backend/mongodb"
	"qingest/internal/config"
)

// WriterFactory opens the store a run writes into.
type WriterFactory func(ctx context.Context, cfg config.Config) (backend.Writer, error)

// OpenWriter opens the backend selected by cfg.Backend.
func OpenWriter(ctx context.Context, cfg config.Config) (backend.Writer, error) {
	switch cfg.Backend {
	case config.BackendMongo:
		writer, err := mongodb.Open(ctx, mongodb.Config{
			URI:            cfg.URI,
			Database:       cfg.Database,
			Collection:     cfg.Collection,
			ConnectTimeout: cfg.ConnectTimeout,
			Ordered:        cfg.Ordered,
		})
		if err != nil {
			return nil, err
		}
		return writer, nil
	case config.BackendDuckDB:
		writer, err := duckdb.Open(ctx, duckdb.Config{
			Path:           cfg.DuckDBPath,
			Table:          cfg.Collection,
			ConnectTimeout: cfg.ConnectTimeout,
		})
		if err != nil {
			return nil, err
		}
		return writer, nil
	default:
		return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
	}
}
