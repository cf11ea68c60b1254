// Package ingest runs one load: read and validate a question file, then write
// every record to the configured store in a single batch.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"qingest/internal/backend"
	"qingest/internal/config"
	"qingest/internal/observability/logging"
	"qingest/internal/observability/metrics"
	"qingest/internal/question"
)

const closeTimeout = 5 * time.Second

// Dependencies are the collaborators a run needs. Nil fields get defaults.
type Dependencies struct {
	OpenWriter WriterFactory
	RunID      func() (string, error)
	Now        func() time.Time
	Logger     *zerolog.Logger
	Metrics    *metrics.Recorder
}

// Params describe a single run.
type Params struct {
	Path   string
	Config config.Config
	// DryRun validates the file without connecting to the store.
	DryRun bool
	Deps   Dependencies
}

// Report summarizes a finished run.
type Report struct {
	RunID    string
	Source   string
	Target   string
	Loaded   int
	Inserted int
	IDs      []string
	DryRun   bool
	Duration time.Duration
}

// Run loads, validates and inserts the question file at params.Path. Nothing
// is written unless every record validates.
func Run(ctx context.Context, params Params) (report Report, err error) {
	deps := params.Deps
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	startedAt := now()

	newRunID := deps.RunID
	if newRunID == nil {
		newRunID = NewRunID
	}
	runID, err := newRunID()
	if err != nil {
		return Report{}, err
	}

	base := logging.Nop()
	if deps.Logger != nil {
		base = *deps.Logger
	}
	logger := logging.WithRun(logging.WithComponent(base, "ingest"), runID, params.Path)
	recorder := deps.Metrics

	report = Report{
		RunID:  runID,
		Source: params.Path,
		Target: params.Config.Target(),
		DryRun: params.DryRun,
	}
	defer func() {
		report.Duration = now().Sub(startedAt)
		recorder.RecordDuration(report.Duration)
		if err != nil {
			kind := Classify(err)
			recorder.RecordFailure(string(kind))
			logger.Debug().Err(err).Str("kind", string(kind)).Dur("duration", report.Duration).Msg("load failed")
			return
		}
		recorder.RecordSuccess(now())
	}()

	records, err := question.LoadFile(params.Path, question.LoadOptions{
		Strict:             params.Config.Strict,
		RejectDuplicateIDs: params.Config.UniqueIDs,
	})
	if err != nil {
		return report, err
	}
	report.Loaded = len(records)
	recorder.RecordLoaded(len(records))
	logger.Info().Int("records", len(records)).Bool("strict", params.Config.Strict).Msg("validated question file")
	logger.Debug().Strs("questionIds", question.IDs(records)).Msg("records in file order")

	if params.DryRun {
		return report, nil
	}

	openWriter := deps.OpenWriter
	if openWriter == nil {
		openWriter = OpenWriter
	}
	writer, err := openWriter(ctx, params.Config)
	if err != nil {
		return report, err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), closeTimeout)
		defer cancel()
		if closeErr := writer.Close(closeCtx); closeErr != nil {
			logger.Warn().Err(closeErr).Msg("close store")
		}
	}()
	logger.Debug().Str("backend", params.Config.Backend).Str("target", report.Target).Msg("connected")

	if params.Config.EnsureIndex {
		if err := writer.EnsureIndexes(ctx); err != nil {
			return report, &backend.WriteError{Err: fmt.Errorf("ensure indexes: %w", err)}
		}
	}

	writeCtx := ctx
	if params.Config.WriteTimeout > 0 {
		var cancel context.CancelFunc
		writeCtx, cancel = context.WithTimeout(ctx, params.Config.WriteTimeout)
		defer cancel()
	}
	result, err := writer.InsertQuestions(writeCtx, records)
	if err != nil {
		var partial *backend.PartialWriteError
		if errors.As(err, &partial) {
			report.Inserted = partial.Inserted
			recorder.RecordInserted(partial.Inserted)
		}
		return report, err
	}
	if result.Inserted != len(records) {
		report.Inserted = result.Inserted
		recorder.RecordInserted(result.Inserted)
		return report, &backend.PartialWriteError{
			Inserted: result.Inserted,
			Err:      fmt.Errorf("store acknowledged %d of %d records", result.Inserted, len(records)),
		}
	}
	report.Inserted = result.Inserted
	report.IDs = result.IDs
	recorder.RecordInserted(result.Inserted)
	logger.Info().Int("inserted", result.Inserted).Str("target", report.Target).Msg("inserted questions")
	return report, nil
}
