package ingest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"qingest/internal/backend"
	"qingest/internal/backend/memory"
	"qingest/internal/config"
	"qingest/internal/observability/logging"
	"qingest/internal/observability/metrics"
	"qingest/internal/question"
	qtestutil "qingest/internal/testutil"
)

type harness struct {
	store    *memory.MemoryBackend
	recorder *metrics.Recorder
	opened   int
	logs     bytes.Buffer
}

func newHarness() *harness {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return &harness{
		store:    memory.New(qtestutil.NewFakeClock(start)),
		recorder: metrics.New(),
	}
}

func (h *harness) params(path string) Params {
	logger := logging.New(logging.Config{Level: "debug", Format: "json"}, &h.logs)
	return Params{
		Path:   path,
		Config: config.Defaults(),
		Deps: Dependencies{
			OpenWriter: func(context.Context, config.Config) (backend.Writer, error) {
				h.opened++
				return h.store, nil
			},
			RunID:   func() (string, error) { return "run-test", nil },
			Logger:  &logger,
			Metrics: h.recorder,
		},
	}
}

func storedIDs(store *memory.MemoryBackend) []string {
	docs := store.Documents()
	ids := make([]string, 0, len(docs))
	for _, doc := range docs {
		ids = append(ids, doc.Record.Summary().ID)
	}
	return ids
}

// TestRunInsertsSampleFile verifies the single-question sample end to end.
func TestRunInsertsSampleFile(t *testing.T) {
	h := newHarness()
	path := qtestutil.WriteFile(t, "questions.json", "["+qtestutil.SumQuestionJSON+"]")
	ctx := qtestutil.Context(t, 5*time.Second)

	report, err := Run(ctx, h.params(path))
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if report.Loaded != 1 || report.Inserted != 1 || len(report.IDs) != 1 {
		t.Fatalf("unexpected report: %+v", report)
	}
	if report.Target != "question_db.questions" || report.RunID != "run-test" {
		t.Fatalf("unexpected report identity: %+v", report)
	}
	docs := h.store.Documents()
	if len(docs) != 1 || docs[0].Record.Summary() != (question.Summary{ID: "q1", Title: "Sum"}) {
		t.Fatalf("unexpected documents: %+v", docs)
	}
	if !h.store.Closed() {
		t.Fatalf("expected store to be closed after run")
	}
	if got := testutil.ToFloat64(h.recorder.RecordsInserted); got != 1 {
		t.Fatalf("expected 1 inserted metric, got %v", got)
	}
	if got := testutil.ToFloat64(h.recorder.LastSuccess); got == 0 {
		t.Fatalf("expected success timestamp to be set")
	}
	if !strings.Contains(h.logs.String(), `"runId":"run-test"`) {
		t.Fatalf("expected run id in logs, got %s", h.logs.String())
	}
}

// TestRunInvalidRecordWritesNothing verifies one bad record blocks the whole batch.
func TestRunInvalidRecordWritesNothing(t *testing.T) {
	h := newHarness()
	bad := `{"question_id":"q4","description":"d","input_format":["n"],"output_format":"o","constraints":{},"example":{},"test_cases":[]}`
	payload := strings.TrimSuffix(qtestutil.QuestionArrayJSON("q1", "q2", "q3"), "]") + "," + bad + "]"
	path := qtestutil.WriteFile(t, "questions.json", payload)

	_, err := Run(context.Background(), h.params(path))
	var validationErr *question.SchemaValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("expected schema validation error, got %T: %v", err, err)
	}
	if validationErr.Index != 3 || !reflect.DeepEqual(validationErr.Fields(), []string{"title"}) {
		t.Fatalf("unexpected validation error: %v", validationErr)
	}
	if h.opened != 0 || len(h.store.Documents()) != 0 {
		t.Fatalf("expected no store access, opened=%d docs=%d", h.opened, len(h.store.Documents()))
	}
	if got := testutil.ToFloat64(h.recorder.RunFailures.WithLabelValues(string(KindValidation))); got != 1 {
		t.Fatalf("expected validation failure metric, got %v", got)
	}
}

// TestRunPreservesOrder verifies records are stored in file order.
func TestRunPreservesOrder(t *testing.T) {
	h := newHarness()
	path := qtestutil.WriteFile(t, "questions.json", qtestutil.QuestionArrayJSON("c", "a", "b"))
	report, err := Run(context.Background(), h.params(path))
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if report.Inserted != 3 {
		t.Fatalf("expected 3 inserted, got %d", report.Inserted)
	}
	if got := storedIDs(h.store); !reflect.DeepEqual(got, []string{"c", "a", "b"}) {
		t.Fatalf("unexpected order %v", got)
	}
}

// TestRunBareObjectMatchesArray verifies a bare object loads like a one-element array.
func TestRunBareObjectMatchesArray(t *testing.T) {
	bare := newHarness()
	wrapped := newHarness()
	barePath := qtestutil.WriteFile(t, "bare.json", qtestutil.SumQuestionJSON)
	arrayPath := qtestutil.WriteFile(t, "array.json", "["+qtestutil.SumQuestionJSON+"]")

	if _, err := Run(context.Background(), bare.params(barePath)); err != nil {
		t.Fatalf("bare run: %v", err)
	}
	if _, err := Run(context.Background(), wrapped.params(arrayPath)); err != nil {
		t.Fatalf("array run: %v", err)
	}
	left := bare.store.Documents()
	right := wrapped.store.Documents()
	if len(left) != 1 || len(right) != 1 {
		t.Fatalf("expected one document each, got %d and %d", len(left), len(right))
	}
	if !reflect.DeepEqual(left[0].Record.Fields, right[0].Record.Fields) {
		t.Fatalf("expected identical documents:\n%v\n%v", left[0].Record.Fields, right[0].Record.Fields)
	}
}

// TestRunDryRunSkipsStore verifies dry runs never open the store.
func TestRunDryRunSkipsStore(t *testing.T) {
	h := newHarness()
	path := qtestutil.WriteFile(t, "questions.json", qtestutil.QuestionArrayJSON("q1", "q2"))
	params := h.params(path)
	params.DryRun = true
	report, err := Run(context.Background(), params)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !report.DryRun || report.Loaded != 2 || report.Inserted != 0 {
		t.Fatalf("unexpected report: %+v", report)
	}
	if h.opened != 0 {
		t.Fatalf("expected store to stay closed, opened %d times", h.opened)
	}
}

// TestRunEmptyArray verifies an empty file inserts nothing and succeeds.
func TestRunEmptyArray(t *testing.T) {
	h := newHarness()
	path := qtestutil.WriteFile(t, "questions.json", "[]")
	report, err := Run(context.Background(), h.params(path))
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if report.Inserted != 0 || h.store.Batches() != 0 {
		t.Fatalf("expected no-op, got %+v batches=%d", report, h.store.Batches())
	}
}

// TestRunMissingFile verifies read failures are classified.
func TestRunMissingFile(t *testing.T) {
	h := newHarness()
	_, err := Run(context.Background(), h.params("does-not-exist.json"))
	if Classify(err) != KindRead {
		t.Fatalf("expected read failure, got %v", err)
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected not exist cause, got %v", err)
	}
}

// TestRunConnectionFailure verifies connection errors surface unchanged.
func TestRunConnectionFailure(t *testing.T) {
	h := newHarness()
	path := qtestutil.WriteFile(t, "questions.json", qtestutil.QuestionArrayJSON("q1"))
	params := h.params(path)
	params.Deps.OpenWriter = func(context.Context, config.Config) (backend.Writer, error) {
		return nil, &backend.ConnectionError{Backend: "mongodb", Target: "mongodb://localhost:1/", Err: errors.New("connection refused")}
	}
	_, err := Run(context.Background(), params)
	if Classify(err) != KindConnection {
		t.Fatalf("expected connection failure, got %v", err)
	}
	if got := testutil.ToFloat64(h.recorder.RunFailures.WithLabelValues(string(KindConnection))); got != 1 {
		t.Fatalf("expected connection failure metric, got %v", got)
	}
}

// TestRunPartialWrite verifies a duplicate mid-batch is reported as partial.
func TestRunPartialWrite(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	if err := h.store.EnsureIndexes(ctx); err != nil {
		t.Fatalf("ensure indexes: %v", err)
	}
	if _, err := h.store.InsertQuestions(ctx, qtestutil.Records(t, "q2")); err != nil {
		t.Fatalf("seed: %v", err)
	}
	path := qtestutil.WriteFile(t, "questions.json", qtestutil.QuestionArrayJSON("q1", "q2", "q3"))

	report, err := Run(ctx, h.params(path))
	var partial *backend.PartialWriteError
	if !errors.As(err, &partial) {
		t.Fatalf("expected partial write, got %T: %v", err, err)
	}
	if partial.Inserted != 1 || report.Inserted != 1 {
		t.Fatalf("expected 1 inserted, got partial=%d report=%d", partial.Inserted, report.Inserted)
	}
	if Classify(err) != KindPartialWrite {
		t.Fatalf("unexpected kind %q", Classify(err))
	}
}

// TestRunEnsureIndexFailure verifies index creation failures stop the run.
func TestRunEnsureIndexFailure(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	if _, err := h.store.InsertQuestions(ctx, qtestutil.Records(t, "dup", "dup")); err != nil {
		t.Fatalf("seed: %v", err)
	}
	path := qtestutil.WriteFile(t, "questions.json", qtestutil.QuestionArrayJSON("q1"))
	params := h.params(path)
	params.Config.EnsureIndex = true

	_, err := Run(ctx, params)
	if Classify(err) != KindWrite {
		t.Fatalf("expected write failure, got %v", err)
	}
	if len(h.store.Documents()) != 2 {
		t.Fatalf("expected no new documents, got %d", len(h.store.Documents()))
	}
}

type shortWriter struct {
	closed bool
}

func (w *shortWriter) InsertQuestions(_ context.Context, records []question.Record) (backend.Result, error) {
	return backend.Result{Inserted: len(records) - 1}, nil
}

func (w *shortWriter) EnsureIndexes(context.Context) error { return nil }

func (w *shortWriter) Close(context.Context) error {
	w.closed = true
	return nil
}

// TestRunShortAcknowledgement verifies a count mismatch is a partial write.
func TestRunShortAcknowledgement(t *testing.T) {
	h := newHarness()
	writer := &shortWriter{}
	path := qtestutil.WriteFile(t, "questions.json", qtestutil.QuestionArrayJSON("q1", "q2"))
	params := h.params(path)
	params.Deps.OpenWriter = func(context.Context, config.Config) (backend.Writer, error) {
		return writer, nil
	}
	_, err := Run(context.Background(), params)
	var partial *backend.PartialWriteError
	if !errors.As(err, &partial) || partial.Inserted != 1 {
		t.Fatalf("expected partial write of 1, got %v", err)
	}
	if !strings.Contains(err.Error(), "acknowledged 1 of 2") {
		t.Fatalf("unexpected message %q", err.Error())
	}
	if !writer.closed {
		t.Fatalf("expected writer to be closed")
	}
}

// TestRunUniqueIDsRejectsDuplicatesInFile verifies unique_ids checks the file itself.
func TestRunUniqueIDsRejectsDuplicatesInFile(t *testing.T) {
	h := newHarness()
	path := qtestutil.WriteFile(t, "questions.json", qtestutil.QuestionArrayJSON("q1", "q1"))
	params := h.params(path)
	params.Config.UniqueIDs = true
	_, err := Run(context.Background(), params)
	if Classify(err) != KindValidation {
		t.Fatalf("expected validation failure, got %v", err)
	}
	if h.opened != 0 {
		t.Fatalf("expected store to stay closed")
	}
}

// TestClassify verifies every typed error maps onto its kind.
func TestClassify(t *testing.T) {
	cases := []struct {
		err  error
		want Kind
	}{
		{nil, KindNone},
		{&config.ValidationError{}, KindConfig},
		{&question.FileReadError{Path: "x", Err: os.ErrNotExist}, KindRead},
		{&question.ParseError{Path: "x", Format: "json", Err: errors.New("bad")}, KindParse},
		{&question.SchemaValidationError{}, KindValidation},
		{fmt.Errorf("wrapped: %w", &backend.ConnectionError{Err: errors.New("down")}), KindConnection},
		{&backend.WriteError{Err: errors.New("rejected")}, KindWrite},
		{&backend.PartialWriteError{Inserted: 1}, KindPartialWrite},
		{errors.New("boom"), KindUnexpected},
	}
	for _, tc := range cases {
		if got := Classify(tc.err); got != tc.want {
			t.Fatalf("Classify(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
}

// TestFormatRunID verifies run ID formatting.
func TestFormatRunID(t *testing.T) {
	timestamp := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	got := FormatRunID(timestamp, "deadbeef")
	if got != "20240102T030405Z-deadbeef" {
		t.Fatalf("unexpected run id: %q", got)
	}
}

// TestNewRunIDWithRand verifies deterministic run ID generation with a reader.
func TestNewRunIDWithRand(t *testing.T) {
	timestamp := time.Date(2024, 6, 7, 8, 9, 10, 0, time.UTC)
	reader := bytes.NewReader(make([]byte, 16))
	got, err := NewRunIDWithRand(timestamp, reader)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "20240607T080910Z-00000000-0000-4000-8000-000000000000" {
		t.Fatalf("unexpected run id: %q", got)
	}
}
