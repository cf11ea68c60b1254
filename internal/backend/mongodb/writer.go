// Package mongodb writes question batches into a MongoDB collection.
package mongodb

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"qingest/internal/backend"
	"qingest/internal/question"
)

const (
	backendName           = "mongodb"
	defaultConnectTimeout = 10 * time.Second
	questionIDIndexName   = "question_id_unique"
)

// Config selects the MongoDB deployment and namespace.
type Config struct {
	URI            string
	Database       string
	Collection     string
	ConnectTimeout time.Duration
	// Ordered stops the batch at the first rejected document.
	Ordered bool
}

// Writer inserts question documents into one collection.
type Writer struct {
	client     *mongo.Client
	collection *mongo.Collection
	ordered    bool
}

// Open connects to MongoDB with a bounded timeout derived from ctx and
// verifies the deployment answers a ping. The caller must Close the writer.
func Open(ctx context.Context, cfg Config) (*Writer, error) {
	timeout := cfg.ConnectTimeout
	if timeout <= 0 {
		timeout = defaultConnectTimeout
	}
	connectCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	target := redactURI(cfg.URI)
	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, &backend.ConnectionError{Backend: backendName, Target: target, Err: err}
	}
	if err := client.Ping(connectCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, &backend.ConnectionError{Backend: backendName, Target: target, Err: err}
	}

	collection := client.Database(cfg.Database).Collection(cfg.Collection)
	return &Writer{client: client, collection: collection, ordered: cfg.Ordered}, nil
}

// NewWithCollection wraps an existing collection. Close does not disconnect
// the collection's client.
func NewWithCollection(collection *mongo.Collection, ordered bool) *Writer {
	return &Writer{collection: collection, ordered: ordered}
}

// InsertQuestions writes all records with a single InsertMany call.
func (w *Writer) InsertQuestions(ctx context.Context, records []question.Record) (backend.Result, error) {
	if len(records) == 0 {
		return backend.Result{}, nil
	}
	docs := make([]interface{}, 0, len(records))
	for _, record := range records {
		doc, err := toDocument(record)
		if err != nil {
			return backend.Result{}, &backend.WriteError{Err: fmt.Errorf("encode records[%d]: %w", record.Index, err)}
		}
		docs = append(docs, doc)
	}

	res, err := w.collection.InsertMany(ctx, docs, options.InsertMany().SetOrdered(w.ordered))
	if err != nil {
		return classifyInsertError(err, records, w.ordered, w.namespace())
	}
	return backend.Result{Inserted: len(res.InsertedIDs), IDs: formatIDs(res.InsertedIDs)}, nil
}

// EnsureIndexes creates the unique question_id index.
func (w *Writer) EnsureIndexes(ctx context.Context) error {
	model := mongo.IndexModel{
		Keys:    bson.D{{Key: question.FieldQuestionID, Value: 1}},
		Options: options.Index().SetUnique(true).SetName(questionIDIndexName),
	}
	if _, err := w.collection.Indexes().CreateOne(ctx, model); err != nil {
		return fmt.Errorf("create %s index: %w", questionIDIndexName, err)
	}
	return nil
}

// Close disconnects the client opened by Open.
func (w *Writer) Close(ctx context.Context) error {
	if w.client == nil {
		return nil
	}
	if err := w.client.Disconnect(ctx); err != nil {
		return fmt.Errorf("disconnect mongodb: %w", err)
	}
	return nil
}

func (w *Writer) namespace() string {
	return w.collection.Database().Name() + "." + w.collection.Name()
}

// classifyInsertError maps a failed InsertMany to the backend error taxonomy.
func classifyInsertError(err error, records []question.Record, ordered bool, target string) (backend.Result, error) {
	var bulkErr mongo.BulkWriteException
	if errors.As(err, &bulkErr) && len(bulkErr.WriteErrors) == 0 && bulkErr.WriteConcernError != nil {
		// The documents were applied; only the write concern acknowledgement failed.
		inserted := len(records)
		return backend.Result{Inserted: inserted}, &backend.PartialWriteError{
			Inserted: inserted,
			Err:      fmt.Errorf("write concern not satisfied: %s", bulkErr.WriteConcernError.Message),
		}
	}
	if errors.As(err, &bulkErr) && len(bulkErr.WriteErrors) > 0 {
		failed := failedRecords(bulkErr, records)
		inserted := insertedCount(bulkErr, len(records), ordered)
		if inserted == 0 {
			return backend.Result{}, &backend.WriteError{Failed: failed, Err: err}
		}
		return backend.Result{Inserted: inserted}, &backend.PartialWriteError{Inserted: inserted, Failed: failed, Err: err}
	}
	if mongo.IsNetworkError(err) || errors.Is(err, mongo.ErrClientDisconnected) {
		return backend.Result{}, &backend.ConnectionError{Backend: backendName, Target: target, Err: err}
	}
	return backend.Result{}, &backend.WriteError{Err: err}
}

// insertedCount derives how many documents landed before the store stopped.
// An ordered insert stops at the first failing index; an unordered insert
// attempts every document.
func insertedCount(bulkErr mongo.BulkWriteException, total int, ordered bool) int {
	if !ordered {
		inserted := total - len(bulkErr.WriteErrors)
		if inserted < 0 {
			return 0
		}
		return inserted
	}
	first := total
	for _, writeErr := range bulkErr.WriteErrors {
		if writeErr.Index < first {
			first = writeErr.Index
		}
	}
	return first
}

func failedRecords(bulkErr mongo.BulkWriteException, records []question.Record) []backend.FailedRecord {
	failed := make([]backend.FailedRecord, 0, len(bulkErr.WriteErrors))
	for _, writeErr := range bulkErr.WriteErrors {
		entry := backend.FailedRecord{
			Index:     writeErr.Index,
			Duplicate: mongo.IsDuplicateKeyError(writeErr.WriteError),
			Message:   writeErr.Message,
		}
		if writeErr.Index >= 0 && writeErr.Index < len(records) {
			entry.Index = records[writeErr.Index].Index
			entry.QuestionID = records[writeErr.Index].Summary().ID
		}
		failed = append(failed, entry)
	}
	return failed
}

// redactURI hides credentials before the URI reaches logs or errors.
func redactURI(raw string) string {
	parsed, err := url.Parse(raw)
	if err != nil {
		return "mongodb"
	}
	return parsed.Redacted()
}
