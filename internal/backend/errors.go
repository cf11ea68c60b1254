package backend

import (
	"fmt"
	"strings"
)

// ConnectionError reports a store that could not be reached.
type ConnectionError struct {
	Backend string
	Target  string
	Err     error
}

func (err *ConnectionError) Error() string {
	return fmt.Sprintf("connect to %s at %s: %v", err.Backend, err.Target, err.Err)
}

func (err *ConnectionError) Unwrap() error {
	return err.Err
}

// FailedRecord identifies a record the store rejected.
type FailedRecord struct {
	Index      int
	QuestionID string
	Duplicate  bool
	Message    string
}

func (record FailedRecord) String() string {
	if record.QuestionID != "" {
		return fmt.Sprintf("records[%d] (%s): %s", record.Index, record.QuestionID, record.Message)
	}
	return fmt.Sprintf("records[%d]: %s", record.Index, record.Message)
}

// WriteError reports a batch the store rejected without writing anything.
type WriteError struct {
	Failed []FailedRecord
	Err    error
}

func (err *WriteError) Error() string {
	if len(err.Failed) == 0 {
		return fmt.Sprintf("batch insert rejected: %v", err.Err)
	}
	return fmt.Sprintf("batch insert rejected: %s", describeFailed(err.Failed))
}

func (err *WriteError) Unwrap() error {
	return err.Err
}

// PartialWriteError reports a batch the store stopped part way through.
// Inserted records remain in the store.
type PartialWriteError struct {
	Inserted int
	Failed   []FailedRecord
	Err      error
}

func (err *PartialWriteError) Error() string {
	if len(err.Failed) == 0 && err.Err != nil {
		return fmt.Sprintf("batch insert stopped after %d records: %v", err.Inserted, err.Err)
	}
	return fmt.Sprintf("batch insert stopped after %d records: %s", err.Inserted, describeFailed(err.Failed))
}

func (err *PartialWriteError) Unwrap() error {
	return err.Err
}

// Duplicates reports whether every failure was a duplicate key.
func (err *PartialWriteError) Duplicates() bool {
	if len(err.Failed) == 0 {
		return false
	}
	for _, failed := range err.Failed {
		if !failed.Duplicate {
			return false
		}
	}
	return true
}

func describeFailed(failed []FailedRecord) string {
	if len(failed) == 0 {
		return "no record details"
	}
	parts := make([]string, 0, len(failed))
	for _, record := range failed {
		parts = append(parts, record.String())
	}
	return strings.Join(parts, "; ")
}
