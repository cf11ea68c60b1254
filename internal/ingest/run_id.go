package ingest

import (
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
)

// NewRunID returns a sortable run id with a random suffix.
func NewRunID() (string, error) {
	return NewRunIDWithRand(time.Now().UTC(), nil)
}

// NewRunIDWithRand builds a run id from r. A nil reader uses the default
// random source.
func NewRunIDWithRand(now time.Time, r io.Reader) (string, error) {
	var (
		id  uuid.UUID
		err error
	)
	if r == nil {
		id, err = uuid.NewRandom()
	} else {
		id, err = uuid.NewRandomFromReader(r)
	}
	if err != nil {
		return "", fmt.Errorf("generate run id: %w", err)
	}
	return FormatRunID(now, id.String()), nil
}

// FormatRunID joins a UTC timestamp and suffix.
func FormatRunID(now time.Time, suffix string) string {
	return now.UTC().Format("20060102T150405Z") + "-" + suffix
}
