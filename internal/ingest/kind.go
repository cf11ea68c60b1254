package ingest

import (
	"errors"

	"qingest/internal/backend"
	"qingest/internal/config"
	"qingest/internal/question"
)

// Kind names the category of a failed run.
type Kind string

const (
	KindNone         Kind = ""
	KindConfig       Kind = "config"
	KindRead         Kind = "read"
	KindParse        Kind = "parse"
	KindValidation   Kind = "validation"
	KindConnection   Kind = "connection"
	KindWrite        Kind = "write"
	KindPartialWrite Kind = "partial_write"
	KindUnexpected   Kind = "unexpected"
)

// Classify maps an error returned by Run onto its Kind.
func Classify(err error) Kind {
	if err == nil {
		return KindNone
	}
	var (
		configErr     *config.ValidationError
		readErr       *question.FileReadError
		parseErr      *question.ParseError
		validationErr *question.SchemaValidationError
		connErr       *backend.ConnectionError
		partialErr    *backend.PartialWriteError
		writeErr      *backend.WriteError
	)
	switch {
	case errors.As(err, &configErr):
		return KindConfig
	case errors.As(err, &readErr):
		return KindRead
	case errors.As(err, &parseErr):
		return KindParse
	case errors.As(err, &validationErr):
		return KindValidation
	case errors.As(err, &connErr):
		return KindConnection
	case errors.As(err, &partialErr):
		return KindPartialWrite
	case errors.As(err, &writeErr):
		return KindWrite
	default:
		return KindUnexpected
	}
}
