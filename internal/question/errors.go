package question

import "fmt"

// FileReadError reports an input file that is missing or unreadable.
type FileReadError struct {
	Path string
	Err  error
}

func (err *FileReadError) Error() string {
	return fmt.Sprintf("read question file %s: %v", err.Path, err.Err)
}

func (err *FileReadError) Unwrap() error {
	return err.Err
}

// ParseError reports input content that is not valid structured data.
type ParseError struct {
	Path   string
	Format string
	Err    error
}

func (err *ParseError) Error() string {
	return fmt.Sprintf("parse %s %s: %v", err.Format, err.Path, err.Err)
}

func (err *ParseError) Unwrap() error {
	return err.Err
}
