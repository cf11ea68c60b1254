package question

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	formatJSON = "json"
	formatYAML = "yaml"
)

// LoadOptions controls optional loader checks.
type LoadOptions struct {
	Strict             bool
	RejectDuplicateIDs bool
}

// LoadFile reads, parses and validates a question file. A top-level array
// yields one record per element in input order; any other value is treated as
// a single record. Validation stops at the first failing record.
func LoadFile(path string, opts LoadOptions) ([]Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &FileReadError{Path: path, Err: err}
	}
	return Load(data, path, opts)
}

// Load parses and validates question data. path selects the parser by
// extension and is used in error messages.
func Load(data []byte, path string, opts LoadOptions) ([]Record, error) {
	validator, err := NewValidator(ValidatorOptions{Strict: opts.Strict})
	if err != nil {
		return nil, err
	}
	format := formatForPath(path)
	document, err := parseDocument(data, format)
	if err != nil {
		return nil, &ParseError{Path: path, Format: format, Err: err}
	}
	items, err := splitRecords(document)
	if err != nil {
		return nil, &ParseError{Path: path, Format: format, Err: err}
	}

	records := make([]Record, 0, len(items))
	seenIDs := map[string]int{}
	for index, item := range items {
		value, err := decodeValue(item)
		if err != nil {
			return nil, &ParseError{Path: path, Format: format, Err: fmt.Errorf("record %d: %w", index, err)}
		}
		if err := validator.Validate(index, value); err != nil {
			return nil, err
		}
		record := Record{Index: index, Raw: item, Fields: value.(map[string]interface{})}
		if opts.RejectDuplicateIDs {
			id := record.Summary().ID
			if first, exists := seenIDs[id]; exists {
				return nil, &SchemaValidationError{Index: index, Issues: []Issue{{
					Field:   FieldQuestionID,
					Message: fmt.Sprintf("duplicate id %q (first seen at records[%d])", id, first),
				}}}
			}
			seenIDs[id] = index
		}
		records = append(records, record)
	}
	return records, nil
}

func formatForPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yml", ".yaml":
		return formatYAML
	default:
		return formatJSON
	}
}

// parseDocument returns the single JSON document held in data.
func parseDocument(data []byte, format string) (json.RawMessage, error) {
	if format == formatYAML {
		return yamlToJSON(data)
	}
	decoder := json.NewDecoder(bytes.NewReader(data))
	var document json.RawMessage
	if err := decoder.Decode(&document); err != nil {
		if err == io.EOF {
			return nil, errors.New("document is empty")
		}
		return nil, err
	}
	var extra json.RawMessage
	if err := decoder.Decode(&extra); err != io.EOF {
		if err == nil {
			return nil, errors.New("multiple documents are not supported")
		}
		return nil, err
	}
	return document, nil
}

func yamlToJSON(data []byte) (json.RawMessage, error) {
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	var value interface{}
	if err := decoder.Decode(&value); err != nil {
		if err == io.EOF {
			return nil, errors.New("document is empty")
		}
		return nil, err
	}
	var extra interface{}
	if err := decoder.Decode(&extra); err != io.EOF {
		if err == nil {
			return nil, errors.New("multiple documents are not supported")
		}
		return nil, err
	}
	encoded, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("convert to json: %w", err)
	}
	return encoded, nil
}

// splitRecords expands a top-level array into its elements.
func splitRecords(document json.RawMessage) ([]json.RawMessage, error) {
	trimmed := bytes.TrimSpace(document)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return []json.RawMessage{trimmed}, nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(trimmed, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// decodeValue decodes a record keeping numbers as json.Number.
func decodeValue(raw json.RawMessage) (interface{}, error) {
	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.UseNumber()
	var value interface{}
	if err := decoder.Decode(&value); err != nil {
		return nil, err
	}
	return value, nil
}
