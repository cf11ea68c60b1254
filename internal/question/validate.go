package question

import (
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Issue captures a single schema violation inside a record.
type Issue struct {
	Field   string
	Message string
}

// SchemaValidationError reports why a record was rejected. Index is the
// record's zero-based position in the input.
type SchemaValidationError struct {
	Index  int
	Issues []Issue
}

// Error returns a readable message naming the record and each field.
func (err *SchemaValidationError) Error() string {
	if err == nil {
		return "invalid record"
	}
	if len(err.Issues) == 0 {
		return fmt.Sprintf("records[%d]: invalid record", err.Index)
	}
	parts := make([]string, 0, len(err.Issues))
	for _, issue := range err.Issues {
		parts = append(parts, fmt.Sprintf("records[%d].%s: %s", err.Index, issue.Field, issue.Message))
	}
	return strings.Join(parts, "; ")
}

// Fields returns the offending field paths in report order.
func (err *SchemaValidationError) Fields() []string {
	fields := make([]string, 0, len(err.Issues))
	for _, issue := range err.Issues {
		fields = append(fields, issue.Field)
	}
	return fields
}

type issueCollector struct {
	index  int
	issues []Issue
}

func (collector *issueCollector) add(field, message string) {
	collector.issues = append(collector.issues, Issue{Field: field, Message: message})
}

func (collector *issueCollector) result() error {
	if len(collector.issues) == 0 {
		return nil
	}
	return &SchemaValidationError{Index: collector.index, Issues: collector.issues}
}

// ValidatorOptions selects optional checks on top of the required schema.
type ValidatorOptions struct {
	// Strict additionally checks the nested shape of constraints, example and
	// test_cases against the embedded strict JSON Schema.
	Strict bool
}

// Validator checks decoded records against the question schema.
type Validator struct {
	strict *jsonschema.Schema
}

// NewValidator builds a validator, compiling the strict schema when requested.
func NewValidator(opts ValidatorOptions) (*Validator, error) {
	validator := &Validator{}
	if opts.Strict {
		schema, err := compileStrictSchema()
		if err != nil {
			return nil, err
		}
		validator.strict = schema
	}
	return validator, nil
}

// Validate checks the record at index. It never modifies value.
func (v *Validator) Validate(index int, value interface{}) error {
	collector := &issueCollector{index: index}
	object, ok := value.(map[string]interface{})
	if !ok {
		collector.add("(record)", mismatch(kindObject, value))
		return collector.result()
	}
	for _, rule := range requiredFields {
		fieldValue, present := object[rule.name]
		if !present {
			collector.add(rule.name, "is required")
			continue
		}
		checkField(rule, fieldValue, collector.add)
	}
	if len(collector.issues) == 0 && v != nil && v.strict != nil {
		validateStrict(v.strict, value, collector.add)
	}
	return collector.result()
}

var defaultValidator = &Validator{}

// Validate checks one record against the required schema without strict
// nested checks.
func Validate(value interface{}) error {
	return defaultValidator.Validate(0, value)
}
