package question

import (
	_ "embed"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed question.strict.schema.json
var strictSchemaJSON string

const strictSchemaName = "question.strict.schema.json"

// compileStrictSchema compiles the embedded strict schema.
func compileStrictSchema() (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(strictSchemaName, strings.NewReader(strictSchemaJSON)); err != nil {
		return nil, fmt.Errorf("add strict schema: %w", err)
	}
	schema, err := compiler.Compile(strictSchemaName)
	if err != nil {
		return nil, fmt.Errorf("compile strict schema: %w", err)
	}
	return schema, nil
}

// validateStrict runs the strict schema and reports leaf failures as issues.
func validateStrict(schema *jsonschema.Schema, value interface{}, add func(field, message string)) {
	err := schema.Validate(value)
	if err == nil {
		return
	}
	var validationErr *jsonschema.ValidationError
	if !errors.As(err, &validationErr) {
		add("(record)", err.Error())
		return
	}
	for _, leaf := range leafErrors(validationErr) {
		add(pointerToField(leaf.InstanceLocation), leaf.Message)
	}
}

func leafErrors(err *jsonschema.ValidationError) []*jsonschema.ValidationError {
	if len(err.Causes) == 0 {
		return []*jsonschema.ValidationError{err}
	}
	var leaves []*jsonschema.ValidationError
	for _, cause := range err.Causes {
		leaves = append(leaves, leafErrors(cause)...)
	}
	return leaves
}

// pointerToField turns a JSON pointer such as /test_cases/0/input into the
// field path test_cases[0].input.
func pointerToField(pointer string) string {
	pointer = strings.TrimPrefix(pointer, "/")
	if pointer == "" {
		return "(record)"
	}
	var b strings.Builder
	for _, segment := range strings.Split(pointer, "/") {
		segment = strings.ReplaceAll(segment, "~1", "/")
		segment = strings.ReplaceAll(segment, "~0", "~")
		if _, err := strconv.Atoi(segment); err == nil && b.Len() > 0 {
			b.WriteString("[" + segment + "]")
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('.')
		}
		b.WriteString(segment)
	}
	return b.String()
}
