package question

import (
	"encoding/json"
	"fmt"
)

// fieldKind is the JSON container or scalar kind a required field must have.
type fieldKind int

const (
	kindString fieldKind = iota
	kindStringArray
	kindObject
	kindArray
)

func (k fieldKind) String() string {
	switch k {
	case kindString:
		return "a string"
	case kindStringArray:
		return "an array of strings"
	case kindObject:
		return "an object"
	case kindArray:
		return "an array"
	default:
		return "unknown"
	}
}

type fieldRule struct {
	name string
	kind fieldKind
}

// requiredFields lists the schema in the order issues are reported.
var requiredFields = []fieldRule{
	{name: FieldQuestionID, kind: kindString},
	{name: FieldTitle, kind: kindString},
	{name: FieldDescription, kind: kindString},
	{name: FieldInputFormat, kind: kindStringArray},
	{name: FieldOutputFormat, kind: kindString},
	{name: FieldConstraints, kind: kindObject},
	{name: FieldExample, kind: kindObject},
	{name: FieldTestCases, kind: kindArray},
}

// RequiredFields returns the names of every field a record must carry.
func RequiredFields() []string {
	names := make([]string, 0, len(requiredFields))
	for _, rule := range requiredFields {
		names = append(names, rule.name)
	}
	return names
}

// checkField reports issues for one field value against its rule.
func checkField(rule fieldRule, value interface{}, add func(field, message string)) {
	switch rule.kind {
	case kindString:
		if _, ok := value.(string); !ok {
			add(rule.name, mismatch(rule.kind, value))
		}
	case kindObject:
		if _, ok := value.(map[string]interface{}); !ok {
			add(rule.name, mismatch(rule.kind, value))
		}
	case kindArray:
		if _, ok := value.([]interface{}); !ok {
			add(rule.name, mismatch(rule.kind, value))
		}
	case kindStringArray:
		items, ok := value.([]interface{})
		if !ok {
			add(rule.name, mismatch(rule.kind, value))
			return
		}
		for i, item := range items {
			if _, ok := item.(string); !ok {
				add(fmt.Sprintf("%s[%d]", rule.name, i), mismatch(kindString, item))
			}
		}
	}
}

func mismatch(want fieldKind, got interface{}) string {
	return fmt.Sprintf("must be %s, got %s", want, jsonKind(got))
}

// jsonKind names the JSON type of a decoded value.
func jsonKind(value interface{}) string {
	switch value.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case json.Number, float64, int, int64:
		return "number"
	case string:
		return "string"
	case []interface{}:
		return "array"
	case map[string]interface{}:
		return "object"
	default:
		return fmt.Sprintf("%T", value)
	}
}
