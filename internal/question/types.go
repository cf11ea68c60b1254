package question

import "encoding/json"

// Required field names of a question record.
const (
	FieldQuestionID   = "question_id"
	FieldTitle        = "title"
	FieldDescription  = "description"
	FieldInputFormat  = "input_format"
	FieldOutputFormat = "output_format"
	FieldConstraints  = "constraints"
	FieldExample      = "example"
	FieldTestCases    = "test_cases"
)

// Record is one validated question read from an input file.
//
// Raw holds the record exactly as it appeared in the input, so field order and
// unknown fields survive the trip to the store. Fields is the decoded object
// used for validation and must be treated as read-only.
type Record struct {
	Index  int
	Raw    json.RawMessage
	Fields map[string]interface{}
}

// Summary identifies a question in logs and command output.
type Summary struct {
	ID    string
	Title string
}

// Summary returns the identifying fields of the record.
func (r Record) Summary() Summary {
	id, _ := r.Fields[FieldQuestionID].(string)
	title, _ := r.Fields[FieldTitle].(string)
	return Summary{ID: id, Title: title}
}

// IDs returns the question ids of records in order.
func IDs(records []Record) []string {
	ids := make([]string, 0, len(records))
	for _, record := range records {
		ids = append(ids, record.Summary().ID)
	}
	return ids
}
