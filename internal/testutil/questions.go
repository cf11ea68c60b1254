package testutil

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"qingest/internal/question"
)

// SumQuestionJSON is the canonical single-question sample.
const SumQuestionJSON = `{"question_id":"q1","title":"Sum","description":"Add two numbers","input_format":["a","b"],"output_format":"integer","constraints":{},"example":{},"test_cases":[]}`

// QuestionJSON returns a minimal valid question document.
func QuestionJSON(id, title string) string {
	return fmt.Sprintf(`{"question_id":%q,"title":%q,"description":"generated","input_format":["n"],"output_format":"integer","constraints":{},"example":{},"test_cases":[]}`, id, title)
}

// QuestionArrayJSON returns a JSON array of minimal questions with the given ids.
func QuestionArrayJSON(ids ...string) string {
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, QuestionJSON(id, "Title "+id))
	}
	return "[" + strings.Join(parts, ",") + "]"
}

// Records builds validated records for the given ids.
func Records(t testing.TB, ids ...string) []question.Record {
	t.Helper()
	records, err := question.Load([]byte(QuestionArrayJSON(ids...)), "records.json", question.LoadOptions{})
	if err != nil {
		t.Fatalf("build records: %v", err)
	}
	return records
}

// WriteFile writes payload into a temp dir and returns its path.
func WriteFile(t testing.TB, name, payload string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(payload), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

// DecodeObject decodes a JSON object for assertions.
func DecodeObject(t testing.TB, data []byte) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("decode object: %v", err)
	}
	return out
}
