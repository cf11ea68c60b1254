package main

import (
	"os"
	"path/filepath"
	"testing"

	"qingest/internal/backend/duckdb"
	"qingest/internal/backend/duckdb/duckdbtesting"
	"qingest/internal/question"
	"qingest/internal/testutil"
)

func TestGenerateFixture(t *testing.T) {
	ctx := testutil.Context(t, 0)
	dir := t.TempDir()
	outPath := filepath.Join(dir, "questions.json")
	dbPath := filepath.Join(dir, "questions.duckdb")
	cfg := fixtureConfig{Name: "small", Questions: 4, TestCases: 2}

	if err := generateFixture(ctx, outPath, dbPath, cfg); err != nil {
		t.Fatalf("generate: %v", err)
	}

	records, err := question.LoadFile(outPath, question.LoadOptions{Strict: true, RejectDuplicateIDs: true})
	if err != nil {
		t.Fatalf("reload fixture: %v", err)
	}
	if len(records) != cfg.Questions {
		t.Fatalf("expected %d records, got %d", cfg.Questions, len(records))
	}
	if records[0].Summary().ID != deterministicID("question-small", 0) {
		t.Fatalf("unexpected first id %q", records[0].Summary().ID)
	}

	writer, err := duckdb.Open(ctx, duckdb.Config{Path: dbPath, Table: "questions"})
	if err != nil {
		t.Fatalf("open fixture db: %v", err)
	}
	defer writer.Close(ctx)
	if got := duckdbtesting.CountRows(t, writer.DB(), "questions"); got != cfg.Questions {
		t.Fatalf("expected %d rows, got %d", cfg.Questions, got)
	}
	ids := duckdbtesting.QuestionIDs(t, writer.DB(), "questions")
	if len(ids) != len(records) || ids[3] != records[3].Summary().ID {
		t.Fatalf("unexpected stored ids %v", ids)
	}
}

func TestGenerateFixtureIsRepeatable(t *testing.T) {
	ctx := testutil.Context(t, 0)
	dir := t.TempDir()
	first := filepath.Join(dir, "first.json")
	second := filepath.Join(dir, "second.json")
	cfg := fixtureConfig{Name: "repeat", Questions: 3, TestCases: 1}

	for _, path := range []string{first, second} {
		if err := generateFixture(ctx, path, "", cfg); err != nil {
			t.Fatalf("generate %s: %v", path, err)
		}
	}
	a, err := os.ReadFile(first)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	b, err := os.ReadFile(second)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(a) != string(b) {
		t.Fatalf("expected identical fixtures")
	}
}

func TestLoadConfigRejectsNegativeCounts(t *testing.T) {
	path := testutil.WriteFile(t, "fixture.json", `{"name":"bad","questions":-1,"test_cases":0}`)
	if _, err := loadConfig(path); err == nil {
		t.Fatalf("expected negative count to be rejected")
	}
}
