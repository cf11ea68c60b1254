package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"qingest/internal/backend/duckdb"
	"qingest/internal/question"
)

// fixtureConfig defines the JSON config for generating a question fixture.
type fixtureConfig struct {
	Name      string `json:"name"`
	Questions int    `json:"questions"`
	TestCases int    `json:"test_cases"`
}

type fixtureTestCase struct {
	TestCaseID     string   `json:"test_case_id"`
	Input          []string `json:"input"`
	ExpectedOutput string   `json:"expected_output"`
}

type fixtureQuestion struct {
	QuestionID   string            `json:"question_id"`
	Title        string            `json:"title"`
	Description  string            `json:"description"`
	InputFormat  []string          `json:"input_format"`
	OutputFormat string            `json:"output_format"`
	Constraints  map[string]int    `json:"constraints"`
	Example      map[string]any    `json:"example"`
	TestCases    []fixtureTestCase `json:"test_cases"`
}

func main() {
	configPath := flag.String("config", "", "path to fixture config JSON")
	outPath := flag.String("out", "", "output question JSON file path")
	duckdbPath := flag.String("duckdb", "", "also preload the questions into this DuckDB file")
	flag.Parse()
	if *configPath == "" || *outPath == "" {
		fmt.Fprintln(os.Stderr, "usage: generate_questions --config <path> --out <json file> [--duckdb <file>]")
		os.Exit(2)
	}
	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	if err := os.MkdirAll(filepath.Dir(*outPath), 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "mkdir output dir: %v\n", err)
		os.Exit(1)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	if err := generateFixture(ctx, *outPath, *duckdbPath, cfg); err != nil {
		fmt.Fprintf(os.Stderr, "generate fixture: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig(path string) (fixtureConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return fixtureConfig{}, err
	}
	var cfg fixtureConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return fixtureConfig{}, err
	}
	if cfg.Questions < 0 || cfg.TestCases < 0 {
		return fixtureConfig{}, fmt.Errorf("questions and test_cases must not be negative")
	}
	return cfg, nil
}

func generateFixture(ctx context.Context, outPath, duckdbPath string, cfg fixtureConfig) error {
	questions := make([]fixtureQuestion, 0, cfg.Questions)
	for i := 0; i < cfg.Questions; i++ {
		questions = append(questions, buildQuestion(cfg, i))
	}
	data, err := json.MarshalIndent(questions, "", "  ")
	if err != nil {
		return err
	}
	// Fixtures must load cleanly in strict mode.
	records, err := question.Load(data, outPath, question.LoadOptions{Strict: true, RejectDuplicateIDs: true})
	if err != nil {
		return err
	}
	if err := os.WriteFile(outPath, append(data, '\n'), 0o644); err != nil {
		return err
	}
	if duckdbPath == "" {
		return nil
	}
	if err := removeIfExists(duckdbPath); err != nil {
		return err
	}
	writer, err := duckdb.Open(ctx, duckdb.Config{Path: duckdbPath, Table: "questions"})
	if err != nil {
		return err
	}
	defer writer.Close(ctx)
	if err := writer.EnsureIndexes(ctx); err != nil {
		return err
	}
	_, err = writer.InsertQuestions(ctx, records)
	return err
}

func buildQuestion(cfg fixtureConfig, index int) fixtureQuestion {
	cases := make([]fixtureTestCase, 0, cfg.TestCases)
	for i := 0; i < cfg.TestCases; i++ {
		a, b := index+i, index*i+1
		cases = append(cases, fixtureTestCase{
			TestCaseID:     deterministicID(fmt.Sprintf("case-%d", index), i),
			Input:          []string{fmt.Sprint(a), fmt.Sprint(b)},
			ExpectedOutput: fmt.Sprint(a + b),
		})
	}
	return fixtureQuestion{
		QuestionID:   deterministicID("question-"+cfg.Name, index),
		Title:        fmt.Sprintf("%s sum %d", cfg.Name, index),
		Description:  "Read two integers and print their sum.",
		InputFormat:  []string{"a", "b"},
		OutputFormat: "integer",
		Constraints:  map[string]int{"n_min": 0, "n_max": 1000000},
		Example: map[string]any{
			"input":  []string{"1", "2"},
			"output": "3",
		},
		TestCases: cases,
	}
}

// removeIfExists deletes an existing fixture file so we always start fresh.
func removeIfExists(path string) error {
	_, err := os.Stat(path)
	if err == nil {
		if err := os.Remove(path); err != nil {
			return fmt.Errorf("remove existing fixture: %w", err)
		}
		return nil
	}
	if os.IsNotExist(err) {
		return nil
	}
	return fmt.Errorf("stat fixture: %w", err)
}

// deterministicID generates a repeatable UUID for fixture rows.
func deterministicID(prefix string, index int) string {
	return uuid.NewSHA1(fixtureNamespace, []byte(fmt.Sprintf("%s-%d", prefix, index))).String()
}

// fixtureNamespace ensures stable UUIDs across fixture runs.
var fixtureNamespace = uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")
