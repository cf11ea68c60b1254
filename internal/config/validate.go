package config

import (
	"fmt"
	"strings"
)

// Issue captures a validation problem with a config field.
type Issue struct {
	Field   string
	Message string
}

// ValidationError aggregates config validation issues.
type ValidationError struct {
	Issues []Issue
}

// Error renders validation issues on one line each.
func (err *ValidationError) Error() string {
	if err == nil || len(err.Issues) == 0 {
		return "config validation failed"
	}
	lines := make([]string, 0, len(err.Issues))
	for _, issue := range err.Issues {
		lines = append(lines, fmt.Sprintf("%s: %s", issue.Field, issue.Message))
	}
	return strings.Join(lines, "\n")
}

type issueCollector struct {
	issues []Issue
}

func (c *issueCollector) add(field, message string) {
	c.issues = append(c.issues, Issue{Field: field, Message: message})
}

func (c *issueCollector) result() error {
	if len(c.issues) == 0 {
		return nil
	}
	return &ValidationError{Issues: c.issues}
}

var (
	logLevels  = []string{"trace", "debug", "info", "warn", "error"}
	logFormats = []string{"json", "console"}
	colorModes = []string{"auto", "always", "never"}
)

// Validate reports every invalid setting at once.
func Validate(cfg *Config) error {
	collector := &issueCollector{}
	if cfg == nil {
		collector.add("config", "is nil")
		return collector.result()
	}

	switch cfg.Backend {
	case BackendMongo:
		uri := strings.TrimSpace(cfg.URI)
		switch {
		case uri == "":
			collector.add("uri", "is required")
		case !strings.HasPrefix(uri, "mongodb://") && !strings.HasPrefix(uri, "mongodb+srv://"):
			collector.add("uri", "must start with mongodb:// or mongodb+srv://")
		}
		if strings.TrimSpace(cfg.Database) == "" {
			collector.add("database", "is required")
		}
	case BackendDuckDB:
		if strings.TrimSpace(cfg.DuckDBPath) == "" {
			collector.add("duckdb_path", "is required")
		}
	default:
		collector.add("backend", fmt.Sprintf("must be one of %s, got %q", strings.Join([]string{BackendMongo, BackendDuckDB}, ", "), cfg.Backend))
	}
	if strings.TrimSpace(cfg.Collection) == "" {
		collector.add("collection", "is required")
	}
	if cfg.ConnectTimeout <= 0 {
		collector.add("connect_timeout", "must be positive")
	}
	if cfg.WriteTimeout <= 0 {
		collector.add("write_timeout", "must be positive")
	}
	checkOneOf(collector, "log.level", cfg.Log.Level, logLevels)
	checkOneOf(collector, "log.format", cfg.Log.Format, logFormats)
	checkOneOf(collector, "color", cfg.Color, colorModes)
	return collector.result()
}

func checkOneOf(collector *issueCollector, field, value string, allowed []string) {
	for _, candidate := range allowed {
		if value == candidate {
			return
		}
	}
	collector.add(field, fmt.Sprintf("must be one of %s, got %q", strings.Join(allowed, ", "), value))
}
