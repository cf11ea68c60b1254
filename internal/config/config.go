// Package config resolves loader settings from defaults, an optional YAML
// file and the environment.
package config

import (
	"fmt"
	"time"
)

// Backend names accepted by the loader.
const (
	BackendMongo  = "mongo"
	BackendDuckDB = "duckdb"
)

// Default connection settings.
const (
	DefaultURI            = "mongodb://localhost:27017/"
	DefaultDatabase       = "question_db"
	DefaultCollection     = "questions"
	DefaultDuckDBPath     = "questions.duckdb"
	DefaultConnectTimeout = 10 * time.Second
	DefaultWriteTimeout   = 60 * time.Second
)

// Config holds every setting a load run needs.
type Config struct {
	Backend        string        `yaml:"backend"`
	URI            string        `yaml:"uri"`
	Database       string        `yaml:"database"`
	Collection     string        `yaml:"collection"`
	DuckDBPath     string        `yaml:"duckdb_path"`
	Ordered        bool          `yaml:"ordered"`
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
	Strict         bool          `yaml:"strict"`
	UniqueIDs      bool          `yaml:"unique_ids"`
	EnsureIndex    bool          `yaml:"ensure_index"`
	Log            LogConfig     `yaml:"log"`
	MetricsFile    string        `yaml:"metrics_file"`
	Color          string        `yaml:"color"`
}

// LogConfig selects log verbosity and encoding.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Defaults returns the settings used when nothing else is configured.
func Defaults() Config {
	return Config{
		Backend:        BackendMongo,
		URI:            DefaultURI,
		Database:       DefaultDatabase,
		Collection:     DefaultCollection,
		DuckDBPath:     DefaultDuckDBPath,
		Ordered:        true,
		ConnectTimeout: DefaultConnectTimeout,
		WriteTimeout:   DefaultWriteTimeout,
		Log: LogConfig{
			Level:  "warn",
			Format: "console",
		},
		Color: "auto",
	}
}

// Target names where records are written, for summaries and logs.
func (c Config) Target() string {
	if c.Backend == BackendDuckDB {
		return fmt.Sprintf("%s:%s", c.DuckDBPath, c.Collection)
	}
	return c.Database + "." + c.Collection
}
