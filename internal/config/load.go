package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultFileName is picked up from the working directory or its parents
// when no explicit config path is given.
const DefaultFileName = "qingest.yml"

// LoadOptions controls where settings are read from.
type LoadOptions struct {
	// Path is an explicit config file. Empty means search from Dir.
	Path string
	// Dir is the directory to search for DefaultFileName. Empty means the
	// working directory.
	Dir string
	// EnvFiles are dotenv files merged under the process environment.
	// Missing files are ignored.
	EnvFiles []string
	// LookupEnv replaces os.LookupEnv.
	LookupEnv func(string) (string, bool)
}

// Load layers defaults, the config file and the environment. The result is
// not validated so callers can apply flag overrides first.
func Load(opts LoadOptions) (Config, error) {
	cfg := Defaults()

	path := strings.TrimSpace(opts.Path)
	if path == "" {
		found, err := FindConfigPath(opts.Dir)
		if err != nil {
			return Config{}, err
		}
		path = found
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := Parse(data, &cfg); err != nil {
			return Config{}, err
		}
	}

	lookup, err := envLookup(opts)
	if err != nil {
		return Config{}, err
	}
	applyEnv(&cfg, lookup)
	return cfg, nil
}

// Parse decodes a single YAML document over cfg. Unknown keys are rejected.
func Parse(data []byte, cfg *Config) error {
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("parse config: %w", err)
	}
	if err := decoder.Decode(&struct{}{}); err != io.EOF {
		if err == nil {
			return fmt.Errorf("parse config: multiple YAML documents are not supported")
		}
		return fmt.Errorf("parse config: %w", err)
	}
	return nil
}

// FindConfigPath searches upward from startDir for DefaultFileName. It
// returns an empty path when none exists.
func FindConfigPath(startDir string) (string, error) {
	dir := strings.TrimSpace(startDir)
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("get working directory: %w", err)
		}
		dir = wd
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolve start directory: %w", err)
	}
	dir = abs

	for {
		candidate := filepath.Join(dir, DefaultFileName)
		info, err := os.Stat(candidate)
		if err == nil {
			if info.IsDir() {
				return "", fmt.Errorf("config path %q is a directory", candidate)
			}
			return candidate, nil
		}
		if !os.IsNotExist(err) {
			return "", fmt.Errorf("stat config path %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", nil
		}
		dir = parent
	}
}

// envLookup prefers the process environment and falls back to dotenv values.
func envLookup(opts LoadOptions) (func(string) (string, bool), error) {
	base := opts.LookupEnv
	if base == nil {
		base = os.LookupEnv
	}
	files := make([]string, 0, len(opts.EnvFiles))
	for _, file := range opts.EnvFiles {
		if _, err := os.Stat(file); err == nil {
			files = append(files, file)
		}
	}
	if len(files) == 0 {
		return base, nil
	}
	dotenv, err := godotenv.Read(files...)
	if err != nil {
		return nil, fmt.Errorf("read env file: %w", err)
	}
	return func(key string) (string, bool) {
		if value, ok := base(key); ok {
			return value, true
		}
		value, ok := dotenv[key]
		return value, ok
	}, nil
}

func applyEnv(cfg *Config, lookup func(string) (string, bool)) {
	get := func(keys ...string) (string, bool) {
		for _, key := range keys {
			if value, ok := lookup(key); ok && strings.TrimSpace(value) != "" {
				return strings.TrimSpace(value), true
			}
		}
		return "", false
	}
	if value, ok := get("QINGEST_MONGO_URI", "MONGO_URI"); ok {
		cfg.URI = value
	}
	if value, ok := get("QINGEST_DATABASE"); ok {
		cfg.Database = value
	}
	if value, ok := get("QINGEST_COLLECTION"); ok {
		cfg.Collection = value
	}
	if value, ok := get("QINGEST_BACKEND"); ok {
		cfg.Backend = value
	}
	if value, ok := get("QINGEST_DUCKDB_PATH"); ok {
		cfg.DuckDBPath = value
	}
	if value, ok := get("QINGEST_LOG_LEVEL"); ok {
		cfg.Log.Level = value
	}
}
