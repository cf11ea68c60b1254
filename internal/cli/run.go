package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"qingest/internal/config"
	"qingest/internal/ingest"
	"qingest/internal/observability/logging"
	"qingest/internal/observability/metrics"
)

// Test hooks.
var (
	openWriter = ingest.OpenWriter
	runIngest  = ingest.Run
	loadConfig = config.Load
)

// envFiles are dotenv files read from the working directory.
var envFiles = []string{".env"}

type options struct {
	configPath  string
	uri         string
	database    string
	collection  string
	backend     string
	duckdbPath  string
	strict      bool
	uniqueIDs   bool
	ensureIndex bool
	dryRun      bool
	logLevel    string
	logFormat   string
	color       string
	metricsFile string
}

func newFlagSet(opts *options, stderr io.Writer) *flag.FlagSet {
	flags := flag.NewFlagSet("qingest", flag.ContinueOnError)
	flags.SetOutput(stderr)
	flags.Usage = func() {}
	flags.StringVar(&opts.configPath, "config", "", "Path to a YAML config file (default: search for "+config.DefaultFileName+")")
	flags.StringVar(&opts.uri, "uri", "", "MongoDB connection string")
	flags.StringVar(&opts.database, "database", "", "Database name")
	flags.StringVar(&opts.collection, "collection", "", "Collection (or DuckDB table) name")
	flags.StringVar(&opts.backend, "backend", "", "Store backend: mongo|duckdb")
	flags.StringVar(&opts.duckdbPath, "duckdb-path", "", "DuckDB database file")
	flags.BoolVar(&opts.strict, "strict", false, "Also validate nested constraints, example and test_cases")
	flags.BoolVar(&opts.uniqueIDs, "unique-ids", false, "Reject files that repeat a question_id")
	flags.BoolVar(&opts.ensureIndex, "ensure-index", false, "Create a unique question_id index before inserting")
	flags.BoolVar(&opts.dryRun, "dry-run", false, "Validate only; never connect to the store")
	flags.StringVar(&opts.logLevel, "log-level", "", "Log level: trace|debug|info|warn|error")
	flags.StringVar(&opts.logFormat, "log-format", "", "Log format: json|console")
	flags.StringVar(&opts.color, "color", "", "Color output: auto|always|never")
	flags.StringVar(&opts.metricsFile, "metrics-file", "", "Write Prometheus metrics to this file")
	return flags
}

// applyFlags copies explicitly set flags over cfg.
func applyFlags(cfg *config.Config, flags *flag.FlagSet, opts *options) {
	flags.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "uri":
			cfg.URI = opts.uri
		case "database":
			cfg.Database = opts.database
		case "collection":
			cfg.Collection = opts.collection
		case "backend":
			cfg.Backend = opts.backend
		case "duckdb-path":
			cfg.DuckDBPath = opts.duckdbPath
		case "strict":
			cfg.Strict = opts.strict
		case "unique-ids":
			cfg.UniqueIDs = opts.uniqueIDs
		case "ensure-index":
			cfg.EnsureIndex = opts.ensureIndex
		case "log-level":
			cfg.Log.Level = opts.logLevel
		case "log-format":
			cfg.Log.Format = opts.logFormat
		case "color":
			cfg.Color = opts.color
		case "metrics-file":
			cfg.MetricsFile = opts.metricsFile
		}
	})
}

// Run executes the loader with CLI arguments and returns the exit code.
func Run(args []string, stdout, stderr io.Writer) int {
	opts := &options{}
	flags := newFlagSet(opts, stderr)
	printOptions := func(w io.Writer) {
		flags.SetOutput(w)
		flags.PrintDefaults()
		flags.SetOutput(stderr)
	}
	if wantsHelp(args) {
		printUsage(stdout, printOptions)
		return ExitOK
	}
	if err := flags.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			printUsage(stdout, printOptions)
			return ExitOK
		}
		fmt.Fprintf(stderr, "invalid arguments: %v\n", err)
		printUsage(stderr, nil)
		return ExitUsage
	}
	if flags.NArg() != 1 {
		if flags.NArg() == 0 {
			fmt.Fprintln(stderr, "missing question file")
		} else {
			fmt.Fprintf(stderr, "unexpected arguments: %s\n", strings.Join(flags.Args()[1:], " "))
		}
		printUsage(stderr, nil)
		return ExitUsage
	}
	path := flags.Arg(0)

	cfg, err := loadConfig(config.LoadOptions{Path: opts.configPath, EnvFiles: envFiles})
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return ExitError
	}
	applyFlags(&cfg, flags, opts)
	if err := config.Validate(&cfg); err != nil {
		fmt.Fprintf(stderr, "Invalid configuration:\n%v\n", err)
		return ExitError
	}

	stdoutColor, err := resolveColor(cfg.Color, stdout)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return ExitError
	}
	stderrColor, _ := resolveColor(cfg.Color, stderr)

	logger := logging.New(logging.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		TimeFormat: logging.DefaultConfig().TimeFormat,
	}, stderr)
	recorder := metrics.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	report, runErr := runIngest(ctx, ingest.Params{
		Path:   path,
		Config: cfg,
		DryRun: opts.dryRun,
		Deps: ingest.Dependencies{
			OpenWriter: openWriter,
			Logger:     &logger,
			Metrics:    recorder,
		},
	})

	if err := recorder.WriteTextfile(cfg.MetricsFile); err != nil {
		logger.Warn().Err(err).Str("path", cfg.MetricsFile).Msg("write metrics file")
	}

	if runErr != nil {
		kind := ingest.Classify(runErr)
		fmt.Fprintln(stderr, formatFailure(kind, runErr, !stderrColor))
		return exitCodeFor(kind)
	}
	fmt.Fprintln(stdout, formatSummary(report, !stdoutColor))
	return ExitOK
}
