package cli

import (
	"fmt"
	"io"
	"strings"

	"qingest/internal/ingest"
	"qingest/internal/question"
)

// Exit codes, one per failure kind.
const (
	ExitOK              = 0
	ExitError           = 1
	ExitUsage           = 2
	ExitReadError       = 3
	ExitParseError      = 4
	ExitValidationError = 5
	ExitConnectionError = 6
	ExitWriteError      = 7
	ExitPartialWrite    = 8
)

var usageLines = []string{
	"qingest [options] <file>",
}

const summary = "Validate a JSON or YAML file of coding questions and insert them into the question store."

// exitCodeFor maps a failure kind onto its exit code.
func exitCodeFor(kind ingest.Kind) int {
	switch kind {
	case ingest.KindNone:
		return ExitOK
	case ingest.KindRead:
		return ExitReadError
	case ingest.KindParse:
		return ExitParseError
	case ingest.KindValidation:
		return ExitValidationError
	case ingest.KindConnection:
		return ExitConnectionError
	case ingest.KindWrite:
		return ExitWriteError
	case ingest.KindPartialWrite:
		return ExitPartialWrite
	default:
		return ExitError
	}
}

func wantsHelp(args []string) bool {
	for _, arg := range args {
		switch arg {
		case "-h", "--help":
			return true
		case "--":
			return false
		}
	}
	return false
}

func printUsage(w io.Writer, options func(io.Writer)) {
	fmt.Fprintln(w, "Usage:")
	for _, line := range usageLines {
		fmt.Fprintf(w, "  %s\n", line)
	}
	fmt.Fprintf(w, "\n%s\n", summary)
	fmt.Fprintf(w, "Each record must carry: %s.\n", strings.Join(question.RequiredFields(), ", "))
	if options != nil {
		fmt.Fprintln(w, "\nOptions:")
		options(w)
	}
	fmt.Fprintln(w, "\nExit codes:")
	fmt.Fprintln(w, "  0 success, 1 config or unexpected error, 2 usage, 3 read, 4 parse,")
	fmt.Fprintln(w, "  5 validation, 6 connection, 7 write, 8 partial write")
}
