package cli

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"qingest/internal/ingest"
)

const (
	colorSuccess = lipgloss.Color("42")
	colorWarning = lipgloss.Color("214")
	colorFailure = lipgloss.Color("196")
)

func stylize(text string, noColor bool, color lipgloss.Color) string {
	if noColor {
		return text
	}
	return lipgloss.NewStyle().Foreground(color).Render(text)
}

// formatSummary renders the single success line.
func formatSummary(report ingest.Report, noColor bool) string {
	if report.DryRun {
		return stylize(fmt.Sprintf("Validated %d questions (dry run)", report.Loaded), noColor, colorSuccess)
	}
	return stylize(fmt.Sprintf("Inserted %d questions into %s", report.Inserted, report.Target), noColor, colorSuccess)
}

var failureLabels = map[ingest.Kind]string{
	ingest.KindConfig:       "Invalid configuration:",
	ingest.KindRead:         "Read failed:",
	ingest.KindParse:        "Parse failed:",
	ingest.KindValidation:   "Validation failed:",
	ingest.KindConnection:   "Connection failed:",
	ingest.KindWrite:        "Write failed:",
	ingest.KindPartialWrite: "Partial write:",
}

// formatFailure renders the single failure line for err.
func formatFailure(kind ingest.Kind, err error, noColor bool) string {
	label, ok := failureLabels[kind]
	if !ok {
		label = "Error:"
	}
	color := colorFailure
	if kind == ingest.KindPartialWrite {
		color = colorWarning
	}
	return stylize(label, noColor, color) + " " + err.Error()
}
