package errors

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// CLIErrorAdapter handles error presentation and exit code determination for the CLI.
type CLIErrorAdapter struct {
	verbose bool
	logger  *slog.Logger
	out     io.Writer
	exit    func(int)
}

// NewCLIErrorAdapter creates a new CLI error adapter writing diagnostics to stderr.
func NewCLIErrorAdapter(verbose bool, logger *slog.Logger) *CLIErrorAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CLIErrorAdapter{
		verbose: verbose,
		logger:  logger,
		out:     os.Stderr,
		exit:    os.Exit,
	}
}

// WithOutput redirects diagnostics and replaces the exit function (tests).
func (a *CLIErrorAdapter) WithOutput(w io.Writer, exit func(int)) *CLIErrorAdapter {
	if w != nil {
		a.out = w
	}
	if exit != nil {
		a.exit = exit
	}
	return a
}

// ExitCodeFor determines the exit code for an error.
// Stage failures exit 1; bad input exits 2 so wrappers can tell them apart.
func (a *CLIErrorAdapter) ExitCodeFor(err error) int {
	if err == nil {
		return 0
	}
	if classified, ok := AsClassified(err); ok {
		switch classified.Category() {
		case CategoryConfig, CategoryValidation:
			return 2
		case CategoryAuth, CategoryCheckout, CategoryBuild, CategoryHarvest,
			CategoryPublish, CategoryCleanup, CategoryInternal:
			return 1
		}
	}
	return 1
}

// FormatError renders an error for the operator, including captured
// subprocess output when the error carries it.
func (a *CLIErrorAdapter) FormatError(err error) string {
	if err == nil {
		return ""
	}
	classified, ok := AsClassified(err)
	if !ok {
		return fmt.Sprintf("Error: %v", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Error (%s): %s", classified.Category(), classified.Message())
	if cause := classified.Cause(); cause != nil {
		fmt.Fprintf(&b, ": %v", cause)
	}
	if a.verbose {
		for _, key := range []string{"op", "url", "path", "exit_code"} {
			if v, exists := classified.Context().Get(key); exists {
				fmt.Fprintf(&b, "\n  %s: %v", key, v)
			}
		}
	}
	if stderr, exists := classified.Context().GetString("stderr"); exists && strings.TrimSpace(stderr) != "" {
		b.WriteString("\n--- captured stderr ---\n")
		b.WriteString(strings.TrimRight(stderr, "\n"))
	}
	return b.String()
}

// HandleError logs err, prints the diagnostic and exits with the mapped code.
func (a *CLIErrorAdapter) HandleError(err error) {
	if err == nil {
		return
	}
	a.logError(err)
	fmt.Fprintln(a.out, a.FormatError(err))
	a.exit(a.ExitCodeFor(err))
}

func (a *CLIErrorAdapter) logError(err error) {
	classified, ok := AsClassified(err)
	if !ok {
		a.logger.Error("Unclassified error", "error", err)
		return
	}
	attrs := []slog.Attr{slog.String("category", string(classified.Category()))}
	if classified.Cause() != nil {
		attrs = append(attrs, slog.String("cause", classified.Cause().Error()))
	}
	a.logger.LogAttrs(context.Background(), slogLevelFromSeverity(classified.Severity()), classified.Message(), attrs...)
}

func slogLevelFromSeverity(severity ErrorSeverity) slog.Level {
	switch severity {
	case SeverityInfo:
		return slog.LevelInfo
	case SeverityWarning:
		return slog.LevelWarn
	case SeverityError, SeverityFatal:
		return slog.LevelError
	default:
		return slog.LevelError
	}
}
