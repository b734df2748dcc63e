package output

import (
	"io"
	"strings"
	"time"

	"github.com/abdul-hamid-achik/timecheck/packages/core/runner"
	"github.com/pkg/errors"
)

// Formatter renders run results.
type Formatter interface {
	FormatHeader(version string)
	FormatResult(result *runner.RunResult)
	FormatError(err error)
}

// Flushable is implemented by formatters that write once all results are in.
type Flushable interface {
	Flush(totalDuration time.Duration) error
}

// Formats lists the names accepted by New.
var Formats = []string{"console", "json", "junit", "tap"}

type Options struct {
	Writer  io.Writer
	Verbose bool
	NoColor bool
	// RunID labels the report where the format has a place for it.
	RunID string
}

// New returns the formatter registered under format.
func New(format string, opts Options) (Formatter, error) {
	switch strings.ToLower(format) {
	case "", "console":
		consoleOpts := []ConsoleOption{
			WithVerbose(opts.Verbose),
			WithNoColor(opts.NoColor),
		}
		if opts.Writer != nil {
			consoleOpts = append(consoleOpts, WithWriter(opts.Writer))
		}
		return NewConsoleFormatter(consoleOpts...), nil
	case "json":
		var jsonOpts []JSONOption
		if opts.Writer != nil {
			jsonOpts = append(jsonOpts, JSONWithWriter(opts.Writer))
		}
		if opts.RunID != "" {
			jsonOpts = append(jsonOpts, JSONWithRunID(opts.RunID))
		}
		return NewJSONFormatter(jsonOpts...), nil
	case "junit":
		var junitOpts []JUnitOption
		if opts.Writer != nil {
			junitOpts = append(junitOpts, JUnitWithWriter(opts.Writer))
		}
		return NewJUnitFormatter(junitOpts...), nil
	case "tap":
		var tapOpts []TAPOption
		if opts.Writer != nil {
			tapOpts = append(tapOpts, TAPWithWriter(opts.Writer))
		}
		return NewTAPFormatter(tapOpts...), nil
	default:
		return nil, errors.Errorf("unknown output format %q (want one of %s)", format, strings.Join(Formats, ", "))
	}
}

// Flush flushes f when it accumulates output.
func Flush(f Formatter, totalDuration time.Duration) error {
	if fl, ok := f.(Flushable); ok {
		return fl.Flush(totalDuration)
	}
	return nil
}

// failureLines describes every failed assertion of a case.
func failureLines(cr *runner.CaseResult) []string {
	var lines []string
	for _, a := range cr.Assertions {
		if a.Passed {
			continue
		}
		line := a.Subject + " " + a.Operator
		if a.Message != "" {
			line += ": " + firstLine(a.Message)
		}
		lines = append(lines, line)
	}
	return lines
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

func millis(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000
}
