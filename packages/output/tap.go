package output

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/abdul-hamid-achik/timecheck/packages/core/runner"
	"gopkg.in/yaml.v3"
)

// TAPFormatter formats run results as TAP version 13
type TAPFormatter struct {
	writer  io.Writer
	results []tapResult
	bailed  bool
}

type tapResult struct {
	name       string
	passed     bool
	diagnostic *tapDiagnostic
}

// tapDiagnostic is the YAML block attached to a failing test.
type tapDiagnostic struct {
	Message  string   `yaml:"message,omitempty"`
	Severity string   `yaml:"severity,omitempty"`
	Failures []string `yaml:"failures,omitempty"`
	Duration string   `yaml:"duration_ms,omitempty"`
	Curl     string   `yaml:"curl,omitempty"`
}

type TAPOption func(*TAPFormatter)

func NewTAPFormatter(opts ...TAPOption) *TAPFormatter {
	f := &TAPFormatter{
		writer:  os.Stdout,
		results: make([]tapResult, 0),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func TAPWithWriter(w io.Writer) TAPOption {
	return func(f *TAPFormatter) {
		f.writer = w
	}
}

func (f *TAPFormatter) FormatResult(result *runner.RunResult) {
	f.bailed = f.bailed || result.Bailed

	for _, r := range result.Results {
		tr := tapResult{name: r.Name, passed: r.Passed && r.Err == nil}

		switch {
		case r.Err != nil:
			tr.diagnostic = &tapDiagnostic{
				Message:  r.Err.Error(),
				Severity: "error",
				Curl:     r.Curl,
			}
		case !r.Passed:
			tr.diagnostic = &tapDiagnostic{
				Severity: "fail",
				Failures: failureLines(r),
				Duration: fmt.Sprintf("%d", r.Duration.Milliseconds()),
				Curl:     r.Curl,
			}
		}

		f.results = append(f.results, tr)
	}
}

func (f *TAPFormatter) FormatError(err error) {
	f.results = append(f.results, tapResult{
		name:       "setup",
		diagnostic: &tapDiagnostic{Message: err.Error(), Severity: "error"},
	})
}

func (f *TAPFormatter) FormatHeader(version string) {
	// Header is written in Flush
}

// Flush writes the accumulated TAP output
func (f *TAPFormatter) Flush(totalDuration time.Duration) error {
	var b strings.Builder
	b.WriteString("TAP version 13\n")
	fmt.Fprintf(&b, "1..%d\n", len(f.results))

	for i, r := range f.results {
		status := "ok"
		if !r.passed {
			status = "not ok"
		}
		fmt.Fprintf(&b, "%s %d - %s\n", status, i+1, r.name)

		if r.diagnostic != nil {
			data, err := yaml.Marshal(r.diagnostic)
			if err != nil {
				return err
			}
			b.WriteString("  ---\n")
			for _, line := range strings.Split(strings.TrimRight(string(data), "\n"), "\n") {
				b.WriteString("  " + line + "\n")
			}
			b.WriteString("  ...\n")
		}
	}

	if f.bailed {
		b.WriteString("Bail out! remaining cases were not run\n")
	}
	fmt.Fprintf(&b, "# time %dms\n", totalDuration.Milliseconds())

	_, err := io.WriteString(f.writer, b.String())
	return err
}
