// Package metrics exports run results in the Prometheus text format, for the
// node_exporter textfile collector or any scraper that reads a file.
package metrics

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/abdul-hamid-achik/timecheck/packages/core/runner"
	"github.com/pkg/errors"
)

// Aggregate holds the figures exported for one run.
type Aggregate struct {
	Suite       string
	Finished    time.Time
	Duration    time.Duration
	Passed      int
	Failed      int
	Errored     int
	OK          bool
	Latency     runner.LatencySummary
	StatusCodes map[int]int
	ByTest      map[string]*TestAggregate
}

// TestAggregate holds the outcome of one case.
type TestAggregate struct {
	Name     string
	Case     string
	Passed   bool
	Duration time.Duration
}

// Collect builds the aggregate of result.
func Collect(result *runner.RunResult, finished time.Time) *Aggregate {
	a := &Aggregate{
		Suite:       result.Suite,
		Finished:    finished,
		Duration:    result.Duration,
		Passed:      result.Passed,
		Failed:      result.Failed,
		Errored:     result.Errored,
		OK:          result.OK(),
		Latency:     result.Latency,
		StatusCodes: make(map[int]int),
		ByTest:      make(map[string]*TestAggregate),
	}
	for _, cr := range result.Results {
		if cr.Response != nil {
			a.StatusCodes[cr.Response.StatusCode()]++
		}
		a.ByTest[cr.Name] = &TestAggregate{
			Name:     cr.Name,
			Case:     cr.Case,
			Passed:   cr.Passed,
			Duration: cr.Duration,
		}
	}
	return a
}

// Write renders a in the Prometheus text format. Samples carry no
// timestamps, which the textfile collector rejects.
func Write(w io.Writer, a *Aggregate) error {
	pw := &promWriter{w: w, suite: sanitizeLabel(a.Suite)}

	pw.family("timecheck_last_run_timestamp_seconds", "gauge", "Unix time the last run finished")
	pw.sample("timecheck_last_run_timestamp_seconds", "", float64(a.Finished.UnixNano())/1e9)

	pw.family("timecheck_run_success", "gauge", "Whether every case of the last run passed")
	pw.sample("timecheck_run_success", "", boolValue(a.OK))

	pw.family("timecheck_run_duration_seconds", "gauge", "Wall time of the last run")
	pw.sample("timecheck_run_duration_seconds", "", a.Duration.Seconds())

	pw.family("timecheck_cases", "gauge", "Cases of the last run by outcome")
	pw.sample("timecheck_cases", `result="passed"`, float64(a.Passed))
	pw.sample("timecheck_cases", `result="failed"`, float64(a.Failed))
	pw.sample("timecheck_cases", `result="errored"`, float64(a.Errored))

	if a.Latency.Count > 0 {
		pw.family("timecheck_request_duration_seconds", "summary", "Request latency of the last run")
		for _, q := range []struct {
			label string
			value time.Duration
		}{{"0.5", a.Latency.P50}, {"0.95", a.Latency.P95}, {"0.99", a.Latency.P99}} {
			pw.sample("timecheck_request_duration_seconds", fmt.Sprintf("quantile=%q", q.label), q.value.Seconds())
		}
		pw.sample("timecheck_request_duration_seconds_sum", "", a.Latency.Mean.Seconds()*float64(a.Latency.Count))
		pw.sample("timecheck_request_duration_seconds_count", "", float64(a.Latency.Count))
	}

	if len(a.StatusCodes) > 0 {
		pw.family("timecheck_responses", "gauge", "Responses of the last run by HTTP status code")
		codes := make([]int, 0, len(a.StatusCodes))
		for code := range a.StatusCodes {
			codes = append(codes, code)
		}
		sort.Ints(codes)
		for _, code := range codes {
			pw.sample("timecheck_responses", fmt.Sprintf(`status="%d"`, code), float64(a.StatusCodes[code]))
		}
	}

	if len(a.ByTest) > 0 {
		names := make([]string, 0, len(a.ByTest))
		for name := range a.ByTest {
			names = append(names, name)
		}
		sort.Strings(names)

		pw.family("timecheck_test_success", "gauge", "Whether the case passed in the last run")
		for _, name := range names {
			ta := a.ByTest[name]
			pw.sample("timecheck_test_success", testLabels(ta), boolValue(ta.Passed))
		}
		pw.family("timecheck_test_duration_seconds", "gauge", "Request duration of the case in the last run")
		for _, name := range names {
			ta := a.ByTest[name]
			pw.sample("timecheck_test_duration_seconds", testLabels(ta), ta.Duration.Seconds())
		}
	}

	return pw.err
}

// WriteFile replaces path with the metrics of a. The file is written next
// to path and renamed so scrapers never read a partial file.
func WriteFile(path string, a *Aggregate) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return errors.Wrap(err, "creating metrics file")
	}
	defer os.Remove(tmp.Name())

	if err := Write(tmp, a); err != nil {
		_ = tmp.Close()
		return errors.Wrap(err, "writing metrics")
	}
	if err := tmp.Chmod(0o644); err != nil {
		_ = tmp.Close()
		return errors.Wrap(err, "writing metrics")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "writing metrics")
	}
	return errors.Wrap(os.Rename(tmp.Name(), path), "replacing metrics file")
}

type promWriter struct {
	w     io.Writer
	suite string
	err   error
}

func (p *promWriter) printf(format string, args ...any) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format, args...)
}

func (p *promWriter) family(name, kind, help string) {
	p.printf("# HELP %s %s\n# TYPE %s %s\n", name, help, name, kind)
}

func (p *promWriter) sample(name, labels string, value float64) {
	all := fmt.Sprintf(`suite="%s"`, p.suite)
	if labels != "" {
		all += "," + labels
	}
	p.printf("%s{%s} %g\n", name, all, value)
}

func testLabels(ta *TestAggregate) string {
	return fmt.Sprintf(`case="%s",test="%s"`, sanitizeLabel(ta.Case), sanitizeLabel(ta.Name))
}

func boolValue(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// sanitizeLabel makes a string safe for use as a Prometheus label value
func sanitizeLabel(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "\"", "\\\"")
	s = strings.ReplaceAll(s, "\n", "\\n")
	return s
}
