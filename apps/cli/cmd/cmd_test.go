package cmd

import (
	"bytes"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/abdul-hamid-achik/timecheck/packages/assertions"
	"github.com/abdul-hamid-achik/timecheck/packages/core/suite"
	tchttp "github.com/abdul-hamid-achik/timecheck/packages/http"
	"github.com/abdul-hamid-achik/timecheck/packages/mock"
	"github.com/abdul-hamid-achik/timecheck/packages/output"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// bundledCases is the number of cases the bundled suite expands to: one per
// zone in TimeZones.csv plus three single cases.
const bundledCases = 26 + 3

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	root := NewRootCmd()
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(args)
	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

func mockBaseURL(t *testing.T, opts ...mock.Option) string {
	t.Helper()
	srv, err := mock.NewServer(opts...)
	require.NoError(t, err)
	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)
	return ts.URL + mock.BasePath + "/"
}

func closedBaseURL(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())
	return "http://" + addr + "/api/"
}

func writeResources(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	return dir
}

func decodeJSON(t *testing.T, s string) output.JSONOutput {
	t.Helper()
	var out output.JSONOutput
	require.NoError(t, json.Unmarshal([]byte(s), &out), s)
	return out
}

func TestVersionCommand(t *testing.T) {
	stdout, _, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, stdout, "timecheck version dev")
	assert.Contains(t, stdout, "Built: unknown")
}

func TestRunCommand(t *testing.T) {
	t.Run("bundled suite passes against the mock", func(t *testing.T) {
		stdout, _, err := execute(t, "run", "--base-url", mockBaseURL(t), "-o", "json")
		require.NoError(t, err)

		out := decodeJSON(t, stdout)
		assert.Equal(t, "timeapi", out.Suite)
		assert.Equal(t, bundledCases, out.Summary.Total)
		assert.Equal(t, bundledCases, out.Summary.Passed)
		assert.Zero(t, out.Summary.Failed)
		assert.NotEmpty(t, out.RunID)
		require.NotNil(t, out.Latency)
		assert.EqualValues(t, bundledCases, out.Latency.Count)
	})

	t.Run("parallel run passes", func(t *testing.T) {
		stdout, _, err := execute(t, "run", "--base-url", mockBaseURL(t), "-o", "json", "-p", "--concurrency", "4")
		require.NoError(t, err)
		assert.Equal(t, bundledCases, decodeJSON(t, stdout).Summary.Passed)
	})

	t.Run("latency ceiling fails every case", func(t *testing.T) {
		stdout, stderr, err := execute(t, "run", "--base-url", mockBaseURL(t), "-o", "json", "--latency-ceiling", "1ns")
		require.Error(t, err)
		assert.Equal(t, ExitTestFailure, ExitCode(err))
		assert.Empty(t, stderr)

		out := decodeJSON(t, stdout)
		assert.Equal(t, bundledCases, out.Summary.Failed)
		assert.Contains(t, err.Error(), "cases failed")
	})

	t.Run("bail stops after the first failure", func(t *testing.T) {
		stdout, _, err := execute(t, "run", "--base-url", mockBaseURL(t), "-o", "json", "--latency-ceiling", "1ns", "--bail")
		require.Error(t, err)
		assert.Equal(t, ExitTestFailure, ExitCode(err))

		out := decodeJSON(t, stdout)
		assert.Equal(t, 1, out.Summary.Total)
		assert.True(t, out.Summary.Bailed)
	})

	t.Run("filter selects cases", func(t *testing.T) {
		stdout, _, err := execute(t, "run", "--base-url", mockBaseURL(t), "-o", "json", "--filter", "currentTime")
		require.NoError(t, err)

		out := decodeJSON(t, stdout)
		require.Len(t, out.Tests, 1)
		assert.Equal(t, "currentTime", out.Tests[0].Name)
	})

	t.Run("unreachable service exits with network error", func(t *testing.T) {
		_, _, err := execute(t, "run", "--base-url", closedBaseURL(t), "-o", "json", "--filter", "currentTime")
		require.Error(t, err)
		assert.Equal(t, ExitNetworkError, ExitCode(err))
	})

	t.Run("wait-for gives up on unreachable service", func(t *testing.T) {
		_, _, err := execute(t, "run", "--base-url", closedBaseURL(t), "--wait-for", "200ms")
		require.Error(t, err)
		assert.Equal(t, ExitNetworkError, ExitCode(err))
		assert.Contains(t, err.Error(), "not ready")
	})

	t.Run("junit report goes to output file", func(t *testing.T) {
		file := filepath.Join(t.TempDir(), "report.xml")
		stdout, _, err := execute(t, "run", "--base-url", mockBaseURL(t), "-o", "junit", "--output-file", file)
		require.NoError(t, err)
		assert.Empty(t, stdout)

		data, err := os.ReadFile(file)
		require.NoError(t, err)
		assert.Contains(t, string(data), "<testsuite")
		assert.Contains(t, string(data), `name="timeapi"`)
	})

	t.Run("console output", func(t *testing.T) {
		stdout, _, err := execute(t, "run", "--base-url", mockBaseURL(t), "--no-color", "--filter", "calculationIncrement")
		require.NoError(t, err)
		assert.Contains(t, stdout, "calculationIncrement")
		assert.Contains(t, stdout, "1 passed")
	})

	t.Run("dry run sends nothing", func(t *testing.T) {
		stdout, _, err := execute(t, "run", "--base-url", closedBaseURL(t), "--dry-run")
		require.NoError(t, err)
		assert.Contains(t, stdout, "calculationIncrement")
		assert.Contains(t, stdout, "POST")
	})

	t.Run("watch needs a resource directory", func(t *testing.T) {
		_, _, err := execute(t, "run", "--watch")
		require.Error(t, err)
		assert.Equal(t, ExitUsageError, ExitCode(err))
	})
}

func TestRunCommandVariables(t *testing.T) {
	suiteDoc := `
name: vars
variables:
  zone: Europe/Amsterdam
cases:
  - name: currentTime
    method: GET
    path: Time/current/zone
    query:
      timeZone: "{{zone}}"
    expect:
      fields:
        - path: timeZone
          equals: "{{zone}}"
`
	dir := writeResources(t, map[string]string{"vars.yaml": suiteDoc})

	t.Run("flag overrides suite variable", func(t *testing.T) {
		stdout, _, err := execute(t, "run", "--base-url", mockBaseURL(t), "-o", "json",
			"--resource-dir", dir, "--suite", "vars.yaml", "--var", "zone=Asia/Tokyo")
		require.NoError(t, err)

		out := decodeJSON(t, stdout)
		require.Len(t, out.Tests, 1)
		require.NotNil(t, out.Tests[0].Request)
		assert.Contains(t, out.Tests[0].Request.URL, "timeZone=Asia%2FTokyo")
	})

	t.Run("env file overrides suite variable", func(t *testing.T) {
		envFile := filepath.Join(t.TempDir(), ".env")
		require.NoError(t, os.WriteFile(envFile, []byte("zone=America/Bogota\n"), 0o644))

		stdout, _, err := execute(t, "run", "--base-url", mockBaseURL(t), "-o", "json",
			"--resource-dir", dir, "--suite", "vars.yaml", "--env-file", envFile)
		require.NoError(t, err)
		assert.Contains(t, decodeJSON(t, stdout).Tests[0].Request.URL, "timeZone=America%2FBogota")
	})

	t.Run("environment variable overrides suite variable", func(t *testing.T) {
		t.Setenv("TIMECHECK_VAR_zone", "Asia/Tokyo")

		stdout, _, err := execute(t, "run", "--base-url", mockBaseURL(t), "-o", "json",
			"--resource-dir", dir, "--suite", "vars.yaml")
		require.NoError(t, err)
		assert.Contains(t, decodeJSON(t, stdout).Tests[0].Request.URL, "timeZone=Asia%2FTokyo")
	})
}

func TestExitCodes(t *testing.T) {
	tests := []struct {
		name string
		args []string
		code int
	}{
		{"unknown flag", []string{"run", "--nope"}, ExitUsageError},
		{"positional argument", []string{"run", "extra"}, ExitUsageError},
		{"unknown output format", []string{"run", "-o", "html"}, ExitConfigError},
		{"invalid base URL", []string{"run", "--base-url", "not a url"}, ExitConfigError},
		{"missing suite", []string{"validate", "--suite", "missing.yaml"}, ExitConfigError},
		{"missing resource dir", []string{"validate", "--resource-dir", "/does/not/exist"}, ExitConfigError},
		{"invalid log level", []string{"validate", "--log-level", "loud"}, ExitConfigError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := execute(t, tt.args...)
			require.Error(t, err)
			assert.Equal(t, tt.code, ExitCode(err))
		})
	}

	t.Run("unparseable suite", func(t *testing.T) {
		dir := writeResources(t, map[string]string{"broken.yaml": "name: [unterminated\n"})
		_, _, err := execute(t, "validate", "--resource-dir", dir, "--suite", "broken.yaml")
		require.Error(t, err)
		assert.Equal(t, ExitParseError, ExitCode(err))
	})

	t.Run("structurally invalid suite", func(t *testing.T) {
		dir := writeResources(t, map[string]string{"empty.yaml": "name: empty\ncases: []\n"})
		_, _, err := execute(t, "validate", "--resource-dir", dir, "--suite", "empty.yaml")
		require.Error(t, err)
		assert.Equal(t, ExitParseError, ExitCode(err))
		assert.Contains(t, err.Error(), "suite has no cases")
	})
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, ExitSuccess, ExitCode(nil))
	assert.Equal(t, ExitTestFailure, ExitCode(assert.AnError))

	err := exitWith(ExitConfigError, assert.AnError)
	assert.Equal(t, ExitConfigError, ExitCode(err))
	assert.ErrorIs(t, err, assert.AnError)

	// The innermost code wins.
	assert.Equal(t, ExitConfigError, ExitCode(exitWith(ExitParseError, err)))
	assert.NoError(t, exitWith(ExitParseError, nil))
}

func TestListCommand(t *testing.T) {
	t.Run("bundled suite", func(t *testing.T) {
		stdout, _, err := execute(t, "list")
		require.NoError(t, err)
		assert.Contains(t, stdout, "timeapi: 29 cases")
		assert.Contains(t, stdout, "currentTime")
		assert.Contains(t, stdout, "calculationIncrement")
		assert.Contains(t, stdout, "timeZonesWithResponse")
	})

	t.Run("filtered", func(t *testing.T) {
		stdout, _, err := execute(t, "list", "--filter", "calc*")
		require.NoError(t, err)
		assert.Contains(t, stdout, "timeapi: 1 cases")
		assert.Contains(t, stdout, "calculationIncrement")
		assert.NotContains(t, stdout, "timeZonesWithResponse")
	})

	t.Run("setup errors are listed", func(t *testing.T) {
		dir := writeResources(t, map[string]string{"suite.yaml": `
name: missing
cases:
  - name: zones
    method: GET
    path: TimeZone/AvailableTimeZones
    fixture: Nope.csv
`})
		stdout, _, err := execute(t, "list", "--resource-dir", dir, "--suite", "suite.yaml")
		require.NoError(t, err)
		assert.Contains(t, stdout, "zones")
		assert.Contains(t, stdout, "setup failed")
	})
}

func TestWritePlanTable(t *testing.T) {
	plan := &suite.Plan{
		Suite: "timeapi",
		Cases: []*suite.TestCase{{
			Name:       "currentTime",
			Request:    tchttp.NewRequest("GET", "Time/current/zone").SetQueryParam("timeZone", "UTC"),
			Predicates: []assertions.Predicate{assertions.StatusEquals(200)},
		}},
		Errors: []*suite.SetupError{{Case: "zones", Err: errors.New("resource not found")}},
	}

	var buf bytes.Buffer
	require.NoError(t, writePlanTable(&buf, plan, "https://timeapi.io/api/"))
	out := buf.String()

	assert.Contains(t, out, "timeapi: 2 cases")
	assert.Contains(t, strings.ToUpper(out), "METHOD")
	assert.Contains(t, out, "https://timeapi.io/api/Time/current/zone?timeZone=UTC")
	assert.Contains(t, out, "currentTime")
	assert.Contains(t, out, "zones")
	assert.Contains(t, out, "setup")
	assert.Contains(t, out, "resource")
}

func TestValidateCommand(t *testing.T) {
	t.Run("bundled resources are valid", func(t *testing.T) {
		stdout, _, err := execute(t, "validate")
		require.NoError(t, err)
		assert.Contains(t, stdout, "Valid: timeapi.yaml (29 cases, 2 schemas)")
	})

	t.Run("missing fixture and schema are reported together", func(t *testing.T) {
		dir := writeResources(t, map[string]string{"suite.yaml": `
name: missing
cases:
  - name: zones
    method: GET
    path: TimeZone/AvailableTimeZones
    fixture: Nope.csv
  - name: currentTime
    method: GET
    path: Time/current/zone
    expect:
      schema: Nope.json
`})
		_, stderr, err := execute(t, "validate", "--resource-dir", dir, "--suite", "suite.yaml")
		require.Error(t, err)
		assert.Equal(t, ExitConfigError, ExitCode(err))
		assert.Contains(t, stderr, "Invalid: suite.yaml")
		assert.Contains(t, err.Error(), "Nope.csv")
		assert.Contains(t, err.Error(), "Nope.json")
	})
}

func TestInitCommand(t *testing.T) {
	dir := t.TempDir()

	stdout, _, err := execute(t, "init", "--dir", dir)
	require.NoError(t, err)
	assert.Contains(t, stdout, "timecheck project initialized!")

	assert.FileExists(t, filepath.Join(dir, ".timecheck.yaml"))
	for _, name := range []string{"timeapi.yaml", "TimeZones.csv", "CurrentTimeSchema.json", "CalculationIncrementSchema.json"} {
		assert.FileExists(t, filepath.Join(dir, "resources", name))
	}

	t.Run("refuses to overwrite", func(t *testing.T) {
		_, _, err := execute(t, "init", "--dir", dir)
		require.Error(t, err)
		assert.Equal(t, ExitUsageError, ExitCode(err))
		assert.Contains(t, err.Error(), "use --force")
	})

	t.Run("force overwrites", func(t *testing.T) {
		_, _, err := execute(t, "init", "--dir", dir, "--force")
		require.NoError(t, err)
	})

	t.Run("generated project validates", func(t *testing.T) {
		t.Chdir(dir)
		stdout, _, err := execute(t, "validate")
		require.NoError(t, err)
		assert.Contains(t, stdout, "Valid: timeapi.yaml")
	})
}

func TestMockCommandRejectsBadInput(t *testing.T) {
	t.Run("negative delay", func(t *testing.T) {
		_, _, err := execute(t, "mock", "--delay", "-1s")
		require.Error(t, err)
		assert.Equal(t, ExitUsageError, ExitCode(err))
	})

	t.Run("resource dir without zone fixture", func(t *testing.T) {
		dir := writeResources(t, map[string]string{"timeapi.yaml": "name: x\n"})
		_, _, err := execute(t, "mock", "--resource-dir", dir)
		require.Error(t, err)
		assert.Equal(t, ExitConfigError, ExitCode(err))
	})
}

func TestCompletionCommand(t *testing.T) {
	stdout, _, err := execute(t, "completion", "bash")
	require.NoError(t, err)
	assert.Contains(t, stdout, "timecheck")
}

func TestRunCommandReporters(t *testing.T) {
	metricsFile := filepath.Join(t.TempDir(), "timecheck.prom")

	var posts atomic.Int32
	slack := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		posts.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(slack.Close)

	_, _, err := execute(t, "run", "--base-url", mockBaseURL(t), "-o", "json", "--filter", "calc*",
		"--metrics-file", metricsFile, "--slack-webhook", slack.URL, "--notify-on", "always")
	require.NoError(t, err)
	assert.EqualValues(t, 1, posts.Load())

	data, err := os.ReadFile(metricsFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), `timecheck_run_success{suite="timeapi"} 1`)
	assert.Contains(t, string(data), `timecheck_test_success{suite="timeapi",case="calculationIncrement",test="calculationIncrement"} 1`)

	t.Run("failure policy skips passing runs", func(t *testing.T) {
		_, _, err := execute(t, "run", "--base-url", mockBaseURL(t), "-o", "json", "--filter", "calc*",
			"--slack-webhook", slack.URL)
		require.NoError(t, err)
		assert.EqualValues(t, 1, posts.Load())
	})

	t.Run("failing run notifies", func(t *testing.T) {
		_, _, err := execute(t, "run", "--base-url", mockBaseURL(t), "-o", "json", "--filter", "calc*",
			"--slack-webhook", slack.URL, "--latency-ceiling", "1ns")
		require.Error(t, err)
		assert.EqualValues(t, 2, posts.Load())
	})

	t.Run("unreachable webhook does not change the exit code", func(t *testing.T) {
		_, _, err := execute(t, "run", "--base-url", mockBaseURL(t), "-o", "json", "--filter", "calc*",
			"--slack-webhook", closedBaseURL(t), "--notify-on", "always")
		require.NoError(t, err)
	})

	t.Run("invalid notify policy", func(t *testing.T) {
		_, _, err := execute(t, "run", "--notify-on", "sometimes")
		require.Error(t, err)
		assert.Equal(t, ExitConfigError, ExitCode(err))
	})
}
