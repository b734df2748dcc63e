package output

import (
	"encoding/json"
	"io"
	"os"
	"time"

	"github.com/abdul-hamid-achik/timecheck/packages/core/runner"
	"github.com/google/uuid"
)

// JSONOutput represents the complete JSON output structure
type JSONOutput struct {
	RunID    string       `json:"runId"`
	Suite    string       `json:"suite"`
	Summary  JSONSummary  `json:"summary"`
	Latency  *JSONLatency `json:"latency,omitempty"`
	Tests    []JSONTest   `json:"tests"`
	Errors   []string     `json:"errors,omitempty"`
	Duration float64      `json:"duration"`
	Time     string       `json:"time"`
}

type JSONSummary struct {
	Total   int  `json:"total"`
	Passed  int  `json:"passed"`
	Failed  int  `json:"failed"`
	Errored int  `json:"errored"`
	Bailed  bool `json:"bailed,omitempty"`
}

// JSONLatency holds latency percentiles in milliseconds.
type JSONLatency struct {
	Count int64   `json:"count"`
	Min   float64 `json:"min"`
	Mean  float64 `json:"mean"`
	P50   float64 `json:"p50"`
	P95   float64 `json:"p95"`
	P99   float64 `json:"p99"`
	Max   float64 `json:"max"`
}

type JSONTest struct {
	Name       string          `json:"name"`
	Case       string          `json:"case"`
	Passed     bool            `json:"passed"`
	Duration   float64         `json:"duration"`
	Error      string          `json:"error,omitempty"`
	Request    *JSONRequest    `json:"request,omitempty"`
	Response   *JSONResponse   `json:"response,omitempty"`
	Assertions []JSONAssertion `json:"assertions,omitempty"`
	Curl       string          `json:"curl,omitempty"`
}

type JSONRequest struct {
	Method  string            `json:"method"`
	URL     string            `json:"url"`
	Headers map[string]string `json:"headers,omitempty"`
}

type JSONResponse struct {
	StatusCode int                 `json:"statusCode"`
	Status     string              `json:"status"`
	Headers    map[string][]string `json:"headers,omitempty"`
	Duration   float64             `json:"duration"`
	Size       int                 `json:"size"`
}

type JSONAssertion struct {
	Subject  string `json:"subject"`
	Operator string `json:"operator"`
	Expected any    `json:"expected"`
	Actual   any    `json:"actual"`
	Passed   bool   `json:"passed"`
	Message  string `json:"message,omitempty"`
}

// JSONFormatter formats run results as one JSON document.
type JSONFormatter struct {
	writer io.Writer
	output JSONOutput
}

type JSONOption func(*JSONFormatter)

func NewJSONFormatter(opts ...JSONOption) *JSONFormatter {
	f := &JSONFormatter{
		writer: os.Stdout,
		output: JSONOutput{
			RunID: uuid.NewString(),
			Tests: make([]JSONTest, 0),
		},
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func JSONWithWriter(w io.Writer) JSONOption {
	return func(f *JSONFormatter) {
		f.writer = w
	}
}

// JSONWithRunID fixes the run id instead of generating one.
func JSONWithRunID(id string) JSONOption {
	return func(f *JSONFormatter) {
		f.output.RunID = id
	}
}

func (f *JSONFormatter) RunID() string {
	return f.output.RunID
}

func (f *JSONFormatter) FormatResult(result *runner.RunResult) {
	f.output.Suite = result.Suite
	s := &f.output.Summary
	s.Total += result.Total()
	s.Passed += result.Passed
	s.Failed += result.Failed
	s.Errored += result.Errored
	s.Bailed = s.Bailed || result.Bailed

	if l := result.Latency; l.Count > 0 {
		f.output.Latency = &JSONLatency{
			Count: l.Count,
			Min:   millis(l.Min),
			Mean:  millis(l.Mean),
			P50:   millis(l.P50),
			P95:   millis(l.P95),
			P99:   millis(l.P99),
			Max:   millis(l.Max),
		}
	}

	for _, r := range result.Results {
		f.output.Tests = append(f.output.Tests, jsonTest(r))
	}
}

func jsonTest(r *runner.CaseResult) JSONTest {
	test := JSONTest{
		Name:     r.Name,
		Case:     r.Case,
		Passed:   r.Passed,
		Duration: millis(r.Duration),
	}

	if r.Err != nil {
		test.Error = r.Err.Error()
	}
	if !r.Passed {
		test.Curl = r.Curl
	}

	if r.Request != nil {
		test.Request = &JSONRequest{
			Method:  r.Request.Method,
			URL:     r.URL,
			Headers: r.Request.Headers,
		}
	}

	if r.Response != nil {
		test.Response = &JSONResponse{
			StatusCode: r.Response.StatusCode(),
			Status:     r.Response.Status(),
			Headers:    r.Response.Headers(),
			Duration:   millis(r.Response.Duration()),
			Size:       r.Response.Size(),
		}
	}

	if len(r.Assertions) > 0 {
		test.Assertions = make([]JSONAssertion, len(r.Assertions))
		for i, a := range r.Assertions {
			test.Assertions[i] = JSONAssertion{
				Subject:  a.Subject,
				Operator: a.Operator,
				Expected: jsonValue(a.Expected),
				Actual:   jsonValue(a.Actual),
				Passed:   a.Passed,
				Message:  a.Message,
			}
		}
	}

	return test
}

// jsonValue keeps durations readable.
func jsonValue(v any) any {
	if d, ok := v.(time.Duration); ok {
		return d.String()
	}
	return v
}

func (f *JSONFormatter) FormatError(err error) {
	f.output.Errors = append(f.output.Errors, err.Error())
}

func (f *JSONFormatter) FormatHeader(version string) {
	// No header needed for JSON output
}

// Flush writes the accumulated JSON output
func (f *JSONFormatter) Flush(totalDuration time.Duration) error {
	f.output.Duration = millis(totalDuration)
	f.output.Time = time.Now().Format(time.RFC3339)

	encoder := json.NewEncoder(f.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(f.output)
}
