package assertions

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/abdul-hamid-achik/timecheck/packages/http"
	"github.com/abdul-hamid-achik/timecheck/packages/schema"
)

// Predicate is one expected outcome of a test case.
type Predicate interface {
	Subject() string
	Operator() string
	Expected() any
	Check(resp *http.Response) *Result
}

// Describe renders a predicate as "subject operator expected".
func Describe(p Predicate) string {
	return fmt.Sprintf("%s %s %v", p.Subject(), p.Operator(), p.Expected())
}

func newResult(p Predicate) *Result {
	return &Result{
		Subject:  p.Subject(),
		Operator: p.Operator(),
		Expected: p.Expected(),
	}
}

type statusEquals struct {
	code int
}

// StatusEquals passes when the status code is exactly code.
func StatusEquals(code int) Predicate {
	return statusEquals{code: code}
}

func (p statusEquals) Subject() string  { return "status" }
func (p statusEquals) Operator() string { return "==" }
func (p statusEquals) Expected() any    { return p.code }

func (p statusEquals) Check(resp *http.Response) *Result {
	r := newResult(p)
	r.Actual = resp.StatusCode()
	r.Passed = resp.StatusCode() == p.code
	if !r.Passed {
		r.Message = fmt.Sprintf("expected status %d, got %d", p.code, resp.StatusCode())
	}
	return r
}

type bodyContains struct {
	text string
}

// BodyContains passes when the raw body text contains text. The search is
// case-sensitive.
func BodyContains(text string) Predicate {
	return bodyContains{text: text}
}

func (p bodyContains) Subject() string  { return "body" }
func (p bodyContains) Operator() string { return "contains" }
func (p bodyContains) Expected() any    { return p.text }

func (p bodyContains) Check(resp *http.Response) *Result {
	r := newResult(p)
	body := resp.Text()
	r.Actual = excerpt(body)
	r.Passed = strings.Contains(body, p.text)
	if !r.Passed {
		r.Message = fmt.Sprintf("expected body to contain %q (body %d bytes: %s)", p.text, len(body), excerpt(body))
	}
	return r
}

const excerptLen = 120

func excerpt(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if len(s) <= excerptLen {
		return s
	}
	cut := excerptLen
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}

type fieldEquals struct {
	path     string
	expected any
}

// FieldEquals passes when the JSON value at path equals expected. A missing
// field fails.
func FieldEquals(path string, expected any) Predicate {
	return fieldEquals{path: path, expected: expected}
}

func (p fieldEquals) Subject() string  { return p.path }
func (p fieldEquals) Operator() string { return "==" }
func (p fieldEquals) Expected() any    { return p.expected }

func (p fieldEquals) Check(resp *http.Response) *Result {
	r := newResult(p)

	actual, ok := resp.Field(p.path)
	if !ok {
		r.Message = fmt.Sprintf("field not found: %s", p.path)
		return r
	}
	r.Actual = actual

	if equal(p.expected, actual) {
		r.Passed = true
		return r
	}

	r.Message = fmt.Sprintf("field %s: expected %s, got %s\ndiff (-expected +actual):\n%s",
		p.path, format(p.expected), format(actual), diff(p.expected, actual))
	return r
}

func format(v any) string {
	if s, ok := v.(string); ok {
		return fmt.Sprintf("%q", s)
	}
	return fmt.Sprintf("%v", v)
}

type latencyUnder struct {
	ceiling time.Duration
}

// LatencyUnder passes when the response arrived strictly faster than ceiling.
func LatencyUnder(ceiling time.Duration) Predicate {
	return latencyUnder{ceiling: ceiling}
}

func (p latencyUnder) Subject() string  { return "duration" }
func (p latencyUnder) Operator() string { return "<" }
func (p latencyUnder) Expected() any    { return p.ceiling }

func (p latencyUnder) Check(resp *http.Response) *Result {
	r := newResult(p)
	r.Actual = resp.Duration()
	r.Passed = resp.Duration() < p.ceiling
	if !r.Passed {
		r.Message = fmt.Sprintf("expected response in under %s, took %s", p.ceiling, resp.Duration().Round(time.Millisecond))
	}
	return r
}

type schemaConforms struct {
	name      string
	validator *schema.Validator
}

// SchemaConforms passes when the body is valid against the compiled schema.
func SchemaConforms(name string, v *schema.Validator) Predicate {
	return schemaConforms{name: name, validator: v}
}

func (p schemaConforms) Subject() string  { return "body" }
func (p schemaConforms) Operator() string { return "schema" }
func (p schemaConforms) Expected() any    { return p.name }

func (p schemaConforms) Check(resp *http.Response) *Result {
	r := newResult(p)
	if p.validator == nil {
		r.Message = fmt.Sprintf("schema %s was not compiled", p.name)
		return r
	}

	violations := p.validator.ValidateBytes(resp.Bytes())
	r.Actual = violations
	if len(violations) == 0 {
		r.Passed = true
		return r
	}

	lines := make([]string, len(violations))
	for i, v := range violations {
		lines[i] = "  - " + v.String()
	}
	r.Message = fmt.Sprintf("body does not conform to %s (%d violations):\n%s",
		p.name, len(violations), strings.Join(lines, "\n"))
	return r
}
