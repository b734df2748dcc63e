package suite

import (
	"fmt"
	"strings"
	"time"

	"github.com/abdul-hamid-achik/timecheck/packages/assertions"
	"github.com/abdul-hamid-achik/timecheck/packages/builtin"
	"github.com/abdul-hamid-achik/timecheck/packages/core/env"
	"github.com/abdul-hamid-achik/timecheck/packages/fixture"
	"github.com/abdul-hamid-achik/timecheck/packages/http"
	"github.com/abdul-hamid-achik/timecheck/packages/schema"
	"github.com/pkg/errors"
)

// DefaultAccept is sent when a case does not set an Accept header.
const DefaultAccept = "application/json"

// TestCase is one fully resolved request with its expected outcomes. It is
// not modified after planning.
type TestCase struct {
	Name        string
	Case        string
	Description string
	Row         *fixture.Row
	Request     *http.Request
	Predicates  []assertions.Predicate
}

// SetupError reports a case that could not be planned: a missing resource,
// an uncompilable schema or an unresolvable placeholder.
type SetupError struct {
	Case string
	Err  error
}

func (e *SetupError) Error() string {
	return fmt.Sprintf("%s: setup failed: %v", e.Case, e.Err)
}

func (e *SetupError) Unwrap() error {
	return e.Err
}

type Plan struct {
	Suite  string
	Cases  []*TestCase
	Errors []*SetupError
}

// Len counts planned cases and setup failures.
func (p *Plan) Len() int {
	return len(p.Cases) + len(p.Errors)
}

// Filter returns a plan with the cases whose name matches pattern. A `*`
// matches any run of characters and matching ignores case. A pattern
// without wildcards also selects every row of the case it names.
func (p *Plan) Filter(pattern string) *Plan {
	if pattern == "" {
		return p
	}

	out := &Plan{Suite: p.Suite}
	for _, tc := range p.Cases {
		if matchesPattern(tc.Name, pattern) || matchesPattern(tc.Case, pattern) {
			out.Cases = append(out.Cases, tc)
		}
	}
	for _, se := range p.Errors {
		if matchesPattern(se.Case, pattern) || matchesPattern(baseName(se.Case), pattern) {
			out.Errors = append(out.Errors, se)
		}
	}
	return out
}

func baseName(name string) string {
	if i := strings.IndexByte(name, '['); i > 0 {
		return name[:i]
	}
	return name
}

func matchesPattern(name, pattern string) bool {
	name = strings.ToLower(name)
	parts := strings.Split(strings.ToLower(pattern), "*")
	if len(parts) == 1 {
		return name == parts[0]
	}

	if !strings.HasPrefix(name, parts[0]) {
		return false
	}
	name = name[len(parts[0]):]

	last := parts[len(parts)-1]
	for _, part := range parts[1 : len(parts)-1] {
		i := strings.Index(name, part)
		if i < 0 {
			return false
		}
		name = name[i+len(part):]
	}
	return strings.HasSuffix(name, last) && len(name) >= len(last)
}

type Options struct {
	// LatencyCeiling, when positive, replaces every case's latencyUnder and
	// adds the check to cases that have none.
	LatencyCeiling time.Duration
	// Variables override the suite's variables.
	Variables map[string]any
}

// Planner turns a definition into test cases. Schemas are compiled by the
// caller once per run and shared by every planned case.
type Planner struct {
	loader  *fixture.Loader
	schemas *schema.Set
	funcs   *builtin.Registry
	opts    Options
}

func NewPlanner(loader *fixture.Loader, schemas *schema.Set, funcs *builtin.Registry, opts Options) *Planner {
	if funcs == nil {
		funcs = builtin.NewRegistry(builtin.SystemClock)
	}
	return &Planner{
		loader:  loader,
		schemas: schemas,
		funcs:   funcs,
		opts:    opts,
	}
}

// Plan resolves every case of def. It never fails as a whole: problems are
// attached to the affected case as SetupErrors.
func (p *Planner) Plan(def *Definition) *Plan {
	plan := &Plan{Suite: def.Name}

	base := env.NewResolver(p.funcs)
	base.SetVariables(env.OverrideVariables(def.Variables, p.opts.Variables))

	for _, c := range def.Cases {
		if c.Fixture == "" {
			p.add(plan, c, c.Name, nil, base)
			continue
		}

		table, err := p.loader.Table(c.Fixture)
		if err != nil {
			plan.Errors = append(plan.Errors, &SetupError{Case: c.Name, Err: err})
			continue
		}

		for row, err := range table.Rows() {
			if err != nil {
				plan.Errors = append(plan.Errors, &SetupError{Case: c.Name, Err: err})
				break
			}

			res := base.Clone()
			res.SetVariable("row", row.Value())
			res.SetVariable("line", row.Line)
			r := row
			p.add(plan, c, fmt.Sprintf("%s[%s]", c.Name, row.Value()), &r, res)
		}
	}

	return plan
}

func (p *Planner) add(plan *Plan, c *Case, name string, row *fixture.Row, res *env.Resolver) {
	tc, err := p.build(c, name, row, res)
	if err != nil {
		plan.Errors = append(plan.Errors, &SetupError{Case: name, Err: err})
		return
	}
	plan.Cases = append(plan.Cases, tc)
}

func (p *Planner) build(c *Case, name string, row *fixture.Row, res *env.Resolver) (*TestCase, error) {
	path, err := res.ResolveString(c.Path)
	if err != nil {
		return nil, errors.Wrap(err, "path")
	}
	req := http.NewRequest(c.Method, path)

	accept := c.Accept
	if accept == "" {
		accept = DefaultAccept
	}
	if accept, err = res.ResolveString(accept); err != nil {
		return nil, errors.Wrap(err, "accept")
	}
	req.Accept(accept)

	for k, v := range c.Headers {
		resolved, err := res.ResolveString(v)
		if err != nil {
			return nil, errors.Wrapf(err, "header %s", k)
		}
		req.SetHeader(k, resolved)
	}

	for k, v := range c.Query {
		resolved, err := res.ResolveString(v)
		if err != nil {
			return nil, errors.Wrapf(err, "query parameter %s", k)
		}
		req.SetQueryParam(k, resolved)
	}

	if c.ContentType != "" {
		ct, err := res.ResolveString(c.ContentType)
		if err != nil {
			return nil, errors.Wrap(err, "contentType")
		}
		req.ContentType(ct)
	}

	if c.Body.Kind != 0 {
		raw, err := nodeValue(&c.Body)
		if err != nil {
			return nil, errors.Wrap(err, "body")
		}
		resolved, err := resolveValue(res, raw)
		if err != nil {
			return nil, err
		}
		body, ok := resolved.(*http.Body)
		if !ok {
			return nil, errors.New("body must be a mapping")
		}
		req.SetJSONBody(body)
	}

	preds, err := p.predicates(c, res)
	if err != nil {
		return nil, err
	}

	return &TestCase{
		Name:        name,
		Case:        c.Name,
		Description: c.Description,
		Row:         row,
		Request:     req,
		Predicates:  preds,
	}, nil
}

func (p *Planner) predicates(c *Case, res *env.Resolver) ([]assertions.Predicate, error) {
	status := c.Expect.Status
	if status == 0 {
		status = DefaultStatus
	}
	preds := []assertions.Predicate{assertions.StatusEquals(status)}

	for _, text := range c.Expect.BodyContains {
		resolved, err := res.ResolveString(text)
		if err != nil {
			return nil, errors.Wrap(err, "bodyContains")
		}
		preds = append(preds, assertions.BodyContains(resolved))
	}

	for _, f := range c.Expect.Fields {
		path, err := res.ResolveString(f.Path)
		if err != nil {
			return nil, errors.Wrap(err, "field path")
		}
		raw, err := nodeValue(&f.Equals)
		if err != nil {
			return nil, errors.Wrapf(err, "field %s", path)
		}
		expected, err := resolveValue(res, raw)
		if err != nil {
			return nil, errors.Wrapf(err, "field %s", path)
		}
		preds = append(preds, assertions.FieldEquals(path, expected))
	}

	if c.Expect.Schema != "" {
		if p.schemas == nil {
			return nil, &schema.ConfigurationError{Schema: c.Expect.Schema, Err: errors.New("no schemas were compiled")}
		}
		v, err := p.schemas.Get(c.Expect.Schema)
		if err != nil {
			return nil, err
		}
		preds = append(preds, assertions.SchemaConforms(c.Expect.Schema, v))
	}

	ceiling := c.Expect.LatencyUnder.Duration()
	if p.opts.LatencyCeiling > 0 {
		ceiling = p.opts.LatencyCeiling
	}
	if ceiling > 0 {
		preds = append(preds, assertions.LatencyUnder(ceiling))
	}

	return preds, nil
}
