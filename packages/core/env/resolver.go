package env

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"sync"

	"github.com/abdul-hamid-achik/timecheck/packages/builtin"
	"github.com/pkg/errors"
)

var variablePattern = regexp.MustCompile(`\{\{([^}]+)\}\}`)

// maxDepth bounds how many times a variable may expand into further
// placeholders.
const maxDepth = 10

// ErrUnresolved is returned when a placeholder names no variable, function
// or environment variable.
var ErrUnresolved = errors.New("unresolved placeholder")

// Resolver substitutes placeholders using variables and built-in functions.
type Resolver struct {
	mu        sync.RWMutex
	variables map[string]any
	funcs     *builtin.Registry
}

func NewResolver(funcs *builtin.Registry) *Resolver {
	if funcs == nil {
		funcs = builtin.NewRegistry(builtin.SystemClock)
	}
	return &Resolver{
		variables: make(map[string]any),
		funcs:     funcs,
	}
}

func (r *Resolver) SetVariables(vars map[string]any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for k, v := range vars {
		r.variables[k] = v
	}
}

func (r *Resolver) SetVariable(name string, value any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.variables[name] = value
}

func (r *Resolver) GetVariable(name string) (any, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.variables[name]
	return v, ok
}

func (r *Resolver) HasVariable(name string) bool {
	_, ok := r.GetVariable(name)
	return ok
}

// Clone returns an independent resolver sharing the function registry.
func (r *Resolver) Clone() *Resolver {
	r.mu.RLock()
	defer r.mu.RUnlock()
	clone := NewResolver(r.funcs)
	for k, v := range r.variables {
		clone.variables[k] = v
	}
	return clone
}

// Resolve substitutes every placeholder in input. When input is exactly one
// placeholder the resolved value keeps its type.
func (r *Resolver) Resolve(input string) (any, error) {
	return r.resolve(input, 0)
}

// ResolveString is Resolve with the result formatted as text.
func (r *Resolver) ResolveString(input string) (string, error) {
	v, err := r.Resolve(input)
	if err != nil {
		return "", err
	}
	return toString(v), nil
}

// Value resolves placeholders inside strings, slices and maps, returning a
// new value. Other values are returned unchanged.
func (r *Resolver) Value(v any) (any, error) {
	switch x := v.(type) {
	case string:
		return r.Resolve(x)
	case []any:
		out := make([]any, len(x))
		for i, item := range x {
			resolved, err := r.Value(item)
			if err != nil {
				return nil, err
			}
			out[i] = resolved
		}
		return out, nil
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, item := range x {
			resolved, err := r.Value(item)
			if err != nil {
				return nil, errors.Wrapf(err, "key %q", k)
			}
			out[k] = resolved
		}
		return out, nil
	default:
		return v, nil
	}
}

func (r *Resolver) resolve(input string, depth int) (any, error) {
	if depth > maxDepth {
		return nil, errors.Errorf("placeholders in %q nest deeper than %d levels", input, maxDepth)
	}

	if loc := variablePattern.FindStringSubmatchIndex(input); loc != nil && loc[0] == 0 && loc[1] == len(input) {
		return r.lookup(strings.TrimSpace(input[loc[2]:loc[3]]), depth)
	}

	var firstErr error
	out := variablePattern.ReplaceAllStringFunc(input, func(match string) string {
		if firstErr != nil {
			return match
		}
		v, err := r.lookup(strings.TrimSpace(match[2:len(match)-2]), depth)
		if err != nil {
			firstErr = err
			return match
		}
		return toString(v)
	})
	if firstErr != nil {
		return nil, firstErr
	}
	return out, nil
}

func (r *Resolver) lookup(expr string, depth int) (any, error) {
	if strings.HasPrefix(expr, "$") {
		name := expr[1:]
		if val, ok := os.LookupEnv(name); ok {
			return val, nil
		}
		return nil, errors.Wrapf(ErrUnresolved, "environment variable $%s is not set", name)
	}

	if builtin.IsCall(expr) {
		v, err := r.funcs.Call(expr)
		if err != nil {
			return nil, errors.Wrapf(err, "evaluating {{%s}}", expr)
		}
		return v, nil
	}

	v, ok := r.GetVariable(expr)
	if !ok {
		return nil, errors.Wrapf(ErrUnresolved, "variable %q is not defined", expr)
	}
	if s, ok := v.(string); ok && variablePattern.MatchString(s) {
		return r.resolve(s, depth+1)
	}
	return v, nil
}

// UnresolvedVariables lists the variable names in input that are not
// defined, in order of appearance. Function calls and environment lookups
// are not reported.
func (r *Resolver) UnresolvedVariables(input string) []string {
	var names []string
	for _, m := range variablePattern.FindAllStringSubmatch(input, -1) {
		expr := strings.TrimSpace(m[1])
		if strings.HasPrefix(expr, "$") || builtin.IsCall(expr) {
			continue
		}
		if !r.HasVariable(expr) {
			names = append(names, expr)
		}
	}
	return names
}

func toString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}
