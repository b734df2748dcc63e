package schema

import (
	"sort"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
)

// Source provides raw schema documents by name.
type Source interface {
	Schema(name string) ([]byte, error)
}

// Set holds every schema a run needs, compiled up front. Schemas that fail
// to load or compile are remembered with their error so that only the test
// cases referencing them fail.
type Set struct {
	validators map[string]*Validator
	errs       map[string]error
}

// NewSet loads and compiles the named schemas from src. Duplicate names are
// compiled once.
func NewSet(src Source, names ...string) *Set {
	s := &Set{
		validators: make(map[string]*Validator),
		errs:       make(map[string]error),
	}

	for _, name := range names {
		if s.known(name) {
			continue
		}

		doc, err := src.Schema(name)
		if err != nil {
			s.errs[name] = err
			continue
		}

		v, err := Compile(name, doc)
		if err != nil {
			s.errs[name] = err
			continue
		}
		s.validators[name] = v
	}

	return s
}

func (s *Set) known(name string) bool {
	if _, ok := s.validators[name]; ok {
		return true
	}
	_, ok := s.errs[name]
	return ok
}

// Get returns the compiled schema, or the error that prevented compiling it.
func (s *Set) Get(name string) (*Validator, error) {
	if v, ok := s.validators[name]; ok {
		return v, nil
	}
	if err, ok := s.errs[name]; ok {
		return nil, err
	}
	return nil, &ConfigurationError{Schema: name, Err: errors.New("schema was not compiled for this run")}
}

// Names returns the successfully compiled schema names, sorted.
func (s *Set) Names() []string {
	names := make([]string, 0, len(s.validators))
	for name := range s.validators {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Err returns every load or compile failure, or nil.
func (s *Set) Err() error {
	names := make([]string, 0, len(s.errs))
	for name := range s.errs {
		names = append(names, name)
	}
	sort.Strings(names)

	var result error
	for _, name := range names {
		result = multierror.Append(result, s.errs[name])
	}
	return result
}
