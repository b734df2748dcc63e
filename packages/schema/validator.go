package schema

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/pkg/errors"
	"github.com/xeipuuv/gojsonschema"
)

// ConfigurationError reports a schema that cannot be compiled.
type ConfigurationError struct {
	Schema string
	Err    error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("schema %s: %v", e.Schema, e.Err)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// Violation is one way in which a document does not conform to a schema.
type Violation struct {
	Field       string
	Description string
}

func (v Violation) String() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Description)
}

type Validator struct {
	name   string
	schema *gojsonschema.Schema
}

// Compile parses and compiles a schema document. Malformed JSON and
// documents that are not valid Draft 4 schemas fail with *ConfigurationError.
func Compile(name string, doc []byte) (*Validator, error) {
	if !json.Valid(doc) {
		return nil, &ConfigurationError{Schema: name, Err: errors.New("document is not valid JSON")}
	}

	loader := gojsonschema.NewSchemaLoader()
	loader.Draft = gojsonschema.Draft4
	loader.AutoDetect = false
	loader.Validate = true

	compiled, err := loader.Compile(gojsonschema.NewBytesLoader(doc))
	if err != nil {
		return nil, &ConfigurationError{Schema: name, Err: err}
	}

	return &Validator{name: name, schema: compiled}, nil
}

func (v *Validator) Name() string {
	return v.name
}

// Validate checks a decoded JSON document (maps, slices, json.Number,
// strings, bools, nil). The result is sorted by field.
func (v *Validator) Validate(doc any) []Violation {
	return v.validate(gojsonschema.NewGoLoader(doc))
}

// ValidateBytes checks a raw JSON document.
func (v *Validator) ValidateBytes(data []byte) []Violation {
	if !json.Valid(data) {
		return []Violation{{Field: "(root)", Description: "document is not valid JSON"}}
	}
	return v.validate(gojsonschema.NewBytesLoader(data))
}

func (v *Validator) validate(doc gojsonschema.JSONLoader) []Violation {
	result, err := v.schema.Validate(doc)
	if err != nil {
		return []Violation{{Field: "(root)", Description: err.Error()}}
	}
	if result.Valid() {
		return nil
	}

	violations := make([]Violation, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		violations = append(violations, Violation{
			Field:       desc.Field(),
			Description: desc.Description(),
		})
	}
	sort.Slice(violations, func(i, j int) bool {
		if violations[i].Field != violations[j].Field {
			return violations[i].Field < violations[j].Field
		}
		return violations[i].Description < violations[j].Description
	})
	return violations
}
