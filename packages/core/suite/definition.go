package suite

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/abdul-hamid-achik/timecheck/packages/fixture"
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// DefaultStatus is expected when a case does not name a status.
const DefaultStatus = 200

var methods = map[string]bool{
	"GET":     true,
	"POST":    true,
	"PUT":     true,
	"PATCH":   true,
	"DELETE":  true,
	"HEAD":    true,
	"OPTIONS": true,
}

type Definition struct {
	Name      string         `yaml:"name"`
	Variables map[string]any `yaml:"variables"`
	Cases     []*Case        `yaml:"cases"`
}

type Case struct {
	Name        string            `yaml:"name"`
	Description string            `yaml:"description"`
	Method      string            `yaml:"method"`
	Path        string            `yaml:"path"`
	Query       map[string]string `yaml:"query"`
	Headers     map[string]string `yaml:"headers"`
	Accept      string            `yaml:"accept"`
	ContentType string            `yaml:"contentType"`
	Body        yaml.Node         `yaml:"body"`
	Fixture     string            `yaml:"fixture"`
	Expect      Expect            `yaml:"expect"`
}

type Expect struct {
	Status       int                `yaml:"status"`
	BodyContains []string           `yaml:"bodyContains"`
	Fields       []FieldExpectation `yaml:"fields"`
	LatencyUnder Duration           `yaml:"latencyUnder"`
	Schema       string             `yaml:"schema"`
}

type FieldExpectation struct {
	Path   string    `yaml:"path"`
	Equals yaml.Node `yaml:"equals"`
}

// Duration accepts Go duration strings ("2000ms", "2s") or a bare number of
// milliseconds.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return errors.Errorf("line %d: duration must be a scalar", node.Line)
	}

	if ms, err := strconv.ParseInt(node.Value, 10, 64); err == nil {
		*d = Duration(time.Duration(ms) * time.Millisecond)
		return nil
	}

	parsed, err := time.ParseDuration(node.Value)
	if err != nil {
		return errors.Errorf("line %d: invalid duration %q", node.Line, node.Value)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// Parse decodes a suite definition. Unknown keys are rejected.
func Parse(data []byte) (*Definition, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var def Definition
	if err := dec.Decode(&def); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("parsing suite: document is empty")
		}
		return nil, errors.Wrap(err, "parsing suite")
	}
	return &def, nil
}

// Load reads, parses and validates the named suite resource.
func Load(loader *fixture.Loader, name string) (*Definition, error) {
	data, err := loader.Suite(name)
	if err != nil {
		return nil, err
	}
	def, err := Parse(data)
	if err != nil {
		return nil, errors.Wrap(err, name)
	}
	if err := def.Validate(); err != nil {
		return nil, errors.Wrap(err, name)
	}
	return def, nil
}

// Validate reports every structural problem of the definition at once.
func (d *Definition) Validate() error {
	var result *multierror.Error

	if strings.TrimSpace(d.Name) == "" {
		result = multierror.Append(result, errors.New("suite name is required"))
	}
	if len(d.Cases) == 0 {
		result = multierror.Append(result, errors.New("suite has no cases"))
	}

	seen := make(map[string]int)
	for i, c := range d.Cases {
		label := fmt.Sprintf("case #%d", i+1)
		if c.Name != "" {
			label = fmt.Sprintf("case %q", c.Name)
		}

		if strings.TrimSpace(c.Name) == "" {
			result = multierror.Append(result, errors.Errorf("%s: name is required", label))
		} else if first, dup := seen[c.Name]; dup {
			result = multierror.Append(result, errors.Errorf("%s: duplicate name (first defined as case #%d)", label, first))
		} else {
			seen[c.Name] = i + 1
		}

		if c.Method == "" {
			result = multierror.Append(result, errors.Errorf("%s: method is required", label))
		} else if !methods[strings.ToUpper(c.Method)] {
			result = multierror.Append(result, errors.Errorf("%s: unknown method %q", label, c.Method))
		}

		if strings.TrimSpace(c.Path) == "" {
			result = multierror.Append(result, errors.Errorf("%s: path is required", label))
		}

		if c.Body.Kind != 0 && c.Body.Kind != yaml.MappingNode {
			result = multierror.Append(result, errors.Errorf("%s: body must be a mapping (line %d)", label, c.Body.Line))
		}

		if c.Fixture != "" {
			if _, err := fixture.FormatOf(c.Fixture); err != nil {
				result = multierror.Append(result, errors.Wrap(err, label))
			}
		}

		if s := c.Expect.Status; s != 0 && (s < 100 || s > 599) {
			result = multierror.Append(result, errors.Errorf("%s: status %d is not a valid HTTP status", label, s))
		}
		if c.Expect.LatencyUnder < 0 {
			result = multierror.Append(result, errors.Errorf("%s: latencyUnder must not be negative", label))
		}
		for j, f := range c.Expect.Fields {
			if strings.TrimSpace(f.Path) == "" {
				result = multierror.Append(result, errors.Errorf("%s: fields[%d]: path is required", label, j))
			}
			if f.Equals.Kind == 0 {
				result = multierror.Append(result, errors.Errorf("%s: fields[%d]: equals is required", label, j))
			}
		}
	}

	return result.ErrorOrNil()
}

// SchemaNames lists the schema resources referenced by the suite, in order
// of first use.
func (d *Definition) SchemaNames() []string {
	var names []string
	seen := make(map[string]bool)
	for _, c := range d.Cases {
		if name := c.Expect.Schema; name != "" && !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	return names
}

// Fixtures lists the fixture resources referenced by the suite, in order of
// first use.
func (d *Definition) Fixtures() []string {
	var names []string
	seen := make(map[string]bool)
	for _, c := range d.Cases {
		if c.Fixture != "" && !seen[c.Fixture] {
			seen[c.Fixture] = true
			names = append(names, c.Fixture)
		}
	}
	return names
}
