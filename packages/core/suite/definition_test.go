package suite

import (
	"testing"
	"testing/fstest"
	"time"

	"github.com/abdul-hamid-achik/timecheck/packages/fixture"
	"github.com/abdul-hamid-achik/timecheck/resources"
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	def, err := Parse([]byte(`
name: timeapi
variables:
  bogota: America/Bogota
cases:
  - name: currentTime
    method: get
    path: Time/current/zone
    query:
      timeZone: "{{bogota}}"
    expect:
      status: 200
      latencyUnder: 1500
      fields:
        - path: year
          equals: 2026
      schema: CurrentTimeSchema.json
  - name: increment
    method: POST
    path: Calculation/current/increment
    body:
      timeZone: Europe/Amsterdam
      timeSpan: "16:03:45:17"
    expect:
      latencyUnder: 2s
`))
	require.NoError(t, err)
	require.NoError(t, def.Validate())

	assert.Equal(t, "timeapi", def.Name)
	assert.Equal(t, "America/Bogota", def.Variables["bogota"])
	require.Len(t, def.Cases, 2)

	current := def.Cases[0]
	assert.Equal(t, "{{bogota}}", current.Query["timeZone"])
	assert.Equal(t, 1500*time.Millisecond, current.Expect.LatencyUnder.Duration())
	require.Len(t, current.Expect.Fields, 1)
	assert.Equal(t, "2026", current.Expect.Fields[0].Equals.Value)

	increment := def.Cases[1]
	assert.Equal(t, 2*time.Second, increment.Expect.LatencyUnder.Duration())
	assert.NotZero(t, increment.Body.Kind)

	assert.Equal(t, []string{"CurrentTimeSchema.json"}, def.SchemaNames())
	assert.Empty(t, def.Fixtures())
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr string
	}{
		{"empty document", "", "document is empty"},
		{"unknown key", "name: x\ncases:\n  - name: a\n    verb: GET\n", "field verb not found"},
		{"bad duration", "name: x\ncases:\n  - name: a\n    expect:\n      latencyUnder: soon\n", `invalid duration "soon"`},
		{"not yaml", "name: [unclosed", "parsing suite"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.input))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestDefinition_ValidateReportsEverything(t *testing.T) {
	def, err := Parse([]byte(`
cases:
  - name: a
    method: GET
    path: x
  - name: a
    method: FETCH
    path: y
  - method: GET
  - name: c
    method: POST
    path: z
    body: [1, 2]
    fixture: zones.txt
    expect:
      status: 42
      fields:
        - path: ""
`))
	require.NoError(t, err)

	err = def.Validate()
	require.Error(t, err)

	var merr *multierror.Error
	require.True(t, errors.As(err, &merr))

	msg := err.Error()
	for _, want := range []string{
		"suite name is required",
		`case "a": duplicate name`,
		`case "a": unknown method "FETCH"`,
		"case #3: name is required",
		"case #3: path is required",
		`case "c": body must be a mapping`,
		`unsupported fixture format ".txt"`,
		"status 42 is not a valid HTTP status",
		"fields[0]: path is required",
		"fields[0]: equals is required",
	} {
		assert.Contains(t, msg, want)
	}
	assert.Len(t, merr.Errors, 10)
}

func TestDefinition_ValidateNoCases(t *testing.T) {
	err := (&Definition{Name: "empty"}).Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "suite has no cases")
}

func TestLoad_BundledSuite(t *testing.T) {
	def, err := Load(fixture.NewLoader(resources.FS), resources.DefaultSuite)
	require.NoError(t, err)

	assert.Equal(t, "timeapi", def.Name)
	assert.Equal(t, []string{"CurrentTimeSchema.json", "CalculationIncrementSchema.json"}, def.SchemaNames())
	assert.Equal(t, []string{"TimeZones.csv"}, def.Fixtures())
}

func TestLoad_Errors(t *testing.T) {
	fsys := fstest.MapFS{
		"invalid.yaml": &fstest.MapFile{Data: []byte("name: broken\ncases: []\n")},
	}
	loader := fixture.NewLoader(fsys)

	_, err := Load(loader, "missing.yaml")
	assert.True(t, errors.Is(err, fixture.ErrResourceNotFound))

	_, err = Load(loader, "invalid.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid.yaml")
	assert.Contains(t, err.Error(), "suite has no cases")
}
