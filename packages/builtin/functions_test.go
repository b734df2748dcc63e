package builtin

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var newYearUTC = FixedClock(time.Date(2027, time.January, 1, 2, 30, 0, 0, time.UTC))

func TestRegistry_CurrentYear(t *testing.T) {
	r := NewRegistry(newYearUTC)

	v, err := r.Call("currentYear()")
	require.NoError(t, err)
	assert.Equal(t, 2027, v)

	// still New Year's Eve in Bogota
	v, err = r.Call(`currentYear("America/Bogota")`)
	require.NoError(t, err)
	assert.Equal(t, 2026, v)

	_, err = r.Call(`currentYear("Mars/Olympus")`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "currentYear()")
}

func TestRegistry_TimeFunctions(t *testing.T) {
	r := NewRegistry(newYearUTC)

	tests := []struct {
		expr string
		want any
	}{
		{"now()", "2027-01-01T02:30:00Z"},
		{`now("15:04")`, "02:30"},
		{"date()", "2027-01-01"},
		{"date('02/01/2006')", "01/01/2027"},
		{"timestamp()", int64(1798770600)},
		{"timestampMs()", int64(1798770600000)},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			got, err := r.Call(tt.expr)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRegistry_StringFunctions(t *testing.T) {
	r := NewRegistry(nil)

	id, err := r.Call("uuid()")
	require.NoError(t, err)
	_, err = uuid.Parse(id.(string))
	assert.NoError(t, err)

	s, err := r.Call("randomString(12)")
	require.NoError(t, err)
	assert.Len(t, s, 12)

	_, err = r.Call("randomString(twelve)")
	assert.Error(t, err)

	enc, err := r.Call(`base64("UTC")`)
	require.NoError(t, err)
	assert.Equal(t, "VVRD", enc)

	esc, err := r.Call(`urlEncode("America/Bogota")`)
	require.NoError(t, err)
	assert.Equal(t, "America%2FBogota", esc)

	_, err = r.Call("base64()")
	assert.Error(t, err)
}

func TestRegistry_UnknownFunction(t *testing.T) {
	r := NewRegistry(nil)

	_, err := r.Call("tomorrow()")
	assert.True(t, errors.Is(err, ErrUnknownFunction))

	_, err = r.Call("bogota")
	assert.Error(t, err)
}

func TestRegistry_Register(t *testing.T) {
	r := NewRegistry(nil)
	r.Register("zone", func(args []string) (any, error) { return "UTC", nil })

	v, err := r.Call("zone()")
	require.NoError(t, err)
	assert.Equal(t, "UTC", v)
	assert.Contains(t, r.Names(), "zone")
}

func TestIsCall(t *testing.T) {
	assert.True(t, IsCall("currentYear()"))
	assert.True(t, IsCall(` date("2006") `))
	assert.False(t, IsCall("bogota"))
	assert.False(t, IsCall("row"))
}

func TestParseArgs(t *testing.T) {
	assert.Equal(t, []string{"a", "b, c", "d"}, parseArgs(`a, "b, c", 'd'`))
	assert.Nil(t, parseArgs(""))
}

func TestSystemClock(t *testing.T) {
	before := time.Now()
	assert.False(t, SystemClock.Now().Before(before))
	assert.Equal(t, newYearUTC.Now(), newYearUTC.Now())
}
