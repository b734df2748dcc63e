package resources

import (
	"encoding/json"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFS_BundlesSuiteFixtureAndSchemas(t *testing.T) {
	for _, name := range []string{
		DefaultSuite,
		"TimeZones.csv",
		"CurrentTimeSchema.json",
		"CalculationIncrementSchema.json",
	} {
		t.Run(name, func(t *testing.T) {
			data, err := fs.ReadFile(FS, name)
			require.NoError(t, err)
			assert.NotEmpty(t, data)
		})
	}
}

func TestFS_SchemasAreDraft4(t *testing.T) {
	for _, name := range []string{"CurrentTimeSchema.json", "CalculationIncrementSchema.json"} {
		data, err := fs.ReadFile(FS, name)
		require.NoError(t, err)

		var doc map[string]any
		require.NoError(t, json.Unmarshal(data, &doc), name)
		assert.Equal(t, "http://json-schema.org/draft-04/schema#", doc["$schema"], name)
	}
}
