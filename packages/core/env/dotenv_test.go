package env

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeEnvFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDotEnv(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		expected map[string]string
	}{
		{
			name:     "plain pair",
			content:  "TIMECHECK_ZONE=America/Bogota",
			expected: map[string]string{"TIMECHECK_ZONE": "America/Bogota"},
		},
		{
			name:    "several pairs with blank lines and comments",
			content: "# zones\nHOME_ZONE=Europe/Amsterdam\n\nAWAY_ZONE=Asia/Tokyo\n",
			expected: map[string]string{
				"HOME_ZONE": "Europe/Amsterdam",
				"AWAY_ZONE": "Asia/Tokyo",
			},
		},
		{
			name:     "quoted values",
			content:  "A=\"16:03:45:17\"\nB='00:00:00:01'",
			expected: map[string]string{"A": "16:03:45:17", "B": "00:00:00:01"},
		},
		{
			name:     "export prefix and padding",
			content:  "  export SPAN =  01:00:00:00 ",
			expected: map[string]string{"SPAN": "01:00:00:00"},
		},
		{
			name:     "value containing equals",
			content:  "BASE=https://timeapi.io/api/?x=1",
			expected: map[string]string{"BASE": "https://timeapi.io/api/?x=1"},
		},
		{
			name:     "lines without equals and empty keys are skipped",
			content:  "garbage\n=value\n",
			expected: map[string]string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := LoadDotEnv(writeEnvFile(t, tt.content))
			require.NoError(t, err)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestLoadDotEnv_FileNotFound(t *testing.T) {
	_, err := LoadDotEnv(filepath.Join(t.TempDir(), "missing.env"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot open env file")
}

func TestLoadAndExportDotEnv_KeepsExistingValues(t *testing.T) {
	t.Setenv("TIMECHECK_TEST_KEEP", "from-shell")
	path := writeEnvFile(t, "TIMECHECK_TEST_KEEP=from-file\nTIMECHECK_TEST_NEW=from-file\n")
	t.Cleanup(func() { _ = os.Unsetenv("TIMECHECK_TEST_NEW") })

	vars, err := LoadAndExportDotEnv(path)
	require.NoError(t, err)

	assert.Len(t, vars, 2)
	assert.Equal(t, "from-shell", os.Getenv("TIMECHECK_TEST_KEEP"))
	assert.Equal(t, "from-file", os.Getenv("TIMECHECK_TEST_NEW"))
}
