package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func testFlags() *pflag.FlagSet {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("base-url", DefaultBaseURL, "")
	flags.Duration("latency-ceiling", 0, "")
	flags.Bool("parallel", false, "")
	flags.Int("concurrency", DefaultConcurrency, "")
	flags.StringToString("header", nil, "")
	flags.Float64("rate-limit", 0, "")
	return flags
}

func TestDefaultConfig_IsValid(t *testing.T) {
	cfg := DefaultConfig()

	require.NoError(t, cfg.Validate())
	assert.True(t, cfg.IsDefault())
	assert.Equal(t, "https://timeapi.io/api/", cfg.BaseURL)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
	assert.Zero(t, cfg.LatencyCeiling)
}

func TestKeyNames(t *testing.T) {
	tests := []struct {
		key  string
		flag string
		env  string
	}{
		{"baseURL", "base-url", "TIMECHECK_BASE_URL"},
		{"latencyCeiling", "latency-ceiling", "TIMECHECK_LATENCY_CEILING"},
		{"validateSSL", "validate-ssl", "TIMECHECK_VALIDATE_SSL"},
		{"noColor", "no-color", "TIMECHECK_NO_COLOR"},
		{"suite", "suite", "TIMECHECK_SUITE"},
		{"headers", "header", "TIMECHECK_HEADERS"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			assert.Equal(t, tt.flag, FlagName(tt.key))
			assert.Equal(t, tt.env, EnvName(tt.key))
		})
	}

	assert.Contains(t, Keys(), "latencyCeiling")
	assert.Len(t, Keys(), 26)
}

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	cfg, file, err := Load(LoadOptions{Dir: t.TempDir()})

	require.NoError(t, err)
	assert.Empty(t, file)
	assert.True(t, cfg.IsDefault())
}

func TestLoad_JSONFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, ".timecheck.json", `{
  "baseURL": "http://localhost:8080/api/",
  "latencyCeiling": "750ms",
  "parallel": true,
  "headers": {"User-Agent": "timecheck"}
}`)

	cfg, file, err := Load(LoadOptions{Dir: dir})

	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, ".timecheck.json"), file)
	assert.Equal(t, "http://localhost:8080/api/", cfg.BaseURL)
	assert.Equal(t, 750*time.Millisecond, cfg.LatencyCeiling)
	assert.True(t, cfg.Parallel)
	assert.Equal(t, "timecheck", cfg.Headers["user-agent"])
	assert.Equal(t, DefaultConcurrency, cfg.Concurrency)
}

func TestLoad_ExplicitYAMLFile(t *testing.T) {
	path := writeFile(t, t.TempDir(), "ci.yaml", "output: junit\noutputFile: report.xml\ntimeout: 5s\n")

	cfg, file, err := Load(LoadOptions{File: path})

	require.NoError(t, err)
	assert.Equal(t, path, file)
	assert.Equal(t, "junit", cfg.Output)
	assert.Equal(t, "report.xml", cfg.OutputFile)
	assert.Equal(t, 5*time.Second, cfg.Timeout)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, _, err := Load(LoadOptions{File: filepath.Join(t.TempDir(), "nope.json")})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading config file")
}

func TestLoad_Precedence(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "timecheck.yaml", "latencyCeiling: 500ms\nconcurrency: 2\nrateLimit: 1\n")
	t.Setenv("TIMECHECK_LATENCY_CEILING", "900ms")
	t.Setenv("TIMECHECK_CONCURRENCY", "3")

	flags := testFlags()
	require.NoError(t, flags.Parse([]string{"--latency-ceiling=1200ms", "--header", "x-trace=1"}))

	cfg, _, err := Load(LoadOptions{Dir: dir, Flags: flags})

	require.NoError(t, err)
	assert.Equal(t, 1200*time.Millisecond, cfg.LatencyCeiling, "set flag beats env")
	assert.Equal(t, 3, cfg.Concurrency, "env beats file")
	assert.Equal(t, 1.0, cfg.RateLimit, "file beats unset flag")
	assert.Equal(t, DefaultBaseURL, cfg.BaseURL)
	assert.Equal(t, "1", cfg.Headers["x-trace"])
}

func TestLoad_ValidationErrors(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "timecheck.json", `{
  "baseURL": "not a url",
  "output": "html",
  "concurrency": 0,
  "logFormat": "xml"
}`)

	_, _, err := Load(LoadOptions{Dir: dir})
	require.Error(t, err)

	var merr *multierror.Error
	require.True(t, errors.As(err, &merr))
	assert.Len(t, merr.Errors, 4)

	msg := err.Error()
	assert.Contains(t, msg, "invalid baseURL (not a url): must be an absolute URL")
	assert.Contains(t, msg, "invalid output (html): must be one of console, json, junit, tap")
	assert.Contains(t, msg, "invalid concurrency (0): must be at least 1")
	assert.Contains(t, msg, "invalid logFormat (xml)")
}

func TestValidate_ResourceDirMustExist(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ResourceDir = filepath.Join(t.TempDir(), "missing")

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must be an existing directory")

	cfg.ResourceDir = t.TempDir()
	assert.NoError(t, cfg.Validate())
}
