// Package config loads and validates timecheck configuration.
//
// Values are layered, later sources winning:
//   - Built-in defaults (DefaultConfig)
//   - A config file: --config, or the first of .timecheck.json,
//     timecheck.json, .timecheck.yaml, timecheck.yaml in the working directory
//   - TIMECHECK_* environment variables (TIMECHECK_LATENCY_CEILING, ...)
//   - Command-line flags that were explicitly set
//
// The merged result is checked with struct validation tags before use.
package config
