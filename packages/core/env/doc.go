// Package env resolves the {{...}} placeholders of a suite definition.
//
// It provides:
//   - Variable interpolation using {{variable}} syntax
//   - Built-in function evaluation ({{currentYear()}}, {{uuid()}}, ...)
//   - OS environment lookups with {{$NAME}}
//   - Loading variables from .env files and prefixed environment variables
//
// A string that is exactly one placeholder resolves to the typed value, so
// {{currentYear()}} yields an int rather than its text.
package env
