// Package http builds, executes and captures the requests a test case makes
// against the service under test.
//
// It wraps the standard library's http package with:
//   - A fluent request builder with an insertion-ordered JSON body
//   - Configurable timeouts, redirect handling, TLS and proxy settings
//   - An optional client-side rate limit
//   - Immutable captured responses with path-based JSON field access
//   - Typed connection failures, kept apart from HTTP status codes
package http
