// Package suite parses YAML suite definitions and plans them into test
// cases.
//
// A suite declares named cases. Each case describes one request (method,
// path, query, headers, JSON body) and its expected outcomes (status, body
// substrings, field values, latency ceiling, JSON schema). A case that names
// a fixture table is instantiated once per fixture row, with the row's
// first value bound to {{row}}.
//
// Planning resolves every placeholder, opens every fixture and looks up
// every compiled schema before any request is sent. A case whose setup
// fails is reported as a SetupError while the rest of the plan stays
// runnable.
package suite
