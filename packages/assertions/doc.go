// Package assertions checks captured responses against expected outcomes.
//
// Supported predicates:
//   - Status code equality
//   - Case-sensitive substring search on the raw body
//   - Field equality at a JSON path, with exact numeric comparison
//   - Latency strictly below a ceiling
//   - JSON Schema conformance
//
// Predicates are pure functions of the captured response. Evaluate runs
// every predicate of a test case, in order, even after one has failed.
package assertions
