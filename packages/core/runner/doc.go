// Package runner executes a planned suite against the service under test.
//
// Every test case sends exactly one request and evaluates all of its
// predicates against the captured response. Cases run sequentially by
// default or fan out over a bounded pool in parallel mode. Requests are
// never retried: a connection failure is reported as a case error.
//
// A run also summarizes the latency of every captured response in an
// HdrHistogram.
package runner
