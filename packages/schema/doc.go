// Package schema compiles JSON Schema documents and validates response
// bodies against them.
//
// Schemas are always compiled with Draft 4 semantics, whatever their
// "$schema" keyword says. Compilation happens once per run; a compiled
// Validator is immutable and safe for concurrent use.
package schema
