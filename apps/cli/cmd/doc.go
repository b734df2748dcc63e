// Package cmd implements the timecheck CLI commands using Cobra.
//
// Available commands:
//   - run: Execute the contract suite against the time API
//   - list: Display the planned cases and their checks
//   - validate: Check the suite, fixtures and schemas without sending requests
//   - mock: Serve a local stand-in for the time API
//   - init: Write a config file and a copy of the bundled resources
//   - version: Show timecheck version information
//
// Every command reads the same configuration from flags, TIMECHECK_*
// environment variables and an optional config file. Errors carry an
// exit code, see ExitCode.
package cmd
