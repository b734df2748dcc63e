// Package resources bundles the suite definition, fixture tables and JSON
// schemas that timecheck runs with when no resource directory is configured.
package resources

import "embed"

// DefaultSuite is the suite definition run when none is configured.
const DefaultSuite = "timeapi.yaml"

//go:embed *.csv *.json *.yaml
var FS embed.FS
