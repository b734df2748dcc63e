// Package fixture loads the data that drives timecheck test cases.
//
// Resources are read from an fs.FS, either the embedded resources bundle or
// a directory on disk. It provides:
//   - Tabular fixtures (.csv, .xlsx) streamed row by row, header skipped
//   - Raw JSON schema documents
//   - Raw suite definitions
//
// A missing resource is always reported as ErrResourceNotFound.
package fixture
