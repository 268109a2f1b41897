// Package migrations contains embedded SQL migrations for the SQLite store.
package migrations

import "embed"

//go:embed tracker/*.sql
var TrackerFS embed.FS
