// Package migrations holds the versioned SQL schema.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
