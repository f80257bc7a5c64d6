// Package migrations holds the goose SQL migrations of the auth database.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
