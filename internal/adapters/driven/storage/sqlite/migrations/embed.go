// Package migrations holds the schema of the OAuth attempt store.
package migrations

import "embed"

// FS holds the numbered up/down migrations, applied in name order.
//
//go:embed *.sql
var FS embed.FS
