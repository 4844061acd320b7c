// Package migrations holds the Postgres schema for the bucket, ledger and
// settings stores.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
