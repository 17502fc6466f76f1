// Package migrations embeds the Postgres schema so goose can apply it at startup and in tests.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
