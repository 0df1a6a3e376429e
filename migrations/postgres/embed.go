// Package migrations embebe los archivos SQL del esquema.
package migrations

import "embed"

// FS contiene las migraciones postgres (*_up.sql / *_down.sql).
//
//go:embed *.sql
var FS embed.FS
