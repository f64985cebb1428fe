// Package schema embeds the SQL migrations for each supported database driver.
package schema

import (
	"embed"
	"fmt"
	"io/fs"
)

//go:embed postgres/*.sql sqlite/*.sql
var files embed.FS

// For returns the migration set matching a database/sql driver name.
func For(driver string) (fs.FS, error) {
	switch driver {
	case "pgx", "postgres":
		return fs.Sub(files, "postgres")
	case "sqlite3":
		return fs.Sub(files, "sqlite")
	}
	return nil, fmt.Errorf("schema: no migrations for driver %q", driver)
}
