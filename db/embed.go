// Package db embeds the SQL migration files applied at startup.
package db

import (
	"embed"
	"io/fs"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Migrations returns the embedded migration statements in lexical filename
// order, which is also their application order.
func Migrations() ([]string, error) {
	entries, err := fs.Glob(migrations, "migrations/*.sql")
	if err != nil {
		return nil, err
	}
	stmts := make([]string, 0, len(entries))
	for _, name := range entries {
		data, err := fs.ReadFile(migrations, name)
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, string(data))
	}
	return stmts, nil
}
