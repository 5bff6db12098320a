package db

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

var pragmas = []struct {
	name  string
	value string
}{
	{"journal_mode", "WAL"},
	{"foreign_keys", "ON"},
	{"busy_timeout", "5000"},
}

// Open opens the SQLite database holding the catalog tables and kv records.
// An in-memory database is pinned to one connection, otherwise every new
// connection would see an empty schema.
func Open(dbPath string) (*sql.DB, error) {
	database, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database %q: %w", dbPath, err)
	}
	if dbPath == MemoryPath {
		database.SetMaxOpenConns(1)
	}

	for _, p := range pragmas {
		if _, err := database.Exec(fmt.Sprintf("PRAGMA %s = %s", p.name, p.value)); err != nil {
			database.Close()
			return nil, fmt.Errorf("set sqlite pragma %s: %w", p.name, err)
		}
	}

	if err := database.Ping(); err != nil {
		database.Close()
		return nil, fmt.Errorf("ping sqlite database %q: %w", dbPath, err)
	}

	return database, nil
}
