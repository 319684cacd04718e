package store

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"strconv"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// pragma is a connection setting applied on every Open, with the value
// SQLite reports back once it is in effect.
type pragma struct {
	name     string
	set      string
	reported string
	fileOnly bool // in-memory databases report their own value
}

// pragmas configure the single connection:
//   - WAL so trace reads do not block tick imports
//   - NORMAL synchronous; a crash may lose the last run, never corrupt one
//   - 5s busy timeout for a second tau process on the same file
//   - foreign keys so run_events cascade with their run
var pragmas = []pragma{
	{name: "journal_mode", set: "WAL", reported: "wal", fileOnly: true},
	{name: "synchronous", set: "NORMAL", reported: "1"},
	{name: "busy_timeout", set: "5000", reported: "5000"},
	{name: "foreign_keys", set: "ON", reported: "1"},
}

// migration upgrades a database created by an older schema.sql. Version is
// the user_version the database has after it ran.
type migration struct {
	version int
	name    string
	stmt    string
}

var migrations = []migration{
	{
		version: 1,
		name:    "run event time index",
		stmt: `CREATE INDEX IF NOT EXISTS idx_run_events_time
			ON run_events(run_id, time_millis, seq)`,
	},
}

// schemaVersion is the user_version of a fully migrated database.
func schemaVersion() int {
	return migrations[len(migrations)-1].version
}

// Store holds tick series and the run journal in one SQLite file.
//
// Thread-safety: Store is safe for concurrent use; the pool is limited to
// one connection, so SQLite sees a single writer.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens the database at path, creating it if needed, then applies the
// pragmas, the schema and any pending migrations. Opening the same file
// repeatedly is safe.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := prepare(db, inMemory(path)); err != nil {
		db.Close()
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return &Store{db: db, path: path}, nil
}

func prepare(db *sql.DB, memory bool) error {
	if err := db.Ping(); err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	for _, p := range pragmas {
		if _, err := db.Exec(fmt.Sprintf("PRAGMA %s = %s", p.name, p.set)); err != nil {
			return fmt.Errorf("pragma %s: %w", p.name, err)
		}
		if memory && p.fileOnly {
			continue
		}
		if err := verifyPragma(db, p.name, p.reported); err != nil {
			return fmt.Errorf("pragma %w", err)
		}
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("schema: %w", err)
	}
	return migrate(db)
}

// migrate runs every migration newer than the database's user_version, in
// order, and records the version reached after each one.
func migrate(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("read user_version: %w", err)
	}

	for _, m := range migrations {
		if m.version <= version {
			continue
		}
		if _, err := db.Exec(m.stmt); err != nil {
			return fmt.Errorf("migration %d (%s): %w", m.version, m.name, err)
		}
		// PRAGMA does not take bind parameters.
		if _, err := db.Exec("PRAGMA user_version = " + strconv.Itoa(m.version)); err != nil {
			return fmt.Errorf("migration %d: set user_version: %w", m.version, err)
		}
		version = m.version
	}
	return nil
}

// Close closes the database. Closing a zero Store is a no-op.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the file the store was opened on.
func (s *Store) Path() string {
	return s.path
}

// Ping verifies the database is still reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// inMemory reports whether path names a database without a backing file.
func inMemory(path string) bool {
	return path == ":memory:" || strings.Contains(path, "mode=memory")
}

// verifyPragma checks that a pragma reports the expected value.
func verifyPragma(db *sql.DB, name, expected string) error {
	var value string
	if err := db.QueryRow("PRAGMA " + name).Scan(&value); err != nil {
		return fmt.Errorf("query %s: %w", name, err)
	}
	if value != expected {
		return fmt.Errorf("%s = %q, expected %q", name, value, expected)
	}
	return nil
}
