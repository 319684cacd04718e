package store

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"testing"
)

func TestOpen_CreatesNewDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer s.Close()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Error("database file was not created")
	}
	if s.Path() != path {
		t.Errorf("Path() = %q, want %q", s.Path(), path)
	}
	if err := s.Ping(context.Background()); err != nil {
		t.Errorf("Ping() failed: %v", err)
	}
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	for i := 0; i < 3; i++ {
		s, err := Open(path)
		if err != nil {
			t.Fatalf("Open() iteration %d failed: %v", i, err)
		}
		s.Close()
	}

	s, err := Open(path)
	if err != nil {
		t.Fatalf("final Open() failed: %v", err)
	}
	defer s.Close()

	tables := []string{"ticks", "runs", "run_events"}
	for _, table := range tables {
		var name string
		err := s.db.QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?",
			table,
		).Scan(&name)
		if err != nil {
			t.Errorf("table %q not found after idempotent opens: %v", table, err)
		}
	}
}

func TestOpen_AppliesPragmas(t *testing.T) {
	s := createTestStore(t)

	for _, p := range pragmas {
		if err := verifyPragma(s.db, p.name, p.reported); err != nil {
			t.Error(err)
		}
	}
}

func TestOpen_RunsMigrations(t *testing.T) {
	s := createTestStore(t)

	if err := verifyPragma(s.db, "user_version", strconv.Itoa(schemaVersion())); err != nil {
		t.Error(err)
	}

	var name string
	err := s.db.QueryRow(
		"SELECT name FROM sqlite_master WHERE type='index' AND name='idx_run_events_time'",
	).Scan(&name)
	if err != nil {
		t.Errorf("migration index missing: %v", err)
	}
}

func TestOpen_InMemory(t *testing.T) {
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open(:memory:) failed: %v", err)
	}
	defer s.Close()

	for _, p := range pragmas {
		if p.fileOnly {
			continue
		}
		if err := verifyPragma(s.db, p.name, p.reported); err != nil {
			t.Error(err)
		}
	}
}

func TestVerifyPragma_Mismatch(t *testing.T) {
	s := createTestStore(t)

	err := verifyPragma(s.db, "foreign_keys", "0")
	if err == nil {
		t.Fatal("verifyPragma() should report foreign_keys = 1")
	}
	if want := `foreign_keys = "1", expected "0"`; err.Error() != want {
		t.Errorf("verifyPragma() = %q, want %q", err.Error(), want)
	}
}

func TestOpen_InvalidPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "dir", "test.db")

	if _, err := Open(path); err == nil {
		t.Fatal("Open() on a missing directory should fail")
	}
}

func TestClose_NilDB(t *testing.T) {
	var s Store
	if err := s.Close(); err != nil {
		t.Errorf("Close() on empty store = %v, want nil", err)
	}
}

func TestMigrate_UpgradesOldDatabase(t *testing.T) {
	s := createTestStore(t)

	_, err := s.db.Exec("DROP INDEX idx_run_events_time")
	if err != nil {
		t.Fatalf("drop index: %v", err)
	}
	if _, err := s.db.Exec("PRAGMA user_version = 0"); err != nil {
		t.Fatalf("reset user_version: %v", err)
	}

	if err := migrate(s.db); err != nil {
		t.Fatalf("migrate() failed: %v", err)
	}
	if err := verifyPragma(s.db, "user_version", strconv.Itoa(schemaVersion())); err != nil {
		t.Error(err)
	}
	var name string
	err = s.db.QueryRow(
		"SELECT name FROM sqlite_master WHERE type='index' AND name='idx_run_events_time'",
	).Scan(&name)
	if err != nil {
		t.Errorf("migration did not recreate index: %v", err)
	}
}
