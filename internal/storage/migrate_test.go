package storage

import (
	"database/sql"
	"path/filepath"
	"testing"
)

func TestMigrateRoundTripCompatibility(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "migrate-roundtrip.db")
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer db.Close()

	if err := MigrateUp(db); err != nil {
		t.Fatalf("first migrate up failed: %v", err)
	}
	if err := MigrateUp(db); err != nil {
		t.Fatalf("repeated migrate up failed: %v", err)
	}

	if err := MigrateDown(db); err != nil {
		t.Fatalf("migrate down failed: %v", err)
	}

	if err := MigrateUp(db); err != nil {
		t.Fatalf("second migrate up failed: %v", err)
	}

	store, err := NewSQLiteStore(db)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	if err := store.Save(t.Context(), "roundtrip", []byte(`{"ok":true}`)); err != nil {
		t.Fatalf("save after roundtrip failed: %v", err)
	}

	got, err := store.Load(t.Context(), "roundtrip")
	if err != nil {
		t.Fatalf("load after roundtrip failed: %v", err)
	}
	if string(got) != `{"ok":true}` {
		t.Fatalf("unexpected value after roundtrip: %q", got)
	}
}
