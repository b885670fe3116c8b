package db

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/banshee-data/activity.report/internal/monitoring"
)

func tableExists(t *testing.T, db *DB, name string) bool {
	t.Helper()
	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?`, name).Scan(&n); err != nil {
		t.Fatalf("failed to check table %s: %v", name, err)
	}
	return n > 0
}

func TestLatestMigrationVersion(t *testing.T) {
	v, err := LatestMigrationVersion()
	if err != nil {
		t.Fatalf("LatestMigrationVersion failed: %v", err)
	}
	if v != 1 {
		t.Errorf("latest version = %d, want 1", v)
	}
}

func TestOpen_DoesNotMigrate(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "fresh.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer db.Close()
	db.Logf = monitoring.Discard

	status, err := db.GetMigrationStatus()
	if err != nil {
		t.Fatalf("GetMigrationStatus failed: %v", err)
	}
	if status.SchemaMigrationsExists {
		t.Error("fresh database should have no schema_migrations table")
	}
	if !status.Pending() {
		t.Error("fresh database should have pending migrations")
	}
	if tableExists(t, db, "analysis_runs") {
		t.Error("Open should not create tables")
	}
}

func TestMigrateDownAndUp(t *testing.T) {
	db, _ := setupTestDB(t)

	version, dirty, err := db.MigrateVersion()
	if err != nil {
		t.Fatalf("MigrateVersion failed: %v", err)
	}
	if version != 1 || dirty {
		t.Fatalf("version = %d dirty = %v, want 1 clean", version, dirty)
	}

	if err := db.MigrateDown(); err != nil {
		t.Fatalf("MigrateDown failed: %v", err)
	}
	for _, table := range []string{"analysis_runs", "sleep_periods", "activity_bouts"} {
		if tableExists(t, db, table) {
			t.Errorf("%s still exists after down", table)
		}
	}
	if version, _, err = db.MigrateVersion(); err != nil || version != 0 {
		t.Errorf("version after down = %d (%v), want 0", version, err)
	}

	if err := db.MigrateUp(); err != nil {
		t.Fatalf("MigrateUp failed: %v", err)
	}
	if !tableExists(t, db, "analysis_runs") {
		t.Error("analysis_runs missing after up")
	}
	// A second up is a no-op.
	if err := db.MigrateUp(); err != nil {
		t.Errorf("repeated MigrateUp failed: %v", err)
	}

	status, err := db.GetMigrationStatus()
	if err != nil {
		t.Fatalf("GetMigrationStatus failed: %v", err)
	}
	if status.Pending() || status.CurrentVersion != 1 || !status.SchemaMigrationsExists {
		t.Errorf("status = %+v", status)
	}
}

func TestMigrateForce(t *testing.T) {
	db, _ := setupTestDB(t)
	if err := db.MigrateForce(1); err != nil {
		t.Fatalf("MigrateForce failed: %v", err)
	}
	version, dirty, err := db.MigrateVersion()
	if err != nil {
		t.Fatalf("MigrateVersion failed: %v", err)
	}
	if version != 1 || dirty {
		t.Errorf("version = %d dirty = %v, want 1 clean", version, dirty)
	}
}

func TestMigrateLoggerPrefix(t *testing.T) {
	var got string
	l := &migrateLogger{logf: func(format string, v ...interface{}) { got = format }}
	l.Printf("applied %d", 1)
	if !strings.HasPrefix(got, "[migrate] ") {
		t.Errorf("format = %q", got)
	}
	if l.Verbose() {
		t.Error("Verbose should be false")
	}
}
