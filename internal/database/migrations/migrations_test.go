package migrations

import (
	"database/sql"
	"strings"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

func TestMigrateUp_FreshDatabase(t *testing.T) {
	db := openTestDB(t)
	defer db.Close()

	// Migrate up
	err := MigrateUp(db)
	if err != nil {
		t.Fatalf("MigrateUp() failed: %v", err)
	}

	// Verify tables were created
	tables := []string{"berths", "vessels", "versions", "bookings", "operations", "schema_migrations"}
	for _, table := range tables {
		var name string
		err := db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		if err != nil {
			t.Errorf("Table %s was not created: %v", table, err)
		}
	}
}

func TestCheckDBMigrationStatus_FreshDatabase(t *testing.T) {
	db := openTestDB(t)
	defer db.Close()

	err := CheckDBMigrationStatus(db)
	if err == nil {
		t.Fatal("CheckDBMigrationStatus() expected error for fresh database, got nil")
	}
	if !strings.Contains(err.Error(), "no schema version") {
		t.Errorf("CheckDBMigrationStatus() error = %q, want error about needing migration", err.Error())
	}
}

func TestReadStatus(t *testing.T) {
	db := openTestDB(t)
	defer db.Close()

	st, err := ReadStatus(db)
	if err != nil {
		t.Fatalf("ReadStatus() error = %v", err)
	}
	if st.Current != 0 || st.Latest == 0 || st.UpToDate() {
		t.Errorf("fresh status = %+v", st)
	}

	if err := MigrateUp(db); err != nil {
		t.Fatalf("MigrateUp() failed: %v", err)
	}
	st, err = ReadStatus(db)
	if err != nil {
		t.Fatalf("ReadStatus() error = %v", err)
	}
	if !st.UpToDate() || st.Current != st.Latest {
		t.Errorf("migrated status = %+v, want up to date", st)
	}
	if !strings.HasPrefix(st.String(), "up to date") {
		t.Errorf("String() = %q", st.String())
	}
}

func TestStatus_String(t *testing.T) {
	tests := []struct {
		st   Status
		want string
	}{
		{Status{Current: 0, Latest: 1}, "no schema version (latest is 1)"},
		{Status{Current: 1, Latest: 3}, "version 1, 2 migrations behind 3"},
		{Status{Current: 4, Latest: 3}, "version 4 is ahead of binary version 3"},
		{Status{Current: 2, Latest: 2, Dirty: true}, "dirty at version 2 (migration failed previously)"},
	}
	for _, tt := range tests {
		if got := tt.st.String(); got != tt.want {
			t.Errorf("%+v.String() = %q, want %q", tt.st, got, tt.want)
		}
	}
}

func TestCheckDBMigrationStatus_AfterMigration(t *testing.T) {
	db := openTestDB(t)
	defer db.Close()

	// Migrate up
	if err := MigrateUp(db); err != nil {
		t.Fatalf("MigrateUp() failed: %v", err)
	}

	// Status should be OK now
	err := CheckDBMigrationStatus(db)
	if err != nil {
		t.Errorf("CheckDBMigrationStatus() after migration returned error: %v", err)
	}
}

func TestMigrateUp_Idempotent(t *testing.T) {
	db := openTestDB(t)
	defer db.Close()

	// Run migration twice
	if err := MigrateUp(db); err != nil {
		t.Fatalf("First MigrateUp() failed: %v", err)
	}

	if err := MigrateUp(db); err != nil {
		t.Errorf("Second MigrateUp() failed: %v (should be idempotent)", err)
	}

	// Status should still be OK
	if err := CheckDBMigrationStatus(db); err != nil {
		t.Errorf("CheckDBMigrationStatus() after double migration returned error: %v", err)
	}
}

func TestForeignKeyConstraints(t *testing.T) {
	db := openTestDB(t)
	defer db.Close()

	if err := MigrateUp(db); err != nil {
		t.Fatalf("MigrateUp() failed: %v", err)
	}

	// A booking pointing at a missing version must be rejected
	_, err := db.Exec(`
		INSERT INTO bookings (id, version_id, position, vessel_id, berth_id, start_at, end_at)
		VALUES ('b-1', 'no-such-version', 0, 1, 1, '2025-10-29 10:00:00', '2025-10-29 12:00:00')
	`)
	if err == nil {
		t.Error("Expected foreign key constraint violation, but insert succeeded")
	}
}

func TestSchema_DeleteVersionCascades(t *testing.T) {
	db := openTestDB(t)
	defer db.Close()

	if err := MigrateUp(db); err != nil {
		t.Fatalf("MigrateUp() failed: %v", err)
	}

	stmts := []string{
		"INSERT INTO vessels (id, name) VALUES (1, 'HANJIN ROME')",
		"INSERT INTO berths (id, code, terminal) VALUES (1, '3', 'SND')",
		"INSERT INTO versions (id, created_at) VALUES ('v1', datetime('now'))",
		`INSERT INTO bookings (id, version_id, position, vessel_id, berth_id, start_at, end_at)
		 VALUES ('b-1', 'v1', 0, 1, 1, '2025-10-29 10:00:00', '2025-10-29 12:00:00')`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			t.Fatalf("Exec(%q) error = %v", stmt, err)
		}
	}

	if _, err := db.Exec("DELETE FROM versions WHERE id = 'v1'"); err != nil {
		t.Fatalf("delete version: %v", err)
	}

	var n int
	if err := db.QueryRow("SELECT COUNT(*) FROM bookings").Scan(&n); err != nil {
		t.Fatalf("count bookings: %v", err)
	}
	if n != 0 {
		t.Errorf("bookings after version delete = %d, want 0", n)
	}
}

func TestSchema_BookingIntervalCheck(t *testing.T) {
	db := openTestDB(t)
	defer db.Close()

	if err := MigrateUp(db); err != nil {
		t.Fatalf("MigrateUp() failed: %v", err)
	}

	db.Exec("INSERT INTO vessels (id, name) VALUES (1, 'EVER GIVEN')")
	db.Exec("INSERT INTO berths (id, code) VALUES (1, '1')")
	db.Exec("INSERT INTO versions (id, created_at) VALUES ('v1', datetime('now'))")

	_, err := db.Exec(`
		INSERT INTO bookings (id, version_id, position, vessel_id, berth_id, start_at, end_at)
		VALUES ('b-1', 'v1', 0, 1, 1, '2025-10-29 12:00:00', '2025-10-29 10:00:00')
	`)
	if err == nil {
		t.Error("Expected check constraint violation for end before start")
	}
}

func TestSchema_VesselNameUnique(t *testing.T) {
	db := openTestDB(t)
	defer db.Close()

	if err := MigrateUp(db); err != nil {
		t.Fatalf("MigrateUp() failed: %v", err)
	}

	if _, err := db.Exec("INSERT INTO vessels (name, loa_m) VALUES ('MSC ANNA', 400)"); err != nil {
		t.Fatalf("Failed to insert first vessel: %v", err)
	}

	_, err := db.Exec("INSERT INTO vessels (name) VALUES ('MSC ANNA')")
	if err == nil {
		t.Error("Expected unique constraint violation for duplicate vessel name, but insert succeeded")
	}

	_, err = db.Exec("INSERT INTO vessels (name, loa_m) VALUES ('ONE APUS', -3)")
	if err == nil {
		t.Error("Expected check constraint violation for non-positive LOA")
	}
}

// openTestDB opens an in-memory SQLite database for testing.
func openTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	db.SetMaxOpenConns(1)

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		t.Fatalf("Failed to enable foreign keys: %v", err)
	}

	return db
}
