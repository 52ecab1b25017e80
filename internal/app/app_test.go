package app

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"berthplan/internal/archive"
	"berthplan/internal/config"
	"berthplan/internal/database"
)

const planCSV = `vessel,berth,start,end,start_meter,end_meter,loa_m
HMM OSLO,1,2025-10-29 10:00,2025-10-29 12:00,0,120,300
KOTA ANGGUN,01,2025-10-29 11:00,2025-10-29 13:00,140,260,
SKY HOPE,6,2025-10-29 10:00,2025-10-29 11:00,,,
`

// newTestConfig returns a config with a sqlite database, a filesystem
// archive and the test encryptor, all under a temp dir. The database is
// migrated.
func newTestConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.NewConfig("host-1", t.TempDir())
	cfg.Timezone = "UTC"
	cfg.Encryption.Type = "test"
	if err := MigrateDatabase(cfg); err != nil {
		t.Fatalf("MigrateDatabase() error = %v", err)
	}
	return cfg
}

func writePlan(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "plan.csv")
	if err := os.WriteFile(path, []byte(planCSV), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func openApp(t *testing.T, cfg *config.Config, operation string) *BerthApp {
	t.Helper()
	a, err := NewBerthApp(cfg, operation)
	if err != nil {
		t.Fatalf("NewBerthApp() error = %v", err)
	}
	return a
}

// importPlan imports the sample plan in its own app and returns the version id.
func importPlan(t *testing.T, cfg *config.Config) string {
	t.Helper()
	a := openApp(t, cfg, "Import")
	res, err := a.Import(writePlan(t), "", "morning")
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	if res.Admitted != 3 || len(res.Issues) != 0 {
		t.Fatalf("Import() = %+v", res)
	}
	if err := a.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	return res.VersionID
}

func archivedVersion(t *testing.T, cfg *config.Config) int64 {
	t.Helper()
	arc, err := archive.NewFileSystemArchive("check", cfg.Archives[0].FSRoot)
	if err != nil {
		t.Fatal(err)
	}
	v, err := arc.SnapshotVersion(cfg.HostID, snapshotName)
	if err != nil {
		t.Fatalf("SnapshotVersion() error = %v", err)
	}
	return v
}

func TestBerthApp_ImportArchivesSnapshot(t *testing.T) {
	cfg := newTestConfig(t)
	id := importPlan(t, cfg)

	if v := archivedVersion(t, cfg); v != 1 {
		t.Fatalf("archived version = %d, want 1", v)
	}

	a := openApp(t, cfg, "GetHistory")
	defer a.Close()

	v, bookings, err := a.Version(id)
	if err != nil {
		t.Fatalf("Version() error = %v", err)
	}
	if v.Source != "file" || v.Label != "morning" || len(bookings) != 3 {
		t.Errorf("version = %+v with %d bookings", v, len(bookings))
	}

	ops, err := a.GetHistory(10)
	if err != nil {
		t.Fatalf("GetHistory() error = %v", err)
	}
	if len(ops) != 1 {
		t.Fatalf("history = %+v, want one operation", ops)
	}
	if op := ops[0]; op.Operation != "Import" || op.Status != "success" || !op.FinishedAt.Valid || !strings.HasSuffix(op.Parameters, "plan.csv") {
		t.Errorf("operation = %+v", op)
	}
}

func TestBerthApp_ReadOnlyCommandSkipsArchive(t *testing.T) {
	cfg := newTestConfig(t)

	a := openApp(t, cfg, "ListVersions")
	versions, err := a.ListVersions()
	if err != nil {
		t.Fatalf("ListVersions() error = %v", err)
	}
	if len(versions) != 0 {
		t.Errorf("fresh database has %d versions", len(versions))
	}
	if err := a.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	if v := archivedVersion(t, cfg); v != 0 {
		t.Errorf("archived version = %d, want 0 after a read-only command", v)
	}
}

func TestBerthApp_RefusesStaleDatabase(t *testing.T) {
	cfg := newTestConfig(t)
	importPlan(t, cfg)

	if err := os.Remove(filepath.Join(cfg.Database.DataDir, cfg.HostID+".db")); err != nil {
		t.Fatal(err)
	}
	if err := MigrateDatabase(cfg); err != nil {
		t.Fatal(err)
	}

	_, err := NewBerthApp(cfg, "ListVersions")
	if err == nil || !strings.Contains(err.Error(), "behind archive") {
		t.Fatalf("NewBerthApp() error = %v, want stale database error", err)
	}
}

func TestBerthApp_UnmigratedDatabase(t *testing.T) {
	cfg := config.NewConfig("host-1", t.TempDir())
	if _, err := NewBerthApp(cfg, "ListVersions"); err == nil || !strings.Contains(err.Error(), "schema out of date") {
		t.Errorf("NewBerthApp() error = %v, want schema error", err)
	}
}

func TestRestoreSnapshot(t *testing.T) {
	cfg := newTestConfig(t)
	importPlan(t, cfg)

	dest := filepath.Join(t.TempDir(), "restored.db")
	version, err := RestoreSnapshot(cfg, dest, "")
	if err != nil {
		t.Fatalf("RestoreSnapshot() error = %v", err)
	}
	if version != 1 {
		t.Errorf("version = %d, want 1", version)
	}

	store, err := database.NewSQLiteStore(dest, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()
	versions, err := store.ListVersions()
	if err != nil {
		t.Fatalf("ListVersions() on restored db error = %v", err)
	}
	if len(versions) != 1 || versions[0].Count != 3 {
		t.Errorf("restored versions = %+v", versions)
	}

	t.Run("refuses existing destination", func(t *testing.T) {
		if _, err := RestoreSnapshot(cfg, dest, ""); err == nil {
			t.Error("RestoreSnapshot() over an existing file error = nil")
		}
	})

	t.Run("nothing archived", func(t *testing.T) {
		other := newTestConfig(t)
		if _, err := RestoreSnapshot(other, filepath.Join(t.TempDir(), "x.db"), ""); err == nil {
			t.Error("RestoreSnapshot() without a snapshot error = nil")
		}
	})
}

func TestBerthApp_MemoryBackends(t *testing.T) {
	cfg := config.NewConfig("host-1", t.TempDir())
	cfg.Database = config.DatabaseConfig{Type: "memory"}
	cfg.Archives = []config.ArchiveConfig{{Type: "memory", Name: "mem"}}
	cfg.Encryption.Type = "test"

	a := openApp(t, cfg, "Import")
	if _, err := a.Import(writePlan(t), "csv", ""); err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	arc := a.archive.(*archive.MemoryArchive)
	if err := a.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	v, err := arc.SnapshotVersion("host-1", snapshotName)
	if err != nil || v != 1 {
		t.Fatalf("SnapshotVersion() = %d, %v, want 1", v, err)
	}
	var buf bytes.Buffer
	if err := arc.GetSnapshot("host-1", snapshotName, &buf); err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("BPENC")) {
		t.Error("archived snapshot was not passed through the encryptor")
	}
	if !bytes.Contains(buf.Bytes(), []byte("SQLite format 3")) {
		t.Error("archived snapshot is not a SQLite file")
	}
}

func TestBerthApp_Edit(t *testing.T) {
	cfg := newTestConfig(t)
	id := importPlan(t, cfg)

	a := openApp(t, cfg, "Edit")
	defer a.Close()

	_, bookings, err := a.Version(id)
	if err != nil {
		t.Fatal(err)
	}
	oslo, kota := bookings[0].ID, bookings[1].ID

	t.Run("no-op script saves nothing", func(t *testing.T) {
		res, err := a.Edit(id, EditScript{Moves: []Move{{BookingID: oslo, Minutes: 10}}})
		if err != nil {
			t.Fatalf("Edit() error = %v", err)
		}
		if res.VersionID != "" || len(res.Changes) != 0 {
			t.Errorf("Edit() = %+v, want nothing saved", res)
		}
	})

	t.Run("undo cancels the only change", func(t *testing.T) {
		res, err := a.Edit(id, EditScript{Moves: []Move{{BookingID: oslo, Minutes: 60}}, Undo: true})
		if err != nil {
			t.Fatalf("Edit() error = %v", err)
		}
		if res.VersionID != "" {
			t.Errorf("Edit() saved %s after undo", res.VersionID)
		}
	})

	t.Run("reassign clears the conflict", func(t *testing.T) {
		before, err := a.Validate(id)
		if err != nil {
			t.Fatal(err)
		}
		if len(before.Violations) != 2 {
			t.Fatalf("imported plan violations = %+v, want overlap and clearance", before.Violations)
		}

		res, err := a.Edit(id, EditScript{
			Reassignments: []Reassignment{{BookingID: kota, Berth: "2"}},
			Label:         "split",
		})
		if err != nil {
			t.Fatalf("Edit() error = %v", err)
		}
		if res.VersionID == "" || len(res.Changes) != 1 || len(res.Report.Violations) != 0 {
			t.Fatalf("Edit() = %+v", res)
		}
		v, err := a.Service().Version(res.VersionID)
		if err != nil {
			t.Fatal(err)
		}
		if v.Source != "edit" || v.Label != "split" {
			t.Errorf("saved version = %+v", v)
		}
	})

	t.Run("unknown booking", func(t *testing.T) {
		if _, err := a.Edit(id, EditScript{Moves: []Move{{BookingID: "nope", Minutes: 60}}}); err == nil {
			t.Error("Edit() error = nil for an unknown booking")
		}
	})
}

func TestBerthApp_VersionsAndExport(t *testing.T) {
	cfg := newTestConfig(t)
	id := importPlan(t, cfg)

	a := openApp(t, cfg, "Export")
	defer a.Close()

	var buf bytes.Buffer
	if err := a.ExportVersion(id, &buf); err != nil {
		t.Fatalf("ExportVersion() error = %v", err)
	}
	out := buf.String()
	if !strings.HasPrefix(out, "vessel,") || !strings.Contains(out, "HMM OSLO") {
		t.Errorf("export = %q", out)
	}

	bookings, placements, err := a.Layout(id)
	if err != nil {
		t.Fatalf("Layout() error = %v", err)
	}
	if len(bookings) != 3 || len(placements) != 3 || placements[0].BookingID != bookings[0].ID {
		t.Errorf("layout = %+v", placements)
	}

	n, err := a.SetVesselLOA(map[string]float64{"HMM OSLO": 366})
	if err != nil || n != 1 {
		t.Errorf("SetVesselLOA() = %d, %v, want 1", n, err)
	}

	if n, err := a.DeleteVersions(nil, false); err != nil || n != 0 {
		t.Errorf("DeleteVersions(nil) = %d, %v, want 0", n, err)
	}
	if n, err := a.DeleteVersions(nil, true); err != nil || n != 1 {
		t.Errorf("DeleteVersions(all) = %d, %v, want 1", n, err)
	}
}

func TestBerthApp_Serve(t *testing.T) {
	cfg := newTestConfig(t)
	cfg.Server.Listen = "127.0.0.1:0"

	a := openApp(t, cfg, "Serve")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := a.Serve(ctx); err != nil {
		t.Fatalf("Serve() error = %v", err)
	}
	if err := a.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if v := archivedVersion(t, cfg); v != 1 {
		t.Errorf("archived version = %d, want 1 after serving", v)
	}
}

func TestNewBerthApp_ConfigErrors(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*config.Config)
	}{
		{"log level", func(c *config.Config) { c.LogLevel = "loud" }},
		{"timezone", func(c *config.Config) { c.Timezone = "Mars/Olympus" }},
		{"time grid", func(c *config.Config) { c.Rules.TimeGridMinutes = 45 }},
		{"terminal file", func(c *config.Config) { c.Layout.TerminalFile = "/does/not/exist.yaml" }},
		{"archive type", func(c *config.Config) { c.Archives[0].Type = "tape" }},
		{"encryption type", func(c *config.Config) { c.Encryption.Type = "rot13" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := newTestConfig(t)
			tt.modify(cfg)
			if _, err := NewBerthApp(cfg, "ListVersions"); err == nil {
				t.Error("NewBerthApp() error = nil")
			}
		})
	}
}

func TestInitKeys(t *testing.T) {
	cfg := config.NewConfig("host-1", t.TempDir())
	cfg.Encryption.Type = "age"
	if !NeedsPassphrase(cfg) {
		t.Fatal("NeedsPassphrase() = false for age")
	}

	if err := InitKeys(cfg, "correct horse"); err != nil {
		t.Fatalf("InitKeys() error = %v", err)
	}
	for _, p := range []string{cfg.Encryption.PublicKeyPath, cfg.Encryption.PrivateKeyPath} {
		if _, err := os.Stat(p); err != nil {
			t.Errorf("key file %s: %v", p, err)
		}
	}
	if err := InitKeys(cfg, "again"); err == nil {
		t.Error("second InitKeys() error = nil")
	}

	cfg.Encryption.Type = "none"
	if NeedsPassphrase(cfg) {
		t.Error("NeedsPassphrase() = true for none")
	}
}

func TestDatabaseStatus(t *testing.T) {
	cfg := config.NewConfig("host-1", t.TempDir())
	st, err := DatabaseStatus(cfg)
	if err != nil {
		t.Fatalf("DatabaseStatus() error = %v", err)
	}
	if st.UpToDate() {
		t.Errorf("fresh database status = %s, want behind", st)
	}

	if err := MigrateDatabase(cfg); err != nil {
		t.Fatal(err)
	}
	st, err = DatabaseStatus(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if !st.UpToDate() {
		t.Errorf("migrated database status = %s, want up to date", st)
	}
}
