package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"berthplan/internal/archive"
	"berthplan/internal/berth"
	"berthplan/internal/board"
	"berthplan/internal/config"
	"berthplan/internal/database"
	"berthplan/internal/encryption"
	"berthplan/internal/ingest"
	"berthplan/internal/terminal"
)

// snapshotName is the archive object holding the database snapshot.
const snapshotName = "db"

// BerthApp is the application layer between the CLI and BerthService.
// It constructs all dependencies from config, exposes high-level operations
// that accept raw paths and ids, and manages the DB lifecycle on Close.
type BerthApp struct {
	cfg       *config.Config
	store     *database.SQLiteStore
	archive   berth.Archive // nil when no archive is configured
	encryptor berth.Encryptor
	service   *berth.BerthService
	op        *Operation
	logger    *slog.Logger
	logFile   *os.File
}

// NewBerthApp creates a fully wired BerthApp from the given config.
// operation identifies the CLI command being run (e.g. "Import", "Edit").
// The caller must call Close when done.
func NewBerthApp(cfg *config.Config, operation string) (*BerthApp, error) {
	rules, err := cfg.BerthRules()
	if err != nil {
		return nil, fmt.Errorf("reading rules: %w", err)
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	level, err := parseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	quay, err := terminal.LoadQuay(cfg.Layout.TerminalFile)
	if err != nil {
		return nil, fmt.Errorf("loading terminal table: %w", err)
	}

	var arc berth.Archive
	if len(cfg.Archives) > 0 {
		arc, err = archive.NewArchiveFromConfig(cfg.Archives[0])
		if err != nil {
			return nil, fmt.Errorf("creating archive: %w", err)
		}
	}

	store, err := database.NewStoreFromConfig(cfg.Database, cfg.HostID, berth.RealClock{})
	if err != nil {
		return nil, fmt.Errorf("creating database: %w", err)
	}

	if err := store.CheckMigrations(); err != nil {
		store.Close()
		return nil, fmt.Errorf("database schema out of date: %w", err)
	}

	// Check local DB version against the archived one.
	if arc != nil {
		remoteVersion, err := arc.SnapshotVersion(cfg.HostID, snapshotName)
		if err != nil {
			store.Close()
			return nil, fmt.Errorf("checking archived snapshot version: %w", err)
		}

		localMax, err := store.MaxOperationID()
		if err != nil {
			store.Close()
			return nil, fmt.Errorf("checking local database version: %w", err)
		}

		if remoteVersion > localMax {
			store.Close()
			return nil, fmt.Errorf("local database is behind archive (local=%d, archive=%d): run db restore or re-initialize", localMax, remoteVersion)
		}
	}

	enc, err := encryption.NewEncryptorFromConfig(cfg.Encryption)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("creating encryptor: %w", err)
	}

	opID := time.Now().UTC().Format("20060102T150405Z")
	logger, logFile, err := newLogger(cfg.LogDir, opID, level)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("creating logger: %w", err)
	}

	svc := berth.NewBerthService(store, quay, rules, loc, &slogAdapter{l: logger}, berth.RealClock{}, berth.UUIDGenerator{})
	if err := svc.SeedBerths(); err != nil {
		store.Close()
		logFile.Close()
		return nil, err
	}

	return &BerthApp{
		cfg:       cfg,
		store:     store,
		archive:   arc,
		encryptor: enc,
		service:   svc,
		op:        NewOperation(operation, ""),
		logger:    logger,
		logFile:   logFile,
	}, nil
}

// Service exposes the wired BerthService.
func (a *BerthApp) Service() *berth.BerthService { return a.service }

// persistOperation saves the operation to the database, giving it an auto-increment ID.
// This should only be called for DB-mutating commands.
func (a *BerthApp) persistOperation(parameters string) error {
	if a.op.Persisted() {
		return nil
	}
	a.op.Parameters = parameters
	dbOp, err := a.store.CreateOperation(a.op.Operation, a.op.Parameters)
	if err != nil {
		return fmt.Errorf("persisting operation: %w", err)
	}
	a.op.ID = dbOp.ID
	return nil
}

// Import reads a CSV file and stores the admitted rows as a new version.
func (a *BerthApp) Import(path, source, label string) (*berth.ImportResult, error) {
	rows, err := ingest.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if source == "" {
		source = "file"
	}
	if err := a.persistOperation(path); err != nil {
		return nil, err
	}
	res, err := a.service.Import(rows, source, label)
	return res, a.op.Fail(err)
}

// ListVersions returns all versions newest first.
func (a *BerthApp) ListVersions() ([]*berth.Version, error) {
	return a.service.ListVersions()
}

// Version returns one version with its bookings.
func (a *BerthApp) Version(id string) (*berth.Version, []*berth.Booking, error) {
	v, err := a.service.Version(id)
	if err != nil {
		return nil, nil, err
	}
	bookings, err := a.service.LoadBookings(id)
	if err != nil {
		return nil, nil, err
	}
	return v, bookings, nil
}

// Validate runs the conflict detector over a version.
func (a *BerthApp) Validate(id string) (*berth.Report, error) {
	return a.service.Validate(id)
}

// Layout places every booking of a version.
func (a *BerthApp) Layout(id string) ([]*berth.Booking, []berth.Placement, error) {
	bookings, err := a.service.LoadBookings(id)
	if err != nil {
		return nil, nil, err
	}
	return bookings, a.service.Resolver().PlaceAll(bookings), nil
}

// DeleteVersions deletes the listed versions, or every version when all is set.
func (a *BerthApp) DeleteVersions(ids []string, all bool) (int64, error) {
	if !all && len(ids) == 0 {
		return 0, nil
	}
	params := strings.Join(ids, ",")
	if all {
		params = "all"
	}
	if err := a.persistOperation(params); err != nil {
		return 0, err
	}
	if all {
		n, err := a.service.DeleteAllVersions()
		return n, a.op.Fail(err)
	}
	n, err := a.service.DeleteVersions(ids)
	return n, a.op.Fail(err)
}

// ExportVersion writes a version's bookings as CSV.
func (a *BerthApp) ExportVersion(id string, w io.Writer) error {
	bookings, err := a.service.LoadBookings(id)
	if err != nil {
		return err
	}
	return ingest.Write(w, bookings)
}

// EditResult is the outcome of a scripted edit.
type EditResult struct {
	BaseVersion string
	VersionID   string // empty when the script changed nothing
	Changes     []berth.Change
	Report      *berth.Report
}

// Edit opens a session on a version, applies the script and saves the
// result as a new version. A script that changes nothing saves nothing.
func (a *BerthApp) Edit(id string, script EditScript) (*EditResult, error) {
	sess, err := a.service.OpenSession(id)
	if err != nil {
		return nil, err
	}
	for _, m := range script.Moves {
		if _, err := sess.ApplyMove(m.BookingID, m.Minutes, m.Meters); err != nil {
			return nil, fmt.Errorf("moving %s: %w", m.BookingID, err)
		}
	}
	for _, r := range script.Reassignments {
		if _, err := sess.Reassign(r.BookingID, r.Berth); err != nil {
			return nil, fmt.Errorf("reassigning %s: %w", r.BookingID, err)
		}
	}
	if script.Undo {
		sess.Undo()
	}

	res := &EditResult{BaseVersion: id, Changes: sess.Changes(), Report: sess.Validate()}
	if !sess.Dirty() {
		return res, nil
	}

	if err := a.persistOperation(id); err != nil {
		return nil, err
	}
	res.VersionID, err = sess.Save("edit", script.Label)
	if err != nil {
		return nil, a.op.Fail(err)
	}
	return res, nil
}

// SetVesselLOA back-fills vessel lengths and returns how many changed.
func (a *BerthApp) SetVesselLOA(loa map[string]float64) (int64, error) {
	names := make([]string, 0, len(loa))
	for name := range loa {
		names = append(names, name)
	}
	if err := a.persistOperation(strings.Join(names, ",")); err != nil {
		return 0, err
	}
	n, err := a.service.SetVesselLOA(loa)
	return n, a.op.Fail(err)
}

// GetHistory returns the most recent operations.
func (a *BerthApp) GetHistory(limit int) ([]*berth.Operation, error) {
	return a.service.GetHistory(limit)
}

// Serve runs the board API until ctx is cancelled. Edits saved through the
// board are archived on Close like any other mutating command.
func (a *BerthApp) Serve(ctx context.Context) error {
	timeout, err := a.cfg.Server.Timeout()
	if err != nil {
		return err
	}
	loc, err := a.cfg.Location()
	if err != nil {
		return err
	}
	if err := a.persistOperation(a.cfg.Server.Listen); err != nil {
		return err
	}

	srv := board.NewServer(a.service, &slogAdapter{l: a.logger}, board.Options{
		Addr:     a.cfg.Server.Listen,
		Timeout:  timeout,
		Location: loc,
	})

	errc := make(chan error, 1)
	go func() { errc <- srv.Start() }()

	select {
	case err := <-errc:
		return a.op.Fail(err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Stop(shutdownCtx); err != nil {
		return a.op.Fail(fmt.Errorf("stopping board: %w", err))
	}
	return a.op.Fail(<-errc)
}

// Close finalizes the operation and closes all resources.
// For persisted operations: finishes the operation record, snapshots the DB and uploads it to the archive.
// For non-persisted operations: just closes the database.
func (a *BerthApp) Close() error {
	var errs []error

	if a.op.Persisted() {
		if err := a.store.FinishOperation(a.op.ID, a.op.Status); err != nil {
			errs = append(errs, fmt.Errorf("finishing operation: %w", err))
		}

		var tmpPath string
		if a.archive != nil {
			p, err := a.snapshot()
			if err != nil {
				errs = append(errs, err)
			}
			tmpPath = p
		}

		if err := a.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing database: %w", err))
		}

		// Upload DB snapshot with version = operation ID
		if tmpPath != "" {
			if err := a.uploadSnapshot(tmpPath, a.op.ID); err != nil {
				errs = append(errs, err)
			}
			os.Remove(tmpPath)
		}
	} else if err := a.store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("closing database: %w", err))
	}

	if a.logFile != nil {
		a.logFile.Close()
	}

	return errors.Join(errs...)
}

// snapshot copies the database to a temp file and returns its path.
func (a *BerthApp) snapshot() (string, error) {
	tmpFile, err := os.CreateTemp("", "berthplan-db-*.db")
	if err != nil {
		return "", fmt.Errorf("creating temp file for db snapshot: %w", err)
	}
	tmpPath := tmpFile.Name()
	tmpFile.Close()
	// VACUUM INTO refuses to overwrite an existing file.
	os.Remove(tmpPath)

	if err := a.store.BackupTo(tmpPath); err != nil {
		os.Remove(tmpPath)
		return "", err
	}
	return tmpPath, nil
}

// uploadSnapshot encrypts the snapshot at path and stores it in the archive.
func (a *BerthApp) uploadSnapshot(path string, version int64) error {
	plain, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening db snapshot for upload: %w", err)
	}
	defer plain.Close()

	sealed, err := os.CreateTemp("", "berthplan-db-*.enc")
	if err != nil {
		return fmt.Errorf("creating temp file for encrypted snapshot: %w", err)
	}
	defer os.Remove(sealed.Name())
	defer sealed.Close()

	if err := a.encryptor.Encrypt(plain, sealed); err != nil {
		return fmt.Errorf("encrypting db snapshot: %w", err)
	}

	size, err := sealed.Seek(0, io.SeekCurrent)
	if err != nil {
		return fmt.Errorf("sizing encrypted snapshot: %w", err)
	}
	if _, err := sealed.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("rewinding encrypted snapshot: %w", err)
	}

	if err := a.archive.PutSnapshot(a.cfg.HostID, snapshotName, sealed, size, version); err != nil {
		return fmt.Errorf("uploading snapshot to archive: %w", err)
	}
	a.logger.Info("snapshot archived", "version", version, "bytes", size)
	return nil
}
