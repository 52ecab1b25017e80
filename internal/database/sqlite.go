package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"

	"berthplan/internal/berth"
	"berthplan/internal/database/migrations"
	"berthplan/internal/database/sqlc"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// SQLiteStore implements berth.Store using SQLite.
type SQLiteStore struct {
	db      *sql.DB
	queries *sqlc.Queries
	path    string
	clock   berth.Clock
}

// NewSQLiteStore opens a SQLite store. path can be a file path or ":memory:".
// clock stamps operation records; nil means the wall clock.
func NewSQLiteStore(path string, clock berth.Clock) (*SQLiteStore, error) {
	db, err := OpenConnection(path)
	if err != nil {
		return nil, err
	}
	return NewSQLiteStoreFromDB(db, path, clock), nil
}

// NewSQLiteStoreFromDB wraps an existing connection.
// The caller is responsible for ensuring the connection is properly configured.
func NewSQLiteStoreFromDB(db *sql.DB, path string, clock berth.Clock) *SQLiteStore {
	if clock == nil {
		clock = berth.RealClock{}
	}
	return &SQLiteStore{
		db:      db,
		queries: sqlc.New(db),
		path:    path,
		clock:   clock,
	}
}

// OpenConnection opens and configures a SQLite database connection with appropriate PRAGMAs.
// This is exported for use in tools and tests that need a properly configured SQLite connection.
func OpenConnection(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// One connection: PRAGMAs are per connection and an in-memory database
	// exists only inside the connection that created it.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return db, nil
}

// Version operations

func (s *SQLiteStore) CreateVersion(v *berth.Version, bookings []*berth.Booking) error {
	ctx := context.Background()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	qtx := s.queries.WithTx(tx)

	err = qtx.InsertVersion(ctx, sqlc.InsertVersionParams{
		ID:        v.ID,
		Source:    v.Source,
		Label:     v.Label,
		CreatedAt: v.CreatedAt.UTC(),
	})
	if err != nil {
		return fmt.Errorf("inserting version: %w", err)
	}

	vessels := map[string]int64{}
	berths := map[string]int64{}
	for i, b := range bookings {
		vesselID, ok := vessels[b.Vessel]
		if !ok {
			vesselID, err = findOrCreateVessel(ctx, qtx, b.Vessel, b.LOA)
			if err != nil {
				return fmt.Errorf("booking %d: %w", i, err)
			}
			vessels[b.Vessel] = vesselID
		}

		code := berth.NormalizeBerthLabel(b.Berth)
		berthID, ok := berths[code]
		if !ok {
			berthID, err = findOrCreateBerth(ctx, qtx, code, b.Terminal)
			if err != nil {
				return fmt.Errorf("booking %d: %w", i, err)
			}
			berths[code] = berthID
		}

		err = qtx.InsertBooking(ctx, sqlc.InsertBookingParams{
			ID:          b.ID,
			VersionID:   v.ID,
			Position:    int64(b.Position),
			VesselID:    vesselID,
			BerthID:     berthID,
			Terminal:    b.Terminal,
			Voyage:      b.Voyage,
			ServiceType: b.ServiceType,
			StartAt:     b.Start.UTC(),
			EndAt:       b.End.UTC(),
			StartMeter:  b.StartMeter,
			EndMeter:    b.EndMeter,
			FPos:        b.FPos,
			EPos:        b.EPos,
			Bp:          b.BP,
			LengthM:     b.LengthM,
			Status:      b.Status,
			Remark:      b.Remark,
		})
		if err != nil {
			return fmt.Errorf("inserting booking %d (%s): %w", i, b.Vessel, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// findOrCreateVessel returns the vessel id for name, creating the vessel if
// needed. A known vessel without an LOA is back-filled from loa.
func findOrCreateVessel(ctx context.Context, q *sqlc.Queries, name string, loa sql.NullFloat64) (int64, error) {
	if !(loa.Valid && loa.Float64 > 0) {
		loa = sql.NullFloat64{}
	}
	vessel, err := q.GetVesselByName(ctx, name)
	if errors.Is(err, sql.ErrNoRows) {
		vessel, err = q.InsertVessel(ctx, sqlc.InsertVesselParams{Name: name, LoaM: loa})
		if err != nil {
			return 0, fmt.Errorf("inserting vessel %q: %w", name, err)
		}
		return vessel.ID, nil
	}
	if err != nil {
		return 0, fmt.Errorf("finding vessel %q: %w", name, err)
	}
	if !vessel.LoaM.Valid && loa.Valid {
		if err := q.UpdateVesselLOA(ctx, sqlc.UpdateVesselLOAParams{LoaM: loa, ID: vessel.ID}); err != nil {
			return 0, fmt.Errorf("back-filling LOA for %q: %w", name, err)
		}
	}
	return vessel.ID, nil
}

func findOrCreateBerth(ctx context.Context, q *sqlc.Queries, code, terminal string) (int64, error) {
	b, err := q.GetBerthByCode(ctx, code)
	if errors.Is(err, sql.ErrNoRows) {
		b, err = q.InsertBerth(ctx, sqlc.InsertBerthParams{Code: code, Terminal: terminal})
		if err != nil {
			return 0, fmt.Errorf("inserting berth %q: %w", code, err)
		}
		return b.ID, nil
	}
	if err != nil {
		return 0, fmt.Errorf("finding berth %q: %w", code, err)
	}
	return b.ID, nil
}

func (s *SQLiteStore) FindVersion(id string) (*berth.Version, error) {
	row, err := s.queries.GetVersion(context.Background(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("finding version: %w", err)
	}
	return &berth.Version{
		ID:        row.ID,
		Source:    row.Source,
		Label:     row.Label,
		CreatedAt: row.CreatedAt.UTC(),
		Count:     int(row.BookingCount),
	}, nil
}

func (s *SQLiteStore) ListVersions() ([]*berth.Version, error) {
	rows, err := s.queries.ListVersions(context.Background())
	if err != nil {
		return nil, fmt.Errorf("listing versions: %w", err)
	}

	result := make([]*berth.Version, len(rows))
	for i, row := range rows {
		result[i] = &berth.Version{
			ID:        row.ID,
			Source:    row.Source,
			Label:     row.Label,
			CreatedAt: row.CreatedAt.UTC(),
			Count:     int(row.BookingCount),
		}
	}
	return result, nil
}

func (s *SQLiteStore) LoadBookings(versionID string) ([]*berth.Booking, error) {
	rows, err := s.queries.GetBookingsByVersion(context.Background(), versionID)
	if err != nil {
		return nil, fmt.Errorf("loading bookings: %w", err)
	}

	result := make([]*berth.Booking, len(rows))
	for i, row := range rows {
		result[i] = &berth.Booking{
			ID:          row.ID,
			Position:    int(row.Position),
			Vessel:      row.VesselName,
			Berth:       row.BerthCode,
			Terminal:    row.Terminal,
			Voyage:      row.Voyage,
			ServiceType: row.ServiceType,
			Start:       row.StartAt.UTC(),
			End:         row.EndAt.UTC(),
			StartMeter:  row.StartMeter,
			EndMeter:    row.EndMeter,
			FPos:        row.FPos,
			EPos:        row.EPos,
			BP:          row.Bp,
			LOA:         row.LoaM,
			LengthM:     row.LengthM,
			Status:      row.Status,
			Remark:      row.Remark,
		}
	}
	return result, nil
}

func (s *SQLiteStore) DeleteVersions(ids []string) (int64, error) {
	ctx := context.Background()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	qtx := s.queries.WithTx(tx)

	var deleted int64
	for _, id := range ids {
		n, err := qtx.DeleteVersion(ctx, id)
		if err != nil {
			return 0, fmt.Errorf("deleting version %s: %w", id, err)
		}
		deleted += n
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing transaction: %w", err)
	}
	return deleted, nil
}

func (s *SQLiteStore) DeleteAllVersions() (int64, error) {
	n, err := s.queries.DeleteAllVersions(context.Background())
	if err != nil {
		return 0, fmt.Errorf("deleting all versions: %w", err)
	}
	return n, nil
}

// Reference data

func (s *SQLiteStore) SeedBerths(berths []berth.Berth) error {
	ctx := context.Background()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	qtx := s.queries.WithTx(tx)
	for _, b := range berths {
		err := qtx.UpsertBerth(ctx, sqlc.UpsertBerthParams{
			Code:       berth.NormalizeBerthLabel(b.Code),
			Terminal:   b.Terminal,
			MeterStart: berth.Meters(b.MeterStart),
			MeterEnd:   berth.Meters(b.MeterEnd),
		})
		if err != nil {
			return fmt.Errorf("seeding berth %s: %w", b.Code, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

func (s *SQLiteStore) SetVesselLOA(loa map[string]float64) (int64, error) {
	ctx := context.Background()

	names := make([]string, 0, len(loa))
	for name := range loa {
		names = append(names, name)
	}
	sort.Strings(names)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	qtx := s.queries.WithTx(tx)

	var changed int64
	for _, name := range names {
		value := berth.Meters(loa[name])
		vessel, err := qtx.GetVesselByName(ctx, name)
		if errors.Is(err, sql.ErrNoRows) {
			if _, err := qtx.InsertVessel(ctx, sqlc.InsertVesselParams{Name: name, LoaM: value}); err != nil {
				return 0, fmt.Errorf("inserting vessel %q: %w", name, err)
			}
			changed++
			continue
		}
		if err != nil {
			return 0, fmt.Errorf("finding vessel %q: %w", name, err)
		}
		if vessel.LoaM == value {
			continue
		}
		if err := qtx.UpdateVesselLOA(ctx, sqlc.UpdateVesselLOAParams{LoaM: value, ID: vessel.ID}); err != nil {
			return 0, fmt.Errorf("updating LOA for %q: %w", name, err)
		}
		changed++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing transaction: %w", err)
	}
	return changed, nil
}

func (s *SQLiteStore) VesselLOA(names []string) (map[string]float64, error) {
	ctx := context.Background()
	result := make(map[string]float64, len(names))
	for _, name := range names {
		vessel, err := s.queries.GetVesselByName(ctx, name)
		if errors.Is(err, sql.ErrNoRows) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("finding vessel %q: %w", name, err)
		}
		if vessel.LoaM.Valid {
			result[name] = vessel.LoaM.Float64
		}
	}
	return result, nil
}

// Operation tracking

func (s *SQLiteStore) CreateOperation(operation string, parameters string) (*berth.Operation, error) {
	op, err := s.queries.InsertOperation(context.Background(), sqlc.InsertOperationParams{
		StartedAt:  s.clock.Now().UTC(),
		Operation:  operation,
		Parameters: parameters,
	})
	if err != nil {
		return nil, fmt.Errorf("creating operation: %w", err)
	}
	return toOperation(op), nil
}

func (s *SQLiteStore) FinishOperation(id int64, status string) error {
	err := s.queries.UpdateOperationFinished(context.Background(), sqlc.UpdateOperationFinishedParams{
		FinishedAt: sql.NullTime{Time: s.clock.Now().UTC(), Valid: true},
		Status:     status,
		ID:         id,
	})
	if err != nil {
		return fmt.Errorf("finishing operation: %w", err)
	}
	return nil
}

func (s *SQLiteStore) ListOperations(limit int) ([]*berth.Operation, error) {
	ops, err := s.queries.GetOperations(context.Background(), int64(limit))
	if err != nil {
		return nil, fmt.Errorf("listing operations: %w", err)
	}

	result := make([]*berth.Operation, len(ops))
	for i := range ops {
		result[i] = toOperation(ops[i])
	}
	return result, nil
}

func (s *SQLiteStore) MaxOperationID() (int64, error) {
	id, err := s.queries.GetMaxOperationID(context.Background())
	if err != nil {
		return 0, fmt.Errorf("getting max operation ID: %w", err)
	}
	return id, nil
}

func toOperation(op sqlc.Operation) *berth.Operation {
	return &berth.Operation{
		ID:         op.ID,
		StartedAt:  op.StartedAt.UTC(),
		FinishedAt: op.FinishedAt,
		Operation:  op.Operation,
		Parameters: op.Parameters,
		Status:     op.Status,
	}
}

// Path returns the database file path (or ":memory:" for in-memory databases).
func (s *SQLiteStore) Path() string {
	return s.path
}

// Migrate applies pending schema migrations.
func (s *SQLiteStore) Migrate() error {
	return migrations.MigrateUp(s.db)
}

// CheckMigrations verifies the database schema is up-to-date.
func (s *SQLiteStore) CheckMigrations() error {
	return migrations.CheckDBMigrationStatus(s.db)
}

// MigrationStatus reports the schema version against the embedded migrations.
func (s *SQLiteStore) MigrationStatus() (migrations.Status, error) {
	return migrations.ReadStatus(s.db)
}

// BackupTo creates a complete copy of the database at destPath using VACUUM INTO.
func (s *SQLiteStore) BackupTo(destPath string) error {
	_, err := s.db.Exec("VACUUM INTO ?", destPath)
	if err != nil {
		return fmt.Errorf("backing up database: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

var _ berth.Store = (*SQLiteStore)(nil)
