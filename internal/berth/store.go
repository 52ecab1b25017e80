package berth

// Store is the persistence collaborator holding versions, their bookings,
// vessel and berth reference rows, and the operation history.
// Mutating methods run in a single transaction and roll back on failure.
type Store interface {
	// Version operations

	// CreateVersion persists v and an immutable copy of every booking,
	// creating any referenced vessel or berth that does not exist yet.
	CreateVersion(v *Version, bookings []*Booking) error

	// FindVersion returns the version with the given id, or nil when absent.
	FindVersion(id string) (*Version, error)

	// ListVersions returns all versions with booking counts, newest first.
	ListVersions() ([]*Version, error)

	// LoadBookings returns a version's bookings in stored order, joined with
	// vessel LOA and canonical berth code.
	LoadBookings(versionID string) ([]*Booking, error)

	// DeleteVersions deletes the listed versions and their bookings and
	// returns how many versions were removed.
	DeleteVersions(ids []string) (int64, error)

	// DeleteAllVersions deletes every version and returns how many were removed.
	DeleteAllVersions() (int64, error)

	// Reference data

	// SeedBerths inserts or refreshes berth reference rows.
	SeedBerths(berths []Berth) error

	// SetVesselLOA back-fills vessel lengths, creating unknown vessels.
	// Returns the number of vessels whose LOA changed.
	SetVesselLOA(loa map[string]float64) (int64, error)

	// VesselLOA returns the known LOA for each named vessel that has one.
	VesselLOA(names []string) (map[string]float64, error)

	// Operation history

	CreateOperation(operation, parameters string) (*Operation, error)
	FinishOperation(id int64, status string) error
	ListOperations(limit int) ([]*Operation, error)
	MaxOperationID() (int64, error)

	// Close closes the underlying connection.
	Close() error
}
