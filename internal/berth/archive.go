package berth

import "io"

// Archive stores off-host copies of the planning database.
// Snapshots are addressed by host and name and carry a version number used
// to detect a local database that has fallen behind the archived one.
type Archive interface {
	// PutSnapshot stores a named snapshot for a host. size is the number of
	// bytes that will be read from r.
	PutSnapshot(hostID, name string, r io.Reader, size int64, version int64) error

	// GetSnapshot writes the named snapshot for a host to w.
	GetSnapshot(hostID, name string, w io.Writer) error

	// SnapshotVersion returns the stored version, or 0 when nothing is stored.
	SnapshotVersion(hostID, name string) (int64, error)

	// ValidateSetup verifies that the archive is reachable.
	ValidateSetup() error
}
