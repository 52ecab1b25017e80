package archive

import (
	"bytes"
	"fmt"
	"io"
	"sync"

	"berthplan/internal/berth"
)

// MemoryArchive is an in-memory implementation of the Archive interface.
// It is useful for testing and safe for concurrent use.
type MemoryArchive struct {
	name     string
	data     map[string][]byte // "hostID/name" -> snapshot
	versions map[string]int64  // "hostID/name" -> version
	mu       sync.RWMutex
}

// NewMemoryArchive creates a new in-memory archive with the given name.
func NewMemoryArchive(name string) *MemoryArchive {
	return &MemoryArchive{
		name:     name,
		data:     make(map[string][]byte),
		versions: make(map[string]int64),
	}
}

func snapshotKey(hostID, name string) string {
	return hostID + "/" + name
}

// PutSnapshot stores a named snapshot for a specific host.
func (m *MemoryArchive) PutSnapshot(hostID, name string, r io.Reader, size int64, version int64) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("failed to read snapshot: %w", err)
	}
	if int64(len(data)) != size {
		return fmt.Errorf("size mismatch: expected %d bytes, got %d", size, len(data))
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	key := snapshotKey(hostID, name)
	m.data[key] = data
	m.versions[key] = version
	return nil
}

// GetSnapshot retrieves a named snapshot for a specific host.
func (m *MemoryArchive) GetSnapshot(hostID, name string, w io.Writer) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.data[snapshotKey(hostID, name)]
	if !ok {
		return fmt.Errorf("snapshot %q not found for host: %s", name, hostID)
	}
	if _, err := io.Copy(w, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	return nil
}

// SnapshotVersion returns 0 if nothing has been stored for this host/name.
func (m *MemoryArchive) SnapshotVersion(hostID, name string) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.versions[snapshotKey(hostID, name)], nil
}

// ValidateSetup always succeeds for the in-memory archive.
func (m *MemoryArchive) ValidateSetup() error {
	return nil
}

var _ berth.Archive = (*MemoryArchive)(nil)
