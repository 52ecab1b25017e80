package testutil

import (
	"fmt"
	"sync"
	"time"

	"berthplan/internal/berth"
)

// StubClock returns a fixed time. Safe for concurrent use.
type StubClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewStubClock creates a StubClock set to the given time.
func NewStubClock(t time.Time) *StubClock {
	return &StubClock{now: t}
}

// FixedClock returns a StubClock set to 2025-10-29 09:00:00 UTC.
func FixedClock() *StubClock {
	return NewStubClock(time.Date(2025, 10, 29, 9, 0, 0, 0, time.UTC))
}

func (c *StubClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d.
func (c *StubClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// StubIDGenerator returns sequential IDs with a prefix: "id-1", "id-2", etc.
type StubIDGenerator struct {
	mu      sync.Mutex
	prefix  string
	counter int
}

func NewStubIDGenerator() *StubIDGenerator {
	return NewStubIDGeneratorWithPrefix("id")
}

// NewStubIDGeneratorWithPrefix returns a generator producing "<prefix>-1",
// "<prefix>-2", etc.
func NewStubIDGeneratorWithPrefix(prefix string) *StubIDGenerator {
	return &StubIDGenerator{prefix: prefix}
}

func (g *StubIDGenerator) New() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.counter++
	return fmt.Sprintf("%s-%d", g.prefix, g.counter)
}

var (
	_ berth.Clock       = (*StubClock)(nil)
	_ berth.IDGenerator = (*StubIDGenerator)(nil)
)
