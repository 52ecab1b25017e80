package testutil

import (
	"testing"
	"time"

	"berthplan/internal/berth"
	"berthplan/internal/terminal"
)

// Day is the planning day used by test fixtures.
var Day = time.Date(2025, 10, 29, 0, 0, 0, 0, time.UTC)

// At returns Day at the given hour and minute.
func At(hour, minute int) time.Time {
	return Day.Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute)
}

// NewBooking builds a booking on berth from hour start to hour end of Day.
// The terminal is left empty so the service infers it from the quay.
func NewBooking(id, vessel, berthCode string, start, end int) *berth.Booking {
	return &berth.Booking{
		ID:     id,
		Vessel: vessel,
		Berth:  berthCode,
		Start:  At(start, 0),
		End:    At(end, 0),
	}
}

// WithMeters sets the booking's start and end meters.
func WithMeters(b *berth.Booking, start, end float64) *berth.Booking {
	b.StartMeter, b.EndMeter = berth.Meters(start), berth.Meters(end)
	return b
}

// NewTestQuay returns the built-in terminal table.
func NewTestQuay(t *testing.T) *berth.Quay {
	t.Helper()
	q, err := terminal.LoadQuay("")
	if err != nil {
		t.Fatalf("loading default quay: %v", err)
	}
	return q
}

// NewTestService wires a BerthService over an in-memory store with the
// built-in quay, default rules, a fixed clock and sequential ids.
func NewTestService(t *testing.T) (*berth.BerthService, berth.Store) {
	t.Helper()
	store := NewTestStore(t)
	svc := berth.NewBerthService(store, NewTestQuay(t), berth.DefaultRules(), time.UTC,
		berth.NewNopLogger(), FixedClock(), NewStubIDGenerator())
	return svc, store
}
