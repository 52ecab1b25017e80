package berth

import (
	"database/sql"
	"math"
	"time"
)

// Vessel is identified by name and optionally carries its length overall.
type Vessel struct {
	Name string
	LOA  sql.NullFloat64
}

// Booking is one vessel's occupation of a berth for a time interval and,
// when known, a physical interval along the quay.
//
// StartMeter/EndMeter and FPos/EPos may arrive in either order; consumers
// normalize with min/max.
type Booking struct {
	ID       string
	Position int
	Vessel   string
	Berth    string
	Terminal string
	Voyage   string

	// ServiceType is the upstream "구분" column (e.g. feeder, mainline).
	ServiceType string

	Start time.Time
	End   time.Time

	StartMeter sql.NullFloat64
	EndMeter   sql.NullFloat64
	FPos       sql.NullFloat64
	EPos       sql.NullFloat64
	BP         sql.NullFloat64

	LOA     sql.NullFloat64
	LengthM sql.NullFloat64

	Status string
	Remark string
}

// Version is an immutable labeled snapshot of bookings.
type Version struct {
	ID        string
	Source    string
	Label     string
	CreatedAt time.Time

	// Count is the number of bookings, filled by listings.
	Count int
}

// Operation records a mutating command run against the store.
type Operation struct {
	ID         int64
	StartedAt  time.Time
	FinishedAt sql.NullTime
	Operation  string
	Parameters string
	Status     string
}

// Meters wraps v as a present optional value.
func Meters(v float64) sql.NullFloat64 {
	return sql.NullFloat64{Float64: v, Valid: true}
}

// OptionalFloat returns a pointer to the value of n when it is finite, else nil.
func OptionalFloat(n sql.NullFloat64) *float64 {
	v, ok := finite(n)
	if !ok {
		return nil
	}
	return &v
}

// finite reports the value of n when it is present and a finite number.
func finite(n sql.NullFloat64) (float64, bool) {
	if !n.Valid || math.IsNaN(n.Float64) || math.IsInf(n.Float64, 0) {
		return 0, false
	}
	return n.Float64, true
}

// pair returns the ordered (low, high) of two optional values when both are finite.
func pair(a, b sql.NullFloat64) (float64, float64, bool) {
	x, okA := finite(a)
	y, okB := finite(b)
	if !okA || !okB {
		return 0, 0, false
	}
	return math.Min(x, y), math.Max(x, y), true
}

// HasInterval reports whether the booking has a usable time interval.
func (b *Booking) HasInterval() bool {
	return !b.Start.IsZero() && !b.End.IsZero() && b.Start.Before(b.End)
}

// Overlaps reports whether the time intervals of b and o intersect.
// Touching intervals (one ends exactly when the other starts) do not overlap.
func (b *Booking) Overlaps(o *Booking) bool {
	return b.Start.Before(o.End) && o.Start.Before(b.End)
}

func cloneBookings(in []*Booking) []*Booking {
	out := make([]*Booking, len(in))
	for i, b := range in {
		c := *b
		out[i] = &c
	}
	return out
}
