package berth

import (
	"database/sql"
	"math"
)

// SizeSource records which tier of the fallback chain sized a block.
type SizeSource string

const (
	SizeFromMeters  SizeSource = "meters"
	SizeFromLength  SizeSource = "length"
	SizeFromDefault SizeSource = "default"
)

// Placement is the rendered geometry of one booking inside its berth lane.
type Placement struct {
	BookingID  string     `json:"booking_id"`
	Berth      string     `json:"berth"`
	Height     float64    `json:"height"`
	Offset     float64    `json:"offset"`
	LaneHeight float64    `json:"lane_height"`
	Source     SizeSource `json:"source"`
}

// Resolver computes block height and offset from whatever position data a
// booking carries. It is read-only and total over its inputs.
type Resolver struct {
	quay  *Quay
	rules Rules
}

func NewResolver(quay *Quay, rules Rules) *Resolver {
	return &Resolver{quay: quay, rules: rules.WithDefaults()}
}

// LaneHeight is the booking's berth span when known, else the configured lane height.
func (r *Resolver) LaneHeight(b *Booking) float64 {
	if start, end, ok := r.quay.MeterRange(b.Berth); ok {
		return end - start
	}
	return r.rules.LaneHeightPx
}

// Height resolves the block height: a positive occupied span first, then
// the vessel's LOA or secondary length, then the default height. The result
// never exceeds the lane.
func (r *Resolver) Height(b *Booking) float64 {
	h, _ := r.height(b)
	return h
}

func (r *Resolver) height(b *Booking) (float64, SizeSource) {
	lane := r.LaneHeight(b)
	if low, high, ok := ExtractMeterRange(b); ok && high-low > 0 {
		return r.clamp(high-low, lane), SizeFromMeters
	}
	for _, n := range [...]sql.NullFloat64{b.LOA, b.LengthM} {
		if v, ok := finite(n); ok && v > 0 {
			return r.clamp(v, lane), SizeFromLength
		}
	}
	return math.Min(r.rules.DefaultHeightPx, lane), SizeFromDefault
}

// Offset places a block of the given height within its lane. Known
// positions on a known berth anchor at the lower meter value relative to
// the berth start; everything else is centered.
func (r *Resolver) Offset(b *Booking, height float64) float64 {
	lane := r.LaneHeight(b)
	low, _, hasPos := ExtractMeterRange(b)
	start, _, hasBerth := r.quay.MeterRange(b.Berth)
	if !hasPos || !hasBerth {
		return math.Max(0, (lane-height)/2)
	}
	return clampRange(low-start, 0, math.Max(0, lane-height))
}

// Place combines Height and Offset for one booking.
func (r *Resolver) Place(b *Booking) Placement {
	h, src := r.height(b)
	return Placement{
		BookingID:  b.ID,
		Berth:      NormalizeBerthLabel(b.Berth),
		Height:     h,
		Offset:     r.Offset(b, h),
		LaneHeight: r.LaneHeight(b),
		Source:     src,
	}
}

// PlaceAll places every booking in input order.
func (r *Resolver) PlaceAll(bookings []*Booking) []Placement {
	out := make([]Placement, 0, len(bookings))
	for _, b := range bookings {
		out = append(out, r.Place(b))
	}
	return out
}

func (r *Resolver) clamp(v, lane float64) float64 {
	lo := math.Min(r.rules.MinHeightPx, lane)
	return clampRange(v, lo, lane)
}

func clampRange(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(v, hi))
}
