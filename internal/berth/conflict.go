package berth

import (
	"fmt"
	"sort"
	"time"
)

// ViolationKind distinguishes the two checks the detector runs.
type ViolationKind string

const (
	KindOverlap   ViolationKind = "temporal_overlap"
	KindClearance ViolationKind = "spatial_clearance"
)

// Occupant is the part of a booking a violation reports on.
type Occupant struct {
	BookingID string    `json:"booking_id"`
	Vessel    string    `json:"vessel"`
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`

	// Low/High are the occupied quay interval; set only for clearance violations.
	Low  float64 `json:"low_m,omitempty"`
	High float64 `json:"high_m,omitempty"`
}

// Violation is a reported conflict between two bookings on one berth.
// For clearance violations First is the occupant with the lower meter
// range and Gap is Second.Low - First.High.
type Violation struct {
	Kind   ViolationKind `json:"kind"`
	Berth  string        `json:"berth"`
	First  Occupant      `json:"first"`
	Second Occupant      `json:"second"`
	Gap    float64       `json:"gap_m,omitempty"`
}

func (v Violation) String() string {
	switch v.Kind {
	case KindClearance:
		return fmt.Sprintf("berth %s: clearance %.1fm between %s [%g-%g] and %s [%g-%g]",
			v.Berth, v.Gap, v.First.Vessel, v.First.Low, v.First.High, v.Second.Vessel, v.Second.Low, v.Second.High)
	default:
		return fmt.Sprintf("berth %s: %s and %s overlap in time", v.Berth, v.First.Vessel, v.Second.Vessel)
	}
}

// Detector finds temporal overlaps and clearance shortfalls among bookings
// sharing a berth. It never mutates its input.
type Detector struct {
	minGap float64
}

// NewDetector returns a detector requiring minGapM meters between
// concurrently moored vessels. Non-positive values use 30 m.
func NewDetector(minGapM float64) *Detector {
	if !(minGapM > 0) {
		minGapM = DefaultRules().MinGapM
	}
	return &Detector{minGap: minGapM}
}

// MinGap returns the configured minimum clearance in meters.
func (d *Detector) MinGap() float64 { return d.minGap }

// Detect returns every temporal overlap followed by every clearance
// violation. Order is deterministic for identical input.
func (d *Detector) Detect(bookings []*Booking) []Violation {
	return append(d.Overlaps(bookings), d.Clearances(bookings)...)
}

// Overlaps reports one violation per pair of same-berth bookings whose time
// intervals intersect.
func (d *Detector) Overlaps(bookings []*Booking) []Violation {
	var out []Violation
	for _, lane := range groupByBerth(bookings) {
		d.eachConcurrent(lane, func(a, b *Booking) {
			out = append(out, Violation{
				Kind:   KindOverlap,
				Berth:  lane.berth,
				First:  occupant(a),
				Second: occupant(b),
			})
		})
	}
	return out
}

// Clearances reports concurrent same-berth pairs whose physical gap is
// below the minimum. Bookings without any position data are skipped.
func (d *Detector) Clearances(bookings []*Booking) []Violation {
	var out []Violation
	for _, lane := range groupByBerth(bookings) {
		d.eachConcurrent(lane, func(a, b *Booking) {
			aLow, aHigh, okA := occupiedRange(a)
			bLow, bHigh, okB := occupiedRange(b)
			if !okA || !okB {
				return
			}
			first, second := occupant(a), occupant(b)
			first.Low, first.High = aLow, aHigh
			second.Low, second.High = bLow, bHigh
			if bLow < aLow {
				first, second = second, first
			}
			gap := second.Low - first.High
			if gap < d.minGap {
				out = append(out, Violation{
					Kind:   KindClearance,
					Berth:  lane.berth,
					First:  first,
					Second: second,
					Gap:    gap,
				})
			}
		})
	}
	return out
}

// eachConcurrent calls fn for every time-overlapping pair in the lane.
// The lane is sorted by start, so the inner scan stops at the first
// booking that starts after a ends.
func (d *Detector) eachConcurrent(lane berthLane, fn func(a, b *Booking)) {
	items := lane.items
	for i := 0; i < len(items); i++ {
		a := items[i]
		for j := i + 1; j < len(items); j++ {
			b := items[j]
			if !b.Start.Before(a.End) {
				break
			}
			fn(a, b)
		}
	}
}

// occupiedRange resolves the physical interval used for clearance checks:
// the start/end meter pair when complete, else the F/E pair, else whatever
// partial position values exist.
func occupiedRange(b *Booking) (float64, float64, bool) {
	if lo, hi, ok := pair(b.StartMeter, b.EndMeter); ok {
		return lo, hi, true
	}
	if lo, hi, ok := pair(b.FPos, b.EPos); ok {
		return lo, hi, true
	}
	return ExtractMeterRange(b)
}

func occupant(b *Booking) Occupant {
	return Occupant{BookingID: b.ID, Vessel: b.Vessel, Start: b.Start, End: b.End}
}

type berthLane struct {
	berth string
	items []*Booking
}

// groupByBerth buckets bookings with a valid interval by canonical berth,
// each bucket sorted by (start, input order), buckets sorted by label.
func groupByBerth(bookings []*Booking) []berthLane {
	buckets := map[string][]*Booking{}
	var labels []string
	for _, b := range bookings {
		if b == nil || !b.HasInterval() {
			continue
		}
		label := NormalizeBerthLabel(b.Berth)
		if label == "" {
			continue
		}
		if _, ok := buckets[label]; !ok {
			labels = append(labels, label)
		}
		buckets[label] = append(buckets[label], b)
	}
	sortLabels(labels)

	lanes := make([]berthLane, 0, len(labels))
	for _, label := range labels {
		items := buckets[label]
		sort.SliceStable(items, func(i, j int) bool { return items[i].Start.Before(items[j].Start) })
		lanes = append(lanes, berthLane{berth: label, items: items})
	}
	return lanes
}
