package app

import (
	"fmt"
	"strconv"
	"strings"
)

// Move is one scripted edit: shift a booking by minutes along the time
// axis and by meters along the quay.
type Move struct {
	BookingID string
	Minutes   int
	Meters    float64
}

// Reassignment moves a booking to another berth.
type Reassignment struct {
	BookingID string
	Berth     string
}

// EditScript is a non-interactive edit session: moves run first, then
// reassignments, then an optional undo of the last change.
type EditScript struct {
	Moves         []Move
	Reassignments []Reassignment
	Undo          bool
	Label         string
}

// ParseMove reads BOOKING:MINUTES:METERS. Booking ids may contain colons;
// the last two fields are the deltas.
func ParseMove(s string) (Move, error) {
	i := strings.LastIndex(s, ":")
	if i < 0 {
		return Move{}, fmt.Errorf("move %q: want BOOKING:MINUTES:METERS", s)
	}
	j := strings.LastIndex(s[:i], ":")
	if j <= 0 {
		return Move{}, fmt.Errorf("move %q: want BOOKING:MINUTES:METERS", s)
	}
	minutes, err := strconv.Atoi(strings.TrimSpace(s[j+1 : i]))
	if err != nil {
		return Move{}, fmt.Errorf("move %q: minutes: %w", s, err)
	}
	meters, err := strconv.ParseFloat(strings.TrimSpace(s[i+1:]), 64)
	if err != nil {
		return Move{}, fmt.Errorf("move %q: meters: %w", s, err)
	}
	return Move{BookingID: s[:j], Minutes: minutes, Meters: meters}, nil
}

// ParseReassignment reads BOOKING:BERTH.
func ParseReassignment(s string) (Reassignment, error) {
	i := strings.LastIndex(s, ":")
	if i <= 0 || i == len(s)-1 {
		return Reassignment{}, fmt.Errorf("berth change %q: want BOOKING:BERTH", s)
	}
	return Reassignment{BookingID: s[:i], Berth: s[i+1:]}, nil
}

// ParseLOA reads NAME=LOA pairs. Vessel names may contain '='; the value
// follows the last one.
func ParseLOA(pairs []string) (map[string]float64, error) {
	out := make(map[string]float64, len(pairs))
	for _, p := range pairs {
		i := strings.LastIndex(p, "=")
		if i <= 0 {
			return nil, fmt.Errorf("loa %q: want NAME=METERS", p)
		}
		name := strings.TrimSpace(p[:i])
		v, err := strconv.ParseFloat(strings.TrimSpace(p[i+1:]), 64)
		if err != nil {
			return nil, fmt.Errorf("loa %q: %w", p, err)
		}
		if name == "" || !(v > 0) {
			return nil, fmt.Errorf("loa %q: name must be set and length positive", p)
		}
		out[name] = v
	}
	return out, nil
}
