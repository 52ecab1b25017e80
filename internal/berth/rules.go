package berth

// Rules holds the grid and clearance settings shared by the snapper,
// detector, layout resolver and edit sessions.
type Rules struct {
	TimeGridMinutes int
	SpaceGridM      float64
	MinGapM         float64

	// LaneHeightPx is the lane height used when a berth's span is unknown.
	LaneHeightPx    float64
	DefaultHeightPx float64
	MinHeightPx     float64
}

// DefaultRules returns a 60 minute time grid, a 30 m space grid and a 30 m
// minimum clearance, with 300 px lanes.
func DefaultRules() Rules {
	return Rules{
		TimeGridMinutes: DefaultTimeGridMinutes,
		SpaceGridM:      DefaultSpaceGridM,
		MinGapM:         30,
		LaneHeightPx:    300,
		DefaultHeightPx: 86,
		MinHeightPx:     24,
	}
}

// WithDefaults fills zero or negative fields from DefaultRules.
func (r Rules) WithDefaults() Rules {
	d := DefaultRules()
	if r.TimeGridMinutes <= 0 || r.TimeGridMinutes > 60 {
		r.TimeGridMinutes = d.TimeGridMinutes
	}
	if !(r.SpaceGridM > 0) {
		r.SpaceGridM = d.SpaceGridM
	}
	if !(r.MinGapM > 0) {
		r.MinGapM = d.MinGapM
	}
	if !(r.LaneHeightPx > 0) {
		r.LaneHeightPx = d.LaneHeightPx
	}
	if !(r.DefaultHeightPx > 0) {
		r.DefaultHeightPx = d.DefaultHeightPx
	}
	if !(r.MinHeightPx > 0) {
		r.MinHeightPx = d.MinHeightPx
	}
	return r
}
