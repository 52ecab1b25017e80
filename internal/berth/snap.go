package berth

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/jinzhu/now"
)

const (
	DefaultTimeGridMinutes = 60
	DefaultSpaceGridM      = 30.0
)

// SnapTime floors ts to a multiple of gridMinutes counted from the top of
// its hour. The zero time passes through unchanged. Grids outside (0, 60]
// fall back to 60 minutes.
func SnapTime(ts time.Time, gridMinutes int) time.Time {
	if ts.IsZero() {
		return ts
	}
	if gridMinutes <= 0 || gridMinutes > 60 {
		gridMinutes = DefaultTimeGridMinutes
	}
	top := now.With(ts).BeginningOfHour()
	return top.Add(time.Duration(ts.Minute()/gridMinutes*gridMinutes) * time.Minute)
}

// SnapSpace rounds meter to the nearest multiple of gridM, halves away from
// zero. NaN and infinities pass through unchanged. Non-positive grids fall
// back to 30 m.
func SnapSpace(meter, gridM float64) float64 {
	if math.IsNaN(meter) || math.IsInf(meter, 0) {
		return meter
	}
	if !(gridM > 0) {
		gridM = DefaultSpaceGridM
	}
	return math.Round(meter/gridM) * gridM
}

// ParseTimeGrid reads a grid setting such as "1h", "30m", "15m" or a bare
// minute count. Unparseable or out of range input yields 60.
func ParseTimeGrid(s string) int {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" {
		return DefaultTimeGridMinutes
	}
	minutes := 0
	if n, err := strconv.Atoi(s); err == nil {
		minutes = n
	} else if d, err := time.ParseDuration(s); err == nil && d%time.Minute == 0 {
		minutes = int(d / time.Minute)
	}
	if minutes <= 0 || minutes > 60 {
		return DefaultTimeGridMinutes
	}
	return minutes
}
