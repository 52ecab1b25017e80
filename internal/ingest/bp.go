package ingest

import (
	"regexp"
	"strconv"
	"strings"
)

var bpPattern = regexp.MustCompile(`^(\d+(?:\.\d+)?)\s*\(\s*F\s*:\s*(-?\d+(?:\.\d+)?)\s*,\s*E\s*:\s*(-?\d+(?:\.\d+)?)\s*\)$`)

// BP is a parsed bollard position string such as "110 ( F: 1, E: 142)".
type BP struct {
	Bollard float64
	F, E    float64
	HasFE   bool
}

// ParseBP parses the scraped BP column. A bare number yields the bollard
// only; anything else is rejected.
func ParseBP(s string) (BP, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return BP{}, false
	}
	if m := bpPattern.FindStringSubmatch(s); m != nil {
		bp, _ := strconv.ParseFloat(m[1], 64)
		f, _ := strconv.ParseFloat(m[2], 64)
		e, _ := strconv.ParseFloat(m[3], 64)
		return BP{Bollard: bp, F: f, E: e, HasFE: true}, true
	}
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return BP{Bollard: v}, true
	}
	return BP{}, false
}

func formatMeters(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
