package berth

import (
	"database/sql"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var placeholderValues = map[string]bool{
	"": true, "-": true, "—": true, "N/A": true, "NA": true, "null": true, "None": true,
}

// excelEpoch is day zero of spreadsheet serial dates.
var excelEpoch = time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC)

var (
	koreanDateUnits = strings.NewReplacer("년", "-", "월", "-", "일", " ", "시", ":", "분", "", "초", "")
	spaceRun        = regexp.MustCompile(`\s+`)
	separatorSpace  = regexp.MustCompile(`\s*([-:])\s*`)
)

var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-1-2 15:4:5",
	"2006-1-2 15:4",
	"2006-1-2 15",
	"2006-1-2",
	"20060102 1504",
	"20060102",
	"200601021504",
}

// ParseTimestamp tolerantly coerces a spreadsheet or scraped timestamp.
// Placeholders yield ok=false. Naive timestamps are read in loc; nil loc
// means UTC. Dotted and slashed dates, Korean unit glyphs and spreadsheet
// serial day numbers in [20000, 80000] are accepted.
func ParseTimestamp(raw string, loc *time.Location) (time.Time, bool) {
	if loc == nil {
		loc = time.UTC
	}
	s := strings.TrimSpace(raw)
	if placeholderValues[s] {
		return time.Time{}, false
	}

	if f, err := strconv.ParseFloat(s, 64); err == nil {
		if t, ok := fromSerial(f, loc); ok {
			return t, true
		}
	}

	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, true
	}

	norm := strings.NewReplacer(".", "-", "/", "-").Replace(s)
	norm = koreanDateUnits.Replace(norm)
	norm = spaceRun.ReplaceAllString(norm, " ")
	norm = separatorSpace.ReplaceAllString(norm, "$1")
	norm = strings.Trim(norm, "-: ")

	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, norm, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func fromSerial(days float64, loc *time.Location) (time.Time, bool) {
	if days < 20000 || days > 80000 {
		return time.Time{}, false
	}
	whole := math.Floor(days)
	frac := time.Duration(math.Round((days - whole) * 24 * float64(time.Hour) / float64(time.Second))) * time.Second
	d := excelEpoch.AddDate(0, 0, int(whole)).Add(frac)
	return time.Date(d.Year(), d.Month(), d.Day(), d.Hour(), d.Minute(), d.Second(), 0, loc), true
}

// ParseMeters coerces an optional numeric field. Placeholders, unparseable
// text and non-finite values are absent.
func ParseMeters(raw string) sql.NullFloat64 {
	s := strings.TrimSpace(strings.ReplaceAll(raw, ",", ""))
	s = strings.TrimSuffix(strings.TrimSuffix(s, "m"), "M")
	if placeholderValues[s] {
		return sql.NullFloat64{}
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return sql.NullFloat64{}
	}
	return Meters(f)
}
