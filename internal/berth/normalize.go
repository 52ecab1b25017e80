package berth

import (
	"database/sql"
	"math"
	"regexp"
	"strings"
	"unicode/utf8"
)

var digitRun = regexp.MustCompile(`[0-9]+`)

// missingTokens are spreadsheet placeholders that mean "no value".
var missingTokens = map[string]bool{
	"nan": true, "none": true, "null": true, "nat": true,
}

// NormalizeBerthLabel canonicalizes a free-form berth label.
//
// Digits before a parenthesis win ("9(1)" is berth 9); otherwise digits
// inside the parenthesis ("(3)" is berth 3); otherwise the first digit run
// anywhere. Labels without digits are returned trimmed. Leading zeros are
// dropped so "03" and "3" name the same berth.
func NormalizeBerthLabel(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" || missingTokens[strings.ToLower(s)] {
		return ""
	}

	if open := strings.IndexAny(s, "(（"); open >= 0 {
		if d := digitRun.FindString(s[:open]); d != "" {
			return trimZeros(d)
		}
		_, width := utf8.DecodeRuneInString(s[open:])
		inner := s[open+width:]
		if end := strings.IndexAny(inner, ")）"); end >= 0 {
			inner = inner[:end]
		}
		if d := digitRun.FindString(inner); d != "" {
			return trimZeros(d)
		}
	}

	if d := digitRun.FindString(s); d != "" {
		return trimZeros(d)
	}
	return s
}

func trimZeros(d string) string {
	t := strings.TrimLeft(d, "0")
	if t == "" {
		return "0"
	}
	return t
}

// NormalizeBerthList canonicalizes labels, dropping empties and duplicates
// while keeping first-seen order.
func NormalizeBerthList(labels []string) []string {
	seen := make(map[string]bool, len(labels))
	out := make([]string, 0, len(labels))
	for _, l := range labels {
		c := NormalizeBerthLabel(l)
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out
}

// ExtractMeterRange returns the min and max over whichever of start_meter,
// end_meter, f_pos and e_pos are present. ok is false when none are.
func ExtractMeterRange(b *Booking) (low, high float64, ok bool) {
	low, high = math.Inf(1), math.Inf(-1)
	for _, n := range [...]sql.NullFloat64{b.StartMeter, b.EndMeter, b.FPos, b.EPos} {
		v, present := finite(n)
		if !present {
			continue
		}
		ok = true
		low = math.Min(low, v)
		high = math.Max(high, v)
	}
	if !ok {
		return 0, 0, false
	}
	return low, high, true
}
