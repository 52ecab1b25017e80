package berth

import (
	"fmt"
	"sort"
	"strconv"
)

// Berth is a quay segment with a fixed [MeterStart, MeterEnd) range.
type Berth struct {
	Code       string
	Terminal   string
	MeterStart float64
	MeterEnd   float64
}

// Span returns the length of the berth's quay segment in meters.
func (b Berth) Span() float64 { return b.MeterEnd - b.MeterStart }

// Quay is the static berth reference table. It is built once and never
// mutated, so it is safe to share across sessions.
type Quay struct {
	byCode map[string]Berth
	order  []Berth
}

// NewQuay validates the table and indexes it by canonical berth code.
// Codes must be unique after normalization, ranges must be non-empty,
// and ranges within one terminal must not overlap.
func NewQuay(berths []Berth) (*Quay, error) {
	q := &Quay{byCode: make(map[string]Berth, len(berths))}
	for _, b := range berths {
		code := NormalizeBerthLabel(b.Code)
		if code == "" {
			return nil, fmt.Errorf("berth with empty code in terminal %q", b.Terminal)
		}
		if _, dup := q.byCode[code]; dup {
			return nil, fmt.Errorf("duplicate berth code %q", code)
		}
		if !(b.MeterStart < b.MeterEnd) {
			return nil, fmt.Errorf("berth %s: meter range [%g, %g) is empty", code, b.MeterStart, b.MeterEnd)
		}
		b.Code = code
		for _, other := range q.order {
			if other.Terminal == b.Terminal && b.MeterStart < other.MeterEnd && other.MeterStart < b.MeterEnd {
				return nil, fmt.Errorf("berths %s and %s overlap in terminal %s", other.Code, code, b.Terminal)
			}
		}
		q.byCode[code] = b
		q.order = append(q.order, b)
	}
	return q, nil
}

// Lookup resolves a raw label to its berth.
func (q *Quay) Lookup(label string) (Berth, bool) {
	if q == nil {
		return Berth{}, false
	}
	b, ok := q.byCode[NormalizeBerthLabel(label)]
	return b, ok
}

// MeterRange returns the fixed quay range of the berth named by label.
func (q *Quay) MeterRange(label string) (start, end float64, ok bool) {
	b, ok := q.Lookup(label)
	if !ok {
		return 0, 0, false
	}
	return b.MeterStart, b.MeterEnd, true
}

// TerminalOf returns the terminal group a berth belongs to, or "" when unknown.
func (q *Quay) TerminalOf(label string) string {
	b, _ := q.Lookup(label)
	return b.Terminal
}

// Berths returns the table in declaration order.
func (q *Quay) Berths() []Berth {
	if q == nil {
		return nil
	}
	return append([]Berth(nil), q.order...)
}

// Terminals returns the distinct terminal groups in declaration order.
func (q *Quay) Terminals() []string {
	var out []string
	seen := map[string]bool{}
	for _, b := range q.Berths() {
		if !seen[b.Terminal] {
			seen[b.Terminal] = true
			out = append(out, b.Terminal)
		}
	}
	return out
}

// lessLabel orders canonical berth labels numerically when both are
// numbers, otherwise lexically, with numbers first.
func lessLabel(a, b string) bool {
	x, errA := strconv.Atoi(a)
	y, errB := strconv.Atoi(b)
	switch {
	case errA == nil && errB == nil:
		return x < y
	case errA == nil:
		return true
	case errB == nil:
		return false
	default:
		return a < b
	}
}

func sortLabels(labels []string) {
	sort.SliceStable(labels, func(i, j int) bool { return lessLabel(labels[i], labels[j]) })
}
