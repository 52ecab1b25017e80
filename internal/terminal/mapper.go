package terminal

import (
	"fmt"
	"strings"

	"berthplan/internal/berth"
)

const (
	OrientationAscending  = "ascending"
	OrientationDescending = "descending"
)

// Mapper converts a terminal File into the berth reference table.
type Mapper struct{}

// NewMapper creates a new mapper instance.
func NewMapper() *Mapper {
	return &Mapper{}
}

// MapQuay resolves every berth's meter range and builds the quay.
// Berths with explicit meters keep them; the rest split the quay evenly in
// declaration order, from quay_start when ascending or from quay_end when
// descending.
func (m *Mapper) MapQuay(f File) (*berth.Quay, error) {
	if len(f.Terminals) == 0 {
		return nil, fmt.Errorf("no terminals defined")
	}

	var berths []berth.Berth
	for _, t := range f.Terminals {
		mapped, err := m.mapTerminal(t)
		if err != nil {
			return nil, fmt.Errorf("terminal %s: %w", t.Code, err)
		}
		berths = append(berths, mapped...)
	}

	q, err := berth.NewQuay(berths)
	if err != nil {
		return nil, fmt.Errorf("building quay: %w", err)
	}
	return q, nil
}

func (m *Mapper) mapTerminal(t TerminalSpec) ([]berth.Berth, error) {
	code := strings.ToUpper(strings.TrimSpace(t.Code))
	if code == "" {
		return nil, fmt.Errorf("terminal code is empty")
	}
	if len(t.Berths) == 0 {
		return nil, fmt.Errorf("no berths")
	}

	orientation := strings.ToLower(strings.TrimSpace(t.Orientation))
	switch orientation {
	case "", OrientationAscending, OrientationDescending:
	default:
		return nil, fmt.Errorf("unknown orientation %q", t.Orientation)
	}

	var implicit int
	for _, b := range t.Berths {
		if (b.MeterStart == nil) != (b.MeterEnd == nil) {
			return nil, fmt.Errorf("berth %s: meter_start and meter_end must be given together", b.Code)
		}
		if b.MeterStart == nil {
			implicit++
		}
	}
	var width float64
	if implicit > 0 {
		if !(t.QuayStart < t.QuayEnd) {
			return nil, fmt.Errorf("quay range [%g, %g) is empty", t.QuayStart, t.QuayEnd)
		}
		width = (t.QuayEnd - t.QuayStart) / float64(len(t.Berths))
	}

	out := make([]berth.Berth, 0, len(t.Berths))
	for i, b := range t.Berths {
		mb := berth.Berth{Code: b.Code, Terminal: code}
		switch {
		case b.MeterStart != nil:
			mb.MeterStart, mb.MeterEnd = *b.MeterStart, *b.MeterEnd
		case orientation == OrientationDescending:
			mb.MeterEnd = t.QuayEnd - float64(i)*width
			mb.MeterStart = mb.MeterEnd - width
		default:
			mb.MeterStart = t.QuayStart + float64(i)*width
			mb.MeterEnd = mb.MeterStart + width
		}
		out = append(out, mb)
	}
	return out, nil
}

// LoadQuay loads the terminal file at path, or the built-in table when path
// is empty, and maps it to a quay.
func LoadQuay(path string) (*berth.Quay, error) {
	f, err := NewLoader(path).Load()
	if err != nil {
		return nil, err
	}
	return NewMapper().MapQuay(f)
}
