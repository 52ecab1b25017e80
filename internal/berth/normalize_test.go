package berth

import (
	"database/sql"
	"reflect"
	"testing"
)

func TestNormalizeBerthLabel(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{raw: "9(1)", want: "9"},
		{raw: "(3)", want: "3"},
		{raw: "", want: ""},
		{raw: "   ", want: ""},
		{raw: "NaN", want: ""},
		{raw: "None", want: ""},
		{raw: "5", want: "5"},
		{raw: " 05 ", want: "5"},
		{raw: "Berth 7", want: "7"},
		{raw: "선석(8)", want: "8"},
		{raw: "2（1）", want: "2"},
		{raw: "9.0", want: "9"},
		{raw: "(x) 4", want: "4"},
		{raw: "ANCHORAGE", want: "ANCHORAGE"},
		{raw: "  pier  ", want: "pier"},
		{raw: "00", want: "0"},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			if got := NormalizeBerthLabel(tt.raw); got != tt.want {
				t.Errorf("NormalizeBerthLabel(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestNormalizeBerthList(t *testing.T) {
	got := NormalizeBerthList([]string{"3", "03", "", "1(2)", "(3)", "9", "1"})
	want := []string{"3", "1", "9"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("NormalizeBerthList() = %v, want %v", got, want)
	}
}

func TestExtractMeterRange(t *testing.T) {
	tests := []struct {
		name     string
		b        Booking
		wantLow  float64
		wantHigh float64
		wantOK   bool
	}{
		{
			name:   "nothing present",
			b:      Booking{},
			wantOK: false,
		},
		{
			name:     "reversed start and end meters",
			b:        Booking{StartMeter: Meters(400), EndMeter: Meters(150)},
			wantLow:  150,
			wantHigh: 400,
			wantOK:   true,
		},
		{
			name:     "mixed partial sources",
			b:        Booking{StartMeter: Meters(200), EPos: Meters(90)},
			wantLow:  90,
			wantHigh: 200,
			wantOK:   true,
		},
		{
			name:     "single value",
			b:        Booking{FPos: Meters(42)},
			wantLow:  42,
			wantHigh: 42,
			wantOK:   true,
		},
		{
			name:   "invalid entries ignored",
			b:      Booking{StartMeter: sql.NullFloat64{Float64: 10}},
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			low, high, ok := ExtractMeterRange(&tt.b)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if low != tt.wantLow || high != tt.wantHigh {
				t.Errorf("range = (%g, %g), want (%g, %g)", low, high, tt.wantLow, tt.wantHigh)
			}
		})
	}
}

func TestNewQuay(t *testing.T) {
	t.Run("indexes by canonical code", func(t *testing.T) {
		q, err := NewQuay([]Berth{
			{Code: "01", Terminal: "SND", MeterStart: 0, MeterEnd: 300},
			{Code: "2", Terminal: "SND", MeterStart: 300, MeterEnd: 600},
		})
		if err != nil {
			t.Fatalf("NewQuay() error = %v", err)
		}
		start, end, ok := q.MeterRange("1(2)")
		if !ok || start != 0 || end != 300 {
			t.Errorf("MeterRange(1(2)) = (%g, %g, %v), want (0, 300, true)", start, end, ok)
		}
		if got := q.TerminalOf("2"); got != "SND" {
			t.Errorf("TerminalOf(2) = %q, want SND", got)
		}
		if _, _, ok := q.MeterRange("7"); ok {
			t.Error("MeterRange(7) ok = true for unknown berth")
		}
	})

	t.Run("rejects overlap within a terminal", func(t *testing.T) {
		_, err := NewQuay([]Berth{
			{Code: "1", Terminal: "SND", MeterStart: 0, MeterEnd: 300},
			{Code: "2", Terminal: "SND", MeterStart: 299, MeterEnd: 600},
		})
		if err == nil {
			t.Error("NewQuay() expected overlap error")
		}
	})

	t.Run("allows same meters in different terminals", func(t *testing.T) {
		_, err := NewQuay([]Berth{
			{Code: "1", Terminal: "SND", MeterStart: 0, MeterEnd: 300},
			{Code: "6", Terminal: "GAM", MeterStart: 0, MeterEnd: 350},
		})
		if err != nil {
			t.Errorf("NewQuay() error = %v", err)
		}
	})

	t.Run("rejects duplicate and empty ranges", func(t *testing.T) {
		if _, err := NewQuay([]Berth{{Code: "1", MeterStart: 0, MeterEnd: 10}, {Code: "01", MeterStart: 20, MeterEnd: 30}}); err == nil {
			t.Error("expected duplicate code error")
		}
		if _, err := NewQuay([]Berth{{Code: "1", MeterStart: 10, MeterEnd: 10}}); err == nil {
			t.Error("expected empty range error")
		}
	})

	t.Run("nil quay resolves nothing", func(t *testing.T) {
		var q *Quay
		if _, ok := q.Lookup("1"); ok {
			t.Error("nil quay Lookup ok = true")
		}
		if got := q.Terminals(); len(got) != 0 {
			t.Errorf("nil quay Terminals() = %v", got)
		}
	})
}
