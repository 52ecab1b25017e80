package ingest

import (
	"database/sql"
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"berthplan/internal/berth"
)

// Write exports bookings in the canonical row shape, one per line in input
// order. Timestamps are RFC 3339 with offset so they read back unchanged
// regardless of the importing timezone.
func Write(w io.Writer, bookings []*berth.Booking) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return fmt.Errorf("writing CSV header: %w", err)
	}
	for _, b := range bookings {
		if err := cw.Write(record(b)); err != nil {
			return fmt.Errorf("writing booking %s: %w", b.ID, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flushing CSV: %w", err)
	}
	return nil
}

func record(b *berth.Booking) []string {
	return []string{
		b.Vessel,
		b.Berth,
		b.Terminal,
		b.Voyage,
		b.ServiceType,
		stamp(b.Start),
		stamp(b.End),
		number(b.StartMeter),
		number(b.EndMeter),
		number(b.FPos),
		number(b.EPos),
		number(b.BP),
		number(b.LOA),
		number(b.LengthM),
		b.Status,
		b.Remark,
	}
}

func stamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}

func number(n sql.NullFloat64) string {
	if !n.Valid {
		return ""
	}
	return formatMeters(n.Float64)
}
