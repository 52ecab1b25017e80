package board

import (
	"time"

	"berthplan/internal/berth"
)

type versionView struct {
	ID        string    `json:"id"`
	Source    string    `json:"source"`
	Label     string    `json:"label"`
	CreatedAt time.Time `json:"created_at"`
	Count     int       `json:"count"`
}

func newVersionView(v *berth.Version) versionView {
	return versionView{ID: v.ID, Source: v.Source, Label: v.Label, CreatedAt: v.CreatedAt, Count: v.Count}
}

// bookingView is a booking as the board draws it, with its block placement.
type bookingView struct {
	ID          string    `json:"id"`
	Vessel      string    `json:"vessel"`
	Berth       string    `json:"berth"`
	Terminal    string    `json:"terminal,omitempty"`
	Voyage      string    `json:"voyage,omitempty"`
	ServiceType string    `json:"service_type,omitempty"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	StartMeter  *float64  `json:"start_meter,omitempty"`
	EndMeter    *float64  `json:"end_meter,omitempty"`
	FPos        *float64  `json:"f_pos,omitempty"`
	EPos        *float64  `json:"e_pos,omitempty"`
	BP          *float64  `json:"bp,omitempty"`
	LOA         *float64  `json:"loa_m,omitempty"`
	LengthM     *float64  `json:"length_m,omitempty"`
	Status      string    `json:"status,omitempty"`
	Remark      string    `json:"remark,omitempty"`

	Layout berth.Placement `json:"layout"`
}

func newBookingView(b *berth.Booking, p berth.Placement) bookingView {
	return bookingView{
		ID:          b.ID,
		Vessel:      b.Vessel,
		Berth:       b.Berth,
		Terminal:    b.Terminal,
		Voyage:      b.Voyage,
		ServiceType: b.ServiceType,
		Start:       b.Start,
		End:         b.End,
		StartMeter:  berth.OptionalFloat(b.StartMeter),
		EndMeter:    berth.OptionalFloat(b.EndMeter),
		FPos:        berth.OptionalFloat(b.FPos),
		EPos:        berth.OptionalFloat(b.EPos),
		BP:          berth.OptionalFloat(b.BP),
		LOA:         berth.OptionalFloat(b.LOA),
		LengthM:     berth.OptionalFloat(b.LengthM),
		Status:      b.Status,
		Remark:      b.Remark,
		Layout:      p,
	}
}

func bookingViews(r *berth.Resolver, bookings []*berth.Booking) []bookingView {
	out := make([]bookingView, 0, len(bookings))
	for _, b := range bookings {
		out = append(out, newBookingView(b, r.Place(b)))
	}
	return out
}

type sessionView struct {
	ID          string         `json:"session_id"`
	BaseVersion string         `json:"base_version"`
	Opened      time.Time      `json:"opened"`
	Dirty       bool           `json:"dirty"`
	CanUndo     bool           `json:"can_undo"`
	Bookings    []bookingView  `json:"bookings"`
	Report      *berth.Report  `json:"report"`
	Changes     []berth.Change `json:"changes"`
}

type editResponse struct {
	Changed bool          `json:"changed"`
	Booking *bookingView  `json:"booking,omitempty"`
	Report  *berth.Report `json:"report"`
}

type errorResponse struct {
	Error string `json:"error"`
}
