package berth

import (
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// Row is one raw record delivered by an ingestion collaborator, before any
// parsing. Line is the 1-based source line used in issue reports.
type Row struct {
	Line        int
	Vessel      string
	Berth       string
	Terminal    string
	Voyage      string
	ServiceType string
	Start       string
	End         string
	StartMeter  string
	EndMeter    string
	FPos        string
	EPos        string
	BP          string
	LOA         string
	LengthM     string
	Status      string
	Remark      string
}

// IssueKind classifies a data-quality problem found at ingestion.
type IssueKind string

const (
	IssueMalformedRow     IssueKind = "malformed_row"
	IssueInvalidInterval  IssueKind = "invalid_interval"
	IssueUnknownBerth     IssueKind = "unknown_berth"
	IssueTerminalMismatch IssueKind = "terminal_mismatch"
)

// Issue is a recorded reason for excluding or degrading a row.
// Excluded is false for issues that keep the booking, such as an unknown berth.
type Issue struct {
	Kind     IssueKind `json:"kind"`
	Line     int       `json:"line"`
	Field    string    `json:"field,omitempty"`
	Reason   string    `json:"reason"`
	Excluded bool      `json:"excluded"`
}

func (i Issue) String() string {
	return fmt.Sprintf("line %d: %s: %s", i.Line, i.Kind, i.Reason)
}

// Intake turns raw rows into bookings, checking each row against the quay
// reference table. Problems are returned as issues and never abort the batch.
type Intake struct {
	quay   *Quay
	loc    *time.Location
	logger Logger
}

// NewIntake returns an Intake that reads naive timestamps in loc.
func NewIntake(quay *Quay, loc *time.Location, logger Logger) *Intake {
	if loc == nil {
		loc = time.UTC
	}
	return &Intake{quay: quay, loc: loc, logger: logger}
}

// Admit converts rows into bookings. Rows missing a required field, with a
// non-positive interval, or whose terminal contradicts the berth table are
// excluded. Rows on berths absent from the table are kept and reported.
func (in *Intake) Admit(rows []Row) ([]*Booking, []Issue) {
	var (
		bookings []*Booking
		issues   []Issue
	)
	for _, r := range rows {
		b, rowIssues := in.admitRow(r)
		issues = append(issues, rowIssues...)
		for _, is := range rowIssues {
			in.logger.Warn("row issue", "line", is.Line, "kind", string(is.Kind), "reason", is.Reason)
		}
		if b != nil {
			b.Position = len(bookings)
			bookings = append(bookings, b)
		}
	}
	return bookings, issues
}

func (in *Intake) admitRow(r Row) (*Booking, []Issue) {
	excluded := func(kind IssueKind, field, reason string) []Issue {
		return []Issue{{Kind: kind, Line: r.Line, Field: field, Reason: reason, Excluded: true}}
	}

	vessel := strings.TrimSpace(r.Vessel)
	if vessel == "" {
		return nil, excluded(IssueMalformedRow, "vessel", "vessel name is missing")
	}
	label := NormalizeBerthLabel(r.Berth)
	if label == "" {
		return nil, excluded(IssueMalformedRow, "berth", "berth is missing")
	}
	start, ok := ParseTimestamp(r.Start, in.loc)
	if !ok {
		return nil, excluded(IssueMalformedRow, "start", fmt.Sprintf("unparseable start %q", r.Start))
	}
	end, ok := ParseTimestamp(r.End, in.loc)
	if !ok {
		return nil, excluded(IssueMalformedRow, "end", fmt.Sprintf("unparseable end %q", r.End))
	}
	if !start.Before(end) {
		return nil, excluded(IssueInvalidInterval, "end",
			fmt.Sprintf("start %s is not before end %s", start.Format(time.RFC3339), end.Format(time.RFC3339)))
	}

	var issues []Issue
	terminal := strings.ToUpper(strings.TrimSpace(r.Terminal))
	if berth, known := in.quay.Lookup(label); known {
		if terminal != "" && !strings.EqualFold(terminal, berth.Terminal) {
			return nil, excluded(IssueTerminalMismatch, "terminal",
				fmt.Sprintf("berth %s belongs to %s, row says %s", label, berth.Terminal, terminal))
		}
		terminal = berth.Terminal
	} else {
		issues = append(issues, Issue{
			Kind:   IssueUnknownBerth,
			Line:   r.Line,
			Field:  "berth",
			Reason: fmt.Sprintf("berth %s has no meter range", label),
		})
	}

	b := &Booking{
		Vessel:      vessel,
		Berth:       label,
		Terminal:    terminal,
		Voyage:      strings.TrimSpace(r.Voyage),
		ServiceType: strings.TrimSpace(r.ServiceType),
		Start:       start.UTC(),
		End:         end.UTC(),
		StartMeter:  ParseMeters(r.StartMeter),
		EndMeter:    ParseMeters(r.EndMeter),
		FPos:        ParseMeters(r.FPos),
		EPos:        ParseMeters(r.EPos),
		BP:          ParseMeters(r.BP),
		LOA:         ParseMeters(r.LOA),
		LengthM:     ParseMeters(r.LengthM),
		Status:      strings.TrimSpace(r.Status),
		Remark:      strings.TrimSpace(r.Remark),
	}
	if v, ok := finite(b.LOA); ok && v <= 0 {
		b.LOA = sql.NullFloat64{}
	}
	if v, ok := finite(b.LengthM); ok && v <= 0 {
		b.LengthM = sql.NullFloat64{}
	}
	return b, issues
}
