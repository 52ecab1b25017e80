package berth

import (
	"fmt"
	"time"
)

// BerthService coordinates intake, validation, layout and versioning for
// the CLI and the board API.
type BerthService struct {
	store    Store
	quay     *Quay
	rules    Rules
	intake   *Intake
	detector *Detector
	resolver *Resolver
	logger   Logger
	clock    Clock
	idgen    IDGenerator
}

// NewBerthService wires a service over store. loc is the zone naive
// timestamps are read in at intake.
func NewBerthService(store Store, quay *Quay, rules Rules, loc *time.Location, logger Logger, clock Clock, idgen IDGenerator) *BerthService {
	rules = rules.WithDefaults()
	return &BerthService{
		store:    store,
		quay:     quay,
		rules:    rules,
		intake:   NewIntake(quay, loc, logger),
		detector: NewDetector(rules.MinGapM),
		resolver: NewResolver(quay, rules),
		logger:   logger,
		clock:    clock,
		idgen:    idgen,
	}
}

// Quay returns the berth reference table.
func (s *BerthService) Quay() *Quay { return s.quay }

// Rules returns the effective grid and clearance settings.
func (s *BerthService) Rules() Rules { return s.rules }

// ImportResult summarizes one intake batch.
type ImportResult struct {
	VersionID string
	Admitted  int
	Issues    []Issue
}

// Import admits rows and stores the admitted bookings as a new version.
// Excluded rows are reported in the result, not as an error.
func (s *BerthService) Import(rows []Row, source, label string) (*ImportResult, error) {
	bookings, issues := s.intake.Admit(rows)
	id, err := s.CreateVersion(bookings, source, label)
	if err != nil {
		return nil, err
	}
	return &ImportResult{VersionID: id, Admitted: len(bookings), Issues: issues}, nil
}

// CreateVersion stores an immutable copy of bookings as a new version.
// Booking ids are kept when present so an edit session can keep working on
// the saved set; ids are unique per version, not globally.
func (s *BerthService) CreateVersion(bookings []*Booking, source, label string) (string, error) {
	rows := cloneBookings(bookings)
	seen := make(map[string]bool, len(rows))
	for i, b := range rows {
		if !b.HasInterval() {
			return "", fmt.Errorf("booking %d (%s): start must be before end", i, b.Vessel)
		}
		if b.ID == "" || seen[b.ID] {
			b.ID = s.idgen.New()
		}
		seen[b.ID] = true
		b.Position = i
		b.Berth = NormalizeBerthLabel(b.Berth)
		if b.Terminal == "" {
			b.Terminal = s.quay.TerminalOf(b.Berth)
		}
	}

	v := &Version{
		ID:        s.idgen.New(),
		Source:    source,
		Label:     label,
		CreatedAt: s.clock.Now(),
		Count:     len(rows),
	}
	if err := s.store.CreateVersion(v, rows); err != nil {
		return "", fmt.Errorf("creating version: %w", err)
	}

	s.logger.Info("version created", "version", v.ID, "source", source, "bookings", len(rows))
	return v.ID, nil
}

// ListVersions returns all versions newest first.
func (s *BerthService) ListVersions() ([]*Version, error) {
	versions, err := s.store.ListVersions()
	if err != nil {
		return nil, fmt.Errorf("listing versions: %w", err)
	}
	return versions, nil
}

// Version returns one version or ErrVersionNotFound.
func (s *BerthService) Version(id string) (*Version, error) {
	v, err := s.store.FindVersion(id)
	if err != nil {
		return nil, fmt.Errorf("finding version: %w", err)
	}
	if v == nil {
		return nil, fmt.Errorf("%w: %s", ErrVersionNotFound, id)
	}
	return v, nil
}

// LoadBookings returns the bookings of an existing version.
func (s *BerthService) LoadBookings(versionID string) ([]*Booking, error) {
	if _, err := s.Version(versionID); err != nil {
		return nil, err
	}
	bookings, err := s.store.LoadBookings(versionID)
	if err != nil {
		return nil, fmt.Errorf("loading bookings: %w", err)
	}
	return bookings, nil
}

// DeleteVersions deletes the listed versions. Unknown ids are ignored and
// an empty list deletes nothing.
func (s *BerthService) DeleteVersions(ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	n, err := s.store.DeleteVersions(ids)
	if err != nil {
		return 0, fmt.Errorf("deleting versions: %w", err)
	}
	s.logger.Info("versions deleted", "requested", len(ids), "deleted", n)
	return n, nil
}

// DeleteAllVersions deletes every version.
func (s *BerthService) DeleteAllVersions() (int64, error) {
	n, err := s.store.DeleteAllVersions()
	if err != nil {
		return 0, fmt.Errorf("deleting all versions: %w", err)
	}
	s.logger.Info("all versions deleted", "deleted", n)
	return n, nil
}

// Report is the outcome of validating a set of bookings.
type Report struct {
	Violations []Violation `json:"violations"`
	Issues     []Issue     `json:"issues"`
}

// Clean reports whether nothing was found.
func (r *Report) Clean() bool { return len(r.Violations) == 0 && len(r.Issues) == 0 }

// Validate runs the conflict detector over a stored version.
func (s *BerthService) Validate(versionID string) (*Report, error) {
	bookings, err := s.LoadBookings(versionID)
	if err != nil {
		return nil, err
	}
	return validate(s.detector, s.quay, bookings), nil
}

// Layout places every booking of a stored version.
func (s *BerthService) Layout(versionID string) ([]Placement, error) {
	bookings, err := s.LoadBookings(versionID)
	if err != nil {
		return nil, err
	}
	return s.resolver.PlaceAll(bookings), nil
}

// Resolver returns the layout resolver used by the service.
func (s *BerthService) Resolver() *Resolver { return s.resolver }

// OpenSession starts an edit session over a copy of a stored version.
func (s *BerthService) OpenSession(versionID string) (*EditSession, error) {
	bookings, err := s.LoadBookings(versionID)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("edit session opened", "version", versionID, "bookings", len(bookings))
	return NewEditSession(versionID, bookings, s, s.quay, s.rules, s.clock, s.logger), nil
}

// SeedBerths writes the quay reference table to the store.
func (s *BerthService) SeedBerths() error {
	if err := s.store.SeedBerths(s.quay.Berths()); err != nil {
		return fmt.Errorf("seeding berths: %w", err)
	}
	return nil
}

// SetVesselLOA back-fills vessel lengths. Non-positive values are ignored.
func (s *BerthService) SetVesselLOA(loa map[string]float64) (int64, error) {
	clean := make(map[string]float64, len(loa))
	for name, v := range loa {
		if v > 0 && name != "" {
			clean[name] = v
		}
	}
	if len(clean) == 0 {
		return 0, nil
	}
	n, err := s.store.SetVesselLOA(clean)
	if err != nil {
		return 0, fmt.Errorf("setting vessel LOA: %w", err)
	}
	s.logger.Info("vessel LOA updated", "changed", n)
	return n, nil
}

// VesselLOA returns known vessel lengths by name.
func (s *BerthService) VesselLOA(names []string) (map[string]float64, error) {
	m, err := s.store.VesselLOA(names)
	if err != nil {
		return nil, fmt.Errorf("reading vessel LOA: %w", err)
	}
	return m, nil
}

// GetHistory returns the most recent operations, newest first.
func (s *BerthService) GetHistory(limit int) ([]*Operation, error) {
	ops, err := s.store.ListOperations(limit)
	if err != nil {
		return nil, fmt.Errorf("listing operations: %w", err)
	}
	return ops, nil
}

func validate(d *Detector, quay *Quay, bookings []*Booking) *Report {
	r := &Report{Violations: d.Detect(bookings), Issues: []Issue{}}
	if r.Violations == nil {
		r.Violations = []Violation{}
	}
	for i, b := range bookings {
		if _, ok := quay.Lookup(b.Berth); !ok {
			r.Issues = append(r.Issues, Issue{
				Kind:   IssueUnknownBerth,
				Line:   i + 1,
				Field:  "berth",
				Reason: fmt.Sprintf("%s: berth %q has no meter range", b.Vessel, b.Berth),
			})
		}
	}
	return r
}
