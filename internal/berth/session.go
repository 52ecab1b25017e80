package berth

import (
	"fmt"
	"math"
	"time"
)

// VersionSaver persists a working set as a new version.
type VersionSaver interface {
	CreateVersion(bookings []*Booking, source, label string) (string, error)
}

// ChangeKind names the edit a change log entry records.
type ChangeKind string

const (
	ChangeMoveTime  ChangeKind = "move_time"
	ChangeMoveSpace ChangeKind = "move_space"
	ChangeMove      ChangeKind = "move"
	ChangeReassign  ChangeKind = "reassign"
	ChangeRevert    ChangeKind = "revert"
)

// BookingState holds the booking fields an edit can touch.
type BookingState struct {
	Berth      string    `json:"berth"`
	Start      time.Time `json:"start"`
	End        time.Time `json:"end"`
	StartMeter *float64  `json:"start_meter,omitempty"`
	EndMeter   *float64  `json:"end_meter,omitempty"`
	FPos       *float64  `json:"f_pos,omitempty"`
	EPos       *float64  `json:"e_pos,omitempty"`
}

func stateOf(b *Booking) BookingState {
	return BookingState{
		Berth:      b.Berth,
		Start:      b.Start,
		End:        b.End,
		StartMeter: OptionalFloat(b.StartMeter),
		EndMeter:   OptionalFloat(b.EndMeter),
		FPos:       OptionalFloat(b.FPos),
		EPos:       OptionalFloat(b.EPos),
	}
}

// Change is one before/after entry in a session's change log.
// BookingID is empty for a revert, which touches the whole working set.
type Change struct {
	Kind      ChangeKind   `json:"kind"`
	BookingID string       `json:"booking_id,omitempty"`
	Vessel    string       `json:"vessel,omitempty"`
	Before    BookingState `json:"before"`
	After     BookingState `json:"after"`
	At        time.Time    `json:"at"`
}

// EditSession is a private mutable copy of one version's bookings with a
// snapshot of the last save, a one-slot undo buffer and a change log.
// It is not safe for concurrent use; callers serialize access.
type EditSession struct {
	baseVersion string
	working     []*Booking
	snapshot    []*Booking
	undo        []*Booking
	hasUndo     bool
	log         []Change

	saver    VersionSaver
	quay     *Quay
	rules    Rules
	detector *Detector
	resolver *Resolver
	clock    Clock
	logger   Logger
}

// NewEditSession copies bookings into a fresh working set.
func NewEditSession(versionID string, bookings []*Booking, saver VersionSaver, quay *Quay, rules Rules, clock Clock, logger Logger) *EditSession {
	rules = rules.WithDefaults()
	return &EditSession{
		baseVersion: versionID,
		working:     cloneBookings(bookings),
		snapshot:    cloneBookings(bookings),
		saver:       saver,
		quay:        quay,
		rules:       rules,
		detector:    NewDetector(rules.MinGapM),
		resolver:    NewResolver(quay, rules),
		clock:       clock,
		logger:      logger,
	}
}

// BaseVersion is the version the working set was loaded from or last saved as.
func (s *EditSession) BaseVersion() string { return s.baseVersion }

// Bookings returns a copy of the working set.
func (s *EditSession) Bookings() []*Booking { return cloneBookings(s.working) }

// Changes returns a copy of the change log, oldest first.
func (s *EditSession) Changes() []Change { return append([]Change(nil), s.log...) }

// CanUndo reports whether the undo buffer holds a prior state.
func (s *EditSession) CanUndo() bool { return s.hasUndo }

// Dirty reports whether the working set has unsaved changes.
func (s *EditSession) Dirty() bool { return len(s.log) > 0 }

// Validate runs the conflict detector over the working set.
func (s *EditSession) Validate() *Report {
	return validate(s.detector, s.quay, s.working)
}

// Layout places every booking of the working set.
func (s *EditSession) Layout() []Placement {
	return s.resolver.PlaceAll(s.working)
}

// ApplyMove shifts a booking in time by deltaMinutes and along the quay by
// deltaMeters, snapping to the session grids. It reports whether anything
// changed; a move that snaps back onto the original position leaves the
// undo buffer and change log untouched.
func (s *EditSession) ApplyMove(bookingID string, deltaMinutes int, deltaMeters float64) (bool, error) {
	idx := s.indexOf(bookingID)
	if idx < 0 {
		return false, fmt.Errorf("%w: %s", ErrBookingNotFound, bookingID)
	}
	orig := s.working[idx]
	next := *orig
	movedTime, movedSpace := false, false

	if deltaMinutes != 0 && !orig.Start.IsZero() && !orig.End.IsZero() {
		delta := time.Duration(deltaMinutes) * time.Minute
		start := SnapTime(orig.Start.Add(delta), s.rules.TimeGridMinutes)
		end := SnapTime(orig.End.Add(delta), s.rules.TimeGridMinutes)
		if !start.Before(end) {
			end = orig.End.Add(start.Sub(orig.Start))
		}
		if !start.Equal(orig.Start) || !end.Equal(orig.End) {
			next.Start, next.End = start, end
			movedTime = true
		}
	}

	if deltaMeters != 0 && !math.IsNaN(deltaMeters) && !math.IsInf(deltaMeters, 0) {
		movedSpace = s.moveSpace(orig, &next, deltaMeters)
	}

	if !movedTime && !movedSpace {
		s.logger.Debug("move snapped to no change", "booking", bookingID, "minutes", deltaMinutes, "meters", deltaMeters)
		return false, nil
	}

	kind := ChangeMove
	switch {
	case movedTime && !movedSpace:
		kind = ChangeMoveTime
	case movedSpace && !movedTime:
		kind = ChangeMoveSpace
	}
	s.commit(idx, &next, kind)
	return true, nil
}

// moveSpace recenters the active position pair on the snapped midpoint,
// keeping its length. The start/end meter pair is active when complete,
// else the F/E pair. A zero-length pair is left in place. The result is
// written back low to start, high to end.
func (s *EditSession) moveSpace(orig, next *Booking, deltaMeters float64) bool {
	lowField, highField := &next.StartMeter, &next.EndMeter
	lo, hi, ok := pair(orig.StartMeter, orig.EndMeter)
	if !ok {
		lowField, highField = &next.FPos, &next.EPos
		lo, hi, ok = pair(orig.FPos, orig.EPos)
	}
	if !ok || hi == lo {
		return false
	}
	half := (hi - lo) / 2
	mid := SnapSpace(lo+half+deltaMeters, s.rules.SpaceGridM)
	newLo, newHi := mid-half, mid+half
	if newLo == lo && newHi == hi {
		return false
	}
	*lowField, *highField = Meters(newLo), Meters(newHi)
	return true
}

// Reassign moves a booking to another berth. Reassigning to the berth it
// already occupies is not a change.
func (s *EditSession) Reassign(bookingID, label string) (bool, error) {
	idx := s.indexOf(bookingID)
	if idx < 0 {
		return false, fmt.Errorf("%w: %s", ErrBookingNotFound, bookingID)
	}
	code := NormalizeBerthLabel(label)
	if code == "" {
		return false, ErrEmptyBerth
	}
	orig := s.working[idx]
	if NormalizeBerthLabel(orig.Berth) == code {
		return false, nil
	}
	next := *orig
	next.Berth = code
	next.Terminal = s.quay.TerminalOf(code)
	s.commit(idx, &next, ChangeReassign)
	return true, nil
}

// commit records the pre-change working set in the undo slot, replaces
// the booking at idx and appends a log entry.
func (s *EditSession) commit(idx int, next *Booking, kind ChangeKind) {
	prev := s.working[idx]
	s.undo = cloneBookings(s.working)
	s.hasUndo = true

	s.working[idx] = next
	s.log = append(s.log, Change{
		Kind:      kind,
		BookingID: next.ID,
		Vessel:    next.Vessel,
		Before:    stateOf(prev),
		After:     stateOf(next),
		At:        s.clock.Now(),
	})
	s.logger.Debug("booking edited", "booking", next.ID, "kind", string(kind))
}

// Undo restores the state before the most recent change and drops its log
// entry. It reports false and changes nothing when the buffer is empty.
func (s *EditSession) Undo() bool {
	if !s.hasUndo {
		return false
	}
	s.working = s.undo
	s.undo = nil
	s.hasUndo = false
	if n := len(s.log); n > 0 {
		s.log = s.log[:n-1]
	}
	return true
}

// Revert restores the working set to the last saved snapshot. The revert
// itself is undoable. It reports false when there is nothing to revert.
func (s *EditSession) Revert() bool {
	if !s.differsFromSnapshot() {
		return false
	}
	s.undo = s.working
	s.hasUndo = true
	s.working = cloneBookings(s.snapshot)
	s.log = append(s.log, Change{Kind: ChangeRevert, At: s.clock.Now()})
	return true
}

func (s *EditSession) differsFromSnapshot() bool {
	if len(s.working) != len(s.snapshot) {
		return true
	}
	for i := range s.working {
		if *s.working[i] != *s.snapshot[i] {
			return true
		}
	}
	return false
}

// Save persists the working set as a new version, then starts a fresh
// baseline: the snapshot becomes the saved state and the log and undo
// buffer are cleared. On failure the session is left untouched.
func (s *EditSession) Save(source, label string) (string, error) {
	id, err := s.saver.CreateVersion(s.working, source, label)
	if err != nil {
		return "", fmt.Errorf("saving session: %w", err)
	}
	s.logger.Info("session saved", "from", s.baseVersion, "version", id, "changes", len(s.log))
	s.baseVersion = id
	s.snapshot = cloneBookings(s.working)
	s.log = nil
	s.undo = nil
	s.hasUndo = false
	return id, nil
}

func (s *EditSession) indexOf(bookingID string) int {
	for i, b := range s.working {
		if b.ID == bookingID {
			return i
		}
	}
	return -1
}
