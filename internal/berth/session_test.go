package berth

import (
	"errors"
	"reflect"
	"testing"
	"time"
)

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

type recordingSaver struct {
	saved [][]*Booking
	err   error
}

func (r *recordingSaver) CreateVersion(bookings []*Booking, source, label string) (string, error) {
	if r.err != nil {
		return "", r.err
	}
	r.saved = append(r.saved, cloneBookings(bookings))
	return "v" + string(rune('1'+len(r.saved))), nil
}

func newTestSession(t *testing.T, saver VersionSaver) *EditSession {
	t.Helper()
	bookings := []*Booking{
		withMeters(bk("a", "1", "10:00", "12:00"), 0, 120),
		withMeters(bk("b", "2", "10:00", "12:00"), 400, 500),
	}
	for _, b := range bookings {
		b.Terminal = "SND"
	}
	clock := fixedClock{t: time.Date(2025, 10, 29, 9, 0, 0, 0, time.UTC)}
	return NewEditSession("v1", bookings, saver, testQuay(t), DefaultRules(), clock, NewNopLogger())
}

func TestEditSession_UndoRoundTrip(t *testing.T) {
	s := newTestSession(t, &recordingSaver{})
	before := s.Bookings()

	changed, err := s.ApplyMove("a", 60, 30)
	if err != nil || !changed {
		t.Fatalf("ApplyMove() = %v, %v, want true, nil", changed, err)
	}
	if len(s.Changes()) != 1 || s.Changes()[0].Kind != ChangeMove {
		t.Fatalf("Changes() = %+v, want one move", s.Changes())
	}

	if !s.Undo() {
		t.Fatal("Undo() = false, want true")
	}
	if !reflect.DeepEqual(s.Bookings(), before) {
		t.Errorf("after undo bookings = %+v, want %+v", s.Bookings(), before)
	}
	if len(s.Changes()) != 0 {
		t.Errorf("change log length = %d, want 0", len(s.Changes()))
	}
	if s.Undo() {
		t.Error("second Undo() = true, buffer holds one step")
	}
}

func TestEditSession_NoOpMoves(t *testing.T) {
	t.Run("tiny moves leave buffer untouched", func(t *testing.T) {
		s := newTestSession(t, &recordingSaver{})
		before := s.Bookings()

		for _, move := range []struct {
			minutes int
			meters  float64
		}{{10, 0}, {0, 5}} {
			changed, err := s.ApplyMove("a", move.minutes, move.meters)
			if err != nil || changed {
				t.Fatalf("ApplyMove(%d, %g) = %v, %v, want false, nil", move.minutes, move.meters, changed, err)
			}
		}
		if s.CanUndo() || s.Dirty() {
			t.Error("no-op moves touched undo buffer or change log")
		}
		if !reflect.DeepEqual(s.Bookings(), before) {
			t.Error("no-op moves changed the working set")
		}
	})

	t.Run("undo after no-ops restores state before the last real change", func(t *testing.T) {
		s := newTestSession(t, &recordingSaver{})
		before := s.Bookings()

		if changed, _ := s.ApplyMove("a", 60, 0); !changed {
			t.Fatal("first move should change the booking")
		}
		moved := s.Bookings()
		s.ApplyMove("a", 10, 0)
		s.ApplyMove("a", 0, 5)
		if !reflect.DeepEqual(s.Bookings(), moved) {
			t.Fatal("no-op moves changed the working set")
		}

		s.Undo()
		if !reflect.DeepEqual(s.Bookings(), before) {
			t.Errorf("after undo bookings = %+v, want original", s.Bookings())
		}
	})
}

func TestEditSession_ApplyMove(t *testing.T) {
	t.Run("time move snaps both ends", func(t *testing.T) {
		s := newTestSession(t, &recordingSaver{})
		if _, err := s.ApplyMove("a", 95, 0); err != nil {
			t.Fatal(err)
		}
		got := s.Bookings()[0]
		if !got.Start.Equal(at("11:00")) || !got.End.Equal(at("13:00")) {
			t.Errorf("moved to %v-%v, want 11:00-13:00", got.Start, got.End)
		}
		if c := s.Changes()[0]; c.Kind != ChangeMoveTime || !c.Before.Start.Equal(at("10:00")) || !c.After.Start.Equal(at("11:00")) {
			t.Errorf("change = %+v", c)
		}
	})

	t.Run("collapsed interval keeps its duration", func(t *testing.T) {
		short := bk("s", "1", "10:10", "10:40")
		s := NewEditSession("v1", []*Booking{short}, &recordingSaver{}, testQuay(t), DefaultRules(), fixedClock{}, NewNopLogger())
		if _, err := s.ApplyMove("s", 60, 0); err != nil {
			t.Fatal(err)
		}
		got := s.Bookings()[0]
		if !got.Start.Equal(at("11:00")) || !got.End.Equal(at("11:30")) {
			t.Errorf("moved to %v-%v, want 11:00-11:30", got.Start, got.End)
		}
		if !got.HasInterval() {
			t.Error("move produced an invalid interval")
		}
	})

	t.Run("space move recenters on grid", func(t *testing.T) {
		s := newTestSession(t, &recordingSaver{})
		if _, err := s.ApplyMove("a", 0, 50); err != nil {
			t.Fatal(err)
		}
		got := s.Bookings()[0]
		if got.StartMeter.Float64 != 60 || got.EndMeter.Float64 != 180 {
			t.Errorf("meters = %g-%g, want 60-180", got.StartMeter.Float64, got.EndMeter.Float64)
		}
		if c := s.Changes()[0]; c.Kind != ChangeMoveSpace || *c.After.StartMeter != 60 {
			t.Errorf("change = %+v", c)
		}
	})

	t.Run("space move falls back to F/E pair", func(t *testing.T) {
		b := bk("f", "1", "10:00", "12:00")
		b.FPos, b.EPos = Meters(200), Meters(80)
		s := NewEditSession("v1", []*Booking{b}, &recordingSaver{}, testQuay(t), DefaultRules(), fixedClock{}, NewNopLogger())
		if _, err := s.ApplyMove("f", 0, -60); err != nil {
			t.Fatal(err)
		}
		got := s.Bookings()[0]
		if got.FPos.Float64 != 30 || got.EPos.Float64 != 150 || got.StartMeter.Valid {
			t.Errorf("positions = F %v E %v start %v", got.FPos, got.EPos, got.StartMeter)
		}
	})

	t.Run("space move without positions is a no-op", func(t *testing.T) {
		b := bk("n", "1", "10:00", "12:00")
		s := NewEditSession("v1", []*Booking{b}, &recordingSaver{}, testQuay(t), DefaultRules(), fixedClock{}, NewNopLogger())
		if changed, err := s.ApplyMove("n", 0, 90); err != nil || changed {
			t.Errorf("ApplyMove() = %v, %v, want false, nil", changed, err)
		}
	})

	t.Run("zero-length pair is not moved", func(t *testing.T) {
		b := withMeters(bk("z", "1", "10:00", "12:00"), 90, 90)
		s := NewEditSession("v1", []*Booking{b}, &recordingSaver{}, testQuay(t), DefaultRules(), fixedClock{}, NewNopLogger())
		if changed, err := s.ApplyMove("z", 0, 60); err != nil || changed {
			t.Errorf("ApplyMove() = %v, %v, want false, nil", changed, err)
		}
		got := s.Bookings()[0]
		if got.StartMeter.Float64 != 90 || got.EndMeter.Float64 != 90 || len(s.Changes()) != 0 {
			t.Errorf("meters = %g-%g, changes = %d", got.StartMeter.Float64, got.EndMeter.Float64, len(s.Changes()))
		}
	})

	t.Run("zero-length pair still moves in time", func(t *testing.T) {
		b := withMeters(bk("z", "1", "10:00", "12:00"), 90, 90)
		s := NewEditSession("v1", []*Booking{b}, &recordingSaver{}, testQuay(t), DefaultRules(), fixedClock{}, NewNopLogger())
		if changed, err := s.ApplyMove("z", 60, 60); err != nil || !changed {
			t.Fatalf("ApplyMove() = %v, %v, want true, nil", changed, err)
		}
		if c := s.Changes()[0]; c.Kind != ChangeMoveTime {
			t.Errorf("change kind = %v, want %v", c.Kind, ChangeMoveTime)
		}
	})

	t.Run("unknown booking", func(t *testing.T) {
		s := newTestSession(t, &recordingSaver{})
		if _, err := s.ApplyMove("zzz", 60, 0); !errors.Is(err, ErrBookingNotFound) {
			t.Errorf("err = %v, want ErrBookingNotFound", err)
		}
	})
}

func TestEditSession_Reassign(t *testing.T) {
	s := newTestSession(t, &recordingSaver{})

	if changed, err := s.Reassign("b", " 1(3) "); err != nil || !changed {
		t.Fatalf("Reassign() = %v, %v, want true, nil", changed, err)
	}
	got := s.Bookings()[1]
	if got.Berth != "1" || got.Terminal != "SND" {
		t.Errorf("reassigned booking = %s/%s, want 1/SND", got.Berth, got.Terminal)
	}
	report := s.Validate()
	if len(report.Violations) == 0 {
		t.Error("expected overlap once both bookings share berth 1")
	}

	if changed, _ := s.Reassign("b", "01"); changed {
		t.Error("reassign to the current berth reported a change")
	}
	if _, err := s.Reassign("b", "nan"); !errors.Is(err, ErrEmptyBerth) {
		t.Errorf("err = %v, want ErrEmptyBerth", err)
	}
	if _, err := s.Reassign("nope", "2"); !errors.Is(err, ErrBookingNotFound) {
		t.Errorf("err = %v, want ErrBookingNotFound", err)
	}
	if n := len(s.Changes()); n != 1 {
		t.Errorf("change log length = %d, want 1", n)
	}
}

func TestEditSession_Revert(t *testing.T) {
	s := newTestSession(t, &recordingSaver{})
	original := s.Bookings()

	if s.Revert() {
		t.Fatal("Revert() on a clean session = true")
	}

	s.ApplyMove("a", 120, 0)
	s.Reassign("b", "6")
	edited := s.Bookings()

	if !s.Revert() {
		t.Fatal("Revert() = false after edits")
	}
	if !reflect.DeepEqual(s.Bookings(), original) {
		t.Error("revert did not restore the snapshot")
	}
	if last := s.Changes()[len(s.Changes())-1]; last.Kind != ChangeRevert {
		t.Errorf("last change = %s, want revert", last.Kind)
	}

	if !s.Undo() {
		t.Fatal("revert should be undoable")
	}
	if !reflect.DeepEqual(s.Bookings(), edited) {
		t.Error("undoing the revert did not restore the edits")
	}
}

func TestEditSession_Save(t *testing.T) {
	t.Run("success starts a fresh baseline", func(t *testing.T) {
		saver := &recordingSaver{}
		s := newTestSession(t, saver)
		s.ApplyMove("a", 60, 0)
		want := s.Bookings()

		id, err := s.Save("edit", "after move")
		if err != nil {
			t.Fatalf("Save() error = %v", err)
		}
		if id != "v2" || s.BaseVersion() != "v2" {
			t.Errorf("Save() id = %q, base = %q, want v2", id, s.BaseVersion())
		}
		if !reflect.DeepEqual(saver.saved[0], want) {
			t.Error("saver did not receive the working set")
		}
		if s.Dirty() || s.CanUndo() {
			t.Error("save should clear the change log and undo buffer")
		}
		if s.Revert() {
			t.Error("Revert() right after save = true")
		}
	})

	t.Run("failure leaves the session untouched", func(t *testing.T) {
		s := newTestSession(t, &recordingSaver{err: errors.New("disk full")})
		s.ApplyMove("a", 60, 0)

		if _, err := s.Save("edit", ""); err == nil {
			t.Fatal("Save() error = nil")
		}
		if s.BaseVersion() != "v1" || !s.Dirty() || !s.CanUndo() {
			t.Error("failed save changed session state")
		}
	})
}
