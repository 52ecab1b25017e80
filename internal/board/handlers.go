package board

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jinzhu/now"

	"berthplan/internal/berth"
)

const maxBodyBytes = 1 << 20

type healthzResponse struct {
	Status        string  `json:"status"`
	UptimeSeconds float64 `json:"uptime_seconds"`
	Sessions      int     `json:"sessions"`
}

func (s *Server) healthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, http.StatusOK, healthzResponse{
		Status:        "ok",
		UptimeSeconds: s.clock.Now().Sub(s.started).Seconds(),
		Sessions:      s.sessions.Len(),
	})
}

// Versions

func (s *Server) listVersions(w http.ResponseWriter, r *http.Request) {
	versions, err := s.svc.ListVersions()
	if err != nil {
		s.fail(w, err)
		return
	}
	out := make([]versionView, 0, len(versions))
	for _, v := range versions {
		out = append(out, newVersionView(v))
	}
	writeJSON(w, http.StatusOK, map[string]any{"versions": out})
}

// showVersion returns a version's bookings with their placements.
// ?day=YYYY-MM-DD keeps bookings moored during that calendar day and
// ?berths=1,2 keeps the listed berths.
func (s *Server) showVersion(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	v, err := s.svc.Version(id)
	if err != nil {
		s.fail(w, err)
		return
	}
	filter, err := s.parseFilter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	bookings, err := s.svc.LoadBookings(id)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"version":  newVersionView(v),
		"bookings": bookingViews(s.svc.Resolver(), filter.apply(bookings)),
	})
}

func (s *Server) deleteVersion(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	n, err := s.svc.DeleteVersions([]string{id})
	if err != nil {
		s.fail(w, err)
		return
	}
	if n == 0 {
		s.fail(w, fmt.Errorf("%w: %s", berth.ErrVersionNotFound, id))
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"deleted": n})
}

func (s *Server) versionViolations(w http.ResponseWriter, r *http.Request) {
	report, err := s.svc.Validate(chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// Sessions

type openSessionRequest struct {
	VersionID string `json:"version_id"`
}

func (s *Server) openSession(w http.ResponseWriter, r *http.Request) {
	var req openSessionRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.VersionID == "" {
		writeError(w, http.StatusBadRequest, "version_id is required")
		return
	}
	edit, err := s.svc.OpenSession(req.VersionID)
	if err != nil {
		s.fail(w, err)
		return
	}
	sess := s.sessions.Add(edit)
	s.logger.Info("board session opened", "session", sess.id, "version", req.VersionID)
	writeJSON(w, http.StatusCreated, map[string]string{
		"session_id":   sess.id,
		"base_version": edit.BaseVersion(),
	})
}

func (s *Server) showSession(w http.ResponseWriter, r *http.Request) {
	s.withSession(w, r, func(sess *session) {
		edit := sess.edit
		writeJSON(w, http.StatusOK, sessionView{
			ID:          sess.id,
			BaseVersion: edit.BaseVersion(),
			Opened:      sess.opened,
			Dirty:       edit.Dirty(),
			CanUndo:     edit.CanUndo(),
			Bookings:    bookingViews(s.svc.Resolver(), edit.Bookings()),
			Report:      edit.Validate(),
			Changes:     edit.Changes(),
		})
	})
}

func (s *Server) closeSession(w http.ResponseWriter, r *http.Request) {
	sid := chi.URLParam(r, "sid")
	if !s.sessions.Remove(sid) {
		writeError(w, http.StatusNotFound, "session not found: "+sid)
		return
	}
	s.logger.Info("board session closed", "session", sid)
	w.WriteHeader(http.StatusNoContent)
}

type moveRequest struct {
	BookingID    string  `json:"booking_id"`
	DeltaMinutes int     `json:"delta_minutes"`
	DeltaMeters  float64 `json:"delta_meters"`
}

func (s *Server) moveBooking(w http.ResponseWriter, r *http.Request) {
	var req moveRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.withSession(w, r, func(sess *session) {
		changed, err := sess.edit.ApplyMove(req.BookingID, req.DeltaMinutes, req.DeltaMeters)
		if err != nil {
			s.fail(w, err)
			return
		}
		writeJSON(w, http.StatusOK, s.editResult(sess.edit, req.BookingID, changed))
	})
}

type reassignRequest struct {
	BookingID string `json:"booking_id"`
	Berth     string `json:"berth"`
}

func (s *Server) reassignBooking(w http.ResponseWriter, r *http.Request) {
	var req reassignRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.withSession(w, r, func(sess *session) {
		changed, err := sess.edit.Reassign(req.BookingID, req.Berth)
		if err != nil {
			s.fail(w, err)
			return
		}
		writeJSON(w, http.StatusOK, s.editResult(sess.edit, req.BookingID, changed))
	})
}

func (s *Server) undo(w http.ResponseWriter, r *http.Request) {
	s.withSession(w, r, func(sess *session) {
		changed := sess.edit.Undo()
		writeJSON(w, http.StatusOK, editResponse{Changed: changed, Report: sess.edit.Validate()})
	})
}

func (s *Server) revert(w http.ResponseWriter, r *http.Request) {
	s.withSession(w, r, func(sess *session) {
		changed := sess.edit.Revert()
		writeJSON(w, http.StatusOK, editResponse{Changed: changed, Report: sess.edit.Validate()})
	})
}

type saveRequest struct {
	Source string `json:"source"`
	Label  string `json:"label"`
}

func (s *Server) save(w http.ResponseWriter, r *http.Request) {
	var req saveRequest
	if err := decodeBody(r, &req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Source == "" {
		req.Source = "board"
	}
	s.withSession(w, r, func(sess *session) {
		id, err := sess.edit.Save(req.Source, req.Label)
		if err != nil {
			s.fail(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"version_id": id})
	})
}

// withSession runs fn holding the session's lock.
func (s *Server) withSession(w http.ResponseWriter, r *http.Request, fn func(*session)) {
	sid := chi.URLParam(r, "sid")
	sess, ok := s.sessions.Get(sid)
	if !ok {
		writeError(w, http.StatusNotFound, "session not found: "+sid)
		return
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	fn(sess)
}

func (s *Server) editResult(edit *berth.EditSession, bookingID string, changed bool) editResponse {
	resp := editResponse{Changed: changed, Report: edit.Validate()}
	for _, b := range edit.Bookings() {
		if b.ID == bookingID {
			v := newBookingView(b, s.svc.Resolver().Place(b))
			resp.Booking = &v
			break
		}
	}
	return resp
}

// Filters

type bookingFilter struct {
	from, to time.Time // zero when no day was given
	berths   map[string]bool
}

func (s *Server) parseFilter(r *http.Request) (bookingFilter, error) {
	var f bookingFilter
	q := r.URL.Query()
	if day := q.Get("day"); day != "" {
		t, err := time.ParseInLocation("2006-01-02", day, s.loc)
		if err != nil {
			return f, fmt.Errorf("day must be YYYY-MM-DD, got %q", day)
		}
		d := now.With(t)
		f.from, f.to = d.BeginningOfDay(), d.EndOfDay()
	}
	if raw := q.Get("berths"); raw != "" {
		f.berths = make(map[string]bool)
		for _, code := range berth.NormalizeBerthList(strings.Split(raw, ",")) {
			f.berths[code] = true
		}
	}
	return f, nil
}

func (f bookingFilter) apply(bookings []*berth.Booking) []*berth.Booking {
	if f.from.IsZero() && f.berths == nil {
		return bookings
	}
	out := make([]*berth.Booking, 0, len(bookings))
	for _, b := range bookings {
		if !f.from.IsZero() && (!b.End.After(f.from) || b.Start.After(f.to)) {
			continue
		}
		if f.berths != nil && !f.berths[berth.NormalizeBerthLabel(b.Berth)] {
			continue
		}
		out = append(out, b)
	}
	return out
}

// JSON helpers

func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("decoding request body: %w", err)
		}
		return fmt.Errorf("decoding request body: %v", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// fail maps domain errors to status codes.
func (s *Server) fail(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, berth.ErrVersionNotFound), errors.Is(err, berth.ErrBookingNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, berth.ErrEmptyBerth):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		s.logger.Error("board request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
