package board

import (
	"sync"
	"time"

	"berthplan/internal/berth"
)

// session is one open edit session. mu serializes requests against it.
type session struct {
	mu     sync.Mutex
	id     string
	edit   *berth.EditSession
	opened time.Time
}

// registry holds the open sessions of one server.
type registry struct {
	mu       sync.Mutex
	sessions map[string]*session
	idgen    berth.IDGenerator
	clock    berth.Clock
}

func newRegistry(idgen berth.IDGenerator, clock berth.Clock) *registry {
	return &registry{
		sessions: make(map[string]*session),
		idgen:    idgen,
		clock:    clock,
	}
}

// Add registers an edit session under a fresh id.
func (r *registry) Add(edit *berth.EditSession) *session {
	s := &session{id: r.idgen.New(), edit: edit, opened: r.clock.Now()}
	r.mu.Lock()
	r.sessions[s.id] = s
	r.mu.Unlock()
	return s
}

func (r *registry) Get(id string) (*session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	return s, ok
}

// Remove drops a session and reports whether it was open.
func (r *registry) Remove(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[id]; !ok {
		return false
	}
	delete(r.sessions, id)
	return true
}

func (r *registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
