package notify

import (
	"sync"

	authdomain "campus-rickshaw/internal/auth/domain"
	"campus-rickshaw/internal/shared/apperrors"
)

const (
	adminRoom    = "admin-room"
	vehicleWatch = "vehicle-watch"
)

func driverRoom(driverID string) string   { return "driver-room:" + driverID }
func studentRoom(studentID string) string { return "student-room:" + studentID }

// Registry is the process-local session table: which live connection belongs
// to which principal, and which delivery scopes it has joined. It is rebuilt
// from scratch on every restart; nothing here persists.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	rooms    map[string]map[string]*Session
}

func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[string]*Session),
		rooms:    make(map[string]map[string]*Session),
	}
}

func (r *Registry) Add(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.ID] = s
}

// Remove drops the session from every room it joined and closes its send
// channel, stopping the writer goroutine.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return
	}
	delete(r.sessions, id)
	for room := range r.rooms {
		delete(r.rooms[room], id)
		if len(r.rooms[room]) == 0 {
			delete(r.rooms, room)
		}
	}
	s.close()
}

// JoinOwnRoom subscribes the session to its per-identity room. The room name
// is derived from the authenticated principal, never from client input, so a
// session cannot join someone else's room.
func (r *Registry) JoinOwnRoom(s *Session) error {
	switch s.Principal.Role {
	case authdomain.RoleDriver:
		r.join(driverRoom(s.Principal.ID), s)
	case authdomain.RoleStudent:
		r.join(studentRoom(s.Principal.ID), s)
	default:
		return apperrors.ErrForbidden
	}
	return nil
}

// JoinAdminRoom admits any admin; everyone else is rejected.
func (r *Registry) JoinAdminRoom(s *Session) error {
	if s.Principal.Role != authdomain.RoleAdmin {
		return apperrors.ErrForbidden
	}
	r.join(adminRoom, s)
	return nil
}

// WatchVehicles subscribes the session to vehicle location updates. Any
// authenticated session may watch: the data is already visible through the
// availability listing.
func (r *Registry) WatchVehicles(s *Session) {
	r.join(vehicleWatch, s)
}

func (r *Registry) UnwatchVehicles(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.rooms[vehicleWatch], s.ID)
}

func (r *Registry) join(room string, s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[s.ID]; !ok {
		return // already disconnected
	}
	if r.rooms[room] == nil {
		r.rooms[room] = make(map[string]*Session)
	}
	r.rooms[room][s.ID] = s
}

// collect gathers the distinct sessions subscribed to any of the rooms. A
// session subscribed to several of them still receives one copy.
func (r *Registry) collect(rooms ...string) []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	seen := make(map[string]*Session)
	for _, room := range rooms {
		for id, s := range r.rooms[room] {
			seen[id] = s
		}
	}
	out := make([]*Session, 0, len(seen))
	for _, s := range seen {
		out = append(out, s)
	}
	return out
}

// Connected returns the number of live sessions, for the health endpoint.
func (r *Registry) Connected() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
