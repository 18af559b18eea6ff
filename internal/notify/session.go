package notify

import (
	"sync"

	authdomain "campus-rickshaw/internal/auth/domain"
)

// sendBuffer is how many frames a session may fall behind before it is
// considered dead. A slow reader is dropped rather than allowed to stall
// delivery to everyone else.
const sendBuffer = 64

// Session is one authenticated websocket connection. Frames are queued on
// Out and drained by a single writer goroutine, so frames for one session
// are delivered in the order they were enqueued.
type Session struct {
	ID        string
	Principal authdomain.Principal

	Out chan []byte

	closeOnce sync.Once
	dead      chan struct{}
}

func NewSession(id string, p authdomain.Principal) *Session {
	return &Session{
		ID:        id,
		Principal: p,
		Out:       make(chan []byte, sendBuffer),
		dead:      make(chan struct{}),
	}
}

// enqueue offers a frame without blocking. It reports false when the buffer
// is full or the session is closed; the caller then drops the session. Out is
// never closed, so a concurrent close cannot turn this into a panic.
func (s *Session) enqueue(frame []byte) bool {
	select {
	case <-s.dead:
		return false
	default:
	}
	select {
	case s.Out <- frame:
		return true
	default:
		return false
	}
}

func (s *Session) close() {
	s.closeOnce.Do(func() {
		close(s.dead)
	})
}

// Done is closed when the session is removed from the registry.
func (s *Session) Done() <-chan struct{} { return s.dead }
