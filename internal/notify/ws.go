package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	authdomain "campus-rickshaw/internal/auth/domain"
	"campus-rickshaw/internal/auth/jwt"
	ridedomain "campus-rickshaw/internal/ride/domain"
	"campus-rickshaw/internal/shared/apperrors"
	"campus-rickshaw/internal/shared/util"
)

const (
	authTimeout  = 5 * time.Second
	readTimeout  = 60 * time.Second
	pingInterval = 30 * time.Second
	writeTimeout = 10 * time.Second
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// LocationUpdater is the slice of the ride service the socket needs for
// driver position reports.
type LocationUpdater interface {
	UpdateVehicleLocation(ctx context.Context, vehicleID, location string, actor *ridedomain.Actor) error
}

type clientMessage struct {
	Type      string `json:"type"`
	Token     string `json:"token,omitempty"`
	VehicleID string `json:"vehicle_id,omitempty"`
	Location  string `json:"location,omitempty"`
}

type serverMessage struct {
	Type    string `json:"type"`
	Message string `json:"message,omitempty"`
}

// WSHandler upgrades HTTP requests into registered sessions. The first frame
// must be an auth message carrying a bearer token; everything after that is
// room management and driver location reports.
type WSHandler struct {
	registry  *Registry
	tokens    *jwt.Manager
	locations LocationUpdater
	logger    *util.Logger
}

func NewWSHandler(registry *Registry, tokens *jwt.Manager, locations LocationUpdater, logger *util.Logger) *WSHandler {
	return &WSHandler{registry: registry, tokens: tokens, locations: locations, logger: logger}
}

func (h *WSHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("WSHandler.ServeHTTP", fmt.Sprintf("upgrade failed: %v", err))
		return
	}
	defer conn.Close()

	session, ok := h.authenticate(conn)
	if !ok {
		return
	}
	h.registry.Add(session)
	defer h.registry.Remove(session.ID)

	h.logger.Info("WSHandler.ServeHTTP",
		fmt.Sprintf("session opened [session_id=%s, role=%s]", session.ID, session.Principal.Role))

	go h.writePump(conn, session)
	h.readPump(conn, session)

	h.logger.Info("WSHandler.ServeHTTP", fmt.Sprintf("session closed [session_id=%s]", session.ID))
}

// authenticate waits for the auth frame. Connections that stay silent or
// present a bad token are told why and closed.
func (h *WSHandler) authenticate(conn *websocket.Conn) (*Session, bool) {
	conn.SetReadDeadline(time.Now().Add(authTimeout))
	_, raw, err := conn.ReadMessage()
	if err != nil {
		_ = writeFrame(conn, serverMessage{Type: "error", Message: "auth timeout"})
		return nil, false
	}

	var msg clientMessage
	if err := json.Unmarshal(raw, &msg); err != nil || msg.Type != "auth" {
		_ = writeFrame(conn, serverMessage{Type: "error", Message: "auth frame expected"})
		return nil, false
	}
	principal, err := h.tokens.Verify(msg.Token)
	if err != nil {
		_ = writeFrame(conn, serverMessage{Type: "error", Message: "invalid token"})
		return nil, false
	}

	if err := writeFrame(conn, serverMessage{Type: "auth_success", Message: "authenticated"}); err != nil {
		return nil, false
	}
	return NewSession(uuid.NewString(), *principal), true
}

// writePump is the session's single writer: queued frames and keepalive
// pings both go through it, so nothing else ever writes to the connection.
func (h *WSHandler) writePump(conn *websocket.Conn, s *Session) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.Done():
			_ = conn.WriteMessage(websocket.CloseMessage, []byte{})
			_ = conn.Close()
			return
		case frame := <-s.Out:
			conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				h.registry.Remove(s.ID)
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, []byte{}); err != nil {
				h.registry.Remove(s.ID)
				return
			}
		}
	}
}

func (h *WSHandler) readPump(conn *websocket.Conn, s *Session) {
	conn.SetReadDeadline(time.Now().Add(readTimeout))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(readTimeout))
		return nil
	})

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return
		}
		conn.SetReadDeadline(time.Now().Add(readTimeout))

		var msg clientMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			_ = writeFrame(conn, serverMessage{Type: "error", Message: "malformed frame"})
			continue
		}
		h.dispatch(s, msg)
	}
}

// dispatch handles one inbound frame. Replies go through the session queue
// so the writer goroutine stays the connection's only writer.
func (h *WSHandler) dispatch(s *Session, msg clientMessage) {
	switch msg.Type {
	case "join-driver-room", "join-student-room":
		// The room is always the session's own; the frame name only has to
		// match the session's role.
		want := authdomain.RoleDriver
		if msg.Type == "join-student-room" {
			want = authdomain.RoleStudent
		}
		if s.Principal.Role != want {
			s.enqueue(mustFrame(serverMessage{Type: "error", Message: "room not available for this role"}))
			return
		}
		if err := h.registry.JoinOwnRoom(s); err != nil {
			s.enqueue(mustFrame(serverMessage{Type: "error", Message: "room not available for this role"}))
			return
		}
		s.enqueue(mustFrame(serverMessage{Type: "joined", Message: "room joined"}))
	case "join-admin-room":
		if err := h.registry.JoinAdminRoom(s); err != nil {
			s.enqueue(mustFrame(serverMessage{Type: "error", Message: "admin role required"}))
			return
		}
		s.enqueue(mustFrame(serverMessage{Type: "joined", Message: "admin room joined"}))
	case "watch-vehicles":
		h.registry.WatchVehicles(s)
		s.enqueue(mustFrame(serverMessage{Type: "watching", Message: "vehicle updates enabled"}))
	case "unwatch-vehicles":
		h.registry.UnwatchVehicles(s)
	case "driver-location-update":
		h.handleLocation(s, msg)
	default:
		s.enqueue(mustFrame(serverMessage{Type: "error", Message: "unknown message type"}))
	}
}

func (h *WSHandler) handleLocation(s *Session, msg clientMessage) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := h.locations.UpdateVehicleLocation(ctx, msg.VehicleID, msg.Location, &s.Principal)
	if err != nil {
		reason := "location update rejected"
		if errors.Is(err, apperrors.ErrForbidden) {
			reason = "not your vehicle"
		}
		s.enqueue(mustFrame(serverMessage{Type: "error", Message: reason}))
		h.logger.Warn("WSHandler.handleLocation",
			fmt.Sprintf("rejected [session_id=%s, vehicle_id=%s]: %v", s.ID, msg.VehicleID, err))
	}
}

func writeFrame(conn *websocket.Conn, msg serverMessage) error {
	conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return conn.WriteJSON(msg)
}

func mustFrame(msg serverMessage) []byte {
	b, _ := json.Marshal(msg)
	return b
}
