package notify

import (
	"encoding/json"
	"fmt"

	"campus-rickshaw/internal/event"
	"campus-rickshaw/internal/shared/util"
)

// envelope is the wire shape of every pushed frame.
type envelope struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// Hub routes domain events to the sessions entitled to see them. It
// implements event.Bus so the application services stay unaware of
// websockets entirely.
type Hub struct {
	registry *Registry
	logger   *util.Logger
}

func NewHub(registry *Registry, logger *util.Logger) *Hub {
	return &Hub{registry: registry, logger: logger}
}

func (h *Hub) Publish(e event.Event) {
	var targets []*Session
	switch ev := e.(type) {
	case event.RideCreated:
		targets = h.registry.collect(driverRoom(ev.DriverID), adminRoom)
	case event.RideStatusChanged:
		targets = h.registry.collect(studentRoom(ev.StudentID), driverRoom(ev.DriverID), adminRoom)
	case event.LocationChanged:
		targets = h.registry.collect(vehicleWatch, adminRoom)
	case event.EntityRegistered:
		targets = h.registry.collect(adminRoom)
	default:
		h.logger.Warn("Hub.Publish", fmt.Sprintf("unroutable event %q dropped", e.Name()))
		return
	}
	if len(targets) == 0 {
		return
	}

	frame, err := json.Marshal(envelope{Type: e.Name(), Data: e})
	if err != nil {
		h.logger.Error("Hub.Publish", fmt.Errorf("marshal %q: %v", e.Name(), err))
		return
	}
	for _, s := range targets {
		if !s.enqueue(frame) {
			h.logger.Warn("Hub.Publish",
				fmt.Sprintf("session backlogged, dropping [session_id=%s, role=%s]", s.ID, s.Principal.Role))
			h.registry.Remove(s.ID)
		}
	}
}
