package event

// Event is the closed union of domain events the notification layer fans
// out. Name doubles as the wire-level message type clients switch on.
type Event interface {
	Name() string
}

type EntityKind string

const (
	EntityStudent EntityKind = "student"
	EntityDriver  EntityKind = "driver"
	EntityVehicle EntityKind = "vehicle"
)

// RideCreated is emitted once per successful ride request.
type RideCreated struct {
	RideID    string `json:"ride_id"`
	StudentID string `json:"student_id"`
	DriverID  string `json:"driver_id"`
	VehicleID string `json:"vehicle_id"`
	Pickup    string `json:"pickup_point"`
	Dropoff   string `json:"dropoff_point"`
	Status    string `json:"status"`
}

func (RideCreated) Name() string { return "new-ride-request" }

// RideStatusChanged is emitted on every accepted state transition.
type RideStatusChanged struct {
	RideID    string   `json:"ride_id"`
	StudentID string   `json:"student_id"`
	DriverID  string   `json:"driver_id"`
	Status    string   `json:"status"`
	Fare      *float64 `json:"fare,omitempty"`
}

func (RideStatusChanged) Name() string { return "ride-status-updated" }

// LocationChanged carries a vehicle position update. Display-only: nothing
// downstream may treat this payload as authoritative state.
type LocationChanged struct {
	VehicleID string `json:"vehicle_id"`
	DriverID  string `json:"driver_id"`
	Location  string `json:"location"`
}

func (LocationChanged) Name() string { return "location-updated" }

// EntityRegistered announces a new roster record to the admin dashboard.
type EntityRegistered struct {
	Kind    EntityKind  `json:"-"`
	Payload interface{} `json:"payload"`
}

func (e EntityRegistered) Name() string { return "new-" + string(e.Kind) + "-registered" }

// Bus accepts domain events for fan-out. Publishing never blocks domain
// logic and never fails it.
type Bus interface {
	Publish(Event)
}

// Fan forwards each event to every attached bus (websocket hub, RabbitMQ
// mirror) in order.
type Fan []Bus

func (f Fan) Publish(e Event) {
	for _, b := range f {
		b.Publish(e)
	}
}

// Discard is used in tests and when a subsystem is disabled.
type Discard struct{}

func (Discard) Publish(Event) {}
