package device

import "time"

// EventType identifies a device lifecycle event.
type EventType string

// Device lifecycle events published to interested parties (MQTT,
// WebSocket subscribers).
const (
	EventRegistered EventType = "registered"
	EventHeartbeat  EventType = "heartbeat"
	EventClaimed    EventType = "claimed"
)

// Event is a device lifecycle notification.
//
// VendorID is empty for registration and heartbeat events; the device
// has no vendor scope until it is claimed.
type Event struct {
	Type      EventType `json:"type"`
	DeviceID  string    `json:"device_id"`
	VendorID  string    `json:"vendor_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// EventSink receives device lifecycle events.
//
// Implementations must not block: events are advisory fan-out, and a
// slow subscriber must never delay a registration or claim. Delivery is
// best-effort; the database record is the source of truth.
type EventSink interface {
	PublishDeviceEvent(event Event)
}

// noopEventSink discards events.
type noopEventSink struct{}

func (noopEventSink) PublishDeviceEvent(Event) {}

// MultiEventSink fans an event out to several sinks.
type MultiEventSink []EventSink

// PublishDeviceEvent delivers the event to every sink in order.
func (m MultiEventSink) PublishDeviceEvent(event Event) {
	for _, s := range m {
		s.PublishDeviceEvent(event)
	}
}
