package mqtt

import "fmt"

// Topic prefixes for the devclaim MQTT hierarchy.
const (
	// TopicPrefixEvent is the base for device lifecycle event topics.
	TopicPrefixEvent = "devclaim/event"

	// TopicPrefixSystem is the base for system topics.
	TopicPrefixSystem = "devclaim/system"

	// TopicPrefixIngest is the base for device-to-service topics.
	TopicPrefixIngest = "devclaim/ingest"
)

// Topics provides builders for devclaim MQTT topics.
// Using these helpers ensures consistent topic naming across the codebase.
//
//	topics := mqtt.Topics{}
//	topic := topics.DeviceEvent("claimed", "dev-123")
//	// Returns: "devclaim/event/claimed/dev-123"
type Topics struct{}

// DeviceEvent returns the topic for a device lifecycle event.
//
// Example: devclaim/event/registered/dev-6ba7b810
func (Topics) DeviceEvent(eventType, deviceID string) string {
	return fmt.Sprintf("%s/%s/%s", TopicPrefixEvent, eventType, deviceID)
}

// AllDeviceEvents returns a wildcard matching every lifecycle event.
//
// Example subscriber: fleet dashboards watching registration activity.
func (Topics) AllDeviceEvents() string {
	return TopicPrefixEvent + "/#"
}

// EventsOfType returns a wildcard matching one event type for all devices.
//
// Example: devclaim/event/claimed/+
func (Topics) EventsOfType(eventType string) string {
	return fmt.Sprintf("%s/%s/+", TopicPrefixEvent, eventType)
}

// SystemStatus returns the topic carrying this service's online state.
// Retained, so new subscribers immediately learn the current status.
func (Topics) SystemStatus() string {
	return TopicPrefixSystem + "/status"
}

// Ingest returns the topic devices publish registrations and
// heartbeats to.
func (Topics) Ingest() string {
	return TopicPrefixIngest + "/register"
}
