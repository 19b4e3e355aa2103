// Package mqtt provides the MQTT client used to broadcast device
// lifecycle events to fleet tooling and vendor integrations.
//
// # Responsibilities
//
//   - Connection management with auto-reconnect and exponential backoff
//   - Last Will and Testament so subscribers can detect the service
//     going offline unexpectedly
//   - Publishing registration, heartbeat, and claim events
//   - Accepting registrations and heartbeats from devices over the
//     broker (ingest topic)
//   - Subscription handling with automatic restoration on reconnect
//
// # Topic hierarchy
//
//	devclaim/event/registered/{device_id}
//	devclaim/event/heartbeat/{device_id}
//	devclaim/event/claimed/{device_id}
//	devclaim/ingest/register
//	devclaim/system/status
//
// Use the Topics builders rather than formatting topic strings by hand.
//
// Event delivery is best-effort. The database is the source of truth
// for ownership; a dropped event never affects a claim.
package mqtt
