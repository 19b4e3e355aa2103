package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// WriteRegistration records a device registration or heartbeat.
//
// The write is non-blocking; data is batched and sent asynchronously.
//
// Parameters:
//   - deviceID: Device identifier
//   - kind: "registered" for first contact, "heartbeat" for repeats
func (c *Client) WriteRegistration(deviceID, kind string) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"registrations",
		map[string]string{
			"kind": kind,
		},
		map[string]interface{}{
			"device_id": deviceID,
			"count":     1,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WriteClaimOutcome records the result of a claim attempt.
//
// Outcome values: "claimed", "already_claimed", "expired", "conflict".
// Vendor is empty for failed attempts where no vendor was recorded.
func (c *Client) WriteClaimOutcome(deviceID, vendorID, outcome string) {
	if !c.IsConnected() {
		return
	}

	tags := map[string]string{
		"outcome": outcome,
	}
	if vendorID != "" {
		tags["vendor_id"] = vendorID
	}

	point := write.NewPoint(
		"claims",
		tags,
		map[string]interface{}{
			"device_id": deviceID,
			"count":     1,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WriteIssuanceLatency records how long a credential issuance took and
// whether it succeeded.
func (c *Client) WriteIssuanceLatency(deviceID string, elapsed time.Duration, success bool) {
	if !c.IsConnected() {
		return
	}

	outcome := "success"
	if !success {
		outcome = "failure"
	}

	point := write.NewPoint(
		"issuance",
		map[string]string{
			"outcome": outcome,
		},
		map[string]interface{}{
			"device_id":  deviceID,
			"latency_ms": float64(elapsed.Milliseconds()),
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WritePoint writes a custom point with full control over tags and fields.
//
// Use this for custom measurements that don't fit the helper methods.
//
// Parameters:
//   - measurement: The measurement name (table)
//   - tags: Key-value pairs for indexing (low cardinality)
//   - fields: Key-value pairs for the actual data
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]interface{}) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, time.Now())
	c.writeAPI.WritePoint(point)
}

// WritePointWithTime writes a custom point with a specific timestamp.
//
// Use this when the timestamp is not "now" (e.g., delayed data).
func (c *Client) WritePointWithTime(measurement string, tags map[string]string, fields map[string]interface{}, timestamp time.Time) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, timestamp)
	c.writeAPI.WritePoint(point)
}
