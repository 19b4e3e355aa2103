// Package influxdb provides InfluxDB connectivity for devclaim telemetry.
//
// It wraps the official influxdb-client-go v2 library with devclaim-specific
// patterns for connection management, metric writing, and health monitoring.
//
// # Purpose
//
// This package handles time-series data storage for:
//   - Registration and heartbeat rates across the fleet
//   - Claim outcomes (won, conflict, expired)
//   - Credential issuance latency and success rate
//
// # Usage
//
//	cfg := config.InfluxDBConfig{
//	    URL:    "http://localhost:8086",
//	    Token:  "your-token",
//	    Org:    "devclaim",
//	    Bucket: "metrics",
//	}
//
//	client, err := influxdb.Connect(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	client.WriteClaimOutcome("dev-123", "acme", "claimed")
//
// # Thread Safety
//
// All methods are safe for concurrent use from multiple goroutines.
// The underlying write API uses non-blocking batched writes.
//
// # Error Handling
//
// Write operations are non-blocking and batch errors are logged via a callback.
// Connection and health check errors are returned directly. Telemetry is
// advisory; a write failure never affects registration or claim handling.
package influxdb
