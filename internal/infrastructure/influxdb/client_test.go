package influxdb

import (
	"context"
	"errors"
	"testing"

	"github.com/nerrad567/devclaim/internal/infrastructure/config"
)

// TestConnect_Disabled verifies that a disabled config short-circuits.
func TestConnect_Disabled(t *testing.T) {
	_, err := Connect(config.InfluxDBConfig{Enabled: false})
	if !errors.Is(err, ErrDisabled) {
		t.Errorf("Connect() error = %v, want ErrDisabled", err)
	}
}

// TestClient_ZeroValue verifies the disconnected paths are safe on an
// unconnected client.
func TestClient_ZeroValue(t *testing.T) {
	c := &Client{}

	if c.IsConnected() {
		t.Error("zero client should not report connected")
	}

	if err := c.HealthCheck(context.Background()); !errors.Is(err, ErrNotConnected) {
		t.Errorf("HealthCheck() error = %v, want ErrNotConnected", err)
	}

	// Writes and flushes on a disconnected client are no-ops.
	c.WriteRegistration("dev-1", "heartbeat")
	c.WriteClaimOutcome("dev-1", "acme", "claimed")
	c.WritePoint("custom", nil, map[string]interface{}{"v": 1})
	c.Flush()

	if err := c.Close(); err != nil {
		t.Errorf("Close() on zero client error = %v", err)
	}
}
