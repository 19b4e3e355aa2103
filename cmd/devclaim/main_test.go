package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// TestRun_InvalidConfig verifies run fails with invalid config path.
func TestRun_InvalidConfig(t *testing.T) {
	originalEnv := os.Getenv("DEVCLAIM_CONFIG")
	defer os.Setenv("DEVCLAIM_CONFIG", originalEnv)

	os.Setenv("DEVCLAIM_CONFIG", "/nonexistent/path/config.yaml")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := run(ctx); err == nil {
		t.Fatal("run() should fail with invalid config path")
	}
}

// TestRun_MissingJWTSecret verifies config validation rejects a missing
// JWT secret before any service starts.
func TestRun_MissingJWTSecret(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "test-config.yaml")
	dbPath := filepath.Join(tmpDir, "test.db")

	configContent := `
service:
  id: test-devclaim

database:
  path: "` + dbPath + `"
  wal_mode: true
  busy_timeout: 5

mqtt:
  enabled: false

influxdb:
  enabled: false

issuer:
  url: "http://127.0.0.1:9443/issue"

logging:
  level: info
  format: text
  output: stdout

api:
  host: "127.0.0.1"
  port: 18080
`
	if err := os.WriteFile(configPath, []byte(configContent), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	originalEnv := os.Getenv("DEVCLAIM_CONFIG")
	defer os.Setenv("DEVCLAIM_CONFIG", originalEnv)
	os.Setenv("DEVCLAIM_CONFIG", configPath)
	// Ensure ambient environment cannot satisfy the requirement.
	originalSecret := os.Getenv("DEVCLAIM_JWT_SECRET")
	defer os.Setenv("DEVCLAIM_JWT_SECRET", originalSecret)
	os.Unsetenv("DEVCLAIM_JWT_SECRET")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := run(ctx); err == nil {
		t.Fatal("run() should fail without a JWT secret")
	}
}

// TestGetConfigPath_Default verifies default config path.
func TestGetConfigPath_Default(t *testing.T) {
	originalEnv := os.Getenv("DEVCLAIM_CONFIG")
	defer os.Setenv("DEVCLAIM_CONFIG", originalEnv)

	os.Unsetenv("DEVCLAIM_CONFIG")

	if path := getConfigPath(); path != defaultConfigPath {
		t.Errorf("getConfigPath() = %q, want %q", path, defaultConfigPath)
	}
}

// TestGetConfigPath_EnvOverride verifies environment variable override.
func TestGetConfigPath_EnvOverride(t *testing.T) {
	originalEnv := os.Getenv("DEVCLAIM_CONFIG")
	defer os.Setenv("DEVCLAIM_CONFIG", originalEnv)

	expected := "/custom/path/config.yaml"
	os.Setenv("DEVCLAIM_CONFIG", expected)

	if path := getConfigPath(); path != expected {
		t.Errorf("getConfigPath() = %q, want %q", path, expected)
	}
}

// TestRun_StartupAndShutdown runs the full service with MQTT and
// InfluxDB disabled, then shuts it down via context cancellation.
func TestRun_StartupAndShutdown(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "test-config.yaml")
	dbPath := filepath.Join(tmpDir, "test.db")

	configContent := `
service:
  id: test-devclaim

database:
  path: "` + dbPath + `"
  wal_mode: true
  busy_timeout: 5

mqtt:
  enabled: false

influxdb:
  enabled: false

issuer:
  url: "http://127.0.0.1:9443/issue"

claim:
  ttl: 600

logging:
  level: error
  format: text
  output: stdout

api:
  host: "127.0.0.1"
  port: 18099
  timeouts:
    read: 5
    write: 5
    idle: 10

security:
  jwt:
    secret: "test-secret-for-development-only-0000"
`
	if err := os.WriteFile(configPath, []byte(configContent), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	originalEnv := os.Getenv("DEVCLAIM_CONFIG")
	defer os.Setenv("DEVCLAIM_CONFIG", originalEnv)
	os.Setenv("DEVCLAIM_CONFIG", configPath)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := run(ctx); err != nil {
		t.Fatalf("run() returned error: %v", err)
	}
}
