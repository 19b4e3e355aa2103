package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return configPath
}

func TestLoad_ValidConfig(t *testing.T) {
	content := `
service:
  id: "test-service"
database:
  path: "/tmp/test.db"
  wal_mode: true
  busy_timeout: 5
mqtt:
  broker:
    host: "localhost"
    port: 1883
    client_id: "test-client"
  qos: 1
api:
  host: "0.0.0.0"
  port: 8080
issuer:
  url: "https://issuer.example.com/v1/certificates"
security:
  jwt:
    secret: "test-secret-key-at-least-32-chars!"
`
	cfg, err := Load(writeConfig(t, content))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Service.ID != "test-service" {
		t.Errorf("Service.ID = %q, want %q", cfg.Service.ID, "test-service")
	}

	if cfg.Database.Path != "/tmp/test.db" {
		t.Errorf("Database.Path = %q, want %q", cfg.Database.Path, "/tmp/test.db")
	}

	if cfg.Issuer.URL != "https://issuer.example.com/v1/certificates" {
		t.Errorf("Issuer.URL = %q, want issuer endpoint", cfg.Issuer.URL)
	}

	// Defaults fill in what the file omits.
	if cfg.Claim.TTL != 600 {
		t.Errorf("Claim.TTL = %d, want default 600", cfg.Claim.TTL)
	}
	if cfg.Issuer.MaxAttempts != 3 {
		t.Errorf("Issuer.MaxAttempts = %d, want default 3", cfg.Issuer.MaxAttempts)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("Load() expected error for missing file, got nil")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "invalid: [yaml: content"))
	if err == nil {
		t.Error("Load() expected error for invalid YAML, got nil")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	content := `
database:
  path: "/tmp/file-value.db"
issuer:
  url: "https://issuer.example.com"
security:
  jwt:
    secret: "test-secret-key-at-least-32-chars!"
`
	t.Setenv("DEVCLAIM_DATABASE_PATH", "/tmp/env-value.db")
	t.Setenv("DEVCLAIM_ISSUER_URL", "https://issuer-override.example.com")

	cfg, err := Load(writeConfig(t, content))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Database.Path != "/tmp/env-value.db" {
		t.Errorf("Database.Path = %q, want env override", cfg.Database.Path)
	}
	if cfg.Issuer.URL != "https://issuer-override.example.com" {
		t.Errorf("Issuer.URL = %q, want env override", cfg.Issuer.URL)
	}
}

func TestConfig_Validate(t *testing.T) {
	validJWTSecret := "test-secret-key-at-least-32-chars!"

	valid := func() *Config {
		return &Config{
			Service:  ServiceConfig{ID: "devclaim-001"},
			Database: DatabaseConfig{Path: "/data/devclaim.db"},
			MQTT:     MQTTConfig{QoS: 1},
			API:      APIConfig{Port: 8080},
			Issuer:   IssuerConfig{URL: "https://issuer.example.com", MaxAttempts: 3},
			Claim:    ClaimConfig{TTL: 600},
			Security: SecurityConfig{JWT: JWTConfig{Secret: validJWTSecret}},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "valid config", mutate: func(*Config) {}, wantErr: false},
		{name: "missing service id", mutate: func(c *Config) { c.Service.ID = "" }, wantErr: true},
		{name: "missing database path", mutate: func(c *Config) { c.Database.Path = "" }, wantErr: true},
		{name: "invalid qos", mutate: func(c *Config) { c.MQTT.QoS = 3 }, wantErr: true},
		{name: "invalid port", mutate: func(c *Config) { c.API.Port = 0 }, wantErr: true},
		{name: "zero claim ttl", mutate: func(c *Config) { c.Claim.TTL = 0 }, wantErr: true},
		{name: "missing issuer url", mutate: func(c *Config) { c.Issuer.URL = "" }, wantErr: true},
		{name: "zero issuer attempts", mutate: func(c *Config) { c.Issuer.MaxAttempts = 0 }, wantErr: true},
		{name: "missing jwt secret", mutate: func(c *Config) { c.Security.JWT.Secret = "" }, wantErr: true},
		{name: "short jwt secret", mutate: func(c *Config) { c.Security.JWT.Secret = "short" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_DurationHelpers(t *testing.T) {
	cfg := &Config{
		Claim:  ClaimConfig{TTL: 600},
		Issuer: IssuerConfig{Timeout: 10, BackoffMS: 250},
		API:    APIConfig{Timeouts: APITimeoutConfig{Read: 30, Write: 30, Idle: 60}},
	}

	if got := cfg.ClaimTTL(); got != 600*time.Second {
		t.Errorf("ClaimTTL() = %v, want 600s", got)
	}
	if got := cfg.IssuerTimeout(); got != 10*time.Second {
		t.Errorf("IssuerTimeout() = %v, want 10s", got)
	}
	if got := cfg.IssuerBackoff(); got != 250*time.Millisecond {
		t.Errorf("IssuerBackoff() = %v, want 250ms", got)
	}
	if got := cfg.GetIdleTimeout(); got != 60*time.Second {
		t.Errorf("GetIdleTimeout() = %v, want 60s", got)
	}
}
