package device

import (
	"context"
	"fmt"
	"time"
)

// Logger is a minimal logging interface to avoid coupling to a specific
// logging implementation.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Registry provides registration, heartbeat, and read operations over
// the device store.
//
// The registry holds no in-memory copy of device records. Every read
// goes to the repository so that claimability is always evaluated
// against the latest committed ownership state; a cached record could
// report a device as claimable after another claim has committed.
type Registry struct {
	repo   Repository
	ttl    time.Duration
	logger Logger
	events EventSink
	now    func() time.Time
}

// RegisterResult is the outcome of a registration or heartbeat.
type RegisterResult struct {
	// ID is the device identifier, newly assigned or confirmed.
	ID string

	// Created is true for a first registration, false for a heartbeat.
	Created bool

	// Claimable is the device's claim-window state immediately after
	// the registration or heartbeat was recorded.
	Claimable bool
}

// NewRegistry creates a registry backed by the given repository.
// The ttl is the claim window applied to claimability checks.
func NewRegistry(repo Repository, ttl time.Duration) *Registry {
	if ttl <= 0 {
		ttl = DefaultClaimTTL
	}
	return &Registry{
		repo:   repo,
		ttl:    ttl,
		logger: noopLogger{},
		events: noopEventSink{},
		now:    time.Now,
	}
}

// SetLogger sets the logger for the registry.
func (r *Registry) SetLogger(logger Logger) {
	r.logger = logger
}

// SetEventSink sets the lifecycle event sink for the registry.
func (r *Registry) SetEventSink(sink EventSink) {
	r.events = sink
}

// SetClock overrides the time source. Intended for tests.
func (r *Registry) SetClock(now func() time.Time) {
	r.now = now
}

// TTL returns the configured claim window.
func (r *Registry) TTL() time.Duration {
	return r.ttl
}

// Register records a device announcement.
//
// With an empty id this is a first registration: the MAC address is
// validated, a fresh identifier is assigned, and the device starts its
// claim window. With an id it is a heartbeat: only the last-seen
// timestamp moves, which re-opens the claim window for an unclaimed
// device but never disturbs an established owner.
//
// Parameters:
//   - id: existing device identifier, or "" for a first registration
//   - mac: the device's MAC address (required for first registration)
//
// Returns:
//   - *RegisterResult: assigned id and current claimability
//   - error: validation failure, ErrDeviceNotFound for an unknown id,
//     or a wrapped repository error
func (r *Registry) Register(ctx context.Context, id, mac string) (*RegisterResult, error) {
	if id == "" {
		return r.registerNew(ctx, mac)
	}
	return r.heartbeat(ctx, id)
}

func (r *Registry) registerNew(ctx context.Context, mac string) (*RegisterResult, error) {
	if err := ValidateMACAddress(mac); err != nil {
		return nil, err
	}

	now := r.now().UTC()
	d := &Device{
		ID:           GenerateID(),
		MACAddress:   NormaliseMACAddress(mac),
		RegisteredAt: now,
		LastSeenAt:   now,
	}

	if err := r.repo.Create(ctx, d); err != nil {
		return nil, fmt.Errorf("registering device: %w", err)
	}

	r.logger.Info("device registered", "id", d.ID, "mac", d.MACAddress)
	r.events.PublishDeviceEvent(Event{
		Type:      EventRegistered,
		DeviceID:  d.ID,
		Timestamp: now,
	})

	// A freshly registered device has no owner and a zero-age
	// heartbeat, so it is claimable by construction.
	return &RegisterResult{ID: d.ID, Created: true, Claimable: true}, nil
}

func (r *Registry) heartbeat(ctx context.Context, id string) (*RegisterResult, error) {
	if err := ValidateID(id); err != nil {
		return nil, err
	}

	now := r.now().UTC()
	if err := r.repo.Touch(ctx, id, now); err != nil {
		return nil, err
	}

	// Re-read to evaluate claimability against committed state. The
	// heartbeat just moved last_seen_at, so an unclaimed device reports
	// claimable; a claimed one stays unclaimable regardless of freshness.
	d, err := r.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	r.logger.Debug("device heartbeat", "id", id)
	r.events.PublishDeviceEvent(Event{
		Type:      EventHeartbeat,
		DeviceID:  id,
		Timestamp: now,
	})

	return &RegisterResult{ID: id, Claimable: Claimable(d, now, r.ttl)}, nil
}

// GetDevice retrieves a device by id.
// Returns ErrDeviceNotFound if it does not exist.
func (r *Registry) GetDevice(ctx context.Context, id string) (*Device, error) {
	if err := ValidateID(id); err != nil {
		return nil, err
	}
	return r.repo.GetByID(ctx, id)
}

// IsClaimable reports whether the device is currently claimable.
// Returns ErrDeviceNotFound if the device does not exist.
func (r *Registry) IsClaimable(ctx context.Context, id string) (bool, error) {
	d, err := r.GetDevice(ctx, id)
	if err != nil {
		return false, err
	}
	return Claimable(d, r.now().UTC(), r.ttl), nil
}

// ListByVendor retrieves the devices claimed under a vendor, in
// registration order.
func (r *Registry) ListByVendor(ctx context.Context, vendorID string) ([]Device, error) {
	if vendorID == "" {
		return nil, fmt.Errorf("%w: vendor_id is required", ErrInvalidMetadata)
	}
	return r.repo.ListByVendor(ctx, vendorID)
}
