package claim

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nerrad567/devclaim/internal/credential"
	"github.com/nerrad567/devclaim/internal/device"
)

// maxClaimAttempts bounds the conflict retry. One initial attempt plus
// one re-evaluation after a conflict; ownership is permanent, so a
// second conflict can only mean someone else owns the device.
const maxClaimAttempts = 2

// Request carries a user's claim of a device.
type Request struct {
	DeviceID string
	UserID   string
	Metadata device.ClaimMetadata
}

// Result is the outcome of a successful claim.
//
// Credential is nil when issuance failed; IssuanceErr then explains
// why. The claim itself is durable either way.
type Result struct {
	Device      *device.Device
	Credential  *credential.Credential
	IssuanceErr error
}

// Coordinator serialises the claim decision against the device store
// and drives credential issuance for successful claims.
type Coordinator struct {
	repo   device.Repository
	issuer credential.Issuer
	ttl    time.Duration
	logger device.Logger
	events device.EventSink
	now    func() time.Time
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// noopEventSink discards events.
type noopEventSink struct{}

func (noopEventSink) PublishDeviceEvent(device.Event) {}

// NewCoordinator creates a claim coordinator.
// The ttl is the claim window applied when evaluating claimability.
func NewCoordinator(repo device.Repository, issuer credential.Issuer, ttl time.Duration) *Coordinator {
	if ttl <= 0 {
		ttl = device.DefaultClaimTTL
	}
	return &Coordinator{
		repo:   repo,
		issuer: issuer,
		ttl:    ttl,
		logger: noopLogger{},
		events: noopEventSink{},
		now:    time.Now,
	}
}

// SetLogger sets the logger for the coordinator.
func (c *Coordinator) SetLogger(logger device.Logger) {
	c.logger = logger
}

// SetEventSink sets the lifecycle event sink for the coordinator.
func (c *Coordinator) SetEventSink(sink device.EventSink) {
	c.events = sink
}

// SetClock overrides the time source. Intended for tests.
func (c *Coordinator) SetClock(now func() time.Time) {
	c.now = now
}

// Claim attempts to take ownership of a device for a user.
//
// The claim is decided by the repository's conditional update; the
// preceding read only classifies failures (owned vs expired) and never
// authorises anything on its own. On a conflict the record is re-read
// and the decision re-run once before AlreadyClaimed is reported.
//
// A non-nil Result means ownership committed. Issuance failure is
// reported inside the Result, not as the returned error, because the
// claim must not appear to have failed.
//
// Returns:
//   - device.ErrDeviceNotFound: no such device
//   - device.ErrInvalidID / device.ErrInvalidMetadata: bad input
//   - ErrAlreadyClaimed: another user owns the device
//   - ErrWindowExpired: unclaimed but the heartbeat is too old
func (c *Coordinator) Claim(ctx context.Context, req Request) (*Result, error) {
	if err := device.ValidateID(req.DeviceID); err != nil {
		return nil, err
	}
	if req.UserID == "" {
		return nil, fmt.Errorf("%w: user id is required", device.ErrInvalidMetadata)
	}
	if err := device.ValidateClaimMetadata(req.Metadata); err != nil {
		return nil, err
	}

	for attempt := 1; ; attempt++ {
		d, err := c.repo.GetByID(ctx, req.DeviceID)
		if err != nil {
			return nil, err
		}

		now := c.now().UTC()
		if d.OwnerID != nil {
			return nil, ErrAlreadyClaimed
		}
		if !device.Claimable(d, now, c.ttl) {
			return nil, ErrWindowExpired
		}

		err = c.repo.ClaimIfUnowned(ctx, req.DeviceID, req.UserID, req.Metadata, now)
		if err == nil {
			break
		}
		if !errors.Is(err, device.ErrClaimConflict) {
			return nil, err
		}
		if attempt >= maxClaimAttempts {
			// Conflict twice in a row: an owner is committed.
			return nil, ErrAlreadyClaimed
		}
		c.logger.Debug("claim conflict, re-evaluating", "device_id", req.DeviceID, "attempt", attempt)
	}

	claimed, err := c.repo.GetByID(ctx, req.DeviceID)
	if err != nil {
		// The ownership write committed; surfacing a read error here
		// would misreport the claim. Synthesise the record instead.
		c.logger.Warn("re-reading claimed device failed", "device_id", req.DeviceID, "error", err)
		now := c.now().UTC()
		claimed = &device.Device{
			ID:        req.DeviceID,
			OwnerID:   &req.UserID,
			VendorID:  &req.Metadata.VendorID,
			ClaimedAt: &now,
		}
	}

	c.logger.Info("device claimed",
		"device_id", req.DeviceID, "user_id", req.UserID, "vendor_id", req.Metadata.VendorID)
	c.events.PublishDeviceEvent(device.Event{
		Type:      device.EventClaimed,
		DeviceID:  req.DeviceID,
		VendorID:  req.Metadata.VendorID,
		Timestamp: c.now().UTC(),
	})

	result := &Result{Device: claimed}
	cred, err := c.issuer.Issue(ctx, req.DeviceID, req.Metadata.VendorID, req.UserID)
	if err != nil {
		c.logger.Warn("credential issuance failed after claim",
			"device_id", req.DeviceID, "error", err)
		result.IssuanceErr = err
		return result, nil
	}
	result.Credential = cred
	return result, nil
}

// RequestCredential re-requests a credential for an already-claimed
// device. Only the owner may do so; this is the recovery path when
// issuance failed during the original claim.
//
// Returns:
//   - device.ErrDeviceNotFound: no such device
//   - ErrNotClaimed: the device has no owner yet
//   - ErrNotOwner: the requester does not own the device
//   - credential.ErrUpstream / credential.ErrRejected: issuance failed
func (c *Coordinator) RequestCredential(ctx context.Context, deviceID, userID string) (*credential.Credential, error) {
	if err := device.ValidateID(deviceID); err != nil {
		return nil, err
	}

	d, err := c.repo.GetByID(ctx, deviceID)
	if err != nil {
		return nil, err
	}
	if d.OwnerID == nil {
		return nil, ErrNotClaimed
	}
	if *d.OwnerID != userID {
		return nil, ErrNotOwner
	}

	vendorID := ""
	if d.VendorID != nil {
		vendorID = *d.VendorID
	}

	cred, err := c.issuer.Issue(ctx, deviceID, vendorID, userID)
	if err != nil {
		return nil, err
	}

	c.logger.Info("credential re-issued", "device_id", deviceID, "user_id", userID)
	return cred, nil
}
