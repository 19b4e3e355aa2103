package device

import "errors"

// Domain-specific errors for device operations.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrDeviceNotFound is returned when a device lookup fails.
	ErrDeviceNotFound = errors.New("device: not found")

	// ErrDeviceExists is returned when creating a device with a duplicate ID.
	ErrDeviceExists = errors.New("device: already exists")

	// ErrClaimConflict is returned by ClaimIfUnowned when the conditional
	// update matched no rows because another claim committed first. The
	// caller decides how to surface this; it is a store-level signal, not
	// a user-facing outcome.
	ErrClaimConflict = errors.New("device: concurrent claim conflict")

	// ErrInvalidID is returned when a device ID fails format validation.
	ErrInvalidID = errors.New("device: invalid id")

	// ErrInvalidMACAddress is returned when a MAC address fails validation.
	ErrInvalidMACAddress = errors.New("device: invalid mac address")

	// ErrInvalidMetadata is returned when claim metadata fails validation.
	ErrInvalidMetadata = errors.New("device: invalid claim metadata")
)
