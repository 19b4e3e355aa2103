package claim

import "errors"

// Domain-specific errors for claim operations.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrAlreadyClaimed is returned when the device already has an
	// owner, whether it was claimed long ago or by a concurrent request
	// that won the race.
	ErrAlreadyClaimed = errors.New("claim: device already claimed")

	// ErrWindowExpired is returned when the device is unclaimed but its
	// last heartbeat is too old. The device must heartbeat again before
	// it can be claimed.
	ErrWindowExpired = errors.New("claim: window expired")

	// ErrNotClaimed is returned when a credential is requested for a
	// device that has no owner yet.
	ErrNotClaimed = errors.New("claim: device not claimed")

	// ErrNotOwner is returned when a credential is requested by a user
	// other than the device's owner.
	ErrNotOwner = errors.New("claim: requester is not the owner")
)
