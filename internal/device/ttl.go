package device

import "time"

// DefaultClaimTTL is the default claim window: an unclaimed device stays
// claimable for this long after its last registration or heartbeat.
const DefaultClaimTTL = 600 * time.Second

// Claimable reports whether the device can be claimed at the given
// instant. A device is claimable when it has no owner and its last
// heartbeat is within the claim window.
//
// This is the single source of truth for the claim-window decision.
// The result is derived fresh on every call; it is never cached or
// persisted, so an expired device becomes claimable again the moment
// it heartbeats.
//
// The boundary is inclusive: a device whose heartbeat is exactly ttl
// old is still claimable.
func Claimable(d *Device, now time.Time, ttl time.Duration) bool {
	if d == nil || d.OwnerID != nil {
		return false
	}
	return now.Sub(d.LastSeenAt) <= ttl
}
