package device

import (
	"testing"
	"time"
)

// TestClaimable verifies the claim-window derivation.
func TestClaimable(t *testing.T) {
	now := time.Date(2026, 8, 15, 12, 0, 0, 0, time.UTC)
	owner := "user-1"

	tests := []struct {
		name   string
		device *Device
		want   bool
	}{
		{
			name: "unclaimed and fresh",
			device: &Device{
				LastSeenAt: now.Add(-10 * time.Second),
			},
			want: true,
		},
		{
			name: "unclaimed at exact boundary",
			device: &Device{
				LastSeenAt: now.Add(-DefaultClaimTTL),
			},
			want: true,
		},
		{
			name: "unclaimed just past boundary",
			device: &Device{
				LastSeenAt: now.Add(-DefaultClaimTTL - time.Second),
			},
			want: false,
		},
		{
			name: "claimed and fresh",
			device: &Device{
				OwnerID:    &owner,
				LastSeenAt: now.Add(-10 * time.Second),
			},
			want: false,
		},
		{
			name: "claimed and stale",
			device: &Device{
				OwnerID:    &owner,
				LastSeenAt: now.Add(-time.Hour),
			},
			want: false,
		},
		{
			name: "heartbeat in the future",
			device: &Device{
				LastSeenAt: now.Add(time.Minute),
			},
			want: true,
		},
		{
			name:   "nil device",
			device: nil,
			want:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Claimable(tt.device, now, DefaultClaimTTL)
			if got != tt.want {
				t.Errorf("Claimable() = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestClaimable_HeartbeatReopensWindow verifies that an expired device
// becomes claimable again once its heartbeat timestamp moves forward.
func TestClaimable_HeartbeatReopensWindow(t *testing.T) {
	now := time.Date(2026, 8, 15, 12, 0, 0, 0, time.UTC)

	d := &Device{LastSeenAt: now.Add(-time.Hour)}
	if Claimable(d, now, DefaultClaimTTL) {
		t.Fatal("expected stale device to be unclaimable")
	}

	d.LastSeenAt = now
	if !Claimable(d, now, DefaultClaimTTL) {
		t.Error("expected device to be claimable after heartbeat")
	}
}
