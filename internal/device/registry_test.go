package device

import (
	"context"
	"errors"
	"testing"
	"time"
)

// mockRepository is an in-memory Repository for registry tests.
type mockRepository struct {
	devices map[string]*Device

	createErr error
	touchErr  error
}

func newMockRepository() *mockRepository {
	return &mockRepository{devices: make(map[string]*Device)}
}

func (m *mockRepository) GetByID(_ context.Context, id string) (*Device, error) {
	d, ok := m.devices[id]
	if !ok {
		return nil, ErrDeviceNotFound
	}
	copied := *d
	return &copied, nil
}

func (m *mockRepository) Create(_ context.Context, d *Device) error {
	if m.createErr != nil {
		return m.createErr
	}
	if _, exists := m.devices[d.ID]; exists {
		return ErrDeviceExists
	}
	copied := *d
	m.devices[d.ID] = &copied
	return nil
}

func (m *mockRepository) Touch(_ context.Context, id string, seenAt time.Time) error {
	if m.touchErr != nil {
		return m.touchErr
	}
	d, ok := m.devices[id]
	if !ok {
		return ErrDeviceNotFound
	}
	d.LastSeenAt = seenAt
	return nil
}

func (m *mockRepository) ListByVendor(_ context.Context, vendorID string) ([]Device, error) {
	var out []Device
	for _, d := range m.devices {
		if d.VendorID != nil && *d.VendorID == vendorID {
			out = append(out, *d)
		}
	}
	return out, nil
}

func (m *mockRepository) ClaimIfUnowned(_ context.Context, id, ownerID string, meta ClaimMetadata, claimedAt time.Time) error {
	d, ok := m.devices[id]
	if !ok {
		return ErrDeviceNotFound
	}
	if d.OwnerID != nil {
		return ErrClaimConflict
	}
	d.OwnerID = &ownerID
	d.VendorID = &meta.VendorID
	d.ClaimedAt = &claimedAt
	return nil
}

// captureSink records published events.
type captureSink struct {
	events []Event
}

func (c *captureSink) PublishDeviceEvent(e Event) {
	c.events = append(c.events, e)
}

// TestRegistry_Register_New verifies first registration.
func TestRegistry_Register_New(t *testing.T) {
	repo := newMockRepository()
	sink := &captureSink{}
	reg := NewRegistry(repo, DefaultClaimTTL)
	reg.SetEventSink(sink)

	result, err := reg.Register(context.Background(), "", "AA:BB:CC:DD:EE:FF")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	if !result.Created {
		t.Error("Created = false, want true")
	}
	if !result.Claimable {
		t.Error("Claimable = false, want true for fresh registration")
	}
	if err := ValidateID(result.ID); err != nil {
		t.Errorf("assigned id invalid: %v", err)
	}

	stored, err := repo.GetByID(context.Background(), result.ID)
	if err != nil {
		t.Fatalf("device not persisted: %v", err)
	}
	if stored.MACAddress != "aa:bb:cc:dd:ee:ff" {
		t.Errorf("MACAddress = %q, want normalised form", stored.MACAddress)
	}
	if stored.OwnerID != nil {
		t.Error("new device must have no owner")
	}

	if len(sink.events) != 1 || sink.events[0].Type != EventRegistered {
		t.Errorf("events = %+v, want one registered event", sink.events)
	}
}

// TestRegistry_Register_InvalidMAC verifies MAC validation on registration.
func TestRegistry_Register_InvalidMAC(t *testing.T) {
	reg := NewRegistry(newMockRepository(), DefaultClaimTTL)

	_, err := reg.Register(context.Background(), "", "not-a-mac")
	if !errors.Is(err, ErrInvalidMACAddress) {
		t.Errorf("Register() error = %v, want ErrInvalidMACAddress", err)
	}
}

// TestRegistry_Register_Heartbeat verifies repeat registration behaviour.
func TestRegistry_Register_Heartbeat(t *testing.T) {
	repo := newMockRepository()
	sink := &captureSink{}
	reg := NewRegistry(repo, DefaultClaimTTL)
	reg.SetEventSink(sink)

	base := time.Date(2026, 8, 15, 12, 0, 0, 0, time.UTC)
	now := base
	reg.SetClock(func() time.Time { return now })

	result, err := reg.Register(context.Background(), "", "aa:bb:cc:dd:ee:ff")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	id := result.ID

	t.Run("within window", func(t *testing.T) {
		now = base.Add(5 * time.Minute)
		hb, err := reg.Register(context.Background(), id, "")
		if err != nil {
			t.Fatalf("heartbeat error = %v", err)
		}
		if hb.Created {
			t.Error("Created = true, want false for heartbeat")
		}
		if !hb.Claimable {
			t.Error("Claimable = false, want true after heartbeat")
		}
	})

	t.Run("reopens expired window", func(t *testing.T) {
		now = base.Add(2 * time.Hour)
		hb, err := reg.Register(context.Background(), id, "")
		if err != nil {
			t.Fatalf("heartbeat error = %v", err)
		}
		if !hb.Claimable {
			t.Error("heartbeat must reopen the claim window")
		}
	})

	t.Run("claimed device stays unclaimable", func(t *testing.T) {
		err := repo.ClaimIfUnowned(context.Background(), id, "user-1", ClaimMetadata{VendorID: "acme"}, now)
		if err != nil {
			t.Fatalf("ClaimIfUnowned() error = %v", err)
		}

		hb, err := reg.Register(context.Background(), id, "")
		if err != nil {
			t.Fatalf("heartbeat error = %v", err)
		}
		if hb.Claimable {
			t.Error("heartbeat must never make a claimed device claimable")
		}

		stored, _ := repo.GetByID(context.Background(), id)
		if stored.OwnerID == nil || *stored.OwnerID != "user-1" {
			t.Error("heartbeat must not disturb ownership")
		}
	})

	t.Run("unknown id", func(t *testing.T) {
		_, err := reg.Register(context.Background(), GenerateID(), "")
		if !errors.Is(err, ErrDeviceNotFound) {
			t.Errorf("heartbeat error = %v, want ErrDeviceNotFound", err)
		}
	})

	t.Run("malformed id", func(t *testing.T) {
		_, err := reg.Register(context.Background(), "bogus", "")
		if !errors.Is(err, ErrInvalidID) {
			t.Errorf("heartbeat error = %v, want ErrInvalidID", err)
		}
	})
}

// TestRegistry_IsClaimable verifies the derived claimability check.
func TestRegistry_IsClaimable(t *testing.T) {
	repo := newMockRepository()
	reg := NewRegistry(repo, DefaultClaimTTL)

	base := time.Date(2026, 8, 15, 12, 0, 0, 0, time.UTC)
	now := base
	reg.SetClock(func() time.Time { return now })

	result, err := reg.Register(context.Background(), "", "aa:bb:cc:dd:ee:ff")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	claimable, err := reg.IsClaimable(context.Background(), result.ID)
	if err != nil {
		t.Fatalf("IsClaimable() error = %v", err)
	}
	if !claimable {
		t.Error("fresh device should be claimable")
	}

	now = base.Add(DefaultClaimTTL + time.Second)
	claimable, err = reg.IsClaimable(context.Background(), result.ID)
	if err != nil {
		t.Fatalf("IsClaimable() error = %v", err)
	}
	if claimable {
		t.Error("expired device should not be claimable")
	}
}

// TestRegistry_ListByVendor verifies vendor scoping.
func TestRegistry_ListByVendor(t *testing.T) {
	repo := newMockRepository()
	reg := NewRegistry(repo, DefaultClaimTTL)

	result, err := reg.Register(context.Background(), "", "aa:bb:cc:dd:ee:ff")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if err := repo.ClaimIfUnowned(context.Background(), result.ID, "user-1", ClaimMetadata{VendorID: "acme"}, time.Now()); err != nil {
		t.Fatalf("ClaimIfUnowned() error = %v", err)
	}

	devices, err := reg.ListByVendor(context.Background(), "acme")
	if err != nil {
		t.Fatalf("ListByVendor() error = %v", err)
	}
	if len(devices) != 1 {
		t.Errorf("len = %d, want 1", len(devices))
	}

	if _, err := reg.ListByVendor(context.Background(), ""); err == nil {
		t.Error("expected error for empty vendor id")
	}
}
