package device

import "time"

// Device represents a registered hardware unit and its ownership state.
//
// Optional fields use pointers to distinguish "not set" from zero values,
// matching the nullable columns in the database schema. The claim
// metadata fields (VendorID, Name, Location, Description) are nil until
// the device is claimed.
type Device struct {
	// ID is the unique identifier assigned at registration.
	ID string `json:"id"`

	// MACAddress is the hardware address the device registered with.
	// Informational only; it is not a key and is never used for lookup.
	MACAddress string `json:"mac_address"`

	// OwnerID is the id of the user who claimed the device, or nil while
	// the device is unclaimed. Set exactly once, never cleared.
	OwnerID *string `json:"owner_id,omitempty"`

	// VendorID identifies the vendor scope supplied at claim time.
	VendorID *string `json:"vendor_id,omitempty"`

	// Name is the human-readable label supplied at claim time.
	Name *string `json:"name,omitempty"`

	// Location is an optional free-form placement hint.
	Location *string `json:"location,omitempty"`

	// Description is optional free-form text about the device.
	Description *string `json:"description,omitempty"`

	// RegisteredAt is when the device first announced itself.
	RegisteredAt time.Time `json:"registered_at"`

	// LastSeenAt is the most recent registration or heartbeat time.
	// Drives the claim-window calculation.
	LastSeenAt time.Time `json:"last_seen_at"`

	// ClaimedAt is when ownership was established, or nil if unclaimed.
	ClaimedAt *time.Time `json:"claimed_at,omitempty"`

	// CreatedAt is the record creation timestamp.
	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt is the last modification timestamp.
	UpdatedAt time.Time `json:"updated_at"`
}

// Claimed reports whether the device has an owner.
func (d *Device) Claimed() bool {
	return d.OwnerID != nil
}

// ClaimMetadata carries the user-supplied fields recorded when a claim
// succeeds. VendorID is required; the rest are optional labels.
type ClaimMetadata struct {
	VendorID    string `json:"vendor_id"`
	Name        string `json:"name"`
	Location    string `json:"location"`
	Description string `json:"description"`
}
