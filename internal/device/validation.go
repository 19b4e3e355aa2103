package device

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// Validation limits. Free-form fields are bounded to prevent oversized
// records from unauthenticated or lightly-authenticated callers.
const (
	maxNameLen        = 100
	maxLocationLen    = 200
	maxDescriptionLen = 500
	maxVendorIDLen    = 64
)

// macAddressPattern matches six colon- or hyphen-separated hex octets.
var macAddressPattern = regexp.MustCompile(`^([0-9A-Fa-f]{2}[:-]){5}[0-9A-Fa-f]{2}$`)

// vendorIDPattern restricts vendor identifiers to a URL- and
// topic-safe alphabet (vendor ids appear in query strings and
// event topics).
var vendorIDPattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9_-]*$`)

// idPrefix marks identifiers generated by this service.
const idPrefix = "dev-"

// GenerateID creates a new unique device identifier.
func GenerateID() string {
	return idPrefix + uuid.NewString()
}

// ValidateID checks that an identifier has the shape this service
// generates. Returns ErrInvalidID on failure.
//
// A malformed id is a validation error, not a lookup miss; callers
// should map it to a bad-request outcome rather than not-found.
func ValidateID(id string) error {
	rest, ok := strings.CutPrefix(id, idPrefix)
	if !ok {
		return fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	if _, err := uuid.Parse(rest); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	return nil
}

// ValidateMACAddress checks that a MAC address is six hex octets
// separated by colons or hyphens. Returns ErrInvalidMACAddress on
// failure.
func ValidateMACAddress(mac string) error {
	if mac == "" {
		return fmt.Errorf("%w: mac address is required", ErrInvalidMACAddress)
	}
	if !macAddressPattern.MatchString(mac) {
		return fmt.Errorf("%w: %q", ErrInvalidMACAddress, mac)
	}
	return nil
}

// NormaliseMACAddress canonicalises a MAC address to lowercase with
// colon separators. Call after ValidateMACAddress.
func NormaliseMACAddress(mac string) string {
	return strings.ToLower(strings.ReplaceAll(mac, "-", ":"))
}

// ValidateClaimMetadata checks the user-supplied claim fields.
// VendorID is required; the remaining fields are optional but bounded.
// Returns ErrInvalidMetadata describing the first failure found.
func ValidateClaimMetadata(meta ClaimMetadata) error {
	if meta.VendorID == "" {
		return fmt.Errorf("%w: vendor_id is required", ErrInvalidMetadata)
	}
	if len(meta.VendorID) > maxVendorIDLen {
		return fmt.Errorf("%w: vendor_id exceeds %d characters", ErrInvalidMetadata, maxVendorIDLen)
	}
	if !vendorIDPattern.MatchString(meta.VendorID) {
		return fmt.Errorf("%w: vendor_id contains invalid characters", ErrInvalidMetadata)
	}
	if len(meta.Name) > maxNameLen {
		return fmt.Errorf("%w: name exceeds %d characters", ErrInvalidMetadata, maxNameLen)
	}
	if len(meta.Location) > maxLocationLen {
		return fmt.Errorf("%w: location exceeds %d characters", ErrInvalidMetadata, maxLocationLen)
	}
	if len(meta.Description) > maxDescriptionLen {
		return fmt.Errorf("%w: description exceeds %d characters", ErrInvalidMetadata, maxDescriptionLen)
	}
	return nil
}
