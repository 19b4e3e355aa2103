package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/devclaim/internal/audit"
	"github.com/nerrad567/devclaim/internal/claim"
	"github.com/nerrad567/devclaim/internal/credential"
	"github.com/nerrad567/devclaim/internal/device"
)

// registerRequest is the body for POST /devices/register.
// DeviceID is empty on first contact and set on heartbeats.
type registerRequest struct {
	DeviceID   string `json:"device_id"`
	MACAddress string `json:"mac_address"`
}

// registerResponse is the body returned for registrations and heartbeats.
type registerResponse struct {
	DeviceID        string `json:"device_id"`
	Claimable       bool   `json:"claimable"`
	ClaimTTLSeconds int    `json:"claim_ttl_seconds"`
}

// claimRequest is the body for POST /devices/{id}/claim.
type claimRequest struct {
	VendorID    string `json:"vendor_id"`
	Name        string `json:"name"`
	Location    string `json:"location"`
	Description string `json:"description"`
}

// deviceResponse wraps a device record with its derived claimability.
type deviceResponse struct {
	*device.Device
	Claimable bool `json:"claimable"`
}

// handleRegisterDevice handles device registration and heartbeats.
//
// No authentication: a factory-fresh device knows nothing but its MAC
// address. The response tells the device its id and whether it is
// currently claimable.
func (s *Server) handleRegisterDevice(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	result, err := s.registry.Register(r.Context(), req.DeviceID, req.MACAddress)
	if err != nil {
		switch {
		case errors.Is(err, device.ErrInvalidMACAddress), errors.Is(err, device.ErrInvalidID):
			writeBadRequest(w, err.Error())
		case errors.Is(err, device.ErrDeviceNotFound):
			writeNotFound(w, "device not found")
		default:
			s.logger.Error("registration failed", "error", err)
			writeInternalError(w, "registration failed")
		}
		return
	}

	status := http.StatusOK
	kind := "heartbeat"
	if result.Created {
		status = http.StatusCreated
		kind = "registered"
		s.recordAudit(r, audit.ActionRegister, result.ID, "", map[string]any{
			"mac_address": req.MACAddress,
		})
	}
	if s.telemetry != nil {
		s.telemetry.WriteRegistration(result.ID, kind)
	}

	writeJSON(w, status, registerResponse{
		DeviceID:        result.ID,
		Claimable:       result.Claimable,
		ClaimTTLSeconds: int(s.registry.TTL().Seconds()),
	})
}

// handleGetDevice returns a device record with derived claimability.
func (s *Server) handleGetDevice(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	d, err := s.registry.GetDevice(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, device.ErrInvalidID):
			writeBadRequest(w, err.Error())
		case errors.Is(err, device.ErrDeviceNotFound):
			writeNotFound(w, "device not found")
		default:
			s.logger.Error("fetching device", "id", id, "error", err)
			writeInternalError(w, "fetching device failed")
		}
		return
	}

	writeJSON(w, http.StatusOK, deviceResponse{
		Device:    d,
		Claimable: device.Claimable(d, time.Now().UTC(), s.registry.TTL()),
	})
}

// handleClaimDevice handles POST /devices/{id}/claim.
//
// Outcome mapping:
//   - 200: claimed, credential attached
//   - 502: claimed, but issuance failed (claim stands; retry via the
//     credential endpoint)
//   - 404/409/410/400: claim failed for the usual reasons
func (s *Server) handleClaimDevice(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	claims := claimsFromContext(r.Context())
	if claims == nil {
		writeUnauthorized(w, "authentication required")
		return
	}

	var req claimRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	start := time.Now()
	result, err := s.coordinator.Claim(r.Context(), claim.Request{
		DeviceID: id,
		UserID:   claims.Subject,
		Metadata: device.ClaimMetadata{
			VendorID:    req.VendorID,
			Name:        req.Name,
			Location:    req.Location,
			Description: req.Description,
		},
	})
	if err != nil {
		s.writeClaimFailure(w, r, id, claims.Subject, req.VendorID, err)
		return
	}

	s.recordAudit(r, audit.ActionClaim, id, claims.Subject, map[string]any{
		"vendor_id": req.VendorID,
	})
	if s.telemetry != nil {
		s.telemetry.WriteClaimOutcome(id, req.VendorID, "claimed")
		s.telemetry.WriteIssuanceLatency(id, time.Since(start), result.IssuanceErr == nil)
	}

	if result.IssuanceErr != nil {
		writeJSON(w, http.StatusBadGateway, map[string]any{
			"status":  http.StatusBadGateway,
			"code":    ErrCodeUpstream,
			"message": "device claimed but credential issuance failed; re-request via the credential endpoint",
			"claimed": true,
			"device":  result.Device,
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"device":     result.Device,
		"credential": result.Credential,
	})
}

// writeClaimFailure maps claim errors onto HTTP responses and records
// the denial.
func (s *Server) writeClaimFailure(w http.ResponseWriter, r *http.Request, id, userID, vendorID string, err error) {
	outcome := ""
	switch {
	case errors.Is(err, device.ErrInvalidID), errors.Is(err, device.ErrInvalidMetadata):
		writeBadRequest(w, err.Error())
		return
	case errors.Is(err, device.ErrDeviceNotFound):
		writeNotFound(w, "device not found")
		return
	case errors.Is(err, claim.ErrAlreadyClaimed):
		outcome = "already_claimed"
		writeError(w, http.StatusConflict, ErrCodeConflict, "device already claimed")
	case errors.Is(err, claim.ErrWindowExpired):
		outcome = "expired"
		writeError(w, http.StatusGone, ErrCodeGone, "claim window expired; device must heartbeat again")
	default:
		s.logger.Error("claim failed", "device_id", id, "error", err)
		writeInternalError(w, "claim failed")
		return
	}

	s.recordAudit(r, audit.ActionClaimDenied, id, userID, map[string]any{
		"vendor_id": vendorID,
		"reason":    outcome,
	})
	if s.telemetry != nil {
		s.telemetry.WriteClaimOutcome(id, vendorID, outcome)
	}
}

// handleRequestCredential handles POST /devices/{id}/credential.
// The recovery path when issuance failed during the original claim.
func (s *Server) handleRequestCredential(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	claims := claimsFromContext(r.Context())
	if claims == nil {
		writeUnauthorized(w, "authentication required")
		return
	}

	start := time.Now()
	cred, err := s.coordinator.RequestCredential(r.Context(), id, claims.Subject)
	if err != nil {
		if s.telemetry != nil && (errors.Is(err, credential.ErrUpstream) || errors.Is(err, credential.ErrRejected)) {
			s.telemetry.WriteIssuanceLatency(id, time.Since(start), false)
		}
		switch {
		case errors.Is(err, device.ErrInvalidID):
			writeBadRequest(w, err.Error())
		case errors.Is(err, device.ErrDeviceNotFound):
			writeNotFound(w, "device not found")
		case errors.Is(err, claim.ErrNotClaimed):
			writeError(w, http.StatusConflict, ErrCodeConflict, "device has not been claimed")
		case errors.Is(err, claim.ErrNotOwner):
			writeError(w, http.StatusForbidden, ErrCodeForbidden, "only the device owner may request its credential")
		case errors.Is(err, credential.ErrUpstream), errors.Is(err, credential.ErrRejected):
			writeError(w, http.StatusBadGateway, ErrCodeUpstream, "credential issuance failed")
		default:
			s.logger.Error("credential request failed", "device_id", id, "error", err)
			writeInternalError(w, "credential request failed")
		}
		return
	}

	s.recordAudit(r, audit.ActionCredential, id, claims.Subject, nil)
	if s.telemetry != nil {
		s.telemetry.WriteIssuanceLatency(id, time.Since(start), true)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"credential": cred,
	})
}

// handleListDevices returns the devices claimed under a vendor, in
// registration order. The vendor comes from the vendor_id query
// parameter, falling back to the token's vendor scope.
func (s *Server) handleListDevices(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())
	if claims == nil {
		writeUnauthorized(w, "authentication required")
		return
	}

	vendorID := r.URL.Query().Get("vendor_id")
	if vendorID == "" {
		vendorID = claims.VendorID
	}
	if vendorID == "" {
		writeBadRequest(w, "vendor_id is required")
		return
	}

	devices, err := s.registry.ListByVendor(r.Context(), vendorID)
	if err != nil {
		s.logger.Error("listing devices", "vendor_id", vendorID, "error", err)
		writeInternalError(w, "listing devices failed")
		return
	}

	items := make([]deviceResponse, 0, len(devices))
	for i := range devices {
		items = append(items, deviceResponse{Device: &devices[i], Claimable: false})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"devices": items,
		"count":   len(items),
	})
}

// handleListAuditLogs returns the audit trail, filtered and paginated.
func (s *Server) handleListAuditLogs(w http.ResponseWriter, r *http.Request) {
	if s.auditRepo == nil {
		writeError(w, http.StatusServiceUnavailable, ErrCodeInternal, "audit trail not configured")
		return
	}

	q := r.URL.Query()
	filter := audit.Filter{
		Action:   q.Get("action"),
		DeviceID: q.Get("device_id"),
		UserID:   q.Get("user_id"),
	}
	if v := q.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			filter.Limit = n
		}
	}
	if v := q.Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			filter.Offset = n
		}
	}

	result, err := s.auditRepo.List(r.Context(), filter)
	if err != nil {
		s.logger.Error("listing audit logs", "error", err)
		writeInternalError(w, "listing audit logs failed")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// recordAudit writes an audit entry, logging failures rather than
// surfacing them; the audit trail never blocks the request path.
func (s *Server) recordAudit(r *http.Request, action, deviceID, userID string, details map[string]any) {
	if s.auditRepo == nil {
		return
	}

	entry := &audit.AuditLog{
		Action:   action,
		DeviceID: deviceID,
		UserID:   userID,
		Source:   "api",
		Details:  details,
	}
	if err := s.auditRepo.Create(r.Context(), entry); err != nil {
		s.logger.Warn("writing audit entry", "action", action, "error", err)
	}
}
