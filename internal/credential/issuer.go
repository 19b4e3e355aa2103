package credential

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/nerrad567/devclaim/internal/infrastructure/config"
)

// Domain-specific errors for credential issuance.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrUpstream is returned when the issuance service is unreachable
	// or keeps failing after all retry attempts. The claim that
	// triggered issuance remains valid.
	ErrUpstream = errors.New("credential: issuance service unavailable")

	// ErrRejected is returned when the issuance service rejects the
	// request outright (4xx). Retrying will not help.
	ErrRejected = errors.New("credential: issuance request rejected")
)

// Credential is a device credential minted by the issuance service.
// The material is opaque to this service; it is handed to the claimant
// without inspection.
type Credential struct {
	ID          string     `json:"id"`
	DeviceID    string     `json:"device_id"`
	VendorID    string     `json:"vendor_id"`
	Certificate string     `json:"certificate"`
	IssuedAt    time.Time  `json:"issued_at"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
}

// Issuer requests credentials for claimed devices.
type Issuer interface {
	// Issue requests a credential for the device under the given vendor
	// and owner. Returns ErrUpstream after exhausting retries, or
	// ErrRejected for a non-retryable upstream refusal.
	Issue(ctx context.Context, deviceID, vendorID, ownerID string) (*Credential, error)
}

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

// maxResponseSize bounds issuance response bodies.
const maxResponseSize = 1 << 20 // 1 MiB

// HTTPIssuer talks to the issuance service over HTTP.
type HTTPIssuer struct {
	url         string
	apiKey      string
	client      *http.Client
	maxAttempts int
	backoff     time.Duration
	logger      Logger
}

// NewHTTPIssuer creates an issuer from configuration.
func NewHTTPIssuer(cfg config.IssuerConfig) *HTTPIssuer {
	return &HTTPIssuer{
		url:    cfg.URL,
		apiKey: cfg.APIKey,
		client: &http.Client{
			Timeout: time.Duration(cfg.Timeout) * time.Second,
		},
		maxAttempts: cfg.MaxAttempts,
		backoff:     time.Duration(cfg.BackoffMS) * time.Millisecond,
		logger:      noopLogger{},
	}
}

// SetLogger sets the logger for the issuer.
func (i *HTTPIssuer) SetLogger(logger Logger) {
	i.logger = logger
}

// issueRequest is the wire format sent to the issuance service.
type issueRequest struct {
	DeviceID string `json:"device_id"`
	VendorID string `json:"vendor_id"`
	OwnerID  string `json:"owner_id"`
}

// Issue requests a credential, retrying transient failures.
//
// Retry policy: up to maxAttempts tries with a doubling backoff
// starting at the configured initial delay. Network errors and 5xx
// responses are retried; 4xx responses are not. The context cancels
// both in-flight requests and backoff waits.
func (i *HTTPIssuer) Issue(ctx context.Context, deviceID, vendorID, ownerID string) (*Credential, error) {
	body, err := json.Marshal(issueRequest{
		DeviceID: deviceID,
		VendorID: vendorID,
		OwnerID:  ownerID,
	})
	if err != nil {
		return nil, fmt.Errorf("encoding issuance request: %w", err)
	}

	var lastErr error
	backoff := i.backoff
	for attempt := 1; attempt <= i.maxAttempts; attempt++ {
		if attempt > 1 {
			i.logger.Warn("retrying credential issuance",
				"device_id", deviceID, "attempt", attempt, "backoff", backoff)
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, fmt.Errorf("%w: %w", ErrUpstream, ctx.Err())
			}
			backoff *= 2
		}

		cred, retryable, err := i.attempt(ctx, body)
		if err == nil {
			i.logger.Info("credential issued", "device_id", deviceID, "credential_id", cred.ID)
			return cred, nil
		}
		if !retryable {
			return nil, err
		}
		lastErr = err
	}

	i.logger.Error("credential issuance exhausted retries",
		"device_id", deviceID, "attempts", i.maxAttempts, "error", lastErr)
	return nil, fmt.Errorf("%w: after %d attempts: %w", ErrUpstream, i.maxAttempts, lastErr)
}

// attempt performs a single issuance request. The second return value
// reports whether the failure is worth retrying.
func (i *HTTPIssuer) attempt(ctx context.Context, body []byte) (*Credential, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, i.url, bytes.NewReader(body))
	if err != nil {
		return nil, false, fmt.Errorf("building issuance request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if i.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+i.apiKey)
	}

	resp, err := i.client.Do(req)
	if err != nil {
		return nil, true, fmt.Errorf("issuance request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		var cred Credential
		if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseSize)).Decode(&cred); err != nil {
			return nil, true, fmt.Errorf("decoding issuance response: %w", err)
		}
		return &cred, false, nil
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return nil, false, fmt.Errorf("%w: status %d", ErrRejected, resp.StatusCode)
	default:
		return nil, true, fmt.Errorf("issuance service returned status %d", resp.StatusCode)
	}
}
