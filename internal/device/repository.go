package device

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Repository defines the interface for device persistence operations.
// This abstraction allows for different implementations (SQLite, mock, etc.)
// and enables unit testing without database dependencies.
type Repository interface {
	// GetByID retrieves a device by its unique identifier.
	// Returns ErrDeviceNotFound if the device does not exist.
	GetByID(ctx context.Context, id string) (*Device, error)

	// Create inserts a new device.
	// Returns ErrDeviceExists if a device with the same ID already exists.
	Create(ctx context.Context, device *Device) error

	// Touch updates only the last-seen timestamp of a device. It never
	// modifies ownership or claim metadata.
	// Returns ErrDeviceNotFound if the device does not exist.
	Touch(ctx context.Context, id string, seenAt time.Time) error

	// ListByVendor retrieves all claimed devices for a vendor, ordered
	// by registration time.
	ListByVendor(ctx context.Context, vendorID string) ([]Device, error)

	// ClaimIfUnowned atomically assigns ownership if and only if the
	// device currently has no owner. The single conditional UPDATE is
	// the linearization point for claims: exactly one caller can win.
	//
	// Returns ErrDeviceNotFound if the device does not exist, or
	// ErrClaimConflict if an owner was set between the caller's read
	// and this write.
	ClaimIfUnowned(ctx context.Context, id, ownerID string, meta ClaimMetadata, claimedAt time.Time) error
}

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLite-backed repository.
// The db parameter should be an open SQLite connection.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// deviceColumns is the column list shared by every SELECT in this file.
const deviceColumns = `id, mac_address, owner_id, vendor_id, name, location, description,
	registered_at, last_seen_at, claimed_at, created_at, updated_at`

// GetByID retrieves a device by its unique identifier.
func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*Device, error) {
	query := `SELECT ` + deviceColumns + ` FROM devices WHERE id = ?`

	row := r.db.QueryRowContext(ctx, query, id)
	device, err := scanDevice(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrDeviceNotFound
		}
		return nil, fmt.Errorf("querying device by id: %w", err)
	}
	return device, nil
}

// Create inserts a new device.
func (r *SQLiteRepository) Create(ctx context.Context, device *Device) error {
	now := time.Now().UTC()
	device.CreatedAt = now
	device.UpdatedAt = now

	query := `
		INSERT INTO devices (
			id, mac_address, owner_id, vendor_id, name, location, description,
			registered_at, last_seen_at, claimed_at, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		device.ID,
		device.MACAddress,
		nullableString(device.OwnerID),
		nullableString(device.VendorID),
		nullableString(device.Name),
		nullableString(device.Location),
		nullableString(device.Description),
		device.RegisteredAt.UTC().Format(time.RFC3339),
		device.LastSeenAt.UTC().Format(time.RFC3339),
		nullableTime(device.ClaimedAt),
		device.CreatedAt.Format(time.RFC3339),
		device.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return ErrDeviceExists
		}
		return fmt.Errorf("creating device: %w", err)
	}
	return nil
}

// Touch updates the last-seen timestamp of a device.
//
// The statement writes last_seen_at and updated_at only. Ownership
// columns are untouched, so a heartbeat can never unwind a claim.
func (r *SQLiteRepository) Touch(ctx context.Context, id string, seenAt time.Time) error {
	query := `UPDATE devices SET last_seen_at = ?, updated_at = ? WHERE id = ?`

	result, err := r.db.ExecContext(ctx, query,
		seenAt.UTC().Format(time.RFC3339),
		time.Now().UTC().Format(time.RFC3339),
		id,
	)
	if err != nil {
		return fmt.Errorf("touching device: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking touch result: %w", err)
	}
	if rowsAffected == 0 {
		return ErrDeviceNotFound
	}
	return nil
}

// ListByVendor retrieves all claimed devices for a vendor, ordered by
// registration time (oldest first, id as a stable tiebreak).
func (r *SQLiteRepository) ListByVendor(ctx context.Context, vendorID string) ([]Device, error) {
	query := `SELECT ` + deviceColumns + `
		FROM devices
		WHERE vendor_id = ?
		ORDER BY registered_at, id`

	return r.queryDevices(ctx, query, vendorID)
}

// ClaimIfUnowned atomically assigns ownership of an unclaimed device.
//
// The WHERE clause carries the entire race protection: the owner is
// written only if owner_id is still NULL when the update executes.
// Under concurrent claims exactly one statement matches the row; the
// rest match zero rows and report ErrClaimConflict. There is no
// read-modify-write gap to exploit.
func (r *SQLiteRepository) ClaimIfUnowned(ctx context.Context, id, ownerID string, meta ClaimMetadata, claimedAt time.Time) error {
	query := `
		UPDATE devices
		SET owner_id = ?, vendor_id = ?, name = ?, location = ?, description = ?,
			claimed_at = ?, updated_at = ?
		WHERE id = ? AND owner_id IS NULL`

	result, err := r.db.ExecContext(ctx, query,
		ownerID,
		meta.VendorID,
		emptyToNull(meta.Name),
		emptyToNull(meta.Location),
		emptyToNull(meta.Description),
		claimedAt.UTC().Format(time.RFC3339),
		time.Now().UTC().Format(time.RFC3339),
		id,
	)
	if err != nil {
		return fmt.Errorf("claiming device: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking claim result: %w", err)
	}
	if rowsAffected == 1 {
		return nil
	}

	// Zero rows: either the device never existed or someone else owns
	// it now. Distinguish so callers can report the right outcome.
	exists, err := r.exists(ctx, id)
	if err != nil {
		return err
	}
	if !exists {
		return ErrDeviceNotFound
	}
	return ErrClaimConflict
}

// queryDevices executes a query and scans the results into devices.
func (r *SQLiteRepository) queryDevices(ctx context.Context, query string, args ...any) ([]Device, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying devices: %w", err)
	}
	defer rows.Close()

	var devices []Device
	for rows.Next() {
		device, err := scanDeviceRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning device: %w", err)
		}
		devices = append(devices, *device)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating devices: %w", err)
	}

	return devices, nil
}

// exists checks if a device with the given ID exists.
func (r *SQLiteRepository) exists(ctx context.Context, id string) (bool, error) {
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM devices WHERE id = ?", id).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("checking device exists: %w", err)
	}
	return count > 0, nil
}

// rowScanner is an interface that sql.Row and sql.Rows both implement.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanDevice scans a single row into a Device.
func scanDevice(row *sql.Row) (*Device, error) {
	return scanDeviceRow(row)
}

// scanDeviceRow scans a row or rows result into a Device.
func scanDeviceRow(scanner rowScanner) (*Device, error) {
	var d Device
	var ownerID, vendorID, name, location, description sql.NullString
	var claimedAt sql.NullString
	var registeredAt, lastSeenAt, createdAt, updatedAt string

	err := scanner.Scan(
		&d.ID,
		&d.MACAddress,
		&ownerID,
		&vendorID,
		&name,
		&location,
		&description,
		&registeredAt,
		&lastSeenAt,
		&claimedAt,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	// Set nullable strings
	if ownerID.Valid {
		d.OwnerID = &ownerID.String
	}
	if vendorID.Valid {
		d.VendorID = &vendorID.String
	}
	if name.Valid {
		d.Name = &name.String
	}
	if location.Valid {
		d.Location = &location.String
	}
	if description.Valid {
		d.Description = &description.String
	}

	// Parse timestamps
	var parseErr error
	d.RegisteredAt, parseErr = time.Parse(time.RFC3339, registeredAt)
	if parseErr != nil {
		return nil, fmt.Errorf("parsing registered_at: %w", parseErr)
	}
	d.LastSeenAt, parseErr = time.Parse(time.RFC3339, lastSeenAt)
	if parseErr != nil {
		return nil, fmt.Errorf("parsing last_seen_at: %w", parseErr)
	}
	d.CreatedAt, parseErr = time.Parse(time.RFC3339, createdAt)
	if parseErr != nil {
		return nil, fmt.Errorf("parsing created_at: %w", parseErr)
	}
	d.UpdatedAt, parseErr = time.Parse(time.RFC3339, updatedAt)
	if parseErr != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", parseErr)
	}
	if claimedAt.Valid {
		t, err := time.Parse(time.RFC3339, claimedAt.String)
		if err != nil {
			return nil, fmt.Errorf("parsing claimed_at: %w", err)
		}
		d.ClaimedAt = &t
	}

	return &d, nil
}

// nullableString returns a sql.NullString for optional string pointers.
func nullableString(s *string) sql.NullString {
	if s == nil || *s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

// emptyToNull stores empty strings as NULL.
func emptyToNull(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// nullableTime returns a sql.NullString for optional time pointers (as RFC3339 strings).
func nullableTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: t.UTC().Format(time.RFC3339), Valid: true}
}

// isUniqueConstraintError checks if an error is a SQLite unique constraint violation.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "unique constraint")
}
