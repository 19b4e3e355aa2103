package audit

import (
	"context"
	"database/sql"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// setupTestDB creates an in-memory SQLite database with the audit schema.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("opening database: %v", err)
	}
	t.Cleanup(func() {
		db.Close() //nolint:errcheck // Test cleanup
	})
	db.SetMaxOpenConns(1)

	schema := `
		CREATE TABLE audit_logs (
			id TEXT PRIMARY KEY,
			action TEXT NOT NULL,
			device_id TEXT,
			user_id TEXT,
			source TEXT NOT NULL,
			details TEXT,
			created_at TEXT NOT NULL
		) STRICT;`

	if _, err := db.Exec(schema); err != nil {
		t.Fatalf("creating schema: %v", err)
	}
	return db
}

// TestRepository_CreateAndList verifies round-tripping entries.
func TestRepository_CreateAndList(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))
	ctx := context.Background()

	entry := &AuditLog{
		Action:   ActionClaim,
		DeviceID: "dev-123",
		UserID:   "user-1",
		Source:   "api",
		Details:  map[string]any{"vendor_id": "acme"},
	}
	if err := repo.Create(ctx, entry); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if entry.ID == "" {
		t.Error("ID should be generated")
	}
	if entry.CreatedAt.IsZero() {
		t.Error("CreatedAt should be set")
	}

	result, err := repo.List(ctx, Filter{})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if result.Total != 1 || len(result.Logs) != 1 {
		t.Fatalf("Total = %d, len = %d, want 1/1", result.Total, len(result.Logs))
	}

	got := result.Logs[0]
	if got.Action != ActionClaim {
		t.Errorf("Action = %q, want %q", got.Action, ActionClaim)
	}
	if got.DeviceID != "dev-123" || got.UserID != "user-1" {
		t.Errorf("DeviceID/UserID = %q/%q", got.DeviceID, got.UserID)
	}
	if got.Details["vendor_id"] != "acme" {
		t.Errorf("Details = %v, want vendor_id=acme", got.Details)
	}
}

// TestRepository_List_Filters verifies filtering and pagination.
func TestRepository_List_Filters(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))
	ctx := context.Background()

	base := time.Date(2026, 8, 15, 9, 0, 0, 0, time.UTC)
	entries := []*AuditLog{
		{Action: ActionRegister, DeviceID: "dev-1", Source: "api", CreatedAt: base},
		{Action: ActionClaim, DeviceID: "dev-1", UserID: "user-1", Source: "api", CreatedAt: base.Add(time.Minute)},
		{Action: ActionClaim, DeviceID: "dev-2", UserID: "user-2", Source: "api", CreatedAt: base.Add(2 * time.Minute)},
		{Action: ActionClaimDenied, DeviceID: "dev-1", UserID: "user-2", Source: "api", CreatedAt: base.Add(3 * time.Minute)},
	}
	for _, e := range entries {
		if err := repo.Create(ctx, e); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}

	t.Run("by action", func(t *testing.T) {
		result, err := repo.List(ctx, Filter{Action: ActionClaim})
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		if result.Total != 2 {
			t.Errorf("Total = %d, want 2", result.Total)
		}
	})

	t.Run("by device", func(t *testing.T) {
		result, err := repo.List(ctx, Filter{DeviceID: "dev-1"})
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		if result.Total != 3 {
			t.Errorf("Total = %d, want 3", result.Total)
		}
	})

	t.Run("by user and action", func(t *testing.T) {
		result, err := repo.List(ctx, Filter{UserID: "user-2", Action: ActionClaim})
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		if result.Total != 1 {
			t.Errorf("Total = %d, want 1", result.Total)
		}
	})

	t.Run("most recent first", func(t *testing.T) {
		result, err := repo.List(ctx, Filter{})
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		if len(result.Logs) != 4 {
			t.Fatalf("len = %d, want 4", len(result.Logs))
		}
		if result.Logs[0].Action != ActionClaimDenied {
			t.Errorf("Logs[0].Action = %q, want most recent entry first", result.Logs[0].Action)
		}
	})

	t.Run("pagination", func(t *testing.T) {
		result, err := repo.List(ctx, Filter{Limit: 2, Offset: 2})
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		if result.Total != 4 {
			t.Errorf("Total = %d, want 4", result.Total)
		}
		if len(result.Logs) != 2 {
			t.Errorf("len = %d, want 2", len(result.Logs))
		}
	})
}
