// Package database provides SQLite connection management for devclaim.
//
// This package manages:
//   - Opening the database with WAL mode and busy timeout pragmas
//   - Embedded schema migrations (see the migrations package)
//   - Health checks and connection pool statistics
//
// The connection pool is pinned to a single connection. SQLite only
// supports one writer, and the claim path's conditional UPDATE depends on
// writes to a device row being serialised; a single connection gives both.
//
// Usage:
//
//	db, err := database.Open(ctx, database.Config{
//	    Path:        cfg.Database.Path,
//	    WALMode:     true,
//	    BusyTimeout: 5,
//	})
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx); err != nil {
//	    return err
//	}
package database
