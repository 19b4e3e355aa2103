// Package device implements the device registry: the record of every
// hardware unit that has announced itself to the platform, who owns it,
// and whether it can still be claimed.
//
// # Lifecycle
//
// A device enters the system through registration (no authentication;
// the device only knows its own MAC address). It then heartbeats on the
// same endpoint to stay visible. An unclaimed device is claimable only
// while its last heartbeat is recent; once the claim window lapses the
// device must heartbeat again before anyone can take ownership.
//
//	register ──> unclaimed ──(heartbeat)──> unclaimed
//	                 │
//	                 └──(claim, window open)──> owned (terminal)
//
// Ownership is a one-way transition. owner_id moves from NULL to a user
// id exactly once, enforced by a conditional UPDATE in the repository,
// and is never cleared or reassigned by any operation in this package.
//
// # Claimability
//
// Claimability is never stored. It is derived on every read from the
// owner_id column and the last_seen_at timestamp (see Claimable). This
// keeps the window decision honest: there is no cached flag that can go
// stale between a heartbeat and a claim attempt.
//
// # Components
//
//   - Device: the registry record
//   - Repository: persistence interface (SQLite implementation included)
//   - Registry: registration and read-side business logic
//
// Claim orchestration lives in the claim package; this package only
// provides the conditional-update primitive it builds on.
package device
