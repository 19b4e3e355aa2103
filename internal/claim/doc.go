// Package claim orchestrates ownership claims over registered devices.
//
// # Claim flow
//
//	read record ──> window check ──> conditional update ──> issuance
//	                    │                   │
//	                    │                   └─ conflict: re-read once,
//	                    │                      then AlreadyClaimed
//	                    └─ owned: AlreadyClaimed
//	                       stale: WindowExpired
//
// The window check is advisory; the conditional update in the device
// repository is the real arbiter. Two users can both pass the check,
// but only one update matches the unowned row. The loser re-reads the
// record once (in case the winner's transaction vanished between the
// read and the write, which cannot actually resurrect an unowned row)
// and then reports AlreadyClaimed.
//
// # Issuance
//
// Credential issuance runs after the ownership write has committed and
// never influences it. A claim whose issuance fails is still a claim:
// the result carries the issuance error separately so the transport
// layer can report "claimed, credential pending" rather than unwinding
// anything. The owner retries through RequestCredential.
package claim
