// Package credential handles issuance of device credentials from the
// external issuance service.
//
// Issuance happens after a claim has committed and is deliberately
// decoupled from it: the claim is durable whether or not the upstream
// call succeeds. A failed issuance leaves the device owned, and the
// owner re-requests the credential later. Callers must therefore treat
// ErrUpstream as "claim stands, credential pending", never as a reason
// to unwind ownership.
//
// HTTPIssuer retries transient upstream failures a bounded number of
// times with a doubling backoff before giving up. Responses that
// indicate the request itself is bad (4xx) are not retried.
package credential
