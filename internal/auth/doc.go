// Package auth verifies the bearer tokens presented on claim and
// vendor endpoints.
//
// Tokens are minted by the external identity service and verified here
// by HS256 signature against a shared secret. There is no user store in
// this service: the token's subject is the user id, and the vendor_id
// claim scopes vendor listing endpoints. GenerateToken exists for
// development tooling and tests; production tokens always come from
// the identity service.
package auth
