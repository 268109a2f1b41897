// Package auth resolves the acting party on each request.
//
// Operators authenticate with an HS256 bearer token carrying a role and the
// party they act for. The HTTP layer verifies the token and places the
// resulting Actor into the request context; the core re-checks
// data-dependent authorization (such as visit ownership) regardless of the
// transport-level role gate.
package auth
