// Package api serves read-only JSON views over the job ledger.
//
// The server is not a submission surface; submissions stay CLI-driven. It
// exposes health, the job list, and single-job lookups, optionally behind a
// bearer token.
package api
