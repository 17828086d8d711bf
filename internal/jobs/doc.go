// Package jobs persists submission attempts in a local SQLite ledger.
//
// Every state transition of the submission workflow is written through here
// so 'scribe jobs' can show history after the process exits and 'scribe jobs
// watch' can resume polling an in-flight job. The ledger mirrors, but never
// replaces, the remote service's view: remote statuses are recorded verbatim
// alongside the local lifecycle status.
package jobs
