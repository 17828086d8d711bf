// Package notifications carries submission progress to its consumers.
//
// The Hub is the in-process progress sink: an ordered collection of entries
// keyed by ID with upsert-by-ID semantics, a monotonic clamp for info-type
// values, and channel-based subscriptions so the CLI can render progress
// live. The ntfy Service mirrors terminal outcomes (submitted, completed,
// unconfirmed, failed) to a configured push topic and degrades to a no-op
// when notifications are disabled.
//
// All workflow code depends only on the small Sink and Service interfaces.
package notifications
