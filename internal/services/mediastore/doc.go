// Package mediastore uploads audio payloads to the configured object-storage
// bucket.
//
// Small payloads go up as a single PUT; anything larger than one part size
// uses the storage service's multipart protocol (initiate, upload parts,
// complete) and is aborted server-side when any part fails. Progress is
// reported through a per-part callback with monotonically non-decreasing
// (loaded, part, total) tuples, which the workflow converts to notification
// percentages.
package mediastore
