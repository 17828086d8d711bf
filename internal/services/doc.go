// Package services defines shared utilities consumed by the submission
// workflow and the remote service clients.
//
// Key responsibilities:
//   - Context helpers that stamp job names, submission phases, and correlation
//     identifiers for logging and tracing.
//   - Structured error markers plus the Wrap helper that keep failure
//     classification consistent (validation vs external vs timeout).
//
// Use these helpers when wiring new workflow logic so operational behaviour
// (error handling, observability) stays uniform across the pipeline.
package services
