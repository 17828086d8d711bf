// Package workflow drives a submission from local audio to a terminal state.
//
// The Submitter runs one sequential pipeline per submission: validate the
// request, upload the payload, create the remote job, then poll its status at
// a fixed cadence until it completes or fails. Every transition is written to
// the job ledger and mirrored to the notification sink; terminal outcomes go
// out through the push service as well. Concurrent submissions are refused by
// a file lock plus an in-process flag.
//
// A run that cannot confirm its job (the creation response carried no
// recognizable status) ends in the unconfirmed state without polling. Polling
// is bounded by workflow.max_polls and honors context cancellation at every
// suspend point.
package workflow
