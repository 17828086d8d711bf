// Package audioanalysis builds and validates the audio-analysis parameters of
// a transcription job.
//
// A Selection captures the user's choice between the two analysis modes:
// speaker partitioning (diarization with a maximum speaker count) and channel
// identification (a two-channel recording with clinician and patient on
// opposite channels). Validation is pure and runs before any network call;
// a rejected selection never reaches the upload or submission phases.
package audioanalysis
