// Command scribe submits audio to a transcription service and tracks the
// resulting jobs.
package main
