// Package healthscribe talks to the remote medical-transcription service.
//
// The client covers the two operations the submission workflow needs:
// starting a transcription job and fetching its current status by name. Job
// statuses are polled, never cached; callers always see the service's view.
// The wire contract mirrors the service's job resource (PascalCase fields,
// Media/Settings/ChannelDefinitions shapes) so payloads round-trip untouched.
package healthscribe
