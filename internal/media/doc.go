// Package media models the audio payload a submission carries.
//
// A Source is a tagged union over the two ways audio reaches scribe: a file
// selected from disk or a capture recorded from a live stream. The zero value
// is None, which the workflow rejects before any network call. Content types
// are derived from file extensions so the storage client can set upload
// headers without probing payload bytes.
package media
