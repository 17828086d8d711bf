// Package config loads, normalizes, and validates scribe configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// SCRIBE_STORAGE_TOKEN and SCRIBE_API_TOKEN. The Config type centralizes every
// knob the CLI and API server need, so storage endpoints, transcription
// credentials, and polling cadence are discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
