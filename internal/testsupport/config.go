package testsupport

import (
	"path/filepath"
	"testing"

	"scribe/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Storage.Endpoint = "http://storage.test"
	cfg.Storage.Bucket = "test-bucket"
	cfg.Transcribe.Endpoint = "http://transcribe.test"
	cfg.Transcribe.DataAccessRole = "arn:aws:iam::000000000000:role/test"
	cfg.API.Bind = "127.0.0.1:0"

	for _, opt := range opts {
		opt(&cfg)
	}

	return &cfg
}

// WithStorageEndpoint points the test config at a fake object store.
func WithStorageEndpoint(endpoint string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Storage.Endpoint = endpoint
	}
}

// WithTranscribeEndpoint points the test config at a fake transcription service.
func WithTranscribeEndpoint(endpoint string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Transcribe.Endpoint = endpoint
	}
}
