package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type cliTestEnv struct {
	baseDir    string
	configPath string
	dataDir    string
}

type cliConfig struct {
	storageEndpoint    string
	transcribeEndpoint string
	pollInterval       int
	maxPolls           int
}

func setupCLITestEnv(t *testing.T, opts cliConfig) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	homeDir := filepath.Join(base, "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)

	if opts.storageEndpoint == "" {
		opts.storageEndpoint = "http://storage.test"
	}
	if opts.transcribeEndpoint == "" {
		opts.transcribeEndpoint = "http://transcribe.test"
	}
	if opts.pollInterval <= 0 {
		opts.pollInterval = 1
	}

	dataDir := filepath.Join(base, "data")
	logDir := filepath.Join(base, "logs")
	configPath := filepath.Join(homeDir, ".config", "scribe", "config.toml")
	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		t.Fatalf("mkdir config dir: %v", err)
	}

	content := fmt.Sprintf(`[paths]
data_dir = %q
log_dir = %q

[storage]
endpoint = %q
bucket = "test-bucket"
token = "storage-token"

[transcribe]
endpoint = %q
token = "transcribe-token"
data_access_role = "arn:aws:iam::000000000000:role/test"
output_bucket = "test-output"

[workflow]
poll_interval = %d
max_polls = %d
completion_pause_ms = 0

[api]
bind = "127.0.0.1:0"
`, dataDir, logDir, opts.storageEndpoint, opts.transcribeEndpoint, opts.pollInterval, opts.maxPolls)

	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	return &cliTestEnv{
		baseDir:    base,
		configPath: configPath,
		dataDir:    dataDir,
	}
}

func runCLI(t *testing.T, env *cliTestEnv, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{"--config", env.configPath}, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
