package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"scribe/internal/config"
)

func TestLoadDefaultConfigUsesEnvTokensAndExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("SCRIBE_STORAGE_TOKEN", "storage-token")
	t.Setenv("SCRIBE_API_TOKEN", "api-token")

	configPath := filepath.Join(tempHome, "scribe.toml")
	writeConfig(t, configPath, `
[storage]
endpoint = "https://storage.example.com"
bucket = "audio"

[transcribe]
endpoint = "https://transcribe.example.com"
data_access_role = "arn:aws:iam::123:role/scribe"
output_bucket = "results"
`)

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved != configPath {
		t.Fatalf("unexpected resolved path: %q", resolved)
	}
	if !exists {
		t.Fatal("expected config file to exist")
	}

	wantData := filepath.Join(tempHome, ".local", "share", "scribe")
	if cfg.Paths.DataDir != wantData {
		t.Fatalf("unexpected data dir: got %q want %q", cfg.Paths.DataDir, wantData)
	}
	if cfg.Storage.Token != "storage-token" {
		t.Fatalf("expected storage token from env, got %q", cfg.Storage.Token)
	}
	if cfg.Transcribe.Token != "api-token" {
		t.Fatalf("expected transcribe token from env, got %q", cfg.Transcribe.Token)
	}
	if cfg.Storage.PartSizeMiB != 8 {
		t.Fatalf("unexpected default part size: %d", cfg.Storage.PartSizeMiB)
	}
	if cfg.Workflow.PollInterval != 5 {
		t.Fatalf("unexpected poll interval: %d", cfg.Workflow.PollInterval)
	}
	if cfg.Workflow.MaxPolls != 360 {
		t.Fatalf("unexpected max polls: %d", cfg.Workflow.MaxPolls)
	}
	if cfg.API.Bind != "127.0.0.1:7583" {
		t.Fatalf("unexpected api bind: %q", cfg.API.Bind)
	}
	if cfg.LedgerPath() != filepath.Join(wantData, "jobs.db") {
		t.Fatalf("unexpected ledger path: %q", cfg.LedgerPath())
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{cfg.Paths.DataDir, cfg.Paths.LogDir} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
		if !info.IsDir() {
			t.Fatalf("expected %q to be directory", dir)
		}
	}
}

func TestLoadCustomValuesAndEndpointTrimming(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "scribe.toml")
	writeConfig(t, configPath, `
[storage]
endpoint = "https://storage.example.com/"
bucket = "audio"
part_size_mib = 16
token = "file-storage"

[transcribe]
endpoint = "https://transcribe.example.com/"
data_access_role = "arn:aws:iam::123:role/scribe"
output_bucket = "results"
token = "file-api"

[workflow]
poll_interval = 2
max_polls = 0

[logging]
format = "JSON"
level = "DEBUG"
`)

	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Storage.Endpoint != "https://storage.example.com" {
		t.Fatalf("expected trailing slash trimmed, got %q", cfg.Storage.Endpoint)
	}
	if cfg.Transcribe.Endpoint != "https://transcribe.example.com" {
		t.Fatalf("expected trailing slash trimmed, got %q", cfg.Transcribe.Endpoint)
	}
	if cfg.Storage.PartSizeMiB != 16 {
		t.Fatalf("expected part size override, got %d", cfg.Storage.PartSizeMiB)
	}
	if cfg.Workflow.PollInterval != 2 {
		t.Fatalf("expected poll interval override, got %d", cfg.Workflow.PollInterval)
	}
	if cfg.Workflow.MaxPolls != 0 {
		t.Fatalf("expected max_polls 0 preserved, got %d", cfg.Workflow.MaxPolls)
	}
	if cfg.Logging.Format != "json" {
		t.Fatalf("expected canonical json format, got %q", cfg.Logging.Format)
	}
	if cfg.Logging.Level != "debug" {
		t.Fatalf("expected lowered level, got %q", cfg.Logging.Level)
	}
}

func TestEnvVarOverridesConfigFileForTokens(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "scribe.toml")
	writeConfig(t, configPath, `
[storage]
endpoint = "https://storage.example.com"
bucket = "audio"

[transcribe]
endpoint = "https://transcribe.example.com"
data_access_role = "arn:aws:iam::123:role/scribe"
output_bucket = "results"
`)
	t.Setenv("SCRIBE_STORAGE_TOKEN", "env-storage")
	t.Setenv("SCRIBE_API_TOKEN", "env-api")

	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Storage.Token != "env-storage" {
		t.Errorf("expected storage token from env, got %q", cfg.Storage.Token)
	}
	if cfg.Transcribe.Token != "env-api" {
		t.Errorf("expected transcribe token from env, got %q", cfg.Transcribe.Token)
	}
}

func TestCreateSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(contents), "your_audio_bucket_here") {
		t.Fatalf("sample config missing placeholder bucket: %s", contents)
	}

	var cfg config.Config
	if err := toml.Unmarshal(contents, &cfg); err != nil {
		t.Fatalf("unmarshal sample: %v", err)
	}
	if cfg.Workflow.PollInterval != 5 {
		t.Fatalf("unexpected sample poll interval: %d", cfg.Workflow.PollInterval)
	}
}

func TestValidateDetectsInvalidValues(t *testing.T) {
	base := func() config.Config {
		cfg := config.Default()
		cfg.Storage.Endpoint = "https://storage.example.com"
		cfg.Storage.Bucket = "audio"
		cfg.Transcribe.Endpoint = "https://transcribe.example.com"
		cfg.Transcribe.DataAccessRole = "arn:aws:iam::123:role/scribe"
		cfg.Transcribe.OutputBucket = "results"
		return cfg
	}

	cfg := base()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}

	cfg = base()
	cfg.Storage.Bucket = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing bucket")
	}

	cfg = base()
	cfg.Storage.PartSizeMiB = 4
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for part size below minimum")
	}

	cfg = base()
	cfg.Transcribe.DataAccessRole = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing data access role")
	}

	cfg = base()
	cfg.Workflow.PollInterval = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for non-positive poll interval")
	}
}

func writeConfig(t *testing.T, path, body string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}
