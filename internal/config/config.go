package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains local directory configuration.
type Paths struct {
	DataDir string `toml:"data_dir"`
	LogDir  string `toml:"log_dir"`
}

// Storage contains configuration for the object-storage service that holds
// uploaded audio payloads.
type Storage struct {
	Endpoint       string `toml:"endpoint"`
	Bucket         string `toml:"bucket"`
	Region         string `toml:"region"`
	Token          string `toml:"token"`
	PartSizeMiB    int    `toml:"part_size_mib"`
	RequestTimeout int    `toml:"request_timeout"`
}

// Transcribe contains configuration for the remote transcription service.
type Transcribe struct {
	Endpoint       string `toml:"endpoint"`
	Token          string `toml:"token"`
	DataAccessRole string `toml:"data_access_role"`
	OutputBucket   string `toml:"output_bucket"`
	RequestTimeout int    `toml:"request_timeout"`
}

// Workflow contains timing configuration for the submission pipeline.
type Workflow struct {
	PollInterval      int `toml:"poll_interval"`
	MaxPolls          int `toml:"max_polls"`
	CompletionPauseMS int `toml:"completion_pause_ms"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
}

// API contains configuration for the local JSON API server.
type API struct {
	Bind  string `toml:"bind"`
	Token string `toml:"token"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for scribe.
//
// Configuration sections by subsystem:
//   - Paths: local data and log directories (job ledger and lock live in data_dir)
//   - Storage: object-storage endpoint for audio uploads
//   - Transcribe: transcription-service endpoint and job parameters
//   - Workflow: polling cadence and bounds for the submission pipeline
//   - Notifications: ntfy push notification settings
//   - API: local JSON API bind address and token
//   - Logging: log format and level
type Config struct {
	Paths         Paths         `toml:"paths"`
	Storage       Storage       `toml:"storage"`
	Transcribe    Transcribe    `toml:"transcribe"`
	Workflow      Workflow      `toml:"workflow"`
	Notifications Notifications `toml:"notifications"`
	API           API           `toml:"api"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/scribe/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath("~/.config/scribe/config.toml")
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("scribe.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories scribe needs to operate.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// LedgerPath returns the location of the SQLite job ledger.
func (c *Config) LedgerPath() string {
	return filepath.Join(c.Paths.DataDir, "jobs.db")
}

// LockPath returns the location of the submission lock file.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.DataDir, "submit.lock")
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	sample := sampleConfig

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sample), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
