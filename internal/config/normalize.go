package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeStorage()
	c.normalizeTranscribe()
	c.normalizeWorkflow()
	c.normalizeNotifications()
	c.normalizeAPI()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeStorage() {
	c.Storage.Endpoint = strings.TrimRight(strings.TrimSpace(c.Storage.Endpoint), "/")
	c.Storage.Bucket = strings.TrimSpace(c.Storage.Bucket)
	c.Storage.Region = strings.TrimSpace(c.Storage.Region)
	if c.Storage.Region == "" {
		c.Storage.Region = defaultStorageRegion
	}
	c.Storage.Token = strings.TrimSpace(c.Storage.Token)
	if c.Storage.Token == "" {
		if value, ok := os.LookupEnv("SCRIBE_STORAGE_TOKEN"); ok {
			c.Storage.Token = strings.TrimSpace(value)
		}
	}
	if c.Storage.PartSizeMiB <= 0 {
		c.Storage.PartSizeMiB = defaultPartSizeMiB
	}
	if c.Storage.RequestTimeout <= 0 {
		c.Storage.RequestTimeout = defaultRequestTimeout
	}
}

func (c *Config) normalizeTranscribe() {
	c.Transcribe.Endpoint = strings.TrimRight(strings.TrimSpace(c.Transcribe.Endpoint), "/")
	c.Transcribe.DataAccessRole = strings.TrimSpace(c.Transcribe.DataAccessRole)
	c.Transcribe.OutputBucket = strings.TrimSpace(c.Transcribe.OutputBucket)
	c.Transcribe.Token = strings.TrimSpace(c.Transcribe.Token)
	if c.Transcribe.Token == "" {
		if value, ok := os.LookupEnv("SCRIBE_API_TOKEN"); ok {
			c.Transcribe.Token = strings.TrimSpace(value)
		}
	}
	if c.Transcribe.RequestTimeout <= 0 {
		c.Transcribe.RequestTimeout = defaultRequestTimeout
	}
}

func (c *Config) normalizeWorkflow() {
	if c.Workflow.PollInterval <= 0 {
		c.Workflow.PollInterval = defaultPollInterval
	}
	// max_polls of 0 means unbounded and is preserved as configured.
	if c.Workflow.MaxPolls < 0 {
		c.Workflow.MaxPolls = defaultMaxPolls
	}
	if c.Workflow.CompletionPauseMS < 0 {
		c.Workflow.CompletionPauseMS = defaultCompletionPauseMS
	}
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNotifyTimeout
	}
}

func (c *Config) normalizeAPI() {
	c.API.Bind = strings.TrimSpace(c.API.Bind)
	if c.API.Bind == "" {
		c.API.Bind = defaultAPIBind
	}
	c.API.Token = strings.TrimSpace(c.API.Token)
	if c.API.Token == "" {
		if value, ok := os.LookupEnv("SCRIBE_API_BIND_TOKEN"); ok {
			c.API.Token = strings.TrimSpace(value)
		}
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
