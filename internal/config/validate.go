package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateStorage(); err != nil {
		return err
	}
	if err := c.validateTranscribe(); err != nil {
		return err
	}
	if err := c.validateWorkflow(); err != nil {
		return err
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateStorage() error {
	if strings.TrimSpace(c.Storage.Endpoint) == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/scribe/config.toml"
		}
		return fmt.Errorf("storage.endpoint is required. Edit %s (create with 'scribe config init')", defaultPath)
	}
	if strings.TrimSpace(c.Storage.Bucket) == "" {
		return errors.New("storage.bucket must be set")
	}
	if c.Storage.PartSizeMiB < 5 {
		return errors.New("storage.part_size_mib must be at least 5")
	}
	return nil
}

func (c *Config) validateTranscribe() error {
	if strings.TrimSpace(c.Transcribe.Endpoint) == "" {
		return errors.New("transcribe.endpoint must be set")
	}
	if strings.TrimSpace(c.Transcribe.DataAccessRole) == "" {
		return errors.New("transcribe.data_access_role must be set")
	}
	if strings.TrimSpace(c.Transcribe.OutputBucket) == "" {
		return errors.New("transcribe.output_bucket must be set")
	}
	return nil
}

func (c *Config) validateWorkflow() error {
	if err := ensurePositiveMap(map[string]int{
		"storage.request_timeout":       c.Storage.RequestTimeout,
		"transcribe.request_timeout":    c.Transcribe.RequestTimeout,
		"notifications.request_timeout": c.Notifications.RequestTimeout,
		"workflow.poll_interval":        c.Workflow.PollInterval,
	}); err != nil {
		return err
	}
	if c.Workflow.MaxPolls < 0 {
		return errors.New("workflow.max_polls must be >= 0 (0 polls without bound)")
	}
	if c.Workflow.CompletionPauseMS < 0 {
		return errors.New("workflow.completion_pause_ms must be >= 0")
	}
	return nil
}

func (c *Config) validateNotifications() error {
	// The topic is optional; an empty topic selects the no-op push service.
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
