package main

import (
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"scribe/internal/config"
	"scribe/internal/jobs"
	"scribe/internal/logging"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) withStore(fn func(cfg *config.Config, store *jobs.Store) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	store, err := jobs.Open(cfg)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(cfg, store)
}

// fileLogger writes structured logs to the log directory so interactive
// output stays clean. Falls back to a nop logger when logging cannot be set
// up.
func (c *commandContext) fileLogger() *slog.Logger {
	cfg, err := c.ensureConfig()
	if err != nil || cfg == nil || cfg.Paths.LogDir == "" {
		return logging.NewNop()
	}
	logger, err := logging.New(logging.Options{
		Level:       cfg.Logging.Level,
		Format:      "json",
		OutputPaths: []string{filepath.Join(cfg.Paths.LogDir, "scribe.log")},
	})
	if err != nil {
		return logging.NewNop()
	}
	return logger
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
