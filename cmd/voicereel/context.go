package main

import (
	"fmt"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"voicereel/internal/config"
	"voicereel/internal/services/elevenlabs"
)

type commandContext struct {
	configFlag *string
	verbose    *bool

	configOnce sync.Once
	config     *config.Config
	configPath   string
	configExists bool
	configErr    error
}

func newCommandContext(configFlag *string, verbose *bool) *commandContext {
	return &commandContext{
		configFlag: configFlag,
		verbose:    verbose,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, resolved, exists, err := config.Load(path)
		if err != nil {
			c.configErr = fmt.Errorf("load config: %w", err)
			return
		}
		if c.verbose != nil && *c.verbose {
			cfg.Logging.Level = "debug"
		}
		c.config = cfg
		c.configPath = resolved
		c.configExists = exists
	})
	return c.config, c.configErr
}

func newProviderClient(cfg *config.Config) *elevenlabs.Client {
	return elevenlabs.NewClient(elevenlabs.Config{
		BaseURL:           cfg.Provider.BaseURL,
		TimeoutSeconds:    cfg.Provider.TimeoutSeconds,
		RequestsPerMinute: cfg.Provider.RequestsPerMinute,
		OutputFormat:      cfg.Provider.OutputFormat,
	})
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
