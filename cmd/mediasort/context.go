package main

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"mediasort/internal/config"
	"mediasort/internal/logging"
)

// configKeyAnnotation marks a flag as a dedicated override for a config key.
const configKeyAnnotation = "mediasort/config-key"

type globalFlags struct {
	configPath   string
	settingsPath string
	options      []string
}

type commandContext struct {
	flags *globalFlags

	// lookupEnv is nil outside tests.
	lookupEnv func(string) (string, bool)

	configOnce sync.Once
	config     *config.Config
	configPath string
	configSeen bool
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error
}

func newCommandContext(flags *globalFlags) *commandContext {
	return &commandContext{flags: flags}
}

// ensureConfig loads the configuration once, layering cmd's changed
// override flags on top.
func (c *commandContext) ensureConfig(cmd *cobra.Command) (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg, path, exists, err := config.Load(config.LoadOptions{
			ConfigPath:   strings.TrimSpace(c.flags.configPath),
			SettingsPath: strings.TrimSpace(c.flags.settingsPath),
			Options:      c.flags.options,
			Overrides:    flagOverrides(cmd),
			LookupEnv:    c.lookupEnv,
		})
		if err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.configPath = path
		c.configSeen = exists
	})
	return c.config, c.configErr
}

func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		if c.config == nil {
			c.loggerErr = fmt.Errorf("logger requested before configuration was loaded")
			return
		}
		c.logger, c.loggerErr = logging.NewFromConfig(c.config)
	})
	return c.logger, c.loggerErr
}

// bindConfigKey ties a flag to a config key so an explicit value overrides
// every other layer.
func bindConfigKey(cmd *cobra.Command, flag, key string) {
	_ = cmd.Flags().SetAnnotation(flag, configKeyAnnotation, []string{key})
}

func flagOverrides(cmd *cobra.Command) map[string]string {
	if cmd == nil {
		return nil
	}
	overrides := map[string]string{}
	cmd.Flags().Visit(func(f *pflag.Flag) {
		keys := f.Annotations[configKeyAnnotation]
		if len(keys) == 0 {
			return
		}
		overrides[keys[0]] = f.Value.String()
	})
	return overrides
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
