// File: internal/config/config_test.go
package config

import (
	"bytes"
	"testing"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// -- Constructor and Defaults Tests --

func TestNewDefaultConfig(t *testing.T) {
	cfg := NewDefaultConfig()

	// Verify a few key defaults to ensure the mechanism works.
	assert.Equal(t, "info", cfg.Logger().Level)
	assert.Equal(t, "stepwise", cfg.Logger().ServiceName)
	assert.Equal(t, DriverChromedp, cfg.Browser().Driver)
	assert.True(t, cfg.Browser().Headless)
	assert.Equal(t, ViewportConfig{Width: 1280, Height: 800}, cfg.Browser().Viewport)
	assert.Equal(t, 30*time.Second, cfg.Browser().LaunchTimeout)
	assert.True(t, cfg.Engine().StopOnError)
	assert.Equal(t, 2, cfg.Engine().Parallelism)
	assert.False(t, cfg.Metrics().Enabled)
	assert.False(t, cfg.Tracing().Enabled)
	assert.NoError(t, cfg.Validate())
}

// -- Validation Logic Tests --

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"UnknownDriver", func(c *Config) { c.BrowserCfg.Driver = "selenium" }, "browser.driver must be"},
		{"ZeroViewport", func(c *Config) { c.BrowserCfg.Viewport.Width = 0 }, "browser.viewport"},
		{"ZeroLaunchTimeout", func(c *Config) { c.BrowserCfg.LaunchTimeout = 0 }, "browser.launch_timeout"},
		{"ZeroParallelism", func(c *Config) { c.EngineCfg.Parallelism = 0 }, "engine.parallelism must be a positive integer"},
		{"MetricsWithoutFile", func(c *Config) {
			c.MetricsCfg.Enabled = true
			c.MetricsCfg.Textfile = ""
		}, "metrics.textfile is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewDefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}

	t.Run("RodIsAccepted", func(t *testing.T) {
		cfg := NewDefaultConfig()
		cfg.SetBrowserDriver(DriverRod)
		assert.NoError(t, cfg.Validate())
	})
}

// -- Loading Tests --

func TestNewConfigFromViper(t *testing.T) {
	yamlConfig := []byte(`
logger:
  level: debug
  log_file: ~/logs/stepwise.log
browser:
  driver: rod
  headless: false
  stealth: true
  args: ["--lang=de-DE", "--mute-audio"]
  viewport:
    width: 390
    height: 844
engine:
  stop_on_error: false
  parallelism: 4
metrics:
  enabled: true
  textfile: /tmp/stepwise.prom
`)

	v := viper.New()
	SetDefaults(v)
	v.SetConfigType("yaml")
	require.NoError(t, v.ReadConfig(bytes.NewBuffer(yamlConfig)))

	cfg, err := NewConfigFromViper(v)
	require.NoError(t, err)

	home, err := homedir.Dir()
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Logger().Level)
	assert.Equal(t, home+"/logs/stepwise.log", cfg.Logger().LogFile)
	assert.Equal(t, DriverRod, cfg.Browser().Driver)
	assert.False(t, cfg.Browser().Headless)
	assert.True(t, cfg.Browser().Stealth)
	assert.Equal(t, []string{"--lang=de-DE", "--mute-audio"}, cfg.Browser().Args)
	assert.Equal(t, 390, cfg.Browser().Viewport.Width)
	assert.Equal(t, 30*time.Second, cfg.Browser().LaunchTimeout, "unset keys keep their defaults")
	assert.False(t, cfg.Engine().StopOnError)
	assert.Equal(t, 4, cfg.Engine().Parallelism)
	assert.Equal(t, "/tmp/stepwise.prom", cfg.Metrics().Textfile)
}

func TestNewConfigFromViper_Invalid(t *testing.T) {
	v := viper.New()
	SetDefaults(v)
	v.Set("engine.parallelism", -1)

	_, err := NewConfigFromViper(v)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")
}

func TestSetters(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.SetBrowserHeadless(false)
	cfg.SetEngineStopOnError(false)
	assert.False(t, cfg.Browser().Headless)
	assert.False(t, cfg.Engine().StopOnError)
}
