// File: internal/config/config.go
package config

import (
	"fmt"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

// Interface defines the contract for accessing application configuration.
// This allows for dependency injection and mocking in tests.
type Interface interface {
	Logger() LoggerConfig
	Browser() BrowserConfig
	Engine() EngineConfig
	Metrics() MetricsConfig
	Tracing() TracingConfig

	// Browser Setters
	SetBrowserHeadless(bool)
	SetBrowserDriver(string)

	// Engine Setters
	SetEngineStopOnError(bool)
}

// Browser drivers.
const (
	DriverChromedp = "chromedp"
	DriverRod      = "rod"
)

// Config holds the entire application configuration.
type Config struct {
	LoggerCfg  LoggerConfig  `mapstructure:"logger" yaml:"logger"`
	BrowserCfg BrowserConfig `mapstructure:"browser" yaml:"browser"`
	EngineCfg  EngineConfig  `mapstructure:"engine" yaml:"engine"`
	MetricsCfg MetricsConfig `mapstructure:"metrics" yaml:"metrics"`
	TracingCfg TracingConfig `mapstructure:"tracing" yaml:"tracing"`
}

var _ Interface = (*Config)(nil)

// --- Interface Method Implementations (Getters) ---

func (c *Config) Logger() LoggerConfig { return c.LoggerCfg }
func (c *Config) Browser() BrowserConfig { return c.BrowserCfg }
func (c *Config) Engine() EngineConfig { return c.EngineCfg }
func (c *Config) Metrics() MetricsConfig { return c.MetricsCfg }
func (c *Config) Tracing() TracingConfig { return c.TracingCfg }

// --- Interface Method Implementations (Setters) ---

func (c *Config) SetBrowserHeadless(b bool) { c.BrowserCfg.Headless = b }
func (c *Config) SetBrowserDriver(d string) { c.BrowserCfg.Driver = d }
func (c *Config) SetEngineStopOnError(b bool) { c.EngineCfg.StopOnError = b }

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string      `mapstructure:"level" yaml:"level"`
	Format      string      `mapstructure:"format" yaml:"format"`
	AddSource   bool        `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string      `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string      `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int         `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int         `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int         `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool        `mapstructure:"compress" yaml:"compress"`
	Colors      ColorConfig `mapstructure:"colors" yaml:"colors"`
}

// ColorConfig defines the color codes for different log levels.
type ColorConfig struct {
	Debug  string `mapstructure:"debug" yaml:"debug"`
	Info   string `mapstructure:"info" yaml:"info"`
	Warn   string `mapstructure:"warn" yaml:"warn"`
	Error  string `mapstructure:"error" yaml:"error"`
	DPanic string `mapstructure:"dpanic" yaml:"dpanic"`
	Panic  string `mapstructure:"panic" yaml:"panic"`
	Fatal  string `mapstructure:"fatal" yaml:"fatal"`
}

// BrowserConfig holds settings for the browser that sequences run against.
type BrowserConfig struct {
	// Driver selects the page implementation: "chromedp" or "rod".
	Driver          string         `mapstructure:"driver" yaml:"driver"`
	Headless        bool           `mapstructure:"headless" yaml:"headless"`
	IgnoreTLSErrors bool           `mapstructure:"ignore_tls_errors" yaml:"ignore_tls_errors"`
	Stealth         bool           `mapstructure:"stealth" yaml:"stealth"`
	Args            []string       `mapstructure:"args" yaml:"args"`
	Viewport        ViewportConfig `mapstructure:"viewport" yaml:"viewport"`
	LaunchTimeout   time.Duration  `mapstructure:"launch_timeout" yaml:"launch_timeout"`
	// ExecPath points at a specific Chrome binary. Empty means auto-detect.
	ExecPath string `mapstructure:"exec_path" yaml:"exec_path"`
}

// ViewportConfig is the initial window size of new pages.
type ViewportConfig struct {
	Width  int `mapstructure:"width" yaml:"width"`
	Height int `mapstructure:"height" yaml:"height"`
}

// EngineConfig configures how sequences are run.
type EngineConfig struct {
	StopOnError bool   `mapstructure:"stop_on_error" yaml:"stop_on_error"`
	Parallelism int    `mapstructure:"parallelism" yaml:"parallelism"`
	LogPrefix   string `mapstructure:"log_prefix" yaml:"log_prefix"`
}

// MetricsConfig controls the Prometheus textfile export.
type MetricsConfig struct {
	Enabled  bool   `mapstructure:"enabled" yaml:"enabled"`
	Textfile string `mapstructure:"textfile" yaml:"textfile"`
}

// TracingConfig controls span export to stdout.
type TracingConfig struct {
	Enabled     bool   `mapstructure:"enabled" yaml:"enabled"`
	ServiceName string `mapstructure:"service_name" yaml:"service_name"`
}

// NewDefaultConfig creates a configuration populated only with defaults.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		// This should not happen with defaults, but good to be safe.
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// SetDefaults initializes default values for various configuration parameters.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "stepwise")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 5)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)

	// -- Browser --
	v.SetDefault("browser.driver", DriverChromedp)
	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.ignore_tls_errors", false)
	v.SetDefault("browser.stealth", false)
	v.SetDefault("browser.viewport.width", 1280)
	v.SetDefault("browser.viewport.height", 800)
	v.SetDefault("browser.launch_timeout", "30s")

	// -- Engine --
	v.SetDefault("engine.stop_on_error", true)
	v.SetDefault("engine.parallelism", 2)
	v.SetDefault("engine.log_prefix", "")

	// -- Metrics --
	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.textfile", "stepwise.prom")

	// -- Tracing --
	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.service_name", "stepwise")
}

// NewConfigFromViper creates a new configuration instance from a viper object.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	// File paths may use ~ for the home directory.
	var err error
	if cfg.LoggerCfg.LogFile, err = homedir.Expand(cfg.LoggerCfg.LogFile); err != nil {
		return nil, fmt.Errorf("invalid logger.log_file: %w", err)
	}
	if cfg.MetricsCfg.Textfile, err = homedir.Expand(cfg.MetricsCfg.Textfile); err != nil {
		return nil, fmt.Errorf("invalid metrics.textfile: %w", err)
	}
	if cfg.BrowserCfg.ExecPath, err = homedir.Expand(cfg.BrowserCfg.ExecPath); err != nil {
		return nil, fmt.Errorf("invalid browser.exec_path: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration for required fields and sane values.
func (c *Config) Validate() error {
	switch c.BrowserCfg.Driver {
	case DriverChromedp, DriverRod:
	default:
		return fmt.Errorf("browser.driver must be %q or %q, got %q", DriverChromedp, DriverRod, c.BrowserCfg.Driver)
	}
	if c.BrowserCfg.Viewport.Width <= 0 || c.BrowserCfg.Viewport.Height <= 0 {
		return fmt.Errorf("browser.viewport width and height must be positive integers")
	}
	if c.BrowserCfg.LaunchTimeout <= 0 {
		return fmt.Errorf("browser.launch_timeout must be a positive duration")
	}
	if c.EngineCfg.Parallelism <= 0 {
		return fmt.Errorf("engine.parallelism must be a positive integer")
	}
	if c.MetricsCfg.Enabled && c.MetricsCfg.Textfile == "" {
		return fmt.Errorf("metrics.textfile is required when metrics are enabled")
	}
	return nil
}
