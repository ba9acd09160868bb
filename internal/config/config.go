package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the complete parallelf configuration
type Config struct {
	Logging LoggingConfig `mapstructure:"logging"`
	Output  OutputConfig  `mapstructure:"output"`
	Run     RunConfig     `mapstructure:"run"`
	Watch   WatchConfig   `mapstructure:"watch"`
}

// LoggingConfig controls debug logging
type LoggingConfig struct {
	// Level is the log level: "debug", "info", "warn", "error" (default: "warn")
	Level string `mapstructure:"level"`
	// Dir is where debug.log is written. Empty means stderr.
	Dir string `mapstructure:"dir"`
	// Format is the record format on stderr: "json" or "text" (default: "text").
	// The log file is always JSON so that `parallelf logs` can read it back.
	Format string `mapstructure:"format"`
	// MaxSizeMB is the maximum log file size in megabytes before rotation (default: 10)
	MaxSizeMB int `mapstructure:"max_size_mb"`
	// MaxBackups is the number of backup log files to keep (default: 3)
	MaxBackups int `mapstructure:"max_backups"`
	// Compress gzips rotated log files (default: false)
	Compress bool `mapstructure:"compress"`
}

// OutputConfig controls how reports are printed
type OutputConfig struct {
	// Format is "text" or "json" (default: "text")
	Format string `mapstructure:"format"`
	// Color is "auto", "always" or "never" (default: "auto").
	// auto colors only when stdout is a terminal.
	Color string `mapstructure:"color"`
}

// RunConfig controls graph execution
type RunConfig struct {
	// Timeout cancels a run after this long. Zero means no timeout.
	Timeout time.Duration `mapstructure:"timeout"`
	// ReportDir is where report.json is saved after each run. Empty disables saving.
	ReportDir string `mapstructure:"report_dir"`
}

// WatchConfig controls `parallelf watch`
type WatchConfig struct {
	// DebounceMs coalesces bursts of file events (default: 200)
	DebounceMs int `mapstructure:"debounce_ms"`
}

// Debounce returns the debounce interval as a time.Duration
func (c *WatchConfig) Debounce() time.Duration {
	return time.Duration(c.DebounceMs) * time.Millisecond
}

// ResolveDir expands a leading ~ and resolves relative paths against baseDir.
// An empty path stays empty.
func ResolveDir(path, baseDir string) string {
	if path == "" {
		return ""
	}
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, strings.TrimPrefix(path[1:], "/"))
		}
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(baseDir, path)
	}
	return path
}

// Default returns a Config with sensible default values
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:      "warn",
			Dir:        "",
			Format:     "text",
			MaxSizeMB:  10,
			MaxBackups: 3,
			Compress:   false,
		},
		Output: OutputConfig{
			Format: "text",
			Color:  "auto",
		},
		Run: RunConfig{
			Timeout:   0,
			ReportDir: "",
		},
		Watch: WatchConfig{
			DebounceMs: 200,
		},
	}
}

// SetDefaults registers default values with viper
func SetDefaults() {
	defaults := Default()

	viper.SetDefault("logging.level", defaults.Logging.Level)
	viper.SetDefault("logging.dir", defaults.Logging.Dir)
	viper.SetDefault("logging.format", defaults.Logging.Format)
	viper.SetDefault("logging.max_size_mb", defaults.Logging.MaxSizeMB)
	viper.SetDefault("logging.max_backups", defaults.Logging.MaxBackups)
	viper.SetDefault("logging.compress", defaults.Logging.Compress)

	viper.SetDefault("output.format", defaults.Output.Format)
	viper.SetDefault("output.color", defaults.Output.Color)

	viper.SetDefault("run.timeout", defaults.Run.Timeout)
	viper.SetDefault("run.report_dir", defaults.Run.ReportDir)

	viper.SetDefault("watch.debounce_ms", defaults.Watch.DebounceMs)
}

// Load reads the configuration from viper into a Config struct and validates it
func Load() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}

	return &cfg, nil
}

// Get returns the current configuration, falling back to defaults when it
// does not load
func Get() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// ConfigDir returns the path to the user's config directory
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "parallelf")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".parallelf"
	}
	return filepath.Join(home, ".config", "parallelf")
}

// ConfigFile returns the path to the config file
func ConfigFile() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}
