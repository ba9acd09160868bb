package cmd

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/Iron-Ham/parallelf/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or modify parallelf configuration",
	Long: `View or modify parallelf configuration.

Without arguments, displays the current configuration.
Use subcommands to modify settings or create a config file.`,
	RunE: runConfigShow,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE:  runConfigShow,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long: `Set a configuration value in the user's config file.

Keys use dot notation, e.g.:
  parallelf config set output.color never
  parallelf config set run.timeout 10m

Valid keys:
  logging.level        - debug, info, warn, error
  logging.dir          - directory for debug.log (empty for stderr)
  logging.format       - json or text (stderr only)
  logging.max_size_mb  - rotate debug.log at this size (0 disables)
  logging.max_backups  - rotated files to keep
  logging.compress     - gzip rotated files (true/false)
  output.format        - text or json
  output.color         - auto, always, never
  run.timeout          - cancel runs after this duration (e.g. 90s, 0 for none)
  run.report_dir       - save report.json here after each run
  watch.debounce_ms    - coalesce file changes within this many milliseconds`,
	Args: cobra.ExactArgs(2),
	RunE: runConfigSet,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a default config file",
	Long:  `Create a default config file at ~/.config/parallelf/config.yaml with all available options.`,
	RunE:  runConfigInit,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show the config file path",
	RunE:  runConfigPath,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configPathCmd)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	if viper.ConfigFileUsed() != "" {
		fmt.Fprintf(out, "# Config file: %s\n", viper.ConfigFileUsed())
	} else {
		fmt.Fprintln(out, "# Config file: (none - using defaults)")
	}

	data, err := yaml.Marshal(map[string]any{
		"logging": map[string]any{
			"level":       cfg.Logging.Level,
			"dir":         cfg.Logging.Dir,
			"format":      cfg.Logging.Format,
			"max_size_mb": cfg.Logging.MaxSizeMB,
			"max_backups": cfg.Logging.MaxBackups,
			"compress":    cfg.Logging.Compress,
		},
		"output": map[string]any{
			"format": cfg.Output.Format,
			"color":  cfg.Output.Color,
		},
		"run": map[string]any{
			"timeout":    cfg.Run.Timeout.String(),
			"report_dir": cfg.Run.ReportDir,
		},
		"watch": map[string]any{
			"debounce_ms": cfg.Watch.DebounceMs,
		},
	})
	if err != nil {
		return fmt.Errorf("failed to render config: %w", err)
	}
	_, err = out.Write(data)
	return err
}

// configKeys maps each settable key to its value kind.
var configKeys = map[string]string{
	"logging.level":       "string",
	"logging.dir":         "string",
	"logging.format":      "string",
	"logging.max_size_mb": "int",
	"logging.max_backups": "int",
	"logging.compress":    "bool",
	"output.format":       "string",
	"output.color":        "string",
	"run.timeout":         "duration",
	"run.report_dir":      "string",
	"watch.debounce_ms":   "int",
}

// parseConfigValue converts value to the kind registered for key and
// validates the result against the rest of the current configuration.
func parseConfigValue(key, value string) (any, error) {
	kind, ok := configKeys[key]
	if !ok {
		return nil, fmt.Errorf("unknown configuration key: %s\nRun 'parallelf config set --help' to see valid keys", key)
	}

	var typed any
	switch kind {
	case "string":
		typed = value
	case "bool":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return nil, fmt.Errorf("invalid value for %s: expected true or false", key)
		}
		typed = b
	case "int":
		n, err := strconv.Atoi(value)
		if err != nil {
			return nil, fmt.Errorf("invalid value for %s: expected integer", key)
		}
		typed = n
	case "duration":
		d, err := time.ParseDuration(value)
		if err != nil {
			return nil, fmt.Errorf("invalid value for %s: expected a duration like 90s or 5m", key)
		}
		typed = d.String()
	}

	cfg := config.Default()
	switch key {
	case "logging.level":
		cfg.Logging.Level = value
	case "logging.format":
		cfg.Logging.Format = value
	case "logging.max_size_mb":
		cfg.Logging.MaxSizeMB = typed.(int)
	case "logging.max_backups":
		cfg.Logging.MaxBackups = typed.(int)
	case "output.format":
		cfg.Output.Format = value
	case "output.color":
		cfg.Output.Color = value
	case "run.timeout":
		cfg.Run.Timeout, _ = time.ParseDuration(value)
	case "watch.debounce_ms":
		cfg.Watch.DebounceMs = typed.(int)
	}
	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, fmt.Errorf("invalid value for %s: %s", key, errs[0].Message)
	}
	return typed, nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	key := strings.ToLower(args[0])
	typed, err := parseConfigValue(key, args[1])
	if err != nil {
		return err
	}

	if err := os.MkdirAll(config.ConfigDir(), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	viper.Set(key, typed)

	configFile := config.ConfigFile()
	if err := viper.WriteConfigAs(configFile); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Set %s = %v\n", key, typed)
	fmt.Fprintf(out, "Config saved to %s\n", configFile)
	return nil
}

const defaultConfigFile = `# parallelf configuration

logging:
  # debug, info, warn, error
  level: warn
  # Write logs to <dir>/debug.log instead of stderr. Empty means stderr.
  dir: ""
  # Format of stderr logs: text or json. debug.log is always JSON.
  format: text
  # Rotate debug.log at this size in megabytes (0 disables rotation)
  max_size_mb: 10
  # Number of rotated files to keep
  max_backups: 3
  # gzip rotated files
  compress: false

output:
  # Report format: text or json
  format: text
  # auto colors only when writing to a terminal
  color: auto

run:
  # Cancel runs after this long, e.g. 90s or 10m. 0 means no timeout.
  timeout: 0s
  # Save report.json here after each run. Empty disables saving.
  report_dir: ""

watch:
  # Coalesce file changes that arrive within this many milliseconds
  debounce_ms: 200
`

func runConfigInit(cmd *cobra.Command, args []string) error {
	configFile := config.ConfigFile()

	if _, err := os.Stat(configFile); err == nil {
		return fmt.Errorf("config file already exists at %s\nUse 'parallelf config set' to modify values", configFile)
	}

	if err := os.MkdirAll(config.ConfigDir(), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(configFile, []byte(defaultConfigFile), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Created config file at %s\n", configFile)
	fmt.Fprintln(out, "Edit this file to customize parallelf's behavior.")
	return nil
}

func runConfigPath(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	if viper.ConfigFileUsed() != "" {
		fmt.Fprintf(out, "Active config: %s\n", viper.ConfigFileUsed())
	} else {
		fmt.Fprintf(out, "Default path: %s (not created)\n", config.ConfigFile())
	}

	fmt.Fprintln(out, "\nSearch paths:")
	fmt.Fprintf(out, "  1. %s\n", config.ConfigFile())
	fmt.Fprintln(out, "  2. ./config.yaml (current directory)")
	fmt.Fprintln(out, "\nEnvironment variables: PARALLELF_* (e.g., PARALLELF_OUTPUT_COLOR)")
	return nil
}
