package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Logging.Level != "warn" {
		t.Errorf("Logging.Level = %q, want %q", cfg.Logging.Level, "warn")
	}
	if cfg.Logging.Dir != "" {
		t.Errorf("Logging.Dir = %q, want empty", cfg.Logging.Dir)
	}
	if cfg.Logging.MaxSizeMB != 10 {
		t.Errorf("Logging.MaxSizeMB = %d, want 10", cfg.Logging.MaxSizeMB)
	}
	if cfg.Logging.MaxBackups != 3 {
		t.Errorf("Logging.MaxBackups = %d, want 3", cfg.Logging.MaxBackups)
	}
	if cfg.Output.Format != "text" {
		t.Errorf("Output.Format = %q, want %q", cfg.Output.Format, "text")
	}
	if cfg.Output.Color != "auto" {
		t.Errorf("Output.Color = %q, want %q", cfg.Output.Color, "auto")
	}
	if cfg.Run.Timeout != 0 {
		t.Errorf("Run.Timeout = %v, want 0", cfg.Run.Timeout)
	}
	if cfg.Watch.DebounceMs != 200 {
		t.Errorf("Watch.DebounceMs = %d, want 200", cfg.Watch.DebounceMs)
	}

	if errs := cfg.Validate(); len(errs) != 0 {
		t.Errorf("Default().Validate() = %v, want no errors", errs)
	}
}

func TestWatchConfig_Debounce(t *testing.T) {
	tests := []struct {
		ms   int
		want time.Duration
	}{
		{0, 0},
		{200, 200 * time.Millisecond},
		{1500, 1500 * time.Millisecond},
	}
	for _, tt := range tests {
		c := WatchConfig{DebounceMs: tt.ms}
		if got := c.Debounce(); got != tt.want {
			t.Errorf("Debounce(%d) = %v, want %v", tt.ms, got, tt.want)
		}
	}
}

func TestResolveDir(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}

	tests := []struct {
		name string
		path string
		want string
	}{
		{"empty", "", ""},
		{"absolute", "/var/log/pf", "/var/log/pf"},
		{"relative", "logs", filepath.Join("/work", "logs")},
		{"tilde", "~", home},
		{"tilde path", "~/pf/logs", filepath.Join(home, "pf", "logs")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ResolveDir(tt.path, "/work"); got != tt.want {
				t.Errorf("ResolveDir(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}

func TestConfigDir(t *testing.T) {
	t.Run("respects XDG_CONFIG_HOME", func(t *testing.T) {
		t.Setenv("XDG_CONFIG_HOME", "/custom/config")
		if got := ConfigDir(); got != filepath.Join("/custom/config", "parallelf") {
			t.Errorf("ConfigDir() = %q", got)
		}
	})

	t.Run("falls back to ~/.config", func(t *testing.T) {
		t.Setenv("XDG_CONFIG_HOME", "")
		home, err := os.UserHomeDir()
		if err != nil {
			t.Skip("no home directory")
		}
		if got := ConfigDir(); got != filepath.Join(home, ".config", "parallelf") {
			t.Errorf("ConfigDir() = %q", got)
		}
	})
}

func TestConfigFile(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/x")
	if got := ConfigFile(); got != filepath.Join("/x", "parallelf", "config.yaml") {
		t.Errorf("ConfigFile() = %q", got)
	}
}

func TestLoad(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		viper.Reset()
		t.Cleanup(viper.Reset)
		SetDefaults()

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if cfg.Watch.DebounceMs != 200 || cfg.Output.Color != "auto" {
			t.Errorf("Load() = %+v, want defaults", cfg)
		}
	})

	t.Run("config file", func(t *testing.T) {
		viper.Reset()
		t.Cleanup(viper.Reset)
		SetDefaults()

		path := filepath.Join(t.TempDir(), "config.yaml")
		content := "run:\n  timeout: 90s\n  report_dir: out\noutput:\n  format: json\n"
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
		viper.SetConfigFile(path)
		if err := viper.ReadInConfig(); err != nil {
			t.Fatalf("ReadInConfig() error = %v", err)
		}

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if cfg.Run.Timeout != 90*time.Second {
			t.Errorf("Run.Timeout = %v, want 90s", cfg.Run.Timeout)
		}
		if cfg.Run.ReportDir != "out" {
			t.Errorf("Run.ReportDir = %q, want out", cfg.Run.ReportDir)
		}
		if cfg.Output.Format != "json" {
			t.Errorf("Output.Format = %q, want json", cfg.Output.Format)
		}
		if cfg.Logging.Level != "warn" {
			t.Errorf("Logging.Level = %q, want default warn", cfg.Logging.Level)
		}
	})

	t.Run("environment", func(t *testing.T) {
		viper.Reset()
		t.Cleanup(viper.Reset)
		SetDefaults()
		viper.SetEnvPrefix("PARALLELF")
		viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
		viper.AutomaticEnv()
		t.Setenv("PARALLELF_WATCH_DEBOUNCE_MS", "750")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if cfg.Watch.DebounceMs != 750 {
			t.Errorf("Watch.DebounceMs = %d, want 750", cfg.Watch.DebounceMs)
		}
	})

	t.Run("invalid value", func(t *testing.T) {
		viper.Reset()
		t.Cleanup(viper.Reset)
		SetDefaults()
		viper.Set("output.color", "sometimes")

		_, err := Load()
		if err == nil {
			t.Fatal("Load() should fail validation")
		}
		if !strings.Contains(err.Error(), "output.color") {
			t.Errorf("error = %v, want mention of output.color", err)
		}
	})
}

func TestGet(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	SetDefaults()
	viper.Set("logging.max_backups", -1)

	cfg := Get()
	if cfg.Logging.MaxBackups != 3 {
		t.Errorf("Get() with invalid config should fall back to defaults, MaxBackups = %d", cfg.Logging.MaxBackups)
	}
}
