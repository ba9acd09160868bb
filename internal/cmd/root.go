package cmd

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Iron-Ham/parallelf/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "parallelf",
	Short: "Run task graphs concurrently",
	Long: `parallelf runs the tasks declared in a YAML or HCL graph file with as
much concurrency as their dependencies allow. A task whose dependency failed
is skipped, and unrelated tasks keep running.`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.StringP("config", "c", "", "config file (default is $HOME/.config/parallelf/config.yaml)")
	flags.String("log-level", "", "log level: debug, info, warn, error")
	flags.String("log-dir", "", "write logs to DIR/debug.log instead of stderr")
	flags.String("color", "", "colorize output: auto, always, never")
	flags.BoolP("verbose", "v", false, "print task state changes as they happen")

	bindFlags()
}

// bindFlags binds the persistent flags to their configuration keys. Flags
// win over the config file and environment only when set.
func bindFlags() {
	flags := rootCmd.PersistentFlags()
	_ = viper.BindPFlag("config", flags.Lookup("config"))
	_ = viper.BindPFlag("logging.level", flags.Lookup("log-level"))
	_ = viper.BindPFlag("logging.dir", flags.Lookup("log-dir"))
	_ = viper.BindPFlag("output.color", flags.Lookup("color"))
}

func initConfig() {
	// Set defaults first so they're available even without a config file
	config.SetDefaults()

	if cfgFile := viper.GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(config.ConfigDir())
		viper.AddConfigPath(".")
	}

	viper.AutomaticEnv()
	viper.SetEnvPrefix("PARALLELF")
	// e.g. PARALLELF_RUN_REPORT_DIR for run.report_dir
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read config file if it exists (ignore error if not found)
	_ = viper.ReadInConfig()
}
