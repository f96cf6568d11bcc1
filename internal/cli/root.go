package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/rsnk/politecrawl/internal/config"
	"github.com/rsnk/politecrawl/internal/crawler"
	"github.com/spf13/cobra"
)

var (
	configFile string
	restart    bool
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "politecrawl",
	Short: "A polite, multi-threaded breadth-first web crawler.",
	Long: `politecrawl discovers and fetches pages breadth-first across a
configurable set of allowed domains, respecting per-host politeness
delays, robots.txt, and sitemaps, while persisting its discovery
progress so a crash or restart resumes where it left off.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := InitConfigWithError()
		if err != nil {
			return err
		}
		return crawler.Run(cmd.Context(), cfg)
	},
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main(). It only needs to
// happen once to the rootCmd.
func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config_file", "config.ini", "path to the config.ini file")
	rootCmd.PersistentFlags().BoolVar(&restart, "restart", true, "wipe all persisted state before starting")
}

// InitConfigWithError loads config.ini from the --config_file flag and
// applies the --restart flag on top of it (restart is a CLI-only
// switch, not a config.ini key per spec section 6).
func InitConfigWithError() (config.Config, error) {
	cfg, err := config.WithConfigFile(configFile)
	if err != nil {
		return config.Config{}, fmt.Errorf("error initializing config from %s: %w", configFile, err)
	}
	return cfg.WithRestart(restart).Build()
}

// ResetFlags restores flag state between tests.
func ResetFlags() {
	configFile = "config.ini"
	restart = true
}

// SetConfigFileForTest sets the config file path directly, bypassing
// cobra flag parsing, for use in tests.
func SetConfigFileForTest(path string) {
	configFile = path
}

// SetRestartForTest sets the restart flag directly, bypassing cobra
// flag parsing, for use in tests.
func SetRestartForTest(r bool) {
	restart = r
}
