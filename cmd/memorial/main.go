// Command memorial validates memorial book datasets, renders them to PDF and
// serves a live preview.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/eringen/memorial"
)

// version is set at build time via ldflags.
var version = "dev"

var (
	// Global flags
	verbose    bool
	configPath string

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "memorial",
	Short: "Compose memorial books from a JSON dataset",
	Long: `memorial turns a dataset of tribute comments into a printable book:
a cover for the person remembered, then the comments laid out over
background images, two to a page.

Configuration is read from --config (YAML), then MEMORIAL_* environment
variables, then command flags.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		config := zap.NewProductionConfig()
		config.Encoding = "console"
		config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		if verbose {
			config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = config.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the memorial version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "memorial %s\n", version)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML config file")

	rootCmd.AddCommand(validateCmd, renderCmd, previewCmd, historyCmd, hashPasswordCmd, versionCmd)
}

// loadConfig reads the layered configuration and applies the dataset
// argument, if one was given.
func loadConfig(args []string) (memorial.Config, error) {
	cfg, err := memorial.LoadConfig(configPath)
	if err != nil {
		return cfg, err
	}
	if len(args) > 0 {
		cfg.Dataset = args[0]
	}
	return cfg, nil
}

// errReported signals a failure that has already been printed.
var errReported = errors.New("failure already reported")

func main() {
	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, errReported) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}
