package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/eringen/memorial"
)

var validateCmd = &cobra.Command{
	Use:   "validate [dataset]",
	Short: "Check a dataset for structural errors and missing images",
	Long: `Runs every dataset check in order and stops at the first failure:
JSON syntax, the person object, the backgrounds configuration, then each
comment. Image references are resolved against the dataset's directory.

Exits with status 1 if any check fails.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runValidate,
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(args)
	if err != nil {
		return err
	}
	report, err := memorial.ValidateFile(cfg.Dataset)
	printReport(cmd.OutOrStdout(), cfg.Dataset, report, err)
	if err != nil {
		logger.Debug("validation failed", zap.String("dataset", cfg.Dataset), zap.Error(err))
		return errReported
	}
	return nil
}
