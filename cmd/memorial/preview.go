package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/eringen/memorial"
)

var previewAddr string

var previewCmd = &cobra.Command{
	Use:   "preview [dataset]",
	Short: "Serve the book over HTTP while you edit the dataset",
	Long: `Starts a local web server showing the book as HTML at /, the printed
PDF at /book.pdf and the validation report as JSON at /report. The dataset
is reloaded on every request and re-validated whenever it is saved.

Set preview.password (or MEMORIAL_PREVIEW_PASSWORD) to require a login.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runPreview,
}

func init() {
	previewCmd.Flags().StringVar(&previewAddr, "addr", "", "Listen address (default :3000)")
}

func runPreview(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(args)
	if err != nil {
		return err
	}
	if previewAddr != "" {
		cfg.Preview.Addr = previewAddr
	}

	composer, err := memorial.New(cfg, memorial.WithLogger(logger))
	if err != nil {
		return err
	}
	p, err := memorial.NewPreviewer(composer, cfg.Dataset)
	if err != nil {
		return err
	}
	defer p.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return p.Start(ctx)
}
