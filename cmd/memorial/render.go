package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/eringen/memorial"
)

var (
	skipValidate   bool
	outputPath     string
	debugHTML      bool
	optimizeImages bool
	noHistory      bool
)

var renderCmd = &cobra.Command{
	Use:   "render [dataset]",
	Short: "Render a dataset to a PDF book",
	Long: `Validates the dataset, paginates its comments and prints the book to
PDF with headless Chrome. The PDF is written next to the dataset as
<name>-memories.pdf unless --output is given.

Each run is recorded in the render history (see "memorial history").`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRender,
}

func init() {
	renderCmd.Flags().BoolVar(&skipValidate, "skip-validate", false, "Render without validating first")
	renderCmd.Flags().StringVarP(&outputPath, "output", "o", "", "PDF output path")
	renderCmd.Flags().BoolVar(&debugHTML, "debug-html", false, "Also write the generated HTML")
	renderCmd.Flags().BoolVar(&optimizeImages, "optimize-images", false, "Downscale large images before printing")
	renderCmd.Flags().BoolVar(&noHistory, "no-history", false, "Do not record this run")
}

func runRender(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(args)
	if err != nil {
		return err
	}
	if outputPath != "" {
		cfg.Output = outputPath
	}
	if cmd.Flags().Changed("debug-html") {
		cfg.DebugHTML = debugHTML
	}
	if cmd.Flags().Changed("optimize-images") {
		cfg.OptimizeImages = optimizeImages
	}

	if !skipValidate {
		report, err := memorial.ValidateFile(cfg.Dataset)
		if err != nil {
			printReport(cmd.ErrOrStderr(), cfg.Dataset, report, err)
			return errReported
		}
		for _, w := range report.Warnings {
			logger.Warn(w)
		}
	}

	ds, err := memorial.LoadDataset(cfg.Dataset)
	if err != nil {
		return err
	}

	opts := []memorial.Option{memorial.WithLogger(logger)}
	if !noHistory {
		history, err := openHistory(cfg, ds.BaseDir)
		if err != nil {
			return err
		}
		defer history.Close()
		opts = append(opts, memorial.WithHistory(history))
	}

	composer, err := memorial.New(cfg, opts...)
	if err != nil {
		return err
	}
	res, err := composer.Render(cmd.Context(), ds)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Generated %d pages:\n", len(res.Pages))
	for i, p := range res.Pages {
		fmt.Fprintf(out, "  Page %d: %d comments - %s\n", i+1, len(p), authors(p))
	}
	if res.DebugHTML != "" {
		fmt.Fprintf(out, "Debug HTML written to %s\n", res.DebugHTML)
	}
	fmt.Fprintf(out, "Written %s\n", res.Output)
	logger.Debug("render finished", zap.String("run", res.RunID), zap.Int("bytes", res.Size))
	return nil
}

func openHistory(cfg memorial.Config, baseDir string) (*memorial.HistoryStore, error) {
	path := cfg.HistoryPath
	if path == "" {
		path = memorial.DefaultHistoryPath(baseDir)
	}
	h, err := memorial.OpenHistory(path)
	if err != nil {
		return nil, fmt.Errorf("open history %s: %w", path, err)
	}
	return h, nil
}

func authors(p memorial.Page) string {
	names := make([]string, len(p))
	for i, c := range p {
		names[i] = c.Author
	}
	return strings.Join(names, ", ")
}
