package main

import (
	"fmt"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/eringen/memorial"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history [dataset]",
	Short: "List recent render runs for a dataset",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 10, "Number of runs to show (0 for all)")
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(args)
	if err != nil {
		return err
	}
	abs, err := filepath.Abs(cfg.Dataset)
	if err != nil {
		return err
	}
	h, err := openHistory(cfg, filepath.Dir(abs))
	if err != nil {
		return err
	}
	defer h.Close()

	runs, err := h.ListRuns(historyLimit)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if len(runs) == 0 {
		fmt.Fprintln(out, "No renders recorded.")
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "STARTED\tSTATUS\tPAGES\tCOMMENTS\tDURATION\tOUTPUT")
	for _, r := range runs {
		duration := "-"
		if !r.FinishedAt.IsZero() {
			duration = r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond).String()
		}
		detail := r.Output
		if r.Status == memorial.RunFailed {
			detail = r.Error
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%s\t%s\n",
			r.StartedAt.Local().Format("2006-01-02 15:04:05"), r.Status, r.Pages, r.Comments, duration, detail)
	}
	return tw.Flush()
}
