package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/eringen/memorial"
)

var (
	okStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#8BC34A"))
	warnStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#F5A623"))
	failStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#E53935")).Bold(true)
	ruleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	rule      = strings.Repeat("=", 50)
)

// printReport writes the check-by-check outcome of a validation run. The
// duplicate-author warning is shown just before the final comments check,
// where it is raised.
func printReport(w io.Writer, path string, report *memorial.Report, err error) {
	fmt.Fprintf(w, "Validating %s...\n\n", path)

	warned := false
	printWarnings := func() {
		for _, msg := range report.Warnings {
			fmt.Fprintln(w, warnStyle.Render("⚠ Warning: "+msg))
		}
		warned = true
	}
	for i, msg := range report.Passed {
		if report.OK() && i == len(report.Passed)-1 {
			printWarnings()
		}
		fmt.Fprintln(w, okStyle.Render("✓ "+msg))
	}
	if !warned {
		printWarnings()
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, ruleStyle.Render(rule))
	switch {
	case err == nil:
		fmt.Fprintln(w, okStyle.Bold(true).Render("✅ All validations passed!"))
	case errors.Is(err, memorial.ErrInvalidDataset), errors.Is(err, memorial.ErrLoad):
		fmt.Fprintln(w, failStyle.Render("❌ Validation failed: "+err.Error()))
	default:
		fmt.Fprintln(w, failStyle.Render("❌ Unexpected error: "+err.Error()))
	}
	fmt.Fprintln(w, ruleStyle.Render(rule))
}
