// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package report prints the run configuration and final summary and
// decides the process exit status from a tally.
package report

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	"github.com/pdiddy/tomarkdown/pkg/types"
)

// Exit codes.
const (
	ExitOK      = 0
	ExitFailure = 1
)

// PrintConfig writes the run header: input and output directories, the
// effective worker count and a blank separator line.
func PrintConfig(w io.Writer, cfg types.ConvertConfig) {
	fmt.Fprintf(w, "Converting files from: %s\n", cfg.InputDir)
	fmt.Fprintf(w, "Output directory: %s\n", cfg.OutputDir)
	fmt.Fprintf(w, "Workers: %d\n", cfg.Workers)
	fmt.Fprintln(w)
}

// PrintSummary writes the final tally after a blank line. The line is
// green when there were no errors and red otherwise, but only when w is a
// terminal and NO_COLOR is unset.
func PrintSummary(w io.Writer, tally types.Tally) {
	c := color.New(color.FgGreen, color.Bold)
	if tally.HasErrors() {
		c = color.New(color.FgRed, color.Bold)
	}
	if colorEnabled(w) {
		c.EnableColor()
	} else {
		c.DisableColor()
	}
	fmt.Fprintln(w)
	c.Fprintf(w, "Conversion complete: %d successful, %d errors", tally.Successful, tally.Errors)
	fmt.Fprintln(w)
}

// colorEnabled reports whether w is a terminal that should receive color.
func colorEnabled(w io.Writer) bool {
	if os.Getenv("NO_COLOR") != "" || os.Getenv("TERM") == "dumb" {
		return false
	}
	f, ok := w.(interface{ Fd() uintptr })
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// ExitCode returns ExitOK iff no task failed.
func ExitCode(tally types.Tally) int {
	if tally.HasErrors() {
		return ExitFailure
	}
	return ExitOK
}
