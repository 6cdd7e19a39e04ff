// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the tomarkdown CLI, which converts a
// directory tree of DOCX, XLSX and PDF documents into mirrored Markdown
// files using a pool of concurrent workers.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/tomarkdown/internal/convert"
	"github.com/pdiddy/tomarkdown/internal/decode"
	"github.com/pdiddy/tomarkdown/internal/logging"
	"github.com/pdiddy/tomarkdown/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// newRegistry builds the decoder registry for a backend. Tests replace it
// to inject fake container runtimes.
var newRegistry = func(backend types.Backend) (*decode.Registry, error) {
	return decode.NewRegistry(backend, nil)
}

// exitError carries a process exit status out of cobra without printing
// anything further.
type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit status %d", e.code)
}

// app holds state shared by the commands of one invocation.
type app struct {
	v      *viper.Viper
	logger *slog.Logger

	// stderr is shared by the logger, the converter and the progress bar.
	stderr io.Writer
}

func newRootCmd() *cobra.Command {
	a := &app{v: viper.New()}

	rootCmd := &cobra.Command{
		Use:   "tomarkdown <directory>",
		Short: "Convert DOCX, XLSX and PDF files to Markdown",
		Long: `tomarkdown walks a directory recursively and converts every .docx, .xlsx
and .pdf file it finds into a Markdown file under the output directory,
preserving the relative folder structure. Files are converted in parallel;
a file that fails to convert is reported and counted without stopping the
others.

Flags can also be set through TOMARKDOWN_* environment variables, for
example TOMARKDOWN_WORKERS=8. LOG_LEVEL and LOG_FORMAT control diagnostic
logging on stderr.`,
		Args:          cobra.ExactArgs(1),
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			a.stderr = convert.NewSyncWriter(cmd.ErrOrStderr())
			return a.initLogger(a.stderr)
		},
		RunE: a.runConvert,
	}

	rootCmd.Flags().String("output-to", "", "output directory (default: <directory>/markdown)")
	rootCmd.Flags().Int("workers", 0, "number of parallel workers (default: CPU count)")
	rootCmd.Flags().String("backend", string(types.BackendNative), "decoder backend: native or markitdown")
	rootCmd.Flags().Duration("timeout", 0, "per-file conversion timeout (0 disables)")
	rootCmd.Flags().Bool("progress", false, "show a progress bar instead of per-file lines")

	for _, name := range []string{"output-to", "workers", "backend", "timeout", "progress"} {
		// Lookup cannot fail for flags registered above.
		_ = a.v.BindPFlag(name, rootCmd.Flags().Lookup(name))
	}
	a.v.SetEnvPrefix("TOMARKDOWN")
	a.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	a.v.AutomaticEnv()

	rootCmd.AddCommand(newVersionCmd(), newCheckCmd())
	return rootCmd
}

func (a *app) initLogger(w io.Writer) error {
	cfg, err := logging.LoadConfig()
	if err != nil {
		return err
	}
	a.logger = logging.New(cfg, w, logging.NewRunID())
	return nil
}

// execute runs the CLI with args and returns the process exit status.
func execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return 0
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	fmt.Fprintf(stderr, "Error: %v\n", err)
	return 1
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := execute(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
