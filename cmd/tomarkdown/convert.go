// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/pdiddy/tomarkdown/internal/convert"
	"github.com/pdiddy/tomarkdown/internal/report"
	"github.com/pdiddy/tomarkdown/pkg/types"
)

// defaultOutputSubdir is created under the input directory when no output
// directory is given.
const defaultOutputSubdir = "markdown"

// loadConfig resolves the run configuration from bound flags and
// TOMARKDOWN_* environment variables, then fills in defaults.
func (a *app) loadConfig(dir string) (types.ConvertConfig, error) {
	var cfg types.ConvertConfig
	if err := a.v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("reading configuration: %w", err)
	}
	cfg.InputDir = dir

	backend, err := types.ParseBackend(string(cfg.Backend))
	if err != nil {
		return cfg, err
	}
	cfg.Backend = backend

	if cfg.Workers < 0 {
		return cfg, fmt.Errorf("--workers must be a positive integer, got %d", cfg.Workers)
	}
	if cfg.Workers == 0 {
		cfg.Workers = convert.DefaultWorkers()
	}
	if cfg.TaskTimeout < 0 {
		return cfg, fmt.Errorf("--timeout must not be negative, got %s", cfg.TaskTimeout)
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = filepath.Join(dir, defaultOutputSubdir)
	}
	return cfg, nil
}

func (a *app) runConvert(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true
	ctx := cmd.Context()
	stdout, stderr := cmd.OutOrStdout(), a.stderr
	fs := afero.NewOsFs()

	if err := convert.ValidateInputDir(fs, args[0]); err != nil {
		return err
	}
	cfg, err := a.loadConfig(args[0])
	if err != nil {
		return err
	}

	registry, err := newRegistry(cfg.Backend)
	if err != nil {
		return err
	}
	if err := registry.Check(); err != nil {
		return fmt.Errorf("%s backend unavailable: %w", cfg.Backend, err)
	}

	report.PrintConfig(stdout, cfg)

	tasks, err := convert.Discover(fs, cfg.InputDir, cfg.OutputDir, a.logger)
	if err != nil {
		return err
	}
	a.logger.Info("discovered files",
		"input", cfg.InputDir,
		"tasks", len(tasks),
		"backend", cfg.Backend,
	)

	// With a progress bar, per-file lines are suppressed in the workers and
	// failures are reported by the bar between redraws instead.
	var (
		lineOut   io.Writer = stdout
		errOut    io.Writer = stderr
		onOutcome func(types.Outcome)
		bar       *progressBar
	)
	if cfg.Progress && len(tasks) > 0 {
		lineOut, errOut = io.Discard, io.Discard
		bar = newProgressBar(len(tasks), stderr)
		onOutcome = bar.Record
	}

	converter := convert.NewConverter(convert.ConverterConfig{
		Decoder: registry,
		Fs:      fs,
		Stdout:  lineOut,
		Stderr:  errOut,
		Logger:  a.logger,
	})
	pool := convert.NewPool(convert.PoolConfig{
		Workers:     cfg.Workers,
		Convert:     converter.Convert,
		TaskTimeout: cfg.TaskTimeout,
		OnOutcome:   onOutcome,
		Logger:      a.logger,
	})

	tally := pool.Run(ctx, tasks)
	if bar != nil {
		bar.Finish()
	}
	if err := ctx.Err(); err != nil {
		a.logger.Warn("run interrupted", "error", err)
	}

	report.PrintSummary(stdout, tally)
	if code := report.ExitCode(tally); code != report.ExitOK {
		return &exitError{code: code}
	}
	return nil
}
