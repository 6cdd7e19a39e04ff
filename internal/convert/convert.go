// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package convert implements the batch document-to-Markdown pipeline:
// discovering convertible files under a root, converting one file through
// the decoder registry, and fanning tasks out over a bounded worker pool.
package convert

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/afero"

	"github.com/pdiddy/tomarkdown/internal/decode"
	"github.com/pdiddy/tomarkdown/pkg/types"
)

// Decoder turns the document at path into Markdown. *decode.Registry
// satisfies it.
type Decoder interface {
	Decode(ctx context.Context, ext, path string) (string, error)
}

// Converter converts single files. It is safe for concurrent use: each call
// touches only its own task's paths, and the progress writers are
// serialized.
type Converter struct {
	decoder Decoder
	fs      afero.Fs
	stdout  io.Writer
	stderr  io.Writer
	logger  *slog.Logger
}

// ConverterConfig holds the collaborators of a Converter. Zero values pick
// defaults: the OS filesystem, os.Stdout/os.Stderr, and slog.Default().
type ConverterConfig struct {
	Decoder Decoder
	Fs      afero.Fs
	Stdout  io.Writer
	Stderr  io.Writer
	Logger  *slog.Logger
}

// NewConverter creates a Converter from cfg.
func NewConverter(cfg ConverterConfig) *Converter {
	c := &Converter{
		decoder: cfg.Decoder,
		fs:      cfg.Fs,
		stdout:  cfg.Stdout,
		stderr:  cfg.Stderr,
		logger:  cfg.Logger,
	}
	if c.fs == nil {
		c.fs = afero.NewOsFs()
	}
	if c.stdout == nil {
		c.stdout = os.Stdout
	}
	if c.stderr == nil {
		c.stderr = os.Stderr
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	c.stdout = NewSyncWriter(c.stdout)
	c.stderr = NewSyncWriter(c.stderr)
	return c
}

// Convert processes one task and reports the outcome as data; it never
// panics on bad input and never returns an error to the caller.
//
// Unsupported extensions are skipped silently: no file is written and
// nothing is printed. Decode failures write nothing. On success the output
// parent directories are created and the Markdown replaces any existing
// file at OutputPath.
func (c *Converter) Convert(ctx context.Context, task types.Task) types.Outcome {
	ext := filepath.Ext(task.InputPath)
	if !decode.IsSupported(ext) {
		c.logger.DebugContext(ctx, "skipping unsupported file", "input", task.InputPath)
		return types.Skipped(task)
	}

	content, err := c.decoder.Decode(ctx, ext, task.InputPath)
	if err != nil {
		if errors.Is(err, decode.ErrUnsupportedType) {
			return types.Skipped(task)
		}
		return c.fail(ctx, task, err)
	}

	if err := c.write(task.OutputPath, content); err != nil {
		return c.fail(ctx, task, err)
	}

	fmt.Fprintf(c.stdout, "Converted: %s -> %s\n", task.InputPath, task.OutputPath)
	c.logger.DebugContext(ctx, "converted file",
		"input", task.InputPath,
		"output", task.OutputPath,
		"bytes", len(content),
	)
	return types.Succeeded(task)
}

func (c *Converter) fail(ctx context.Context, task types.Task, err error) types.Outcome {
	io.WriteString(c.stderr, FailureLine(task.InputPath, err))
	c.logger.DebugContext(ctx, "conversion failed",
		"input", task.InputPath,
		"error", err,
	)
	return types.Failed(task, err)
}

// write stores content at path via a temp file in the same directory, so
// a failed write never leaves a partial file at path.
func (c *Converter) write(path, content string) error {
	dir := filepath.Dir(path)
	if err := c.fs.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating output directory %s: %w", dir, err)
	}

	tmp, err := afero.TempFile(c.fs, dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp file in %s: %w", dir, err)
	}
	tmpName := tmp.Name()

	if _, err := io.WriteString(tmp, content); err != nil {
		tmp.Close()
		c.fs.Remove(tmpName)
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		c.fs.Remove(tmpName)
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := c.fs.Chmod(tmpName, 0o644); err != nil {
		c.fs.Remove(tmpName)
		return fmt.Errorf("setting mode on %s: %w", path, err)
	}
	if err := c.fs.Rename(tmpName, path); err != nil {
		c.fs.Remove(tmpName)
		return fmt.Errorf("replacing %s: %w", path, err)
	}
	return nil
}

// FailureLine formats the per-file error report.
func FailureLine(input string, err error) string {
	return fmt.Sprintf("Error converting %s: %v\n", input, err)
}

// lockedWriter serializes writes so lines from concurrent writers never
// interleave.
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

// NewSyncWriter returns w guarded by a mutex. Wrapping an already
// synchronized writer returns it unchanged, so every holder shares one lock.
func NewSyncWriter(w io.Writer) io.Writer {
	if lw, ok := w.(*lockedWriter); ok {
		return lw
	}
	return &lockedWriter{w: w}
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}
