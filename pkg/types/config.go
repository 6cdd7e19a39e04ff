// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"fmt"
	"time"
)

// Backend identifies the set of decoders used for a run.
type Backend string

const (
	// BackendNative decodes in-process: DOCX via zip/xml, XLSX via
	// excelize, PDF via MuPDF (go-fitz).
	BackendNative Backend = "native"

	// BackendMarkitdown pipes every document through the markitdown
	// container image.
	BackendMarkitdown Backend = "markitdown"
)

// ParseBackend validates a backend name.
func ParseBackend(s string) (Backend, error) {
	switch Backend(s) {
	case BackendNative, BackendMarkitdown:
		return Backend(s), nil
	case "":
		return BackendNative, nil
	}
	return "", fmt.Errorf("unknown backend %q (want %s or %s)", s, BackendNative, BackendMarkitdown)
}

// ConvertConfig holds settings for one conversion run. Field tags match the
// CLI flag names so viper can unmarshal bound flags and TOMARKDOWN_* env
// variables directly.
type ConvertConfig struct {
	// InputDir is the root directory to scan.
	InputDir string `mapstructure:"input-dir" json:"input_dir"`

	// OutputDir is the destination root (default "<InputDir>/markdown").
	OutputDir string `mapstructure:"output-to" json:"output_dir"`

	// Workers is the pool size. Zero means the CPU count resolved by the CLI.
	Workers int `mapstructure:"workers" json:"workers"`

	// Backend selects the decoder set.
	Backend Backend `mapstructure:"backend" json:"backend"`

	// TaskTimeout bounds a single file conversion; zero disables it.
	TaskTimeout time.Duration `mapstructure:"timeout" json:"timeout"`

	// Progress renders a progress bar instead of per-file success lines.
	Progress bool `mapstructure:"progress" json:"progress"`
}

// InputError reports an unusable root directory. It is the only fatal,
// pre-run error; per-file failures are carried as Outcomes instead.
type InputError struct {
	Path   string
	Reason string
}

func (e *InputError) Error() string {
	return fmt.Sprintf("%s: %s", e.Reason, e.Path)
}
