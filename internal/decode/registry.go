// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package decode maps document file extensions to decoders that turn one
// binary document into Markdown text. The set of recognized extensions is
// fixed (.docx, .xlsx, .pdf); which decoder serves each one depends on the
// selected backend.
package decode

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pdiddy/tomarkdown/internal/container"
	"github.com/pdiddy/tomarkdown/pkg/types"
)

// Recognized extensions, lowercase with leading dot.
const (
	ExtDOCX = ".docx"
	ExtXLSX = ".xlsx"
	ExtPDF  = ".pdf"
)

// MarkdownExt is the extension given to every output file.
const MarkdownExt = ".md"

var supported = map[string]bool{
	ExtDOCX: true,
	ExtXLSX: true,
	ExtPDF:  true,
}

// ErrUnsupportedType is returned for extensions outside the recognized set.
// No decoder is invoked for them.
var ErrUnsupportedType = errors.New("unsupported file type")

// Decoder converts the document at path into Markdown text.
type Decoder interface {
	// Name identifies the decoder in logs and in the check report.
	Name() string
	// Decode reads path and returns its Markdown rendering.
	Decode(ctx context.Context, path string) (string, error)
}

// Checker is implemented by decoders that depend on something outside the
// process (a container runtime, an image) and can report whether it is
// usable.
type Checker interface {
	Available() error
}

// DecodeError wraps a decoder failure with the file and decoder involved.
type DecodeError struct {
	Path    string
	Format  string
	Decoder string
	Err     error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("%s decode of %s failed: %v", e.Decoder, e.Path, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// SupportedExtensions returns the recognized extensions in sorted order.
func SupportedExtensions() []string {
	exts := make([]string, 0, len(supported))
	for ext := range supported {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// IsSupported reports whether ext (with or without leading dot, any case)
// is a recognized extension.
func IsSupported(ext string) bool {
	return supported[normalizeExt(ext)]
}

// IsSupportedPath reports whether path carries a recognized extension.
func IsSupportedPath(path string) bool {
	return IsSupported(filepath.Ext(path))
}

func normalizeExt(ext string) string {
	ext = strings.ToLower(ext)
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}

// Entry pairs an extension with the decoder registered for it.
type Entry struct {
	Ext     string
	Decoder Decoder
}

// Registry maps recognized extensions to decoders. Registration happens
// before a run starts; afterwards the registry is only read and is safe for
// concurrent use by workers.
type Registry struct {
	decoders map[string]Decoder
}

// NewEmptyRegistry returns a registry with no decoders. Every recognized
// extension decodes with an error until Register is called for it.
func NewEmptyRegistry() *Registry {
	return &Registry{decoders: make(map[string]Decoder)}
}

// NewRegistry builds the registry for backend. runtime is consulted lazily
// by the markitdown backend and may be nil for the native backend; when nil
// it defaults to container.DetectRuntime.
func NewRegistry(backend types.Backend, runtime RuntimeFunc) (*Registry, error) {
	r := NewEmptyRegistry()
	switch backend {
	case types.BackendNative, "":
		r.decoders[ExtDOCX] = NewDOCXDecoder()
		r.decoders[ExtXLSX] = NewXLSXDecoder()
		r.decoders[ExtPDF] = NewPDFDecoder()
	case types.BackendMarkitdown:
		if runtime == nil {
			runtime = container.DetectRuntime
		}
		shared := newRuntimeOnce(runtime)
		for ext := range supported {
			r.decoders[ext] = newMarkitdownDecoder(ext, shared)
		}
	default:
		return nil, fmt.Errorf("unknown backend %q", backend)
	}
	return r, nil
}

// Register installs d for ext, replacing any existing decoder. Only
// recognized extensions may be registered.
func (r *Registry) Register(ext string, d Decoder) error {
	ext = normalizeExt(ext)
	if !supported[ext] {
		return fmt.Errorf("%w: %s", ErrUnsupportedType, ext)
	}
	r.decoders[ext] = d
	return nil
}

// Lookup returns the decoder for ext.
func (r *Registry) Lookup(ext string) (Decoder, bool) {
	ext = normalizeExt(ext)
	if !supported[ext] {
		return nil, false
	}
	d, ok := r.decoders[ext]
	return d, ok
}

// Decode converts path using the decoder for ext. Unrecognized extensions
// return ErrUnsupportedType without side effects; decoder failures are
// returned as *DecodeError.
func (r *Registry) Decode(ctx context.Context, ext, path string) (string, error) {
	ext = normalizeExt(ext)
	if !supported[ext] {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedType, ext)
	}
	d, ok := r.decoders[ext]
	if !ok {
		return "", &DecodeError{Path: path, Format: ext, Decoder: "none", Err: errors.New("no decoder registered")}
	}

	text, err := d.Decode(ctx, path)
	if err != nil {
		return "", &DecodeError{Path: path, Format: ext, Decoder: d.Name(), Err: err}
	}
	return text, nil
}

// Entries lists registered decoders sorted by extension.
func (r *Registry) Entries() []Entry {
	entries := make([]Entry, 0, len(r.decoders))
	for ext, d := range r.decoders {
		entries = append(entries, Entry{Ext: ext, Decoder: d})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Ext < entries[j].Ext })
	return entries
}

// Check verifies every decoder implementing Checker, returning the first
// problem found.
func (r *Registry) Check() error {
	for _, e := range r.Entries() {
		c, ok := e.Decoder.(Checker)
		if !ok {
			continue
		}
		if err := c.Available(); err != nil {
			return fmt.Errorf("%s decoder for %s: %w", e.Decoder.Name(), e.Ext, err)
		}
	}
	return nil
}
