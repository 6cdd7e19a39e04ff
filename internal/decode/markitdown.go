// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package decode

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/pdiddy/tomarkdown/internal/container"
)

// MarkitdownImage is the container image the markitdown backend runs. Its
// entrypoint must be the markitdown CLI reading stdin.
const MarkitdownImage = "markitdown:latest"

// RuntimeFunc locates a container runtime.
type RuntimeFunc func() (container.Runtime, error)

// runtimeOnce resolves the container runtime and verifies the image once,
// shared by all markitdown decoders of a registry.
type runtimeOnce struct {
	resolve RuntimeFunc
	once    sync.Once
	rt      container.Runtime
	err     error
}

func newRuntimeOnce(fn RuntimeFunc) *runtimeOnce {
	return &runtimeOnce{resolve: fn}
}

func (o *runtimeOnce) get() (container.Runtime, error) {
	o.once.Do(func() {
		rt, err := o.resolve()
		if err != nil {
			o.err = err
			return
		}
		if err := rt.ImageExists(MarkitdownImage); err != nil {
			o.err = fmt.Errorf("markitdown image not available in %s: %w", rt.Name(), err)
			return
		}
		o.rt = rt
	})
	return o.rt, o.err
}

// MarkitdownDecoder pipes a document through the markitdown container,
// passing the format as an extension hint since stdin carries no name.
type MarkitdownDecoder struct {
	ext     string
	runtime *runtimeOnce
}

func newMarkitdownDecoder(ext string, rt *runtimeOnce) *MarkitdownDecoder {
	return &MarkitdownDecoder{ext: ext, runtime: rt}
}

// NewMarkitdownDecoder creates a decoder for ext backed by the runtime fn
// returns. The runtime is resolved on first use.
func NewMarkitdownDecoder(ext string, fn RuntimeFunc) *MarkitdownDecoder {
	return newMarkitdownDecoder(normalizeExt(ext), newRuntimeOnce(fn))
}

func (m *MarkitdownDecoder) Name() string { return "markitdown" }

// Available reports whether a runtime and the markitdown image are present.
func (m *MarkitdownDecoder) Available() error {
	_, err := m.runtime.get()
	return err
}

// Decode reads path, pipes it through the container and returns the
// resulting Markdown.
func (m *MarkitdownDecoder) Decode(ctx context.Context, path string) (string, error) {
	rt, err := m.runtime.get()
	if err != nil {
		return "", err
	}

	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	var out bytes.Buffer
	args := []string{"-x", strings.TrimPrefix(m.ext, ".")}
	if err := rt.Run(ctx, MarkitdownImage, args, f, &out); err != nil {
		return "", err
	}

	if out.Len() == 0 {
		return "", errors.New("markitdown produced empty output")
	}
	return out.String(), nil
}
