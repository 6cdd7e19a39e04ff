// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/tomarkdown/internal/container"
	"github.com/pdiddy/tomarkdown/internal/decode"
	"github.com/pdiddy/tomarkdown/internal/decode/decodetest"
	"github.com/pdiddy/tomarkdown/pkg/types"
)

func TestMain(m *testing.M) {
	color.NoColor = true
	os.Exit(m.Run())
}

// run executes the CLI and returns its exit code and captured streams.
func run(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := execute(context.Background(), args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

// stubRuntime stands in for docker/podman. Run writes a heading naming
// its arguments, followed by stdin.
type stubRuntime struct {
	imageErr error
}

func (s *stubRuntime) Name() string             { return "stub" }
func (s *stubRuntime) Available() bool          { return true }
func (s *stubRuntime) ImageExists(string) error { return s.imageErr }

func (s *stubRuntime) Run(_ context.Context, _ string, args []string, stdin io.Reader, stdout io.Writer) error {
	data, err := io.ReadAll(stdin)
	if err != nil {
		return err
	}
	_, err = io.WriteString(stdout, "# "+strings.Join(args, " ")+"\n"+string(data))
	return err
}

func withRuntime(t *testing.T, rt container.Runtime, rtErr error) {
	t.Helper()
	prev := newRegistry
	newRegistry = func(backend types.Backend) (*decode.Registry, error) {
		return decode.NewRegistry(backend, func() (container.Runtime, error) {
			if rtErr != nil {
				return nil, rtErr
			}
			return rt, nil
		})
	}
	t.Cleanup(func() { newRegistry = prev })
}

func TestRun_ConvertsMixedDirectory(t *testing.T) {
	dir := t.TempDir()
	decodetest.WriteDOCX(t, filepath.Join(dir, "a.docx"),
		decodetest.Paragraph{Style: "Heading1", Text: "Alpha"},
		decodetest.Paragraph{Text: "Body text."},
	)
	decodetest.WritePDF(t, filepath.Join(dir, "nested", "b.pdf"), "Bravo")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "c.txt"), []byte("ignored"), 0o644))

	code, stdout, stderr := run(t, dir, "--workers", "2")

	assert.Equal(t, 0, code, "stderr: %s", stderr)
	outDir := filepath.Join(dir, "markdown")
	assert.Contains(t, stdout, "Converting files from: "+dir+"\n")
	assert.Contains(t, stdout, "Output directory: "+outDir+"\n")
	assert.Contains(t, stdout, "Workers: 2\n\n")
	assert.Contains(t, stdout, "Converted: "+filepath.Join(dir, "a.docx")+" -> "+filepath.Join(outDir, "a.md")+"\n")
	assert.Contains(t, stdout, "Converted: "+filepath.Join(dir, "nested", "b.pdf")+" -> "+filepath.Join(outDir, "nested", "b.md")+"\n")
	assert.True(t, strings.HasSuffix(stdout, "\nConversion complete: 2 successful, 0 errors\n"), stdout)
	assert.NotContains(t, stderr, "Error converting")

	docx, err := os.ReadFile(filepath.Join(outDir, "a.md"))
	require.NoError(t, err)
	assert.Equal(t, "# Alpha\n\nBody text.\n", string(docx))

	pdf, err := os.ReadFile(filepath.Join(outDir, "nested", "b.md"))
	require.NoError(t, err)
	assert.Contains(t, string(pdf), "Bravo")

	_, err = os.Stat(filepath.Join(outDir, "c.md"))
	assert.True(t, os.IsNotExist(err), "unsupported files produce no output")
}

func TestRun_CorruptFileFails(t *testing.T) {
	dir := t.TempDir()
	decodetest.WriteCorrupt(t, filepath.Join(dir, "bad.pdf"))

	code, stdout, stderr := run(t, dir, "--workers", "1")

	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "Error converting "+filepath.Join(dir, "bad.pdf")+": ")
	assert.True(t, strings.HasSuffix(stdout, "\nConversion complete: 0 successful, 1 errors\n"), stdout)

	_, err := os.Stat(filepath.Join(dir, "markdown", "bad.md"))
	assert.True(t, os.IsNotExist(err), "failed conversions write nothing")
}

func TestRun_OneFailureDoesNotStopOthers(t *testing.T) {
	dir := t.TempDir()
	decodetest.WriteCorrupt(t, filepath.Join(dir, "bad.docx"))
	decodetest.WriteDOCX(t, filepath.Join(dir, "good.docx"), decodetest.Paragraph{Text: "fine"})
	decodetest.WriteXLSX(t, filepath.Join(dir, "sheet.xlsx"),
		[]string{"Data"},
		map[string][][]string{"Data": {{"k", "v"}, {"a", "1"}}},
	)

	code, stdout, _ := run(t, dir, "--workers", "3")

	assert.Equal(t, 1, code)
	assert.Contains(t, stdout, "Conversion complete: 2 successful, 1 errors\n")
	_, err := os.Stat(filepath.Join(dir, "markdown", "good.md"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "markdown", "sheet.md"))
	assert.NoError(t, err)
}

func TestRun_EmptyDirectory(t *testing.T) {
	dir := t.TempDir()

	code, stdout, _ := run(t, dir)

	assert.Equal(t, 0, code)
	assert.Contains(t, stdout, "Conversion complete: 0 successful, 0 errors\n")
	_, err := os.Stat(filepath.Join(dir, "markdown"))
	assert.True(t, os.IsNotExist(err), "no output directory for an empty run")
}

func TestRun_OutputTo(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(t.TempDir(), "converted")
	decodetest.WriteDOCX(t, filepath.Join(dir, "x", "a.docx"), decodetest.Paragraph{Text: "hello"})

	code, stdout, _ := run(t, dir, "--output-to", out)

	assert.Equal(t, 0, code)
	assert.Contains(t, stdout, "Output directory: "+out+"\n")
	data, err := os.ReadFile(filepath.Join(out, "x", "a.md"))
	require.NoError(t, err)
	assert.Equal(t, "hello\n", string(data))
}

func TestRun_OverwritesExistingOutput(t *testing.T) {
	dir := t.TempDir()
	decodetest.WriteDOCX(t, filepath.Join(dir, "a.docx"), decodetest.Paragraph{Text: "new"})
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "markdown"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "markdown", "a.md"), []byte("old content that is longer"), 0o644))

	code, _, _ := run(t, dir)

	assert.Equal(t, 0, code)
	data, err := os.ReadFile(filepath.Join(dir, "markdown", "a.md"))
	require.NoError(t, err)
	assert.Equal(t, "new\n", string(data))
}

func TestRun_InputErrors(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "file.pdf")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))
	missing := filepath.Join(dir, "missing")

	tests := []struct {
		name       string
		args       []string
		wantStderr string
	}{
		{name: "missing directory", args: []string{missing}, wantStderr: "Error: Directory not found: " + missing + "\n"},
		{name: "not a directory", args: []string{file}, wantStderr: "Error: Not a directory: " + file + "\n"},
		{name: "negative workers", args: []string{dir, "--workers", "-2"}, wantStderr: "Error: --workers must be a positive integer, got -2\n"},
		{name: "unknown backend", args: []string{dir, "--backend", "pandoc"}, wantStderr: `Error: unknown backend "pandoc"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, stdout, stderr := run(t, tt.args...)
			assert.Equal(t, 1, code)
			assert.Contains(t, stderr, tt.wantStderr)
			assert.NotContains(t, stdout, "Converting files from")
		})
	}
}

func TestRun_MissingArgument(t *testing.T) {
	code, _, stderr := run(t)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "accepts 1 arg(s), received 0")
}

func TestRun_EnvOverridesWorkers(t *testing.T) {
	t.Setenv("TOMARKDOWN_WORKERS", "3")
	dir := t.TempDir()

	code, stdout, _ := run(t, dir)

	assert.Equal(t, 0, code)
	assert.Contains(t, stdout, "Workers: 3\n")
}

func TestRun_DefaultWorkers(t *testing.T) {
	dir := t.TempDir()

	code, stdout, _ := run(t, dir, "--workers", "0")

	assert.Equal(t, 0, code)
	assert.NotContains(t, stdout, "Workers: 0\n")
}

func TestRun_Progress(t *testing.T) {
	dir := t.TempDir()
	decodetest.WriteDOCX(t, filepath.Join(dir, "a.docx"), decodetest.Paragraph{Text: "one"})
	decodetest.WriteDOCX(t, filepath.Join(dir, "b.docx"), decodetest.Paragraph{Text: "two"})

	code, stdout, stderr := run(t, dir, "--progress")

	assert.Equal(t, 0, code)
	assert.NotContains(t, stdout, "Converted:")
	assert.Contains(t, stdout, "Conversion complete: 2 successful, 0 errors\n")
	assert.Contains(t, stderr, "Converting")
}

func TestRun_ProgressWithFailures(t *testing.T) {
	dir := t.TempDir()
	const n = 8
	for i := range n {
		decodetest.WriteCorrupt(t, filepath.Join(dir, fmt.Sprintf("bad%d.pdf", i)))
	}

	code, stdout, stderr := run(t, dir, "--progress", "--workers", "4")

	assert.Equal(t, 1, code)
	assert.Contains(t, stdout, fmt.Sprintf("Conversion complete: 0 successful, %d errors\n", n))

	failures := 0
	for _, line := range strings.Split(stderr, "\n") {
		if !strings.Contains(line, "Error converting") {
			continue
		}
		failures++
		// The bar is cleared with carriage returns before each error line,
		// so the visible text after the last one must be the error alone.
		visible := line[strings.LastIndex(line, "\r")+1:]
		assert.True(t, strings.HasPrefix(visible, "Error converting "+dir), "error line joined onto bar: %q", line)
	}
	assert.Equal(t, n, failures)
}

func TestRun_CancelledContext(t *testing.T) {
	dir := t.TempDir()
	decodetest.WriteDOCX(t, filepath.Join(dir, "a.docx"), decodetest.Paragraph{Text: "one"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var stdout, stderr bytes.Buffer
	code := execute(ctx, []string{dir}, &stdout, &stderr)

	assert.Equal(t, 1, code)
	assert.Contains(t, stdout.String(), "Conversion complete: 0 successful, 1 errors\n")
}

func TestRun_MarkitdownBackend(t *testing.T) {
	withRuntime(t, &stubRuntime{}, nil)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.pdf"), []byte("raw"), 0o644))

	code, stdout, stderr := run(t, dir, "--backend", "markitdown")

	assert.Equal(t, 0, code, "stderr: %s", stderr)
	assert.Contains(t, stdout, "Conversion complete: 1 successful, 0 errors\n")
	data, err := os.ReadFile(filepath.Join(dir, "markdown", "a.md"))
	require.NoError(t, err)
	assert.Equal(t, "# -x pdf\nraw", string(data))
}

func TestRun_MarkitdownUnavailable(t *testing.T) {
	withRuntime(t, nil, errors.New("no container runtime available"))
	dir := t.TempDir()

	code, stdout, stderr := run(t, dir, "--backend", "markitdown")

	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "Error: markitdown backend unavailable: ")
	assert.Contains(t, stderr, "no container runtime available")
	assert.Empty(t, stdout)
}

func TestVersion(t *testing.T) {
	code, stdout, _ := run(t, "version")
	assert.Equal(t, 0, code)
	assert.Equal(t, "tomarkdown dev\n", stdout)
}

func TestCheck(t *testing.T) {
	tests := []struct {
		name      string
		args      []string
		rtErr     error
		imageErr  error
		wantCode  int
		wantLines []string
	}{
		{
			name:      "native",
			args:      []string{"check"},
			wantCode:  0,
			wantLines: []string{".docx", "docx", ".pdf", "mupdf", ".xlsx", "excelize"},
		},
		{
			name:      "markitdown available",
			args:      []string{"check", "--backend", "markitdown"},
			wantCode:  0,
			wantLines: []string{".docx", "markitdown", "ok"},
		},
		{
			name:      "markitdown image missing",
			args:      []string{"check", "--backend", "markitdown"},
			imageErr:  errors.New("no such image"),
			wantCode:  1,
			wantLines: []string{"unavailable: markitdown image not available in stub"},
		},
		{
			name:      "no runtime",
			args:      []string{"check", "--backend", "markitdown"},
			rtErr:     errors.New("no container runtime available"),
			wantCode:  1,
			wantLines: []string{"unavailable: no container runtime available"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			withRuntime(t, &stubRuntime{imageErr: tt.imageErr}, tt.rtErr)

			code, stdout, _ := run(t, tt.args...)

			assert.Equal(t, tt.wantCode, code)
			assert.True(t, strings.HasPrefix(stdout, "EXTENSION"), stdout)
			for _, want := range tt.wantLines {
				assert.Contains(t, stdout, want)
			}
		})
	}
}
