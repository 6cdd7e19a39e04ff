// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package decode

import (
	"context"
	"fmt"
	"strings"

	"github.com/gen2brain/go-fitz"
)

// PDFDecoder extracts page text with MuPDF. Pages are separated by a blank
// line; pages without text are dropped.
type PDFDecoder struct{}

// NewPDFDecoder creates a PDFDecoder.
func NewPDFDecoder() *PDFDecoder {
	return &PDFDecoder{}
}

func (d *PDFDecoder) Name() string { return "mupdf" }

// Decode opens the document at path and extracts the text of every page.
func (d *PDFDecoder) Decode(ctx context.Context, path string) (string, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return "", fmt.Errorf("opening pdf: %w", err)
	}
	defer doc.Close()

	pages := make([]string, 0, doc.NumPage())
	for n := 0; n < doc.NumPage(); n++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		text, err := doc.Text(n)
		if err != nil {
			return "", fmt.Errorf("extracting page %d: %w", n+1, err)
		}
		if text = strings.TrimSpace(text); text != "" {
			pages = append(pages, text)
		}
	}

	if len(pages) == 0 {
		return "", nil
	}
	return strings.Join(pages, "\n\n") + "\n", nil
}
