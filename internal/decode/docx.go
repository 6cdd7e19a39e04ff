// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package decode

import (
	"archive/zip"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

const docxBody = "word/document.xml"

// DOCXDecoder extracts paragraphs from a WordprocessingML package.
// Heading and Title paragraph styles become Markdown headings.
type DOCXDecoder struct{}

// NewDOCXDecoder creates a DOCXDecoder.
func NewDOCXDecoder() *DOCXDecoder {
	return &DOCXDecoder{}
}

func (d *DOCXDecoder) Name() string { return "docx" }

// Decode opens the zip package at path and renders word/document.xml.
func (d *DOCXDecoder) Decode(ctx context.Context, path string) (string, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return "", fmt.Errorf("opening docx package: %w", err)
	}
	defer zr.Close()

	for _, f := range zr.File {
		if f.Name != docxBody {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return "", fmt.Errorf("opening %s: %w", docxBody, err)
		}
		defer rc.Close()
		return renderDocumentXML(ctx, rc)
	}
	return "", fmt.Errorf("%s missing from package", docxBody)
}

// renderDocumentXML walks the WordprocessingML token stream. Only local
// names are matched so both transitional and strict namespaces work.
func renderDocumentXML(ctx context.Context, r io.Reader) (string, error) {
	dec := xml.NewDecoder(r)

	var (
		blocks  []string
		para    strings.Builder
		heading int
		inText  bool
		inPara  bool
		seen    int
	)

	for {
		seen++
		if seen%4096 == 0 {
			if err := ctx.Err(); err != nil {
				return "", err
			}
		}

		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("parsing %s: %w", docxBody, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "p":
				inPara = true
				para.Reset()
				heading = 0
			case "pStyle":
				heading = headingLevel(attr(t, "val"))
			case "t":
				inText = true
			case "tab":
				para.WriteByte('\t')
			case "br", "cr":
				para.WriteByte('\n')
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				if text := strings.TrimSpace(para.String()); text != "" {
					if heading > 0 {
						text = strings.Repeat("#", heading) + " " + text
					}
					blocks = append(blocks, text)
				}
				inPara = false
			}
		case xml.CharData:
			if inText && inPara {
				para.Write(t)
			}
		}
	}

	if len(blocks) == 0 {
		return "", nil
	}
	return strings.Join(blocks, "\n\n") + "\n", nil
}

func attr(el xml.StartElement, local string) string {
	for _, a := range el.Attr {
		if a.Name.Local == local {
			return a.Value
		}
	}
	return ""
}

// headingLevel maps a paragraph style id to a Markdown heading depth.
// Returns 0 for body styles.
func headingLevel(style string) int {
	s := strings.ToLower(style)
	if s == "title" {
		return 1
	}
	if !strings.HasPrefix(s, "heading") {
		return 0
	}
	n := strings.TrimSpace(strings.TrimPrefix(s, "heading"))
	if len(n) != 1 || n[0] < '1' || n[0] > '6' {
		return 0
	}
	return int(n[0] - '0')
}
