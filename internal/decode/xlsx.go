// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package decode

import (
	"context"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// XLSXDecoder renders each worksheet as a heading followed by a Markdown
// table whose first row is the header.
type XLSXDecoder struct{}

// NewXLSXDecoder creates an XLSXDecoder.
func NewXLSXDecoder() *XLSXDecoder {
	return &XLSXDecoder{}
}

func (d *XLSXDecoder) Name() string { return "excelize" }

// Decode opens the workbook at path and renders every sheet in workbook order.
func (d *XLSXDecoder) Decode(ctx context.Context, path string) (string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return "", fmt.Errorf("opening workbook: %w", err)
	}
	defer f.Close()

	var b strings.Builder
	for i, sheet := range f.GetSheetList() {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		rows, err := f.GetRows(sheet)
		if err != nil {
			return "", fmt.Errorf("reading sheet %q: %w", sheet, err)
		}
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "## %s\n", sheet)
		writeTable(&b, rows)
	}
	return b.String(), nil
}

// writeTable renders rows as a pipe table. Ragged rows are padded to the
// widest row; sheets without cells produce no table.
func writeTable(b *strings.Builder, rows [][]string) {
	width := 0
	for _, row := range rows {
		if len(row) > width {
			width = len(row)
		}
	}
	if width == 0 {
		return
	}

	b.WriteString("\n")
	for i, row := range rows {
		writeRow(b, row, width)
		if i == 0 {
			b.WriteString("|")
			for j := 0; j < width; j++ {
				b.WriteString(" --- |")
			}
			b.WriteString("\n")
		}
	}
}

func writeRow(b *strings.Builder, row []string, width int) {
	b.WriteString("|")
	for j := 0; j < width; j++ {
		cell := ""
		if j < len(row) {
			cell = escapeCell(row[j])
		}
		b.WriteString(" ")
		b.WriteString(cell)
		b.WriteString(" |")
	}
	b.WriteString("\n")
}

var cellReplacer = strings.NewReplacer("|", `\|`, "\r\n", " ", "\n", " ")

func escapeCell(s string) string {
	return strings.TrimSpace(cellReplacer.Replace(s))
}
