// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package decode

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/tomarkdown/internal/decode/decodetest"
)

func TestDOCXDecoder_Decode(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test_document.docx")
	decodetest.WriteDOCX(t, path,
		decodetest.Paragraph{Style: "Title", Text: "Test Document"},
		decodetest.Paragraph{Text: "First paragraph & more."},
		decodetest.Paragraph{Style: "Heading2", Text: "Details"},
		decodetest.Paragraph{Text: "   "},
		decodetest.Paragraph{Text: "Closing line."},
	)

	got, err := NewDOCXDecoder().Decode(context.Background(), path)
	require.NoError(t, err)

	want := "# Test Document\n\nFirst paragraph & more.\n\n## Details\n\nClosing line.\n"
	assert.Equal(t, want, got)
}

func TestDOCXDecoder_NotAZip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corrupt.docx")
	decodetest.WriteCorrupt(t, path)

	_, err := NewDOCXDecoder().Decode(context.Background(), path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "opening docx package")
}

func TestDOCXDecoder_MissingBody(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.docx")
	decodetest.WriteZip(t, path, map[string]string{"[Content_Types].xml": "<Types/>"})

	_, err := NewDOCXDecoder().Decode(context.Background(), path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "word/document.xml missing")
}

func TestDOCXDecoder_MalformedXML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.docx")
	decodetest.WriteZip(t, path, map[string]string{"word/document.xml": "<w:document><w:body><w:p>"})

	_, err := NewDOCXDecoder().Decode(context.Background(), path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing word/document.xml")
}

func TestRenderDocumentXML_TabsAndBreaks(t *testing.T) {
	doc := `<w:document xmlns:w="x"><w:body><w:p><w:r><w:t>a</w:t><w:tab/><w:t>b</w:t><w:br/><w:t>c</w:t></w:r></w:p></w:body></w:document>`
	got, err := renderDocumentXML(context.Background(), strings.NewReader(doc))
	require.NoError(t, err)
	assert.Equal(t, "a\tb\nc\n", got)
}

func TestHeadingLevel(t *testing.T) {
	tests := map[string]int{
		"Heading1":  1,
		"heading 3": 3,
		"Heading6":  6,
		"Heading7":  0,
		"Heading10": 0,
		"Title":     1,
		"Normal":    0,
		"":          0,
	}
	for style, want := range tests {
		assert.Equal(t, want, headingLevel(style), style)
	}
}
