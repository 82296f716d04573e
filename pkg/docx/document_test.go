package docx

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allanpk716/docx_mailmerge/internal/domain"
	"github.com/allanpk716/docx_mailmerge/internal/matcher"
	"github.com/allanpk716/docx_mailmerge/pkg/docx/docxtest"
)

const splitBody = `<w:p><w:pPr><w:jc w:val="center"/></w:pPr>` +
	`<w:r><w:rPr><w:b/></w:rPr><w:t xml:space="preserve">Hello &lt;&lt;NA</w:t></w:r>` +
	`<w:r><w:rPr><w:i/></w:rPr><w:t>ME&gt;&gt; today</w:t></w:r></w:p>`

func TestParseDocument_Paragraphs(t *testing.T) {
	doc, err := ParseDocument(docxtest.DocumentXML(splitBody))
	require.NoError(t, err)

	require.Len(t, doc.Paragraphs, 1)
	p := doc.Paragraphs[0]
	require.Equal(t, 2, p.RunCount())
	assert.Equal(t, "Hello <<NA", p.RunText(0))
	assert.Equal(t, "ME>> today", p.RunText(1))
	assert.Equal(t, "Hello <<NAME>> today", p.Text())
	assert.True(t, p.Runs()[0].HasFormatting())
	assert.False(t, doc.Modified())
}

func TestParseDocument_Tables(t *testing.T) {
	body := `<w:p><w:r><w:t>top</w:t></w:r></w:p>` +
		`<w:tbl><w:tr><w:tc><w:p><w:r><w:t>a1</w:t></w:r></w:p></w:tc>` +
		`<w:tc><w:p><w:r><w:t>b1</w:t></w:r></w:p>` +
		`<w:tbl><w:tr><w:tc><w:p><w:r><w:t>nested</w:t></w:r></w:p></w:tc></w:tr></w:tbl>` +
		`</w:tc></w:tr></w:tbl>`

	doc, err := ParseDocument(docxtest.DocumentXML(body))
	require.NoError(t, err)

	require.Len(t, doc.Paragraphs, 1)
	require.Len(t, doc.Tables, 1)
	require.Len(t, doc.Tables[0].Rows, 1)
	require.Len(t, doc.Tables[0].Rows[0].Cells, 2)

	var texts []string
	for _, p := range doc.TableParagraphs() {
		texts = append(texts, p.Text())
	}
	assert.Equal(t, []string{"a1", "b1"}, texts, "嵌套表格不参与")
}

func TestParseDocument_TabsAndBreaks(t *testing.T) {
	body := `<w:p><w:r><w:t>a</w:t><w:tab/><w:t>b</w:t><w:br/><w:t>c</w:t></w:r></w:p>`

	doc, err := ParseDocument(docxtest.DocumentXML(body))
	require.NoError(t, err)
	assert.Equal(t, "a\tb\nc", doc.Paragraphs[0].Text())
}

func TestParseDocument_InvalidXML(t *testing.T) {
	_, err := ParseDocument(`<w:document><w:body><w:p w:rsidR="`)
	assert.Error(t, err)
}

func TestDocument_XMLUnmodifiedRoundTrip(t *testing.T) {
	content := docxtest.DocumentXML(splitBody)
	doc, err := ParseDocument(content)
	require.NoError(t, err)

	again, err := ParseDocument(doc.XML())
	require.NoError(t, err)
	assert.Equal(t, doc.Text(), again.Text())
	assert.Contains(t, doc.XML(), `<w:jc w:val="center">`)
}

func TestDocument_SpliceKeepsFormatting(t *testing.T) {
	doc, err := ParseDocument(docxtest.DocumentXML(splitBody))
	require.NoError(t, err)

	matcher.ReplaceInRuns(doc.Paragraphs[0], domain.PlaceholderMap{{Key: "<<NAME>>", Value: "World & Co"}})
	require.True(t, doc.Modified())

	out := doc.XML()
	assert.Contains(t, out, `<w:rPr><w:b></w:b></w:rPr><w:t xml:space="preserve">Hello World &amp; Co today</w:t>`)
	assert.Contains(t, out, `<w:rPr><w:i></w:i></w:rPr></w:r>`, "被清空的 run 保留格式")
	assert.NotContains(t, out, "&lt;&lt;")

	again, err := ParseDocument(out)
	require.NoError(t, err)
	require.Equal(t, 2, again.Paragraphs[0].RunCount())
	assert.Equal(t, "Hello World & Co today", again.Paragraphs[0].RunText(0))
	assert.Equal(t, "", again.Paragraphs[0].RunText(1))
}

func TestDocument_MultilineReplacement(t *testing.T) {
	body := `<w:p><w:r><w:t>&lt;&lt;TEXT&gt;&gt;</w:t></w:r></w:p>`
	doc, err := ParseDocument(docxtest.DocumentXML(body))
	require.NoError(t, err)

	matcher.ReplaceInRuns(doc.Paragraphs[0], domain.PlaceholderMap{{Key: "<<TEXT>>", Value: "line1\nline2\tend"}})

	out := doc.XML()
	assert.Contains(t, out, `<w:t xml:space="preserve">line1</w:t><w:br/><w:t xml:space="preserve">line2</w:t><w:tab/><w:t xml:space="preserve">end</w:t>`)

	again, err := ParseDocument(out)
	require.NoError(t, err)
	assert.Equal(t, "line1\nline2\tend", again.Paragraphs[0].Text())
}

func TestDocxWrapper_OpenAndSave(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "template.docx")
	output := filepath.Join(dir, "out.docx")
	docxtest.WriteDocx(t, input, splitBody+
		`<w:tbl><w:tr><w:tc><w:p><w:r><w:t>&lt;&lt;NAME&gt;&gt;</w:t></w:r></w:p></w:tc></w:tr></w:tbl>`)

	dw := &DocxWrapper{}
	require.NoError(t, dw.OpenDocument(input))
	defer dw.Close()

	for _, p := range dw.Body().AllParagraphs() {
		matcher.ReplaceInRuns(p, domain.PlaceholderMap{{Key: "<<NAME>>", Value: "World"}})
	}
	assert.True(t, dw.IsModified())
	require.NoError(t, dw.SaveDocument(output))

	saved := docxtest.ReadDocumentXML(t, output)
	assert.Equal(t, 2, strings.Count(saved, "World"))
	assert.NotContains(t, saved, "NAME")
}

func TestDocxWrapper_SaveUnmodifiedCopiesOriginal(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "template.docx")
	output := filepath.Join(dir, "copy.docx")
	docxtest.WriteDocx(t, input, splitBody)

	dw := &DocxWrapper{}
	require.NoError(t, dw.OpenDocument(input))
	defer dw.Close()

	require.NoError(t, dw.SaveDocument(output))
	assert.Equal(t, docxtest.ReadDocumentXML(t, input), docxtest.ReadDocumentXML(t, output))
}

func TestDocxWrapper_OpenMissingFile(t *testing.T) {
	dw := &DocxWrapper{}
	assert.Error(t, dw.OpenDocument(filepath.Join(t.TempDir(), "missing.docx")))
	assert.NoError(t, dw.Close())
}

func TestValidateDocument_Missing(t *testing.T) {
	assert.Error(t, ValidateDocument(""))
	assert.Error(t, ValidateDocument(filepath.Join(t.TempDir(), "missing.docx")))
}

func TestExtractText(t *testing.T) {
	path := filepath.Join(t.TempDir(), "t.docx")
	docxtest.WriteDocx(t, path, `<w:p><w:r><w:t>one</w:t></w:r></w:p><w:p><w:r><w:t>two</w:t></w:r></w:p>`)

	text, err := ExtractText(path)
	require.NoError(t, err)
	assert.Equal(t, "one\ntwo", text)
}
