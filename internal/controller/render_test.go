package controller

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allanpk716/docx_mailmerge/internal/domain"
	"github.com/allanpk716/docx_mailmerge/internal/preview/pdftest"
	"github.com/allanpk716/docx_mailmerge/internal/recipient"
	"github.com/allanpk716/docx_mailmerge/pkg/docx"
	"github.com/allanpk716/docx_mailmerge/pkg/docx/docxtest"
)

const letterBody = `<w:p><w:r><w:rPr><w:b/></w:rPr><w:t>&lt;&lt;OBRA</w:t></w:r>` +
	`<w:r><w:t>SHENIE&gt;&gt;!</w:t></w:r></w:p>` +
	`<w:p><w:r><w:t>&lt;&lt;TEXT&gt;&gt;</w:t></w:r></w:p>`

func letterRecipients() []recipient.Recipient {
	return []recipient.Recipient{
		person("Иванова", "Анна", "Ивановна", "ivanova@tatar.ru"),
		person("Петров", "Олег", "", "petrov@tatar.ru"),
	}
}

func writeLetterTemplate(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "template.docx")
	docxtest.WriteDocx(t, path, letterBody)
	return path
}

func TestController_LoadTemplate(t *testing.T) {
	c := newTestController(t, Deps{})

	stats, err := c.LoadTemplate(context.Background(), writeLetterTemplate(t))
	require.NoError(t, err)
	require.Len(t, stats, 2)
	assert.Equal(t, "<<OBRASHENIE>>", stats[0].Keyword)
	assert.Equal(t, 1, stats[0].Occurrences)
	assert.Equal(t, "<<TEXT>>", stats[1].Keyword)
	assert.Equal(t, 1, stats[1].Occurrences)
	assert.NotEmpty(t, c.State().TemplatePath)

	_, err = c.LoadTemplate(context.Background(), filepath.Join(t.TempDir(), "missing.docx"))
	assert.Error(t, err)
}

func TestController_LoadTemplate_MissingPlaceholder(t *testing.T) {
	c := newTestController(t, Deps{})
	path := filepath.Join(t.TempDir(), "plain.docx")
	docxtest.WriteDocx(t, path, `<w:p><w:r><w:t>&lt;&lt;TEXT&gt;&gt; и &lt;&lt;TEXT&gt;&gt;</w:t></w:r></w:p>`)

	stats, err := c.LoadTemplate(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, []domain.ReplacementStats{
		{Keyword: "<<OBRASHENIE>>"},
		{Keyword: "<<TEXT>>", Occurrences: 2, InParagraphs: 2},
	}, stats)
}

func TestController_GenerateDOCX(t *testing.T) {
	c := newTestController(t, Deps{})
	c.SetRecipients(letterRecipients())
	_, err := c.LoadTemplate(context.Background(), writeLetterTemplate(t))
	require.NoError(t, err)

	var progress []int
	result, err := c.GenerateDOCX(context.Background(), "Поздравляем с праздником!\n\n", func(n, total int, message string) {
		progress = append(progress, n)
	})
	require.NoError(t, err)
	assert.Equal(t, BatchResult{Total: 2, Done: 2, Dir: result.Dir}, result)
	assert.Equal(t, []int{1, 2}, progress)

	text, err := docx.ExtractText(filepath.Join(result.Dir, "Иванова А.И.docx"))
	require.NoError(t, err)
	assert.Contains(t, text, "Уважаемая Анна Ивановна!")
	assert.Contains(t, text, "Поздравляем с праздником!")
	assert.NotContains(t, text, "<<")

	text, err = docx.ExtractText(filepath.Join(result.Dir, "Петров О.docx"))
	require.NoError(t, err)
	assert.Contains(t, text, "Уважаемый Олег!")
}

func TestController_GenerateDOCX_Preconditions(t *testing.T) {
	c := New(nil, Deps{})
	_, err := c.GenerateDOCX(context.Background(), "", nil)
	assert.ErrorIs(t, err, domain.ErrNoData)

	c.SetRecipients(letterRecipients())
	_, err = c.GenerateDOCX(context.Background(), "", nil)
	assert.ErrorIs(t, err, domain.ErrNoProjectDir)

	require.NoError(t, c.SetProjectDir(t.TempDir()))
	_, err = c.GenerateDOCX(context.Background(), "", nil)
	assert.ErrorIs(t, err, domain.ErrNoTemplate)
}

func TestController_GenerateDOCX_RowFailureContinues(t *testing.T) {
	c := newTestController(t, Deps{})
	c.SetRecipients(letterRecipients())
	_, err := c.LoadTemplate(context.Background(), writeLetterTemplate(t))
	require.NoError(t, err)

	// 第一行的输出路径被目录占用，写入失败
	require.NoError(t, os.MkdirAll(c.project.DocxPath(&c.recipients[0]), 0755))

	result, err := c.GenerateDOCX(context.Background(), "текст", nil)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Done)
	assert.Equal(t, 1, result.Failed)
}

func TestController_GenerateDOCX_Canceled(t *testing.T) {
	c := newTestController(t, Deps{})
	c.SetRecipients(letterRecipients())
	_, err := c.LoadTemplate(context.Background(), writeLetterTemplate(t))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = c.GenerateDOCX(ctx, "текст", nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestController_GeneratePDF(t *testing.T) {
	conv := &fakeConverter{fail: map[string]bool{"Петров О.docx": true}}
	c := newTestController(t, Deps{Converter: conv})
	c.SetRecipients(letterRecipients())

	_, err := c.GeneratePDF(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrNoDocx)

	_, err = c.LoadTemplate(context.Background(), writeLetterTemplate(t))
	require.NoError(t, err)
	_, err = c.GenerateDOCX(context.Background(), "текст", nil)
	require.NoError(t, err)

	result, err := c.GeneratePDF(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Total)
	assert.Equal(t, 1, result.Done)
	assert.Equal(t, 1, result.Failed)
	assert.Equal(t, 2, conv.calls)
	assert.FileExists(t, filepath.Join(result.Dir, "Иванова А.И.pdf"))
	assert.NoFileExists(t, filepath.Join(result.Dir, "Петров О.pdf"))
}

func TestController_GeneratePDF_MissingDocx(t *testing.T) {
	conv := &fakeConverter{}
	c := newTestController(t, Deps{Converter: conv})
	c.SetRecipients(letterRecipients())

	// 只有第一行有 DOCX
	require.NoError(t, os.WriteFile(c.project.DocxPath(&c.recipients[0]), []byte("docx"), 0644))

	result, err := c.GeneratePDF(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Done)
	assert.Equal(t, 1, result.Failed)
	assert.Equal(t, 1, conv.calls)
}

func TestController_ExportPDF(t *testing.T) {
	c := newTestController(t, Deps{})
	c.SetRecipients(letterRecipients())
	require.NoError(t, os.WriteFile(c.project.PDFPath(&c.recipients[0]), []byte("%PDF"), 0644))

	dest := filepath.Join(t.TempDir(), "export")
	summary, err := c.ExportPDF(dest)
	require.NoError(t, err)
	assert.Equal(t, domain.ExportSummary{Copied: 1, Missing: 1, Dest: dest}, summary)

	data, err := os.ReadFile(filepath.Join(dest, "Иванова А.И.pdf"))
	require.NoError(t, err)
	assert.Equal(t, "%PDF", string(data))
}

func TestController_ExportPDF_NoPDFDir(t *testing.T) {
	c := newTestController(t, Deps{})
	c.SetRecipients(letterRecipients())
	require.NoError(t, os.RemoveAll(filepath.Join(c.project.Dir(), "RESULT", "PDF")))

	_, err := c.ExportPDF(t.TempDir())
	assert.ErrorIs(t, err, domain.ErrNoPDF)
}

func TestController_Preview(t *testing.T) {
	c := newTestController(t, Deps{})
	c.SetRecipients(letterRecipients())

	_, err := c.Preview(0, 1, false)
	assert.ErrorIs(t, err, domain.ErrNoPDF)

	pdftest.WritePDF(t, c.project.PDFPath(&c.recipients[0]), "Greetings")

	p, err := c.Preview(0, 1, true)
	require.NoError(t, err)
	assert.Equal(t, 1, p.Total)
	assert.Contains(t, p.Text, "Greetings")

	data, err := os.ReadFile(c.project.PreviewPath(&c.recipients[0]))
	require.NoError(t, err)
	assert.Equal(t, p.Text, string(data))

	_, err = c.Preview(5, 1, false)
	assert.ErrorIs(t, err, domain.ErrRowIndex)
}

func TestController_ExportPDF_ProjectFs(t *testing.T) {
	fs := afero.NewMemMapFs()
	c := newTestController(t, Deps{Fs: fs})
	c.SetRecipients(letterRecipients())
	require.NoError(t, afero.WriteFile(fs, c.project.PDFPath(&c.recipients[1]), []byte("%PDF-mem"), 0644))

	// 项目目录只存在于内存文件系统中
	_, err := os.Stat(filepath.Join(c.project.Dir(), "RESULT", "PDF"))
	require.True(t, os.IsNotExist(err))

	dest := filepath.Join(t.TempDir(), "export")
	summary, err := c.ExportPDF(dest)
	require.NoError(t, err)
	assert.Equal(t, domain.ExportSummary{Copied: 1, Missing: 1, Dest: dest}, summary)

	data, err := os.ReadFile(filepath.Join(dest, "Петров О.pdf"))
	require.NoError(t, err)
	assert.Equal(t, "%PDF-mem", string(data))

	require.NoError(t, fs.RemoveAll(filepath.Join(c.project.Dir(), "RESULT", "PDF")))
	_, err = c.ExportPDF(dest)
	assert.ErrorIs(t, err, domain.ErrNoPDF)
}
