package controller

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/otiai10/copy"
	"github.com/spf13/afero"

	"github.com/allanpk716/docx_mailmerge/internal/domain"
	"github.com/allanpk716/docx_mailmerge/internal/preview"
	"github.com/allanpk716/docx_mailmerge/internal/project"
	"github.com/allanpk716/docx_mailmerge/pkg/logger"
)

// BatchResult 逐行批处理的结果
type BatchResult struct {
	Total  int
	Done   int
	Failed int
	Dir    string
}

// GenerateDOCX 为每一行生成 DOCX，单行失败记录后继续
func (c *Controller) GenerateDOCX(ctx context.Context, body string, progress domain.ProgressFunc) (BatchResult, error) {
	if err := c.requireProject(); err != nil {
		return BatchResult{}, err
	}
	if c.state.TemplatePath == "" {
		return BatchResult{}, domain.ErrNoTemplate
	}

	dir, err := c.project.ResultPath(project.DocxDir)
	if err != nil {
		return BatchResult{}, err
	}

	log := logger.FromContext(ctx)
	result := BatchResult{Total: len(c.recipients), Dir: dir}
	for i := range c.recipients {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		r := &c.recipients[i]
		notify(progress, i+1, result.Total, fmt.Sprintf("[%d/%d] %s %s", i+1, result.Total, r.Surname, r.GivenName))

		placeholders := c.cm.GetPlaceholders(c.cfg, r.Salutation(), body)
		out := c.project.DocxPath(r)
		if err := c.deps.Processor.ProcessDocument(ctx, c.state.TemplatePath, out, placeholders); err != nil {
			result.Failed++
			log.Error("生成 DOCX 失败", "row", i, "file", filepath.Base(out), "error", err)
			continue
		}
		result.Done++
	}

	log.Info("DOCX 生成完成", "done", result.Done, "failed", result.Failed, "dir", dir)
	return result, nil
}

// GeneratePDF 把每一行的 DOCX 转成 PDF，需要先生成 DOCX
func (c *Controller) GeneratePDF(ctx context.Context, progress domain.ProgressFunc) (BatchResult, error) {
	if err := c.requireProject(); err != nil {
		return BatchResult{}, err
	}
	if c.deps.Converter == nil {
		return BatchResult{}, fmt.Errorf("没有配置 PDF 转换器")
	}
	if !c.project.HasDocx() {
		return BatchResult{}, domain.ErrNoDocx
	}

	dir, err := c.project.ResultPath(project.PDFDir)
	if err != nil {
		return BatchResult{}, err
	}

	log := logger.FromContext(ctx)
	result := BatchResult{Total: len(c.recipients), Dir: dir}
	for i := range c.recipients {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		r := &c.recipients[i]
		docxPath := c.project.DocxPath(r)
		notify(progress, i+1, result.Total, fmt.Sprintf("[%d/%d] %s", i+1, result.Total, filepath.Base(docxPath)))

		if !c.project.Exists(docxPath) {
			result.Failed++
			log.Warn("DOCX 不存在", "row", i, "file", filepath.Base(docxPath))
			continue
		}
		if err := c.deps.Converter.Convert(ctx, docxPath, c.project.PDFPath(r)); err != nil {
			result.Failed++
			log.Error("转换 PDF 失败", "row", i, "file", filepath.Base(docxPath), "error", err)
			continue
		}
		result.Done++
	}

	log.Info("PDF 生成完成", "done", result.Done, "failed", result.Failed, "dir", dir)
	return result, nil
}

// ExportPDF 把每一行的 PDF 复制到 dest
func (c *Controller) ExportPDF(dest string) (domain.ExportSummary, error) {
	summary := domain.ExportSummary{Dest: dest}
	if err := c.requireProject(); err != nil {
		return summary, err
	}
	if dest == "" {
		return summary, fmt.Errorf("目标目录不能为空")
	}

	pdfDir := filepath.Join(c.project.Dir(), project.ResultDir, project.PDFDir)
	if ok, err := afero.DirExists(c.project.Fs(), pdfDir); err != nil || !ok {
		return summary, fmt.Errorf("%w: %s", domain.ErrNoPDF, pdfDir)
	}
	// dest 总是本地磁盘上的目录，源文件从项目文件系统读取
	if err := os.MkdirAll(dest, 0755); err != nil {
		return summary, fmt.Errorf("创建目标目录失败: %w", err)
	}
	opts := copy.Options{
		PreserveTimes: true,
		FS:            afero.NewIOFS(afero.NewBasePathFs(c.project.Fs(), pdfDir)),
	}

	for i := range c.recipients {
		src := c.project.PDFPath(&c.recipients[i])
		if !c.project.Exists(src) {
			summary.Missing++
			continue
		}
		name := filepath.Base(src)
		if err := copy.Copy(name, filepath.Join(dest, name), opts); err != nil {
			summary.Errors++
			logger.Error("复制 PDF 失败", "file", name, "error", err)
			continue
		}
		summary.Copied++
	}

	logger.Info("PDF 导出完成", "copied", summary.Copied, "missing", summary.Missing, "errors", summary.Errors, "dest", dest)
	return summary, nil
}

// Preview 提取一行 PDF 的某一页文本，save 为 true 时写入 RESULT/PREVIEW
func (c *Controller) Preview(idx, page int, save bool) (*preview.Page, error) {
	if err := c.requireProject(); err != nil {
		return nil, err
	}
	r, err := c.row(idx)
	if err != nil {
		return nil, err
	}

	p, err := preview.PageText(c.project.PDFPath(r), page)
	if err != nil {
		return nil, err
	}
	if save {
		name := filepath.Join(project.PreviewDir, filepath.Base(c.project.PreviewPath(r)))
		if _, err := c.project.WriteResult(name, []byte(p.Text)); err != nil {
			return nil, err
		}
	}
	return p, nil
}
