package docx

import (
	"fmt"
	"io"
	"os"

	"github.com/gomutex/godocx"
	nddocx "github.com/nguyenthenguyen/docx"
)

// DocxWrapper 包装 nguyenthenguyen/docx，提供正文的段落/表格视图
type DocxWrapper struct {
	reader   *nddocx.ReplaceDocx
	editable *nddocx.Docx
	body     *Document
	filePath string
}

// OpenDocument 打开DOCX文档并解析正文
func (dw *DocxWrapper) OpenDocument(filePath string) error {
	reader, err := nddocx.ReadDocxFile(filePath)
	if err != nil {
		return fmt.Errorf("打开文档失败: %w", err)
	}

	editable := reader.Editable()
	body, err := ParseDocument(editable.GetContent())
	if err != nil {
		reader.Close()
		return fmt.Errorf("解析文档正文失败: %w", err)
	}

	dw.reader = reader
	dw.editable = editable
	dw.body = body
	dw.filePath = filePath
	return nil
}

// Body 返回正文视图
func (dw *DocxWrapper) Body() *Document {
	return dw.body
}

// SaveDocument 保存文档
func (dw *DocxWrapper) SaveDocument(outputPath string) error {
	if dw.editable == nil {
		return fmt.Errorf("文档未打开")
	}

	// 如果没有修改，直接复制原文件
	if !dw.IsModified() {
		return dw.copyOriginalFile(outputPath)
	}

	dw.editable.SetContent(dw.body.XML())
	if err := dw.editable.WriteToFile(outputPath); err != nil {
		return fmt.Errorf("保存文档失败: %w", err)
	}

	return nil
}

// copyOriginalFile 复制原始文件
func (dw *DocxWrapper) copyOriginalFile(outputPath string) error {
	sourceFile, err := os.Open(dw.filePath)
	if err != nil {
		return fmt.Errorf("打开源文件失败: %w", err)
	}
	defer sourceFile.Close()

	destFile, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("创建目标文件失败: %w", err)
	}
	defer destFile.Close()

	if _, err := io.Copy(destFile, sourceFile); err != nil {
		return fmt.Errorf("复制文件失败: %w", err)
	}

	return nil
}

// IsModified 检查文档是否已修改
func (dw *DocxWrapper) IsModified() bool {
	return dw.body != nil && dw.body.Modified()
}

// Close 关闭文档
func (dw *DocxWrapper) Close() error {
	if dw.reader != nil {
		err := dw.reader.Close()
		dw.reader = nil
		return err
	}
	return nil
}

// ValidateDocument 用 godocx 打开文档，确认是有效的 DOCX 包
func ValidateDocument(filePath string) error {
	if filePath == "" {
		return fmt.Errorf("文档路径不能为空")
	}
	if _, err := os.Stat(filePath); err != nil {
		return fmt.Errorf("文档不存在: %w", err)
	}

	doc, err := godocx.OpenDocument(filePath)
	if err != nil {
		return fmt.Errorf("无法打开文档: %w", err)
	}
	return doc.Close()
}

// ExtractText 提取DOCX正文纯文本
func ExtractText(filePath string) (string, error) {
	dw := &DocxWrapper{}
	if err := dw.OpenDocument(filePath); err != nil {
		return "", err
	}
	defer dw.Close()

	return dw.body.Text(), nil
}
