package preview

import (
	"fmt"
	"os"
	"strings"

	"github.com/tsawler/tabula"
	"github.com/tsawler/tabula/reader"

	"github.com/allanpk716/docx_mailmerge/internal/domain"
	"github.com/allanpk716/docx_mailmerge/pkg/logger"
)

// Page 预览结果
type Page struct {
	Number int
	Total  int
	Text   string
}

// PageText 提取 PDF 第 page 页 (从 1 开始) 的文本
func PageText(path string, page int) (*Page, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrNoPDF, path)
	}

	r, err := reader.Open(path)
	if err != nil {
		return nil, fmt.Errorf("打开 PDF 失败: %w", err)
	}
	defer r.Close()

	total, err := r.PageCount()
	if err != nil {
		return nil, fmt.Errorf("读取页数失败: %w", err)
	}
	if page < 1 || page > total {
		return nil, fmt.Errorf("页码超出范围: %d (共 %d 页)", page, total)
	}

	text, warnings, err := tabula.FromReader(r).Pages(page).Text()
	if err != nil {
		return nil, fmt.Errorf("提取文本失败: %w", err)
	}
	if len(warnings) > 0 {
		logger.Debug("PDF 文本提取有警告", "file", path, "warnings", len(warnings))
	}

	return &Page{Number: page, Total: total, Text: strings.TrimSpace(text)}, nil
}
