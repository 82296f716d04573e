package processor

import (
	"context"

	"github.com/allanpk716/docx_mailmerge/internal/domain"
	"github.com/allanpk716/docx_mailmerge/internal/matcher"
	"github.com/allanpk716/docx_mailmerge/pkg/docx"
)

// TableProcessor 表格处理器接口
type TableProcessor interface {
	ProcessTables(ctx context.Context, tables []*docx.Table, placeholders domain.PlaceholderMap) (map[string]int, error)
}

// tableProcessor 表格处理器实现
// 只处理顶层表格：单元格中嵌套的表格在解析时已经被排除
type tableProcessor struct{}

// NewTableProcessor 创建新的表格处理器
func NewTableProcessor() TableProcessor {
	return &tableProcessor{}
}

// ProcessTables 逐行逐单元格替换占位符，返回每个占位符的替换次数
func (tp *tableProcessor) ProcessTables(ctx context.Context, tables []*docx.Table, placeholders domain.PlaceholderMap) (map[string]int, error) {
	total := make(map[string]int)

	for _, table := range tables {
		for _, row := range table.Rows {
			if err := ctx.Err(); err != nil {
				return total, err
			}
			for _, cell := range row.Cells {
				for key, n := range tp.processCell(cell, placeholders) {
					total[key] += n
				}
			}
		}
	}

	return total, nil
}

// processCell 处理单元格中的每个段落
func (tp *tableProcessor) processCell(cell *docx.Cell, placeholders domain.PlaceholderMap) map[string]int {
	counts := make(map[string]int)
	for _, paragraph := range cell.Paragraphs {
		for key, n := range matcher.ReplaceInRuns(paragraph, placeholders) {
			counts[key] += n
		}
	}
	return counts
}
