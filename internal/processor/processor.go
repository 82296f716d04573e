package processor

import (
	"context"
	"fmt"

	"github.com/allanpk716/docx_mailmerge/internal/audit"
	"github.com/allanpk716/docx_mailmerge/internal/domain"
	"github.com/allanpk716/docx_mailmerge/internal/matcher"
	"github.com/allanpk716/docx_mailmerge/pkg/docx"
	"github.com/allanpk716/docx_mailmerge/pkg/logger"
)

// documentProcessor 文档处理器实现
type documentProcessor struct {
	tableProcessor TableProcessor
}

// NewDocumentProcessor 创建新的文档处理器
func NewDocumentProcessor(tableProcessor TableProcessor) domain.DocumentProcessor {
	if tableProcessor == nil {
		tableProcessor = NewTableProcessor()
	}
	return &documentProcessor{
		tableProcessor: tableProcessor,
	}
}

// ProcessDocument 处理文档，替换占位符
func (dp *documentProcessor) ProcessDocument(ctx context.Context, inputPath, outputPath string, placeholders domain.PlaceholderMap) error {
	// 验证输入参数
	if err := dp.ValidateDocument(inputPath); err != nil {
		return fmt.Errorf("文档验证失败: %w", err)
	}

	if outputPath == "" {
		return fmt.Errorf("输出路径不能为空")
	}

	if len(placeholders) == 0 {
		return fmt.Errorf("替换映射不能为空")
	}

	log := logger.FromContext(ctx)
	log.Debug("开始处理文档", "input", inputPath)

	docxWrapper := &docx.DocxWrapper{}
	if err := docxWrapper.OpenDocument(inputPath); err != nil {
		return fmt.Errorf("打开文档失败: %w", err)
	}
	defer docxWrapper.Close()

	tracker := audit.NewTracker(nil)
	if err := dp.processParagraphs(ctx, docxWrapper.Body(), placeholders, tracker); err != nil {
		return err
	}
	if err := dp.processTables(ctx, docxWrapper.Body(), placeholders, tracker); err != nil {
		return err
	}

	if err := docxWrapper.SaveDocument(outputPath); err != nil {
		return fmt.Errorf("保存文档失败: %w", err)
	}

	if missing := tracker.Missing(placeholders); len(missing) > 0 {
		log.Warn("模板中没有找到占位符", "missing", missing, "output", outputPath)
	}
	log.Debug("文档处理完成", "output", outputPath, "replacements", tracker.Summary())
	return nil
}

// ValidateDocument 验证文档是否有效
func (dp *documentProcessor) ValidateDocument(inputPath string) error {
	if inputPath == "" {
		return fmt.Errorf("输入路径不能为空")
	}

	// 创建临时包装器进行验证
	tempWrapper := &docx.DocxWrapper{}
	defer tempWrapper.Close()

	if err := tempWrapper.OpenDocument(inputPath); err != nil {
		return fmt.Errorf("无法打开文档: %w", err)
	}

	return nil
}

// processParagraphs 处理正文段落中的占位符替换
func (dp *documentProcessor) processParagraphs(ctx context.Context, doc *docx.Document, placeholders domain.PlaceholderMap, tracker *audit.Tracker) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	for _, paragraph := range doc.Paragraphs {
		counts := matcher.ReplaceInRuns(paragraph, placeholders)
		tracker.Add(audit.InParagraph, placeholders, counts)
	}

	logger.FromContext(ctx).Debug("处理段落", "paragraphs", len(doc.Paragraphs))
	return nil
}

// processTables 处理表格中的占位符替换
func (dp *documentProcessor) processTables(ctx context.Context, doc *docx.Document, placeholders domain.PlaceholderMap, tracker *audit.Tracker) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	counts, err := dp.tableProcessor.ProcessTables(ctx, doc.Tables, placeholders)
	if err != nil {
		return fmt.Errorf("处理表格失败: %w", err)
	}
	tracker.Add(audit.InTable, placeholders, counts)

	logger.FromContext(ctx).Debug("处理表格", "tables", len(doc.Tables))
	return nil
}

// GetProcessingStats 统计模板中每个占位符出现的次数，只读取不替换
func GetProcessingStats(ctx context.Context, inputPath string, placeholders domain.PlaceholderMap) ([]domain.ReplacementStats, error) {
	docxWrapper := &docx.DocxWrapper{}
	if err := docxWrapper.OpenDocument(inputPath); err != nil {
		return nil, fmt.Errorf("打开文档失败: %w", err)
	}
	defer docxWrapper.Close()

	body := docxWrapper.Body()
	tracker := audit.NewTracker(nil)
	for _, paragraph := range body.Paragraphs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		tracker.Add(audit.InParagraph, placeholders, matcher.GetMatchStats(paragraph.Text(), placeholders))
	}
	for _, paragraph := range body.TableParagraphs() {
		tracker.Add(audit.InTable, placeholders, matcher.GetMatchStats(paragraph.Text(), placeholders))
	}
	return tracker.Stats(), nil
}
