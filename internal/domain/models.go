package domain

import "context"

// Placeholder 一个占位符及其替换值
type Placeholder struct {
	Key   string // 原始占位符 (如 <<TEXT>>)
	Value string // 替换值
}

// PlaceholderMap 有序的占位符映射，按顺序逐个处理
type PlaceholderMap []Placeholder

// Keys 返回全部占位符
func (m PlaceholderMap) Keys() []string {
	keys := make([]string, 0, len(m))
	for _, p := range m {
		keys = append(keys, p.Key)
	}
	return keys
}

// Match 表示一个匹配项
type Match struct {
	Keyword     string // 原始占位符
	Replacement string // 替换值
	StartPos    int    // 开始位置
	EndPos      int    // 结束位置
}

// RunSequence 段落中按顺序排列的文本片段 (run)
// 实现方只改写文本，不触碰格式
type RunSequence interface {
	RunCount() int
	RunText(i int) string
	SetRunText(i int, text string)
}

// DocumentProcessor 文档处理器接口
type DocumentProcessor interface {
	ProcessDocument(ctx context.Context, inputPath, outputPath string, placeholders PlaceholderMap) error
	ValidateDocument(inputPath string) error
}

// PersonRecord 用于构造目录查询的姓名
type PersonRecord struct {
	Surname    string
	GivenName  string
	Patronymic string
}

// SearchResult 目录搜索结果，URL 为空表示没有候选
type SearchResult struct {
	URL string
}

// Found 是否找到候选链接
func (r SearchResult) Found() bool {
	return r.URL != ""
}

// LookupOutcome 个人页面解析结果，两个字段独立可选
type LookupOutcome struct {
	Email       string
	DateOfBirth string
}

// Empty 两个字段都没有找到
func (o LookupOutcome) Empty() bool {
	return o.Email == "" && o.DateOfBirth == ""
}

// DirectoryClient 目录网站查询接口
type DirectoryClient interface {
	Search(ctx context.Context, query string) (SearchResult, error)
	FetchDetails(ctx context.Context, url string) (LookupOutcome, error)
}

// PDFConverter DOCX 转 PDF 接口
type PDFConverter interface {
	Convert(ctx context.Context, docxPath, pdfPath string) error
}

// Mail 一封待发送的邮件
type Mail struct {
	From       string
	To         string
	Subject    string
	Body       string
	Attachment string
}

// Mailer 邮件发送接口
type Mailer interface {
	Send(ctx context.Context, m Mail) error
}

// ProgressFunc 批处理进度回调，n 从 1 开始
type ProgressFunc func(n, total int, message string)

// EnrichSummary 目录补全的统计结果
type EnrichSummary struct {
	Scope    string
	Found    int
	NotFound int
	Errors   int
	Total    int
}

// ExportSummary PDF 导出统计
type ExportSummary struct {
	Copied  int
	Missing int
	Errors  int
	Dest    string
}

// ReplacementStats 替换统计信息
type ReplacementStats struct {
	Keyword      string
	Occurrences  int
	InTables     int
	InParagraphs int
}
