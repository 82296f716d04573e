package docx

import (
	"fmt"
	"strings"
)

// Document word/document.xml 的可编辑视图
type Document struct {
	arena      *tokenArena
	Paragraphs []*Paragraph
	Tables     []*Table
}

// Table 顶层表格
type Table struct {
	Rows []*Row
}

// Row 表格行
type Row struct {
	Cells []*Cell
}

// Cell 表格单元格
type Cell struct {
	Paragraphs []*Paragraph
}

// Paragraph 段落，由按顺序排列的 run 组成
type Paragraph struct {
	runs []*Run
}

// Run 一段共享同一格式的文本
// start/end 是 w:r 起止 token 的下标，[contentStart, contentEnd) 是格式 (w:rPr) 之后的内容
type Run struct {
	start        int
	end          int
	contentStart int
	contentEnd   int
	hasProps     bool

	text     strings.Builder
	original string
	current  string
}

// ParseDocument 解析 document.xml 内容
func ParseDocument(content string) (*Document, error) {
	arena, err := parseArena(content)
	if err != nil {
		return nil, err
	}
	return buildDocument(arena), nil
}

// AllParagraphs 返回正文段落和全部表格单元格中的段落
func (d *Document) AllParagraphs() []*Paragraph {
	paragraphs := append([]*Paragraph(nil), d.Paragraphs...)
	return append(paragraphs, d.TableParagraphs()...)
}

// TableParagraphs 返回表格单元格中的段落
func (d *Document) TableParagraphs() []*Paragraph {
	var paragraphs []*Paragraph
	for _, table := range d.Tables {
		for _, row := range table.Rows {
			for _, cell := range row.Cells {
				paragraphs = append(paragraphs, cell.Paragraphs...)
			}
		}
	}
	return paragraphs
}

// Modified 是否有 run 的文本被修改
func (d *Document) Modified() bool {
	return len(d.dirtyRuns()) > 0
}

// XML 把文档写回 XML，未修改的部分保持原样
func (d *Document) XML() string {
	return d.arena.serialize(d.dirtyRuns())
}

// Text 文档纯文本，段落之间用换行分隔
func (d *Document) Text() string {
	var lines []string
	for _, p := range d.AllParagraphs() {
		lines = append(lines, p.Text())
	}
	return strings.Join(lines, "\n")
}

func (d *Document) dirtyRuns() map[int]*Run {
	dirty := make(map[int]*Run)
	for _, p := range d.AllParagraphs() {
		for _, r := range p.runs {
			if r.current != r.original {
				dirty[r.contentStart] = r
			}
		}
	}
	return dirty
}

// Runs 返回段落中的 run
func (p *Paragraph) Runs() []*Run {
	return p.runs
}

// Text 段落全文
func (p *Paragraph) Text() string {
	var sb strings.Builder
	for _, r := range p.runs {
		sb.WriteString(r.current)
	}
	return sb.String()
}

func (p *Paragraph) RunCount() int {
	return len(p.runs)
}

func (p *Paragraph) RunText(i int) string {
	return p.runs[i].current
}

func (p *Paragraph) SetRunText(i int, text string) {
	p.runs[i].SetText(text)
}

// Text run 的文本，w:tab 为 \t，w:br 为 \n
func (r *Run) Text() string {
	return r.current
}

// SetText 改写 run 的文本，格式保持不变
func (r *Run) SetText(text string) {
	r.current = text
}

// HasFormatting run 是否带有 w:rPr
func (r *Run) HasFormatting() bool {
	return r.hasProps
}

func (r *Run) String() string {
	return fmt.Sprintf("run[%d:%d] %q", r.start, r.end, r.current)
}
