package docx

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

// wordNS WordprocessingML 元素的前缀
const wordNS = "w"

// tokenArena 按原始顺序保存 document.xml 的全部 token
// 段落、run 只保存下标，修改文本时不重建任何元素
type tokenArena struct {
	tokens []xml.Token
}

// parseArena 把 XML 内容解析为 token 序列，不解析命名空间
func parseArena(content string) (*tokenArena, error) {
	decoder := xml.NewDecoder(strings.NewReader(content))
	arena := &tokenArena{}

	for {
		tok, err := decoder.RawToken()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("解析XML失败: %w", err)
		}
		arena.tokens = append(arena.tokens, xml.CopyToken(tok))
	}

	return arena, nil
}

// frame 解析时的元素栈帧
type frame struct {
	name string
	para *Paragraph
	run  *Run
}

// buildDocument 在 token 序列上建立段落、表格、run 索引
// 只收集 body 直接子段落和顶层表格单元格中的段落，与嵌套表格无关
func buildDocument(arena *tokenArena) *Document {
	doc := &Document{arena: arena}

	var (
		stack []frame
		table *Table
		row   *Row
		cell  *Cell
	)

	parentName := func() string {
		if len(stack) == 0 {
			return ""
		}
		return stack[len(stack)-1].name
	}
	tableDepth := func() int {
		depth := 0
		for _, f := range stack {
			if f.name == "tbl" {
				depth++
			}
		}
		return depth
	}
	currentRun := func() *Run {
		for i := len(stack) - 1; i >= 0; i-- {
			if stack[i].run != nil {
				return stack[i].run
			}
		}
		return nil
	}

	for i, tok := range arena.tokens {
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Space != wordNS {
				stack = append(stack, frame{name: t.Name.Space + ":" + t.Name.Local})
				continue
			}
			f := frame{name: t.Name.Local}
			parent := parentName()

			switch t.Name.Local {
			case "tbl":
				if parent == "body" {
					table = &Table{}
					doc.Tables = append(doc.Tables, table)
				}
			case "tr":
				if parent == "tbl" && tableDepth() == 1 && table != nil {
					row = &Row{}
					table.Rows = append(table.Rows, row)
				}
			case "tc":
				if parent == "tr" && tableDepth() == 1 && row != nil {
					cell = &Cell{}
					row.Cells = append(row.Cells, cell)
				}
			case "p":
				switch {
				case parent == "body":
					f.para = &Paragraph{}
					doc.Paragraphs = append(doc.Paragraphs, f.para)
				case parent == "tc" && tableDepth() == 1 && cell != nil:
					f.para = &Paragraph{}
					cell.Paragraphs = append(cell.Paragraphs, f.para)
				}
			case "r":
				if len(stack) > 0 && stack[len(stack)-1].para != nil {
					r := &Run{start: i, contentStart: i + 1}
					stack[len(stack)-1].para.runs = append(stack[len(stack)-1].para.runs, r)
					f.run = r
				}
			case "rPr":
				if r := currentRun(); r != nil && parent == "r" {
					r.hasProps = true
				}
			case "tab":
				if r := currentRun(); r != nil && parent == "r" {
					r.text.WriteByte('\t')
				}
			case "br", "cr":
				if r := currentRun(); r != nil && parent == "r" {
					r.text.WriteByte('\n')
				}
			}
			stack = append(stack, f)

		case xml.EndElement:
			if len(stack) == 0 {
				continue
			}
			top := stack[len(stack)-1]
			stack = stack[:len(stack)-1]

			if top.run != nil {
				top.run.end = i
				top.run.contentEnd = i
				top.run.original = top.run.text.String()
				top.run.current = top.run.original
			}
			if top.name == "rPr" && t.Name.Space == wordNS {
				if r := currentRun(); r != nil && parentName() == "r" && r.contentStart <= i {
					r.contentStart = i + 1
				}
			}

		case xml.CharData:
			if parentName() == "t" {
				if r := currentRun(); r != nil && len(stack) >= 2 && stack[len(stack)-2].name == "r" {
					r.text.Write(t)
				}
			}
		}
	}

	return doc
}

// serialize 把 token 序列写回 XML，被修改的 run 输出新的文本内容
func (a *tokenArena) serialize(dirty map[int]*Run) string {
	var buf bytes.Buffer

	for i := 0; i < len(a.tokens); i++ {
		if r, ok := dirty[i]; ok {
			writeRunText(&buf, r.current)
			i = r.contentEnd
		}
		writeToken(&buf, a.tokens[i])
	}

	return buf.String()
}

var (
	textEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	attrEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;", "\n", "&#xA;", "\r", "&#xD;", "\t", "&#x9;")
)

func qualifiedName(n xml.Name) string {
	if n.Space == "" {
		return n.Local
	}
	return n.Space + ":" + n.Local
}

// writeToken 按原样输出一个 token
func writeToken(buf *bytes.Buffer, tok xml.Token) {
	switch t := tok.(type) {
	case xml.StartElement:
		buf.WriteByte('<')
		buf.WriteString(qualifiedName(t.Name))
		for _, attr := range t.Attr {
			buf.WriteByte(' ')
			buf.WriteString(qualifiedName(attr.Name))
			buf.WriteString(`="`)
			buf.WriteString(attrEscaper.Replace(attr.Value))
			buf.WriteByte('"')
		}
		buf.WriteByte('>')
	case xml.EndElement:
		buf.WriteString("</")
		buf.WriteString(qualifiedName(t.Name))
		buf.WriteByte('>')
	case xml.CharData:
		buf.WriteString(textEscaper.Replace(string(t)))
	case xml.Comment:
		buf.WriteString("<!--")
		buf.Write(t)
		buf.WriteString("-->")
	case xml.ProcInst:
		buf.WriteString("<?")
		buf.WriteString(t.Target)
		if len(t.Inst) > 0 {
			buf.WriteByte(' ')
			buf.Write(t.Inst)
		}
		buf.WriteString("?>")
	case xml.Directive:
		buf.WriteString("<!")
		buf.Write(t)
		buf.WriteByte('>')
	}
}

// writeRunText 输出 run 的内容：文本放入 w:t，换行输出 w:br，制表符输出 w:tab
func writeRunText(buf *bytes.Buffer, text string) {
	var pending strings.Builder
	flush := func() {
		if pending.Len() == 0 {
			return
		}
		buf.WriteString(`<w:t xml:space="preserve">`)
		buf.WriteString(textEscaper.Replace(pending.String()))
		buf.WriteString(`</w:t>`)
		pending.Reset()
	}

	text = strings.ReplaceAll(text, "\r\n", "\n")
	for _, ch := range text {
		switch ch {
		case '\n', '\r':
			flush()
			buf.WriteString(`<w:br/>`)
		case '\t':
			flush()
			buf.WriteString(`<w:tab/>`)
		default:
			pending.WriteRune(ch)
		}
	}
	flush()
}
