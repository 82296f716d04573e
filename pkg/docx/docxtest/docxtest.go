// Package docxtest 为测试生成最小可用的 DOCX 包
package docxtest

import (
	"archive/zip"
	"io"
	"os"
	"testing"
)

const documentHeader = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>`

const documentFooter = `<w:sectPr/></w:body></w:document>`

// DocumentXML 用正文片段拼出完整的 document.xml
func DocumentXML(body string) string {
	return documentHeader + body + documentFooter
}

// WriteDocx 在 path 写入一个包含给定正文片段的 DOCX 文件
func WriteDocx(t testing.TB, path, body string) {
	t.Helper()

	file, err := os.Create(path)
	if err != nil {
		t.Fatalf("创建测试文件失败: %v", err)
	}
	defer file.Close()

	zw := zip.NewWriter(file)
	files := []struct{ name, content string }{
		{"[Content_Types].xml", `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>
<Default Extension="xml" ContentType="application/xml"/>
<Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>
</Types>`},
		{"_rels/.rels", `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/>
</Relationships>`},
		{"word/_rels/document.xml.rels", `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"></Relationships>`},
		{"word/document.xml", DocumentXML(body)},
	}

	for _, f := range files {
		w, err := zw.Create(f.name)
		if err != nil {
			t.Fatalf("创建文件 %s 失败: %v", f.name, err)
		}
		if _, err := w.Write([]byte(f.content)); err != nil {
			t.Fatalf("写入文件 %s 失败: %v", f.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("关闭ZIP失败: %v", err)
	}
}

// ReadDocumentXML 读取 DOCX 中的 word/document.xml
func ReadDocumentXML(t testing.TB, path string) string {
	t.Helper()

	reader, err := zip.OpenReader(path)
	if err != nil {
		t.Fatalf("打开DOCX失败: %v", err)
	}
	defer reader.Close()

	for _, f := range reader.File {
		if f.Name != "word/document.xml" {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("打开document.xml失败: %v", err)
		}
		defer rc.Close()
		buf := make([]byte, f.UncompressedSize64)
		if _, err := io.ReadFull(rc, buf); err != nil {
			t.Fatalf("读取document.xml失败: %v", err)
		}
		return string(buf)
	}
	t.Fatalf("未找到document.xml文件")
	return ""
}
