package domain

import "errors"

var (
	ErrNoData       = errors.New("没有数据，请先加载 Excel")
	ErrNoProjectDir = errors.New("请先选择项目目录")
	ErrNoTemplate   = errors.New("请先选择 DOCX 模板")
	ErrNoDocx       = errors.New("没有 DOCX 结果，请先生成 DOCX")
	ErrNoPDF        = errors.New("PDF 不存在，请先生成 PDF")
	ErrInvalidURL   = errors.New("无效的 URL")
	ErrRowIndex     = errors.New("行号超出范围")
)
