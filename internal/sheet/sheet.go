package sheet

import (
	"fmt"
	"strings"

	"github.com/tsawler/tabula/xlsx"

	"github.com/allanpk716/docx_mailmerge/internal/recipient"
)

// requiredColumns 必须存在的列
var requiredColumns = []string{
	recipient.ColSurname,
	recipient.ColGivenName,
	recipient.ColPatronymic,
}

// Load 读取 Excel 第一个工作表，第一行为表头
func Load(path string) ([]recipient.Recipient, error) {
	reader, err := xlsx.Open(path)
	if err != nil {
		return nil, fmt.Errorf("打开 Excel 失败: %w", err)
	}
	defer reader.Close()

	sheet, err := reader.Sheet(0)
	if err != nil {
		return nil, fmt.Errorf("读取工作表失败: %w", err)
	}

	rows := make([][]string, 0, len(sheet.Rows))
	for _, row := range sheet.Rows {
		values := make([]string, len(row))
		for i := range row {
			values[i] = row[i].Value
		}
		rows = append(rows, values)
	}

	return FromRows(rows)
}

// FromRows 按列约定把表格行转换为收件人
// 缺少的可选列使用默认值："Отправлять" 默认为 true，其余为空串
func FromRows(rows [][]string) ([]recipient.Recipient, error) {
	headerIdx := -1
	for i, row := range rows {
		if !blank(row) {
			headerIdx = i
			break
		}
	}
	if headerIdx < 0 {
		return nil, fmt.Errorf("表格为空")
	}

	columns := make(map[string]int)
	for i, name := range rows[headerIdx] {
		name = recipient.Normalize(name)
		if _, exists := columns[name]; name != "" && !exists {
			columns[name] = i
		}
	}

	var missing []string
	for _, col := range requiredColumns {
		if _, ok := columns[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("缺少必需的列: %s", strings.Join(missing, ", "))
	}

	var recipients []recipient.Recipient
	for _, row := range rows[headerIdx+1:] {
		if blank(row) {
			continue
		}

		get := func(col string) string {
			i, ok := columns[col]
			if !ok || i >= len(row) {
				return ""
			}
			return recipient.Normalize(row[i])
		}

		r := recipient.Recipient{
			Surname:        get(recipient.ColSurname),
			GivenName:      get(recipient.ColGivenName),
			Patronymic:     get(recipient.ColPatronymic),
			Email:          get(recipient.ColEmail),
			Gender:         get(recipient.ColGender),
			AutoGender:     get(recipient.ColAutoGender),
			DirectoryEmail: get(recipient.ColDirectoryEmail),
			SourceURL:      get(recipient.ColSourceURL),
			DateOfBirth:    get(recipient.ColDateOfBirth),
			Send:           ParseBool(get(recipient.ColSend), true),
		}
		r.ApplyAutoGender()
		recipients = append(recipients, r)
	}

	return recipients, nil
}

// ParseBool 解析 "Отправлять" 列；空值返回默认值，无法识别的非空值视为 true
func ParseBool(s string, def bool) bool {
	switch strings.ToLower(recipient.Normalize(s)) {
	case "":
		return def
	case "false", "0", "нет", "ложь", "no", "n":
		return false
	default:
		return true
	}
}

func blank(row []string) bool {
	for _, v := range row {
		if recipient.Normalize(v) != "" {
			return false
		}
	}
	return true
}
