package cmd

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
)

// 程序信息
const (
	AppName    = "docx-mailmerge"
	AppVersion = "1.0.0"

	defaultConfigFile = "config.json"
)

// Options 全局命令行参数
type Options struct {
	ConfigFile string
	ProjectDir string
	LogLevel   string
	LogJSON    bool
	Verbose    bool
}

// ResolveConfigFile 未指定配置文件时，当前目录存在 config.json 就使用它
func (o *Options) ResolveConfigFile() string {
	if o.ConfigFile != "" {
		return o.ConfigFile
	}
	if _, err := os.Stat(defaultConfigFile); err == nil {
		return defaultConfigFile
	}
	return ""
}

// ParseRows 解析行号列表，例如 "1,3,5-7"
// 行号从 1 开始且不能超过 count，返回从 0 开始的升序索引，重复的行只保留一次
func ParseRows(list string, count int) ([]int, error) {
	list = strings.TrimSpace(list)
	if list == "" {
		return nil, nil
	}

	seen := make(map[int]bool)
	var rows []int
	for _, part := range strings.Split(list, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		from, to, isRange := strings.Cut(part, "-")
		start, err := parseRow(from, count)
		if err != nil {
			return nil, err
		}
		end := start
		if isRange {
			if end, err = parseRow(to, count); err != nil {
				return nil, err
			}
			if end < start {
				return nil, fmt.Errorf("行范围无效: %s", part)
			}
		}
		for n := start; n <= end; n++ {
			if !seen[n] {
				seen[n] = true
				rows = append(rows, n-1)
			}
		}
	}

	sort.Ints(rows)
	return rows, nil
}

func parseRow(s string, count int) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("行号无效: %q", s)
	}
	if n < 1 {
		return 0, fmt.Errorf("行号必须从 1 开始: %d", n)
	}
	if n > count {
		return 0, fmt.Errorf("行号超出范围: %d (共 %d 行)", n, count)
	}
	return n, nil
}

// ReadBodyText 正文来自 --text 或 --text-file，两者只能选一个
func ReadBodyText(text, file string) (string, error) {
	if text != "" && file != "" {
		return "", fmt.Errorf("不能同时指定 --text 和 --text-file")
	}
	if file == "" {
		return text, nil
	}
	data, err := os.ReadFile(file)
	if err != nil {
		return "", fmt.Errorf("读取正文文件失败: %w", err)
	}
	return strings.TrimPrefix(string(data), "\ufeff"), nil
}
