package recipient

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// EmailPattern 在任意文本中查找类似 e-mail 的片段
var EmailPattern = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)

var yoReplacer = strings.NewReplacer("Ё", "Е", "ё", "е", "\u00a0", " ")

// Normalize 统一表格和网页中的文本：NFC、不换行空格转普通空格、合并空白、Ё 转 Е
func Normalize(s string) string {
	s = norm.NFC.String(s)
	s = yoReplacer.Replace(s)
	return strings.Join(strings.Fields(s), " ")
}

// IsEmailLike 宽松的 e-mail 检查，只排除明显错误的地址
func IsEmailLike(email string) bool {
	email = Normalize(email)
	if email == "" || strings.Contains(email, " ") {
		return false
	}
	if strings.Count(email, "@") != 1 {
		return false
	}

	local, domain, _ := strings.Cut(email, "@")
	if local == "" || domain == "" || !strings.Contains(domain, ".") {
		return false
	}
	return !strings.ContainsAny(email, ",;():<>")
}

const illegalFilenameChars = `<>:"/\|?*`

// SanitizeFilename 去掉文件系统不允许的字符，结果为空时返回 "Без_имени"
func SanitizeFilename(name string) string {
	name = Normalize(name)
	name = strings.Map(func(r rune) rune {
		if r < 0x20 || strings.ContainsRune(illegalFilenameChars, r) || unicode.IsControl(r) {
			return -1
		}
		return r
	}, name)
	name = strings.Trim(name, " .")
	if name == "" {
		return "Без_имени"
	}
	return name
}
