package matcher

import (
	"strings"

	"github.com/allanpk716/docx_mailmerge/internal/domain"
)

// Span 一个 run 在段落全文中的 [Start, End) 字节区间
type Span struct {
	Run   int
	Start int
	End   int
}

// RunSpans 拼接所有 run 文本，返回全文和每个 run 的区间
func RunSpans(seq domain.RunSequence) (string, []Span) {
	var sb strings.Builder
	spans := make([]Span, 0, seq.RunCount())
	pos := 0
	for i := 0; i < seq.RunCount(); i++ {
		text := seq.RunText(i)
		sb.WriteString(text)
		spans = append(spans, Span{Run: i, Start: pos, End: pos + len(text)})
		pos += len(text)
	}
	return sb.String(), spans
}

// CoveredRuns 返回与 [start, end) 有重叠的 run，按位置排序
func CoveredRuns(spans []Span, start, end int) []Span {
	var cover []Span
	for _, s := range spans {
		if s.End <= start {
			continue
		}
		if s.Start >= end {
			break
		}
		cover = append(cover, s)
	}
	return cover
}

// ReplaceInRuns 在 run 序列中替换所有占位符，返回每个占位符的替换次数
// 占位符可以跨越多个 run：首个覆盖的 run 接收前缀+替换值+后缀，其余覆盖的 run 置空
func ReplaceInRuns(seq domain.RunSequence, placeholders domain.PlaceholderMap) map[string]int {
	counts := make(map[string]int)
	if seq.RunCount() == 0 {
		return counts
	}

	full, spans := RunSpans(seq)
	for _, ph := range placeholders {
		if ph.Key == "" || !strings.Contains(full, ph.Key) {
			continue
		}

		cursor := 0
		for cursor <= len(full) {
			rel := strings.Index(full[cursor:], ph.Key)
			if rel < 0 {
				break
			}
			start := cursor + rel
			end := start + len(ph.Key)

			cover := CoveredRuns(spans, start, end)
			if len(cover) == 0 {
				// 不应出现；只跳过这一处
				cursor = end
				continue
			}

			first, last := cover[0], cover[len(cover)-1]
			firstText := seq.RunText(first.Run)
			lastText := seq.RunText(last.Run)
			prefix := firstText[:max(0, start-first.Start)]
			suffix := lastText[min(len(lastText), max(0, end-last.Start)):]

			seq.SetRunText(first.Run, prefix+ph.Value+suffix)
			for _, s := range cover[1:] {
				seq.SetRunText(s.Run, "")
			}
			counts[ph.Key]++

			full, spans = RunSpans(seq)
			cursor = start + len(ph.Value)
		}
	}
	return counts
}

// FindMatches 在纯文本中按顺序查找所有占位符的位置
func FindMatches(content string, placeholders domain.PlaceholderMap) []domain.Match {
	var matches []domain.Match
	for _, ph := range placeholders {
		if ph.Key == "" {
			continue
		}
		cursor := 0
		for {
			rel := strings.Index(content[cursor:], ph.Key)
			if rel < 0 {
				break
			}
			start := cursor + rel
			matches = append(matches, domain.Match{
				Keyword:     ph.Key,
				Replacement: ph.Value,
				StartPos:    start,
				EndPos:      start + len(ph.Key),
			})
			cursor = start + len(ph.Key)
		}
	}
	return matches
}

// GetMatchStats 获取每个占位符在文本中的出现次数
func GetMatchStats(content string, placeholders domain.PlaceholderMap) map[string]int {
	stats := make(map[string]int)
	for _, m := range FindMatches(content, placeholders) {
		stats[m.Keyword]++
	}
	return stats
}

// ValidatePlaceholderFormat 检查占位符是否为 <<NAME>> 格式
func ValidatePlaceholderFormat(key string) bool {
	if len(key) < 5 {
		return false
	}
	return strings.HasPrefix(key, "<<") && strings.HasSuffix(key, ">>")
}

// FormatPlaceholder 把名称格式化为 <<NAME>> 格式
func FormatPlaceholder(name string) string {
	if ValidatePlaceholderFormat(name) {
		return name
	}
	return "<<" + name + ">>"
}
