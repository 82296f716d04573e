package audit

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/allanpk716/docx_mailmerge/internal/domain"
)

// Location 替换发生的位置
type Location int

const (
	InParagraph Location = iota
	InTable
)

// Record 一个占位符的替换记录
type Record struct {
	Keyword      string
	LastValue    string
	InParagraphs int
	InTables     int
	LastModified time.Time
}

// Occurrences 总替换次数
func (r *Record) Occurrences() int {
	return r.InParagraphs + r.InTables
}

// Config 替换追踪配置
type Config struct {
	Enabled       bool
	MaxValueWidth int
}

// Tracker 记录一次渲染中每个占位符的替换情况
type Tracker struct {
	mu      sync.Mutex
	records map[string]*Record
	order   []string
	config  *Config
}

// NewTracker 创建新的替换追踪器
func NewTracker(config *Config) *Tracker {
	if config == nil {
		config = &Config{
			Enabled:       true,
			MaxValueWidth: 40,
		}
	}

	return &Tracker{
		records: make(map[string]*Record),
		config:  config,
	}
}

// IsEnabled 检查追踪是否启用
func (t *Tracker) IsEnabled() bool {
	return t.config.Enabled
}

// Add 记录某个位置上一批替换次数
func (t *Tracker) Add(loc Location, placeholders domain.PlaceholderMap, counts map[string]int) {
	if !t.config.Enabled || len(counts) == 0 {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	for _, ph := range placeholders {
		n := counts[ph.Key]
		if n == 0 {
			continue
		}

		rec, exists := t.records[ph.Key]
		if !exists {
			rec = &Record{Keyword: ph.Key}
			t.records[ph.Key] = rec
			t.order = append(t.order, ph.Key)
		}
		rec.LastValue = ph.Value
		rec.LastModified = time.Now()
		if loc == InTable {
			rec.InTables += n
		} else {
			rec.InParagraphs += n
		}
	}
}

// Get 获取指定占位符的记录
func (t *Tracker) Get(keyword string) (*Record, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	rec, exists := t.records[keyword]
	return rec, exists
}

// Total 全部替换次数
func (t *Tracker) Total() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	total := 0
	for _, rec := range t.records {
		total += rec.Occurrences()
	}
	return total
}

// Stats 按首次出现顺序返回统计信息
func (t *Tracker) Stats() []domain.ReplacementStats {
	t.mu.Lock()
	defer t.mu.Unlock()

	stats := make([]domain.ReplacementStats, 0, len(t.order))
	for _, key := range t.order {
		rec := t.records[key]
		stats = append(stats, domain.ReplacementStats{
			Keyword:      rec.Keyword,
			Occurrences:  rec.Occurrences(),
			InTables:     rec.InTables,
			InParagraphs: rec.InParagraphs,
		})
	}
	return stats
}

// Missing 返回没有被替换过的占位符，按名称排序
func (t *Tracker) Missing(placeholders domain.PlaceholderMap) []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	var missing []string
	for _, ph := range placeholders {
		if ph.Key == "" {
			continue
		}
		if _, ok := t.records[ph.Key]; !ok {
			missing = append(missing, ph.Key)
		}
	}
	sort.Strings(missing)
	return missing
}

// Reset 清空记录
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.records = make(map[string]*Record)
	t.order = nil
}

// Summary 生成单行摘要，用于日志
func (t *Tracker) Summary() string {
	stats := t.Stats()
	if len(stats) == 0 {
		return "无替换"
	}

	parts := make([]string, 0, len(stats))
	for _, s := range stats {
		parts = append(parts, fmt.Sprintf("%s=%d(段落%d/表格%d)", s.Keyword, s.Occurrences, s.InParagraphs, s.InTables))
	}
	return strings.Join(parts, " ")
}

// Preview 截断替换值，用于日志输出
func (t *Tracker) Preview(value string) string {
	value = strings.ReplaceAll(value, "\n", "⏎")
	width := t.config.MaxValueWidth
	runes := []rune(value)
	if width <= 0 || len(runes) <= width {
		return value
	}
	return string(runes[:width]) + "…"
}
