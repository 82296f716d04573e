package matcher

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/allanpk716/docx_mailmerge/internal/domain"
)

// fakeRuns 用切片模拟段落中的 run
type fakeRuns struct {
	texts []string
	sets  int
}

func newRuns(texts ...string) *fakeRuns {
	return &fakeRuns{texts: append([]string(nil), texts...)}
}

func (f *fakeRuns) RunCount() int         { return len(f.texts) }
func (f *fakeRuns) RunText(i int) string  { return f.texts[i] }
func (f *fakeRuns) SetRunText(i int, s string) {
	f.texts[i] = s
	f.sets++
}
func (f *fakeRuns) joined() string { return strings.Join(f.texts, "") }

func TestReplaceInRuns(t *testing.T) {
	name := domain.PlaceholderMap{{Key: "<<NAME>>", Value: "World"}}

	tests := []struct {
		name         string
		runs         []string
		placeholders domain.PlaceholderMap
		expected     []string
	}{
		{
			name:         "single run",
			runs:         []string{"Hello <<NAME>> today"},
			placeholders: name,
			expected:     []string{"Hello World today"},
		},
		{
			name:         "single run with neighbours untouched",
			runs:         []string{"A ", "Hello <<NAME>>!", " B"},
			placeholders: name,
			expected:     []string{"A ", "Hello World!", " B"},
		},
		{
			name:         "split across two runs",
			runs:         []string{"Hello <<NA", "ME>> today"},
			placeholders: name,
			expected:     []string{"Hello World today", ""},
		},
		{
			name:         "split across three runs",
			runs:         []string{"x<<", "NAME", ">>y", "z"},
			placeholders: name,
			expected:     []string{"xWorldy", "", "", "z"},
		},
		{
			name:         "multiple occurrences",
			runs:         []string{"<<NAME>> and <<NA", "ME>> again"},
			placeholders: name,
			expected:     []string{"World and World again", ""},
		},
		{
			name:         "empty replacement",
			runs:         []string{"a<<NAME>>b"},
			placeholders: domain.PlaceholderMap{{Key: "<<NAME>>", Value: ""}},
			expected:     []string{"ab"},
		},
		{
			name:         "empty runs are skipped",
			runs:         []string{"", "<<NAME>>", ""},
			placeholders: name,
			expected:     []string{"", "World", ""},
		},
		{
			name: "keys processed in order",
			runs: []string{"<<A>> <<B>>"},
			placeholders: domain.PlaceholderMap{
				{Key: "<<A>>", Value: "1"},
				{Key: "<<B>>", Value: "2"},
			},
			expected: []string{"1 2"},
		},
		{
			name: "cyrillic text keeps byte boundaries",
			runs: []string{"Текст: <<OBRA", "SHENIE>>, спасибо"},
			placeholders: domain.PlaceholderMap{
				{Key: "<<OBRASHENIE>>", Value: "Уважаемая Анна Ивановна"},
			},
			expected: []string{"Текст: Уважаемая Анна Ивановна, спасибо", ""},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runs := newRuns(tt.runs...)
			ReplaceInRuns(runs, tt.placeholders)
			assert.Equal(t, tt.expected, runs.texts)
			assert.Equal(t, len(tt.runs), runs.RunCount(), "run 数量不能改变")
		})
	}
}

func TestReplaceInRuns_AbsentKeyIsNoop(t *testing.T) {
	runs := newRuns("Hello ", "<<NAME", ">> today")
	before := append([]string(nil), runs.texts...)

	counts := ReplaceInRuns(runs, domain.PlaceholderMap{{Key: "<<OTHER>>", Value: "x"}})

	assert.Equal(t, before, runs.texts)
	assert.Zero(t, runs.sets)
	assert.Empty(t, counts)
}

func TestReplaceInRuns_NoRuns(t *testing.T) {
	runs := newRuns()
	counts := ReplaceInRuns(runs, domain.PlaceholderMap{{Key: "<<NAME>>", Value: "x"}})
	assert.Empty(t, counts)
}

func TestReplaceInRuns_ReplacementContainingOwnKey(t *testing.T) {
	runs := newRuns("<<K>>-<<K>>")

	counts := ReplaceInRuns(runs, domain.PlaceholderMap{{Key: "<<K>>", Value: "[<<K>>]"}})

	assert.Equal(t, "[<<K>>]-[<<K>>]", runs.joined())
	assert.Equal(t, 2, counts["<<K>>"])
}

func TestReplaceInRuns_LaterKeySeesEarlierReplacement(t *testing.T) {
	runs := newRuns("<<A>>")

	ReplaceInRuns(runs, domain.PlaceholderMap{
		{Key: "<<A>>", Value: "<<B>>"},
		{Key: "<<B>>", Value: "done"},
	})

	assert.Equal(t, "done", runs.joined())
}

func TestReplaceInRuns_EarlierKeyNotRevisited(t *testing.T) {
	runs := newRuns("<<B>>")

	ReplaceInRuns(runs, domain.PlaceholderMap{
		{Key: "<<A>>", Value: "never"},
		{Key: "<<B>>", Value: "<<A>>"},
	})

	assert.Equal(t, "<<A>>", runs.joined())
}

func TestReplaceInRuns_EmptyKeyIgnored(t *testing.T) {
	runs := newRuns("abc")
	ReplaceInRuns(runs, domain.PlaceholderMap{{Key: "", Value: "x"}})
	assert.Equal(t, "abc", runs.joined())
}

func TestReplaceInRuns_Counts(t *testing.T) {
	runs := newRuns("<<A>><<A>>", "<<B>>")
	counts := ReplaceInRuns(runs, domain.PlaceholderMap{
		{Key: "<<A>>", Value: "a"},
		{Key: "<<B>>", Value: "b"},
	})
	assert.Equal(t, map[string]int{"<<A>>": 2, "<<B>>": 1}, counts)
}

func TestCoveredRuns(t *testing.T) {
	spans := []Span{
		{Run: 0, Start: 0, End: 3},
		{Run: 1, Start: 3, End: 3},
		{Run: 2, Start: 3, End: 8},
		{Run: 3, Start: 8, End: 10},
	}

	assert.Equal(t, []Span{spans[0], spans[2]}, CoveredRuns(spans, 2, 4))
	assert.Equal(t, []Span{spans[2]}, CoveredRuns(spans, 3, 8))
	assert.Empty(t, CoveredRuns(spans, 10, 12))
}

func TestFindMatches(t *testing.T) {
	placeholders := domain.PlaceholderMap{
		{Key: "<<NAME>>", Value: "John Doe"},
		{Key: "<<AGE>>", Value: "30"},
	}

	tests := []struct {
		name     string
		text     string
		expected int
	}{
		{name: "single match", text: "Hello <<NAME>>, welcome!", expected: 1},
		{name: "multiple matches", text: "<<NAME>> is <<AGE>> years old", expected: 2},
		{name: "no matches", text: "This is a normal text", expected: 0},
		{name: "duplicate matches", text: "<<NAME>> and <<NAME>> again", expected: 2},
		{name: "partial matches", text: "<<NAME and NAME>> are not valid", expected: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Len(t, FindMatches(tt.text, placeholders), tt.expected)
		})
	}
}

func TestGetMatchStats(t *testing.T) {
	stats := GetMatchStats("<<A>> <<A>> <<B>>", domain.PlaceholderMap{{Key: "<<A>>"}, {Key: "<<B>>"}, {Key: "<<C>>"}})
	assert.Equal(t, map[string]int{"<<A>>": 2, "<<B>>": 1}, stats)
}

func TestFormatPlaceholder(t *testing.T) {
	assert.Equal(t, "<<TEXT>>", FormatPlaceholder("TEXT"))
	assert.Equal(t, "<<TEXT>>", FormatPlaceholder("<<TEXT>>"))
	assert.False(t, ValidatePlaceholderFormat("<<>"))
}

func BenchmarkReplaceInRuns(b *testing.B) {
	placeholders := domain.PlaceholderMap{
		{Key: "<<OBRASHENIE>>", Value: "Уважаемый Олег"},
		{Key: "<<TEXT>>", Value: "Поздравляем!"},
	}
	for i := 0; i < b.N; i++ {
		runs := newRuns("<<OBRA", "SHENIE>>,", " ", "<<TEXT>>")
		ReplaceInRuns(runs, placeholders)
	}
}
