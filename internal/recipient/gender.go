package recipient

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	GenderMale   = "Муж"
	GenderFemale = "Жен"
)

var (
	lowerRussian = cases.Lower(language.Russian)

	femaleEndings = []string{"овна", "евна", "ична"}
	maleEndings   = []string{"ович", "евич", "ич"}
)

// DetectGender 按父称词尾判断性别，无法判断时返回空串
func DetectGender(patronymic string) string {
	p := strings.TrimRight(lowerRussian.String(Normalize(patronymic)), ".")
	if p == "" {
		return ""
	}
	for _, suffix := range femaleEndings {
		if strings.HasSuffix(p, suffix) {
			return GenderFemale
		}
	}
	for _, suffix := range maleEndings {
		if strings.HasSuffix(p, suffix) {
			return GenderMale
		}
	}
	return ""
}

// ToggleGender 切换性别；未知值切换为 "Муж"
func ToggleGender(cur string) string {
	if Normalize(cur) == GenderMale {
		return GenderFemale
	}
	return GenderMale
}

// ValidGender 是否为已知的性别值
func ValidGender(g string) bool {
	g = Normalize(g)
	return g == GenderMale || g == GenderFemale
}

// BuildSalutation 生成称呼，例如 "Уважаемая Анна Ивановна"
func BuildSalutation(givenName, patronymic, gender string) string {
	prefix := "Уважаемый"
	if gender == GenderFemale {
		prefix = "Уважаемая"
	}

	parts := []string{prefix, Normalize(givenName)}
	if p := Normalize(patronymic); p != "" {
		parts = append(parts, p)
	}
	return strings.TrimSpace(strings.Join(parts, " "))
}
