package recipient

import (
	"strings"

	"github.com/allanpk716/docx_mailmerge/internal/domain"
)

// 表格列名
const (
	ColSurname        = "Фамилия"
	ColGivenName      = "Имя"
	ColPatronymic     = "Отчество"
	ColEmail          = "E-mail"
	ColGender         = "Пол (итог)"
	ColAutoGender     = "Пол (авто)"
	ColDirectoryEmail = "E-mail_Татцентр"
	ColSourceURL      = "URL Tatcenter"
	ColDateOfBirth    = "Дата рождения (Татцентр)"
	ColSend           = "Отправлять"
)

// Recipient 表格中的一行收件人
type Recipient struct {
	Surname        string `json:"surname"`
	GivenName      string `json:"given_name"`
	Patronymic     string `json:"patronymic"`
	Email          string `json:"email"`
	Gender         string `json:"gender"`
	AutoGender     string `json:"auto_gender"`
	DirectoryEmail string `json:"directory_email"`
	SourceURL      string `json:"source_url"`
	DateOfBirth    string `json:"date_of_birth"`
	Send           bool   `json:"send"`
}

// Status 行状态
type Status struct {
	GenderOK bool
	EmailOK  bool
	Text     string
}

// OK 行是否没有问题
func (s Status) OK() bool {
	return s.GenderOK && s.EmailOK
}

// ApplyAutoGender 根据父称重新计算自动性别，最终性别为空时用自动结果填充
func (r *Recipient) ApplyAutoGender() {
	r.AutoGender = DetectGender(r.Patronymic)
	if r.Gender == "" && r.AutoGender != "" {
		r.Gender = r.AutoGender
	}
}

// Status 检查性别和 e-mail
func (r *Recipient) Status() Status {
	st := Status{
		GenderOK: ValidGender(r.Gender),
		EmailOK:  IsEmailLike(r.Email),
	}

	var problems []string
	if !st.GenderOK {
		problems = append(problems, "нет пола")
	}
	if !st.EmailOK {
		problems = append(problems, "e-mail пуст/битый")
	}
	if len(problems) == 0 {
		st.Text = "ОК"
	} else {
		st.Text = "Проблема: " + strings.Join(problems, ", ")
	}
	return st
}

// Salutation 称呼
func (r *Recipient) Salutation() string {
	return BuildSalutation(r.GivenName, r.Patronymic, r.Gender)
}

// BaseName 结果文件的基本名："Фамилия И.О."
func (r *Recipient) BaseName() string {
	surname := Normalize(r.Surname)
	initials := initial(r.GivenName) + initial(r.Patronymic)
	return SanitizeFilename(strings.TrimSpace(surname + " " + initials))
}

func initial(s string) string {
	s = Normalize(s)
	for _, ch := range s {
		return string(ch) + "."
	}
	return ""
}

// Person 用于目录查询的姓名
func (r *Recipient) Person() domain.PersonRecord {
	return domain.PersonRecord{
		Surname:    r.Surname,
		GivenName:  r.GivenName,
		Patronymic: r.Patronymic,
	}
}

// SearchQuery 目录搜索的查询串：非空的姓、名、父称用空格连接
func SearchQuery(p domain.PersonRecord) string {
	var parts []string
	for _, s := range []string{p.Surname, p.GivenName, p.Patronymic} {
		if s = Normalize(s); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, " ")
}

// NeedsDirectoryEmail 目录 e-mail 为空且主 e-mail 为空或无效
func (r *Recipient) NeedsDirectoryEmail() bool {
	return Normalize(r.DirectoryEmail) == "" && !IsEmailLike(r.Email)
}
