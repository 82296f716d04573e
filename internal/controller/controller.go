package controller

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/afero"

	"github.com/allanpk716/docx_mailmerge/internal/config"
	"github.com/allanpk716/docx_mailmerge/internal/domain"
	"github.com/allanpk716/docx_mailmerge/internal/processor"
	"github.com/allanpk716/docx_mailmerge/internal/project"
	"github.com/allanpk716/docx_mailmerge/internal/recipient"
	"github.com/allanpk716/docx_mailmerge/internal/sheet"
	"github.com/allanpk716/docx_mailmerge/pkg/docx"
	"github.com/allanpk716/docx_mailmerge/pkg/logger"
)

// Deps 控制器依赖的外部服务，未使用的可以为 nil
type Deps struct {
	Processor domain.DocumentProcessor
	Directory domain.DirectoryClient
	Converter domain.PDFConverter
	Mailer    domain.Mailer
	Fs        afero.Fs
}

// Option 控制器选项
type Option func(*Controller)

// WithSleep 替换批处理中的等待函数
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(c *Controller) { c.sleep = sleep }
}

// WithClock 替换当前时间
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// Controller 业务逻辑：命令行只负责参数和输出
type Controller struct {
	cfg        *config.Config
	cm         config.ConfigManager
	deps       Deps
	project    *project.Project
	state      project.State
	recipients []recipient.Recipient

	sleep func(ctx context.Context, d time.Duration) error
	now   func() time.Time
}

// New 创建控制器
func New(cfg *config.Config, deps Deps, opts ...Option) *Controller {
	if cfg == nil {
		cfg = config.Default()
	}
	if deps.Fs == nil {
		deps.Fs = afero.NewOsFs()
	}
	if deps.Processor == nil {
		deps.Processor = processor.NewDocumentProcessor(nil)
	}

	c := &Controller{
		cfg:  cfg,
		cm:   config.NewConfigManager(),
		deps: deps,
		state: project.State{
			ExcelPath:    cfg.Project.Excel,
			TemplatePath: cfg.Project.Template,
			SenderEmail:  cfg.Project.SenderEmail,
			Subject:      cfg.Project.Subject,
		},
		sleep: sleepContext,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State 当前项目状态
func (c *Controller) State() project.State {
	return c.state
}

// Recipients 收件人列表的副本
func (c *Controller) Recipients() []recipient.Recipient {
	return append([]recipient.Recipient(nil), c.recipients...)
}

// SetRecipients 替换收件人列表并重新计算自动性别
func (c *Controller) SetRecipients(rs []recipient.Recipient) {
	c.recipients = append([]recipient.Recipient(nil), rs...)
	for i := range c.recipients {
		c.recipients[i].ApplyAutoGender()
	}
}

// RowCount 收件人行数
func (c *Controller) RowCount() int {
	return len(c.recipients)
}

// LoadExcel 读取收件人表格
func (c *Controller) LoadExcel(path string) (int, error) {
	rs, err := sheet.Load(path)
	if err != nil {
		return 0, err
	}
	c.recipients = rs
	c.state.ExcelPath = path
	logger.Info("表格已加载", "file", path, "rows", len(rs))
	return len(rs), nil
}

// SetProjectDir 设置项目目录并创建 RESULT 结构
func (c *Controller) SetProjectDir(dir string) error {
	p, err := project.New(c.deps.Fs, dir)
	if err != nil {
		return err
	}
	if err := p.EnsureDirs(); err != nil {
		return err
	}
	c.project = p
	c.state.ProjectDir = dir
	return nil
}

// OpenWorkspace 设置项目目录并恢复上次保存的状态和收件人
// 工作区中没有记录的字段保留当前值
func (c *Controller) OpenWorkspace(dir string) error {
	if err := c.SetProjectDir(dir); err != nil {
		return err
	}
	ws, err := c.project.LoadWorkspace()
	if err != nil {
		return err
	}

	if ws.State.ExcelPath != "" {
		c.state.ExcelPath = ws.State.ExcelPath
	}
	if ws.State.TemplatePath != "" {
		c.state.TemplatePath = ws.State.TemplatePath
	}
	if ws.State.SenderEmail != "" {
		c.state.SenderEmail = ws.State.SenderEmail
	}
	if ws.State.Subject != "" {
		c.state.Subject = ws.State.Subject
	}
	if len(ws.Recipients) > 0 {
		c.recipients = ws.Recipients
	}
	return nil
}

// SaveWorkspace 保存状态和收件人到 RESULT/workspace.json
func (c *Controller) SaveWorkspace() error {
	if c.project == nil {
		return domain.ErrNoProjectDir
	}
	return c.project.SaveWorkspace(&project.Workspace{
		State:      c.state,
		Recipients: c.recipients,
	})
}

// SetSender 设置默认发件人和主题，空值保持不变
func (c *Controller) SetSender(sender, subject string) {
	if s := recipient.Normalize(sender); s != "" {
		c.state.SenderEmail = s
	}
	if s := recipient.Normalize(subject); s != "" {
		c.state.Subject = s
	}
}

// LoadTemplate 检查模板并统计占位符出现次数
func (c *Controller) LoadTemplate(ctx context.Context, path string) ([]domain.ReplacementStats, error) {
	if err := c.deps.Processor.ValidateDocument(path); err != nil {
		return nil, fmt.Errorf("模板无效: %w", err)
	}

	log := logger.FromContext(ctx)
	if err := docx.ValidateDocument(path); err != nil {
		log.Warn("模板结构检查未通过", "file", path, "error", err)
	}

	placeholders := c.cm.GetPlaceholders(c.cfg, "", "")
	found, err := processor.GetProcessingStats(ctx, path, placeholders)
	if err != nil {
		return nil, err
	}

	byKey := make(map[string]domain.ReplacementStats, len(found))
	for _, s := range found {
		byKey[s.Keyword] = s
	}
	stats := make([]domain.ReplacementStats, 0, len(placeholders))
	for _, key := range placeholders.Keys() {
		s, ok := byKey[key]
		if !ok {
			s = domain.ReplacementStats{Keyword: key}
			log.Warn("模板中没有占位符", "placeholder", key)
		}
		stats = append(stats, s)
	}

	c.state.TemplatePath = path
	return stats, nil
}

// ToggleGender 切换一行的性别
func (c *Controller) ToggleGender(idx int) (string, error) {
	r, err := c.row(idx)
	if err != nil {
		return "", err
	}
	r.Gender = recipient.ToggleGender(r.Gender)
	return r.Gender, nil
}

// SetSend 设置一行是否发送
func (c *Controller) SetSend(idx int, send bool) error {
	r, err := c.row(idx)
	if err != nil {
		return err
	}
	r.Send = send
	return nil
}

// RowStatus 一行的状态
type RowStatus struct {
	Index  int
	Name   string
	Email  string
	Gender string
	Send   bool
	Status recipient.Status
}

// Status 每行的状态
func (c *Controller) Status() []RowStatus {
	out := make([]RowStatus, 0, len(c.recipients))
	for i := range c.recipients {
		r := &c.recipients[i]
		out = append(out, RowStatus{
			Index:  i,
			Name:   recipient.SearchQuery(r.Person()),
			Email:  r.Email,
			Gender: r.Gender,
			Send:   r.Send,
			Status: r.Status(),
		})
	}
	return out
}

func (c *Controller) row(idx int) (*recipient.Recipient, error) {
	if len(c.recipients) == 0 {
		return nil, domain.ErrNoData
	}
	if idx < 0 || idx >= len(c.recipients) {
		return nil, fmt.Errorf("%w: %d", domain.ErrRowIndex, idx)
	}
	return &c.recipients[idx], nil
}

func (c *Controller) requireData() error {
	if len(c.recipients) == 0 {
		return domain.ErrNoData
	}
	return nil
}

func (c *Controller) requireProject() error {
	if err := c.requireData(); err != nil {
		return err
	}
	if c.project == nil {
		return domain.ErrNoProjectDir
	}
	return nil
}

func notify(progress domain.ProgressFunc, n, total int, message string) {
	if progress != nil {
		progress(n, total, message)
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
