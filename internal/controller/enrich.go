package controller

import (
	"context"
	"errors"
	"fmt"

	"github.com/allanpk716/docx_mailmerge/internal/domain"
	"github.com/allanpk716/docx_mailmerge/internal/recipient"
	"github.com/allanpk716/docx_mailmerge/pkg/logger"
)

// 补全范围
const (
	ScopeSelected = "выделенным строкам"
	ScopeAll      = "всем строкам"
)

// Enrich 从目录网站补全缺少的 e-mail
// only 非空时只处理这些行；只处理目录 e-mail 为空且主 e-mail 为空或无效的行
// 单行失败计入 errors 并继续，ctx 取消时在行之间停止
func (c *Controller) Enrich(ctx context.Context, only []int, progress domain.ProgressFunc) (domain.EnrichSummary, error) {
	summary := domain.EnrichSummary{Scope: ScopeAll}
	if err := c.requireData(); err != nil {
		return summary, err
	}
	if c.deps.Directory == nil {
		return summary, fmt.Errorf("没有配置目录客户端")
	}

	candidates := make([]int, 0, len(c.recipients))
	if len(only) > 0 {
		summary.Scope = ScopeSelected
		for _, idx := range only {
			if _, err := c.row(idx); err != nil {
				return summary, err
			}
			candidates = append(candidates, idx)
		}
	} else {
		for i := range c.recipients {
			candidates = append(candidates, i)
		}
	}

	var targets []int
	for _, idx := range candidates {
		if c.recipients[idx].NeedsDirectoryEmail() {
			targets = append(targets, idx)
		}
	}
	if len(targets) == 0 {
		return summary, nil
	}

	log := logger.FromContext(ctx)
	summary.Total = len(targets)
	for n, idx := range targets {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		r := &c.recipients[idx]
		query := recipient.SearchQuery(r.Person())
		notify(progress, n+1, summary.Total, fmt.Sprintf("[%d/%d] %s", n+1, summary.Total, query))

		found, err := c.enrichRow(ctx, r, query)
		switch {
		case err != nil && ctx.Err() != nil && errors.Is(err, ctx.Err()):
			return summary, err
		case err != nil:
			summary.Errors++
			log.Warn("目录查询出错", "row", idx, "name", query, "error", err)
		case found:
			summary.Found++
		default:
			summary.NotFound++
		}
	}

	log.Info("目录补全完成",
		"scope", summary.Scope, "found", summary.Found,
		"not_found", summary.NotFound, "errors", summary.Errors, "total", summary.Total)
	return summary, nil
}

// enrichRow 搜索 → 等待 → 读取个人页面 → 等待
// 有效 e-mail 写入目录 e-mail 和来源 URL；出生日期有就写入
func (c *Controller) enrichRow(ctx context.Context, r *recipient.Recipient, query string) (found bool, err error) {
	defer func() {
		if p := recover(); p != nil {
			found, err = false, fmt.Errorf("处理行时发生异常: %v", p)
		}
	}()

	pause := c.cfg.Directory.Pause

	result, err := c.deps.Directory.Search(ctx, query)
	if err != nil {
		return false, err
	}
	if err := c.sleep(ctx, pause); err != nil {
		return false, err
	}
	if !result.Found() {
		return false, nil
	}

	outcome, err := c.deps.Directory.FetchDetails(ctx, result.URL)
	if err != nil {
		return false, err
	}
	if err := c.sleep(ctx, pause); err != nil {
		return false, err
	}
	if outcome.Empty() {
		logger.FromContext(ctx).Debug("资料页没有 e-mail 和出生日期", "query", query, "url", result.URL)
		return false, nil
	}

	if email := recipient.Normalize(outcome.Email); recipient.IsEmailLike(email) {
		r.DirectoryEmail = email
		r.SourceURL = result.URL
		found = true
	}
	if dob := recipient.Normalize(outcome.DateOfBirth); dob != "" {
		r.DateOfBirth = dob
	}
	return found, nil
}

// ApplyDirectoryEmails 主 e-mail 无效且目录 e-mail 有效时，用目录 e-mail 替换主 e-mail
func (c *Controller) ApplyDirectoryEmails() int {
	count := 0
	for i := range c.recipients {
		r := &c.recipients[i]
		if !recipient.IsEmailLike(r.Email) && recipient.IsEmailLike(r.DirectoryEmail) {
			r.Email = recipient.Normalize(r.DirectoryEmail)
			count++
		}
	}
	return count
}
