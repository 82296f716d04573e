package controller

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/allanpk716/docx_mailmerge/internal/domain"
	"github.com/allanpk716/docx_mailmerge/internal/recipient"
	"github.com/allanpk716/docx_mailmerge/internal/report"
	"github.com/allanpk716/docx_mailmerge/pkg/logger"
)

const defaultSubject = "Поздравление"

// SendTest 把一行的 PDF 发送给发件人自己
func (c *Controller) SendTest(ctx context.Context, sender, subject string, idx int) (to, pdf string, err error) {
	if c.deps.Mailer == nil {
		return "", "", fmt.Errorf("没有配置邮件发送")
	}
	if err := c.requireProject(); err != nil {
		return "", "", err
	}
	r, err := c.row(idx)
	if err != nil {
		return "", "", err
	}

	pdfPath := c.project.PDFPath(r)
	if !c.project.Exists(pdfPath) {
		return "", "", fmt.Errorf("%w: %s", domain.ErrNoPDF, filepath.Base(pdfPath))
	}

	sender, subject = c.resolveSender(sender, subject)
	if err := c.deps.Mailer.Send(ctx, domain.Mail{
		From:       sender,
		To:         sender,
		Subject:    subject,
		Attachment: pdfPath,
	}); err != nil {
		return "", "", err
	}

	logger.FromContext(ctx).Info("测试邮件已发送", "to", sender, "pdf", filepath.Base(pdfPath))
	return sender, filepath.Base(pdfPath), nil
}

// SendMails 逐行发送 PDF，跳过未勾选 (onlyChecked)、e-mail 无效和没有 PDF 的行
// 结果写入 RESULT/send_report_YYYYMMDD_HHMMSS.csv，返回报告路径
func (c *Controller) SendMails(ctx context.Context, sender, subject string, onlyChecked bool) (string, error) {
	if c.deps.Mailer == nil {
		return "", fmt.Errorf("没有配置邮件发送")
	}
	if err := c.requireProject(); err != nil {
		return "", err
	}

	log := logger.FromContext(ctx)
	sender, subject = c.resolveSender(sender, subject)

	var rep report.SendReport
	var sendErr error
	for i := range c.recipients {
		if err := ctx.Err(); err != nil {
			sendErr = err
			break
		}

		r := &c.recipients[i]
		if onlyChecked && !r.Send {
			continue
		}
		to := recipient.Normalize(r.Email)
		if !recipient.IsEmailLike(to) {
			continue
		}
		pdfPath := c.project.PDFPath(r)
		if !c.project.Exists(pdfPath) {
			log.Debug("跳过没有 PDF 的行", "row", i, "pdf", filepath.Base(pdfPath))
			continue
		}

		err := c.deps.Mailer.Send(ctx, domain.Mail{
			From:       sender,
			To:         to,
			Subject:    subject,
			Attachment: pdfPath,
		})
		if err != nil {
			rep.Failed(to, filepath.Base(pdfPath), err)
			log.Error("发送失败", "to", to, "error", err)
			continue
		}
		rep.Sent(to, filepath.Base(pdfPath))
	}

	data, err := rep.Bytes()
	if err != nil {
		return "", err
	}
	path, err := c.project.WriteResult(report.FileName(c.now()), data)
	if err != nil {
		return "", err
	}

	sent, failed := rep.Count()
	log.Info("群发完成", "sent", sent, "errors", failed, "report", path)
	return path, sendErr
}

// resolveSender 参数为空时使用项目中保存的发件人和主题
func (c *Controller) resolveSender(sender, subject string) (string, string) {
	sender = recipient.Normalize(sender)
	if sender == "" {
		sender = c.state.SenderEmail
	}
	subject = recipient.Normalize(subject)
	if subject == "" {
		subject = c.state.Subject
	}
	if subject == "" {
		subject = defaultSubject
	}
	return sender, subject
}
