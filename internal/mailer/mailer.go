package mailer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/wneessen/go-mail"

	"github.com/allanpk716/docx_mailmerge/internal/config"
	"github.com/allanpk716/docx_mailmerge/internal/domain"
	"github.com/allanpk716/docx_mailmerge/pkg/logger"
)

const pdfContentType mail.ContentType = "application/pdf"

// SMTPMailer 通过 SMTP 发送带一个 PDF 附件的邮件
type SMTPMailer struct {
	cfg config.MailConfig
}

var _ domain.Mailer = (*SMTPMailer)(nil)

// NewSMTPMailer 创建 SMTP 发送器
func NewSMTPMailer(cfg config.MailConfig) *SMTPMailer {
	return &SMTPMailer{cfg: cfg}
}

// Send 发送一封邮件，每封邮件单独建立连接
func (s *SMTPMailer) Send(ctx context.Context, m domain.Mail) error {
	if s.cfg.Host == "" {
		return fmt.Errorf("没有配置 SMTP 服务器")
	}

	msg, err := buildMessage(m)
	if err != nil {
		return err
	}

	client, err := mail.NewClient(s.cfg.Host, s.options()...)
	if err != nil {
		return fmt.Errorf("创建 SMTP 客户端失败: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("发送邮件失败 %s: %w", m.To, err)
	}

	logger.FromContext(ctx).Debug("邮件已发送", "to", m.To, "attachment", filepath.Base(m.Attachment))
	return nil
}

func (s *SMTPMailer) options() []mail.Option {
	opts := []mail.Option{
		mail.WithPort(s.cfg.Port),
		mail.WithTLSPolicy(tlsPolicy(s.cfg.TLS)),
	}
	if s.cfg.Timeout > 0 {
		opts = append(opts, mail.WithTimeout(s.cfg.Timeout))
	}
	if s.cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthAutoDiscover),
			mail.WithUsername(s.cfg.Username),
			mail.WithPassword(s.cfg.Password),
		)
	}
	return opts
}

func tlsPolicy(name string) mail.TLSPolicy {
	switch strings.ToLower(name) {
	case "opportunistic":
		return mail.TLSOpportunistic
	case "none":
		return mail.NoTLS
	default:
		return mail.TLSMandatory
	}
}

// buildMessage 构造邮件，附件必须存在
func buildMessage(m domain.Mail) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.From(m.From); err != nil {
		return nil, fmt.Errorf("发件人地址无效 %q: %w", m.From, err)
	}
	if err := msg.To(m.To); err != nil {
		return nil, fmt.Errorf("收件人地址无效 %q: %w", m.To, err)
	}
	msg.Subject(m.Subject)
	msg.SetDate()
	msg.SetBodyString(mail.TypeTextPlain, m.Body)

	if m.Attachment != "" {
		info, err := os.Stat(m.Attachment)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", domain.ErrNoPDF, m.Attachment)
		}
		if info.IsDir() {
			return nil, fmt.Errorf("附件是目录: %s", m.Attachment)
		}
		msg.AttachFile(m.Attachment,
			mail.WithFileName(filepath.Base(m.Attachment)),
			mail.WithFileContentType(pdfContentType),
		)
	}
	return msg, nil
}
