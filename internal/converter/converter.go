package converter

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/shlex"

	"github.com/allanpk716/docx_mailmerge/internal/config"
	"github.com/allanpk716/docx_mailmerge/internal/domain"
	"github.com/allanpk716/docx_mailmerge/pkg/logger"
)

// 命令模板中可用的占位符
const (
	InputVar  = "{input}"
	OutdirVar = "{outdir}"
	OutputVar = "{output}"
)

// CommandConverter 调用外部命令 (默认 LibreOffice) 把 DOCX 转成 PDF
type CommandConverter struct {
	command string
	timeout time.Duration
}

var _ domain.PDFConverter = (*CommandConverter)(nil)

// NewCommandConverter 创建转换器
func NewCommandConverter(cfg config.ConvertConfig) *CommandConverter {
	return &CommandConverter{command: cfg.Command, timeout: cfg.Timeout}
}

// Convert 转换单个文件，命令结束后 pdfPath 必须存在
// LibreOffice 只接受输出目录，生成 <outdir>/<输入文件名>.pdf，必要时再改名为 pdfPath
func (c *CommandConverter) Convert(ctx context.Context, docxPath, pdfPath string) error {
	args, err := c.buildArgs(docxPath, pdfPath)
	if err != nil {
		return err
	}

	outdir := filepath.Dir(pdfPath)
	if err := os.MkdirAll(outdir, 0755); err != nil {
		return fmt.Errorf("创建输出目录失败: %w", err)
	}
	_ = os.Remove(pdfPath)

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	log := logger.FromContext(ctx)
	log.Debug("执行转换命令", "args", args)

	var output bytes.Buffer
	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	cmd.Stdout = &output
	cmd.Stderr = &output
	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("转换超时或被取消 %s: %w", filepath.Base(docxPath), ctxErr)
		}
		return fmt.Errorf("转换命令失败 %s: %w: %s", filepath.Base(docxPath), err, strings.TrimSpace(output.String()))
	}

	produced := filepath.Join(outdir, strings.TrimSuffix(filepath.Base(docxPath), filepath.Ext(docxPath))+".pdf")
	if _, err := os.Stat(pdfPath); err == nil {
		return nil
	}
	if produced != pdfPath {
		if _, err := os.Stat(produced); err == nil {
			if err := os.Rename(produced, pdfPath); err != nil {
				return fmt.Errorf("重命名 PDF 失败: %w", err)
			}
			return nil
		}
	}
	return fmt.Errorf("%w: %s", errNotProduced, pdfPath)
}

var errNotProduced = errors.New("转换命令没有生成 PDF")

// buildArgs 按 shell 规则拆分命令，再替换每个参数中的占位符
// 先拆分后替换，路径中的空格不会破坏参数
func (c *CommandConverter) buildArgs(docxPath, pdfPath string) ([]string, error) {
	args, err := shlex.Split(c.command)
	if err != nil {
		return nil, fmt.Errorf("解析转换命令失败: %w", err)
	}
	if len(args) == 0 {
		return nil, fmt.Errorf("转换命令为空")
	}

	replacer := strings.NewReplacer(
		InputVar, docxPath,
		OutdirVar, filepath.Dir(pdfPath),
		OutputVar, pdfPath,
	)
	for i, arg := range args {
		args[i] = replacer.Replace(arg)
	}
	return args, nil
}
