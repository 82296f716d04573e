package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/allanpk716/docx_mailmerge/internal/config"
)

// NewRootCommand 创建根命令和全部子命令
func NewRootCommand() *cobra.Command {
	opts := &Options{}

	root := &cobra.Command{
		Use:   AppName,
		Short: "按表格批量生成个性化 DOCX/PDF 并通过邮件发送",
		Long: `docx-mailmerge 读取收件人表格，根据父称判断性别，
从目录网站补全缺少的 e-mail，按模板生成 DOCX 和 PDF 并逐个发送。
项目状态保存在 <project>/RESULT/workspace.json，各子命令之间共享。`,
		SilenceUsage: true,
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&opts.ConfigFile, "config", "c", "", "配置文件路径 (默认使用当前目录的 config.json)")
	flags.StringVarP(&opts.ProjectDir, "project", "p", "", "项目目录")
	flags.StringVar(&opts.LogLevel, "log-level", "", "日志级别 (debug, info, warn, error)")
	flags.BoolVar(&opts.LogJSON, "log-json", false, "以 JSON 格式输出日志")
	flags.BoolVarP(&opts.Verbose, "verbose", "v", false, "详细输出")

	root.AddCommand(
		newLoadCommand(opts),
		newStatusCommand(opts),
		newGenderCommand(opts),
		newEnrichCommand(opts),
		newApplyEmailsCommand(opts),
		newRenderCommand(opts),
		newConvertCommand(opts),
		newExportCommand(opts),
		newSendCommand(opts),
		newSendTestCommand(opts),
		newPreviewCommand(opts),
		newInitConfigCommand(),
		newVersionCommand(),
	)

	return root
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "显示版本信息",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s v%s\n", AppName, AppVersion)
		},
	}
}

func newInitConfigCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "init-config",
		Short: "写出默认配置文件",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.SaveConfig(config.Default(), output); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "配置已写入: %s\n", output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", defaultConfigFile, "输出路径")
	return cmd
}

// Execute 执行根命令，Ctrl+C 会取消正在进行的批处理
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return NewRootCommand().ExecuteContext(ctx)
}
