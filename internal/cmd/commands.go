package cmd

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newLoadCommand(opts *Options) *cobra.Command {
	var excel, template, sender, subject string

	cmd := &cobra.Command{
		Use:   "load",
		Short: "加载收件人表格和模板",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ExecuteProcessing(cmd.Context(), opts, true, func(ctx context.Context, app *App) error {
				ctrl := app.Controller
				out := cmd.OutOrStdout()

				if excel == "" {
					excel = ctrl.State().ExcelPath
				}
				if template == "" {
					template = ctrl.State().TemplatePath
				}
				if excel == "" && template == "" {
					return fmt.Errorf("请指定 --excel 或 --template")
				}

				if excel != "" {
					rows, err := ctrl.LoadExcel(excel)
					if err != nil {
						return err
					}
					fmt.Fprintf(out, "表格: %s (%d 行)\n", excel, rows)
				}
				if template != "" {
					stats, err := ctrl.LoadTemplate(ctx, template)
					if err != nil {
						return err
					}
					fmt.Fprintf(out, "模板: %s\n", template)
					for _, s := range stats {
						fmt.Fprintf(out, "  %s: %d (段落 %d, 表格 %d)\n", s.Keyword, s.Occurrences, s.InParagraphs, s.InTables)
					}
				}
				ctrl.SetSender(sender, subject)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&excel, "excel", "", "收件人表格 (.xlsx)")
	cmd.Flags().StringVar(&template, "template", "", "DOCX 模板")
	cmd.Flags().StringVar(&sender, "sender", "", "默认发件人")
	cmd.Flags().StringVar(&subject, "subject", "", "默认邮件主题")
	return cmd
}

func newStatusCommand(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "显示每一行的状态",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ExecuteProcessing(cmd.Context(), opts, false, func(ctx context.Context, app *App) error {
				rows := app.Controller.Status()
				if len(rows) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "没有数据")
					return nil
				}

				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
				fmt.Fprintln(tw, "#\tФИО\tE-mail\tПол\tОтправлять\tСтатус")
				problems := 0
				for _, r := range rows {
					if !r.Status.OK() {
						problems++
					}
					fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n",
						r.Index+1, r.Name, r.Email, r.Gender, yesNo(r.Send), r.Status.Text)
				}
				if err := tw.Flush(); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "共 %d 行，有问题 %d 行\n", len(rows), problems)
				return nil
			})
		},
	}
}

func newGenderCommand(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "gender ROWS",
		Short: "切换指定行的性别，例如 gender 2,5-7",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ExecuteProcessing(cmd.Context(), opts, true, func(ctx context.Context, app *App) error {
				rows, err := ParseRows(args[0], app.Controller.RowCount())
				if err != nil {
					return err
				}
				for _, idx := range rows {
					g, err := app.Controller.ToggleGender(idx)
					if err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "%d: %s\n", idx+1, g)
				}
				return nil
			})
		},
	}
}

func newEnrichCommand(opts *Options) *cobra.Command {
	var rowList string

	cmd := &cobra.Command{
		Use:   "enrich",
		Short: "从目录网站补全缺少的 e-mail",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ExecuteProcessing(cmd.Context(), opts, true, func(ctx context.Context, app *App) error {
				rows, err := ParseRows(rowList, app.Controller.RowCount())
				if err != nil {
					return err
				}
				summary, err := app.Controller.Enrich(ctx, rows, progressPrinter(cmd.ErrOrStderr()))
				fmt.Fprintf(cmd.OutOrStdout(), "Поиск по %s: найдено %d, не найдено %d, ошибок %d, всего %d\n",
					summary.Scope, summary.Found, summary.NotFound, summary.Errors, summary.Total)
				return err
			})
		},
	}

	cmd.Flags().StringVar(&rowList, "rows", "", "只处理这些行，例如 1,3-5")
	return cmd
}

func newApplyEmailsCommand(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "apply-emails",
		Short: "用目录网站找到的 e-mail 替换无效的 e-mail",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ExecuteProcessing(cmd.Context(), opts, true, func(ctx context.Context, app *App) error {
				n := app.Controller.ApplyDirectoryEmails()
				fmt.Fprintf(cmd.OutOrStdout(), "已替换 %d 个 e-mail\n", n)
				return nil
			})
		},
	}
}

func newRenderCommand(opts *Options) *cobra.Command {
	var text, textFile string

	cmd := &cobra.Command{
		Use:   "render",
		Short: "为每一行生成 DOCX",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := ReadBodyText(text, textFile)
			if err != nil {
				return err
			}
			return ExecuteProcessing(cmd.Context(), opts, true, func(ctx context.Context, app *App) error {
				result, err := app.Controller.GenerateDOCX(ctx, body, progressPrinter(cmd.ErrOrStderr()))
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "DOCX: %d/%d, 失败 %d -> %s\n", result.Done, result.Total, result.Failed, result.Dir)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&text, "text", "", "正文")
	cmd.Flags().StringVar(&textFile, "text-file", "", "从文件读取正文 (UTF-8)")
	return cmd
}

func newConvertCommand(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "convert",
		Short: "把生成的 DOCX 转换为 PDF",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ExecuteProcessing(cmd.Context(), opts, false, func(ctx context.Context, app *App) error {
				result, err := app.Controller.GeneratePDF(ctx, progressPrinter(cmd.ErrOrStderr()))
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "PDF: %d/%d, 失败 %d -> %s\n", result.Done, result.Total, result.Failed, result.Dir)
				return nil
			})
		},
	}
}

func newExportCommand(opts *Options) *cobra.Command {
	var dest string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "把 PDF 复制到指定目录",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ExecuteProcessing(cmd.Context(), opts, false, func(ctx context.Context, app *App) error {
				summary, err := app.Controller.ExportPDF(dest)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "复制 %d, 缺少 %d, 错误 %d -> %s\n",
					summary.Copied, summary.Missing, summary.Errors, summary.Dest)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&dest, "dest", "", "目标目录")
	_ = cmd.MarkFlagRequired("dest")
	return cmd
}

func newSendCommand(opts *Options) *cobra.Command {
	var sender, subject string
	var all bool

	cmd := &cobra.Command{
		Use:   "send",
		Short: "把 PDF 发送给每个收件人",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ExecuteProcessing(cmd.Context(), opts, false, func(ctx context.Context, app *App) error {
				path, err := app.Controller.SendMails(ctx, sender, subject, !all)
				if path != "" {
					fmt.Fprintf(cmd.OutOrStdout(), "报告: %s\n", path)
				}
				return err
			})
		},
	}

	cmd.Flags().StringVar(&sender, "sender", "", "发件人 (默认使用项目设置)")
	cmd.Flags().StringVar(&subject, "subject", "", "邮件主题")
	cmd.Flags().BoolVar(&all, "all", false, "忽略 \"Отправлять\" 列，发送给所有行")
	return cmd
}

func newSendTestCommand(opts *Options) *cobra.Command {
	var sender, subject string
	var row int

	cmd := &cobra.Command{
		Use:   "send-test",
		Short: "把一行的 PDF 发送给发件人自己",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ExecuteProcessing(cmd.Context(), opts, false, func(ctx context.Context, app *App) error {
				to, pdf, err := app.Controller.SendTest(ctx, sender, subject, row-1)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "测试邮件已发送: %s (%s)\n", to, pdf)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&sender, "sender", "", "发件人 (默认使用项目设置)")
	cmd.Flags().StringVar(&subject, "subject", "", "邮件主题")
	cmd.Flags().IntVar(&row, "row", 1, "行号 (从 1 开始)")
	return cmd
}

func newPreviewCommand(opts *Options) *cobra.Command {
	var row, page int
	var save bool

	cmd := &cobra.Command{
		Use:   "preview",
		Short: "显示一行 PDF 某一页的文本",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ExecuteProcessing(cmd.Context(), opts, false, func(ctx context.Context, app *App) error {
				p, err := app.Controller.Preview(row-1, page, save)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "--- %d/%d ---\n%s\n", p.Number, p.Total, p.Text)
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&row, "row", 1, "行号 (从 1 开始)")
	cmd.Flags().IntVar(&page, "page", 1, "页码 (从 1 开始)")
	cmd.Flags().BoolVar(&save, "save", false, "保存到 RESULT/PREVIEW")
	return cmd
}

func yesNo(b bool) string {
	if b {
		return "да"
	}
	return "нет"
}
