package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/allanpk716/docx_mailmerge/internal/config"
	"github.com/allanpk716/docx_mailmerge/internal/controller"
	"github.com/allanpk716/docx_mailmerge/internal/converter"
	"github.com/allanpk716/docx_mailmerge/internal/directory"
	"github.com/allanpk716/docx_mailmerge/internal/domain"
	"github.com/allanpk716/docx_mailmerge/internal/mailer"
	"github.com/allanpk716/docx_mailmerge/pkg/logger"
)

// App 一次命令执行所需的配置和控制器
type App struct {
	Config     *config.Config
	Controller *controller.Controller
}

// NewApp 加载配置、初始化日志、创建控制器并打开项目工作区
func NewApp(opts *Options) (*App, error) {
	cfg, err := config.NewConfigManager().LoadConfig(opts.ResolveConfigFile())
	if err != nil {
		return nil, fmt.Errorf("加载配置失败: %w", err)
	}

	level := cfg.Log.Level
	if opts.LogLevel != "" {
		level = opts.LogLevel
	}
	if opts.Verbose {
		level = "debug"
	}
	logger.SetupLogger(level, cfg.Log.JSON || opts.LogJSON, opts.Verbose)

	dirClient, err := directory.NewClient(cfg.Directory)
	if err != nil {
		return nil, fmt.Errorf("创建目录客户端失败: %w", err)
	}

	ctrl := controller.New(cfg, controller.Deps{
		Directory: dirClient,
		Converter: converter.NewCommandConverter(cfg.Convert),
		Mailer:    mailer.NewSMTPMailer(cfg.Mail),
	})

	projectDir := opts.ProjectDir
	if projectDir == "" {
		projectDir = cfg.Project.Dir
	}
	if projectDir == "" {
		return nil, domain.ErrNoProjectDir
	}
	if err := ctrl.OpenWorkspace(projectDir); err != nil {
		return nil, err
	}

	return &App{Config: cfg, Controller: ctrl}, nil
}

// ExecuteProcessing 打开工作区执行 fn，成功后保存工作区
func ExecuteProcessing(ctx context.Context, opts *Options, save bool, fn func(ctx context.Context, app *App) error) error {
	app, err := NewApp(opts)
	if err != nil {
		return err
	}
	ctx = logger.ContextWithLogger(ctx, logger.GetDefault())

	runErr := fn(ctx, app)
	if save {
		if err := app.Controller.SaveWorkspace(); err != nil {
			if runErr != nil {
				return runErr
			}
			return fmt.Errorf("保存工作区失败: %w", err)
		}
	}
	return runErr
}

// progressPrinter 把批处理进度输出到 w
func progressPrinter(w io.Writer) domain.ProgressFunc {
	return func(n, total int, message string) {
		fmt.Fprintln(w, message)
	}
}
