package project

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/afero"

	"github.com/allanpk716/docx_mailmerge/internal/domain"
	"github.com/allanpk716/docx_mailmerge/internal/recipient"
)

const (
	ResultDir     = "RESULT"
	DocxDir       = "DOCX"
	PDFDir        = "PDF"
	PreviewDir    = "PREVIEW"
	WorkspaceFile = "workspace.json"

	dirPerm  = 0755
	filePerm = 0644
)

// State 当前项目的选择
type State struct {
	ExcelPath    string `json:"excel_path"`
	TemplatePath string `json:"template_path"`
	ProjectDir   string `json:"project_dir"`
	SenderEmail  string `json:"sender_email"`
	Subject      string `json:"subject"`
}

// Workspace 在命令之间保存的项目状态和收件人数据
type Workspace struct {
	State      State                 `json:"state"`
	Recipients []recipient.Recipient `json:"recipients"`
	UpdatedAt  time.Time             `json:"updated_at"`
}

// Project 项目目录下 RESULT 结构的读写
type Project struct {
	fs  afero.Fs
	dir string
}

// New 创建项目，dir 为项目根目录
func New(fs afero.Fs, dir string) (*Project, error) {
	if dir == "" {
		return nil, domain.ErrNoProjectDir
	}
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &Project{fs: fs, dir: dir}, nil
}

// Dir 项目根目录
func (p *Project) Dir() string {
	return p.dir
}

// Fs 项目使用的文件系统
func (p *Project) Fs() afero.Fs {
	return p.fs
}

// EnsureDirs 创建 RESULT/DOCX、RESULT/PDF、RESULT/PREVIEW
func (p *Project) EnsureDirs() error {
	for _, sub := range []string{DocxDir, PDFDir, PreviewDir} {
		if err := p.fs.MkdirAll(filepath.Join(p.dir, ResultDir, sub), dirPerm); err != nil {
			return fmt.Errorf("创建结果目录失败: %w", err)
		}
	}
	return nil
}

// ResultPath RESULT 下的路径，必要时先创建目录结构
func (p *Project) ResultPath(parts ...string) (string, error) {
	if err := p.EnsureDirs(); err != nil {
		return "", err
	}
	return filepath.Join(append([]string{p.dir, ResultDir}, parts...)...), nil
}

// DocxPath 收件人的 DOCX 结果路径
func (p *Project) DocxPath(r *recipient.Recipient) string {
	return filepath.Join(p.dir, ResultDir, DocxDir, r.BaseName()+".docx")
}

// PDFPath 收件人的 PDF 结果路径
func (p *Project) PDFPath(r *recipient.Recipient) string {
	return filepath.Join(p.dir, ResultDir, PDFDir, r.BaseName()+".pdf")
}

// PreviewPath 收件人预览文本的路径
func (p *Project) PreviewPath(r *recipient.Recipient) string {
	return filepath.Join(p.dir, ResultDir, PreviewDir, r.BaseName()+".txt")
}

// Exists 文件是否存在
func (p *Project) Exists(path string) bool {
	ok, err := afero.Exists(p.fs, path)
	return err == nil && ok
}

// HasDocx RESULT/DOCX 是否存在且非空
func (p *Project) HasDocx() bool {
	dir := filepath.Join(p.dir, ResultDir, DocxDir)
	if ok, err := afero.DirExists(p.fs, dir); err != nil || !ok {
		return false
	}
	empty, err := afero.IsEmpty(p.fs, dir)
	return err == nil && !empty
}

// WriteResult 写入 RESULT 下的文件
func (p *Project) WriteResult(name string, data []byte) (string, error) {
	path, err := p.ResultPath(name)
	if err != nil {
		return "", err
	}
	if err := afero.WriteFile(p.fs, path, data, filePerm); err != nil {
		return "", fmt.Errorf("写入文件失败: %w", err)
	}
	return path, nil
}

// SaveWorkspace 保存 RESULT/workspace.json
func (p *Project) SaveWorkspace(ws *Workspace) error {
	ws.State.ProjectDir = p.dir
	ws.UpdatedAt = time.Now()

	data, err := json.MarshalIndent(ws, "", "  ")
	if err != nil {
		return fmt.Errorf("序列化工作区失败: %w", err)
	}
	if _, err := p.WriteResult(WorkspaceFile, data); err != nil {
		return fmt.Errorf("保存工作区失败: %w", err)
	}
	return nil
}

// LoadWorkspace 读取 RESULT/workspace.json；文件不存在时返回空工作区
func (p *Project) LoadWorkspace() (*Workspace, error) {
	path := filepath.Join(p.dir, ResultDir, WorkspaceFile)
	data, err := afero.ReadFile(p.fs, path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Workspace{State: State{ProjectDir: p.dir}}, nil
		}
		return nil, fmt.Errorf("读取工作区失败: %w", err)
	}

	var ws Workspace
	if err := json.Unmarshal(data, &ws); err != nil {
		return nil, fmt.Errorf("解析工作区失败: %w", err)
	}
	ws.State.ProjectDir = p.dir
	return &ws, nil
}
