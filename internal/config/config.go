package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/allanpk716/docx_mailmerge/internal/domain"
	"github.com/allanpk716/docx_mailmerge/internal/matcher"
)

// EnvPrefix 环境变量前缀，节之间用双下划线分隔
// 例如 MAILMERGE_DIRECTORY__PAUSE=2s -> directory.pause
const EnvPrefix = "MAILMERGE_"

// ProjectConfig 项目相关配置
type ProjectConfig struct {
	Dir         string `koanf:"dir" json:"dir"`
	Excel       string `koanf:"excel" json:"excel"`
	Template    string `koanf:"template" json:"template"`
	SenderEmail string `koanf:"sender_email" json:"sender_email" validate:"omitempty,email"`
	Subject     string `koanf:"subject" json:"subject" validate:"required"`
}

// SelectorConfig 目录网站页面结构的识别规则
type SelectorConfig struct {
	ContainerID   string `koanf:"container_id" json:"container_id" validate:"required"`
	TagClass      string `koanf:"tag_class" json:"tag_class" validate:"required"`
	TagMarker     string `koanf:"tag_marker" json:"tag_marker" validate:"required"`
	ProfileMarker string `koanf:"profile_marker" json:"profile_marker" validate:"required"`
	LabelClass    string `koanf:"label_class" json:"label_class" validate:"required"`
	DOBMarker     string `koanf:"dob_marker" json:"dob_marker" validate:"required"`
	EmailMarker   string `koanf:"email_marker" json:"email_marker" validate:"required"`
}

// DirectoryConfig 目录网站查询配置
type DirectoryConfig struct {
	BaseURL    string         `koanf:"base_url" json:"base_url" validate:"required,url"`
	SearchPath string         `koanf:"search_path" json:"search_path" validate:"required"`
	QueryParam string         `koanf:"query_param" json:"query_param" validate:"required"`
	Timeout    time.Duration  `koanf:"timeout" json:"timeout" validate:"gt=0"`
	Pause      time.Duration  `koanf:"pause" json:"pause" validate:"gte=0"`
	UserAgent  string         `koanf:"user_agent" json:"user_agent"`
	Selectors  SelectorConfig `koanf:"selectors" json:"selectors"`
}

// ConvertConfig DOCX 转 PDF 命令配置
type ConvertConfig struct {
	Command string        `koanf:"command" json:"command" validate:"required"`
	Timeout time.Duration `koanf:"timeout" json:"timeout" validate:"gt=0"`
}

// MailConfig SMTP 配置
type MailConfig struct {
	Host     string        `koanf:"host" json:"host"`
	Port     int           `koanf:"port" json:"port" validate:"gte=0,lte=65535"`
	Username string        `koanf:"username" json:"username"`
	Password string        `koanf:"password" json:"password"`
	TLS      string        `koanf:"tls" json:"tls" validate:"oneof=mandatory opportunistic none"`
	Timeout  time.Duration `koanf:"timeout" json:"timeout" validate:"gt=0"`
}

// PlaceholderConfig 模板中使用的占位符
type PlaceholderConfig struct {
	Salutation string `koanf:"salutation" json:"salutation" validate:"required"`
	Body       string `koanf:"body" json:"body" validate:"required"`
}

// normalize 只写了名称的占位符补全为 <<NAME>>
func (p *PlaceholderConfig) normalize() {
	for _, key := range []*string{&p.Salutation, &p.Body} {
		name := strings.TrimSpace(*key)
		if name != "" && !strings.ContainsAny(name, "<>") {
			name = matcher.FormatPlaceholder(name)
		}
		*key = name
	}
}

// LogConfig 日志配置
type LogConfig struct {
	Level string `koanf:"level" json:"level" validate:"oneof=debug info warn error"`
	JSON  bool   `koanf:"json" json:"json"`
}

// Config 表示完整的配置文件结构
type Config struct {
	Project      ProjectConfig     `koanf:"project" json:"project"`
	Directory    DirectoryConfig   `koanf:"directory" json:"directory"`
	Convert      ConvertConfig     `koanf:"convert" json:"convert"`
	Mail         MailConfig        `koanf:"mail" json:"mail"`
	Placeholders PlaceholderConfig `koanf:"placeholders" json:"placeholders"`
	Log          LogConfig         `koanf:"log" json:"log"`
}

// Default 返回默认配置
func Default() *Config {
	return &Config{
		Project: ProjectConfig{
			SenderEmail: "Mon.OrgOtdel@tatar.ru",
			Subject:     "Поздравление",
		},
		Directory: DirectoryConfig{
			BaseURL:    "https://tatcenter.ru",
			SearchPath: "/search/",
			QueryParam: "search_text",
			Timeout:    15 * time.Second,
			Pause:      time.Second,
			UserAgent:  "Mozilla/5.0 (compatible; docx-mailmerge)",
			Selectors: SelectorConfig{
				ContainerID:   "container",
				TagClass:      "grey tag",
				TagMarker:     "Кто есть кто",
				ProfileMarker: "/person/",
				LabelClass:    "span-bold",
				DOBMarker:     "Дата рождения",
				EmailMarker:   "Электронная почта",
			},
		},
		Convert: ConvertConfig{
			Command: "soffice --headless --convert-to pdf --outdir {outdir} {input}",
			Timeout: 2 * time.Minute,
		},
		Mail: MailConfig{
			Port:    587,
			TLS:     "mandatory",
			Timeout: 30 * time.Second,
		},
		Placeholders: PlaceholderConfig{
			Salutation: "<<OBRASHENIE>>",
			Body:       "<<TEXT>>",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// ConfigManager 配置管理接口
type ConfigManager interface {
	LoadConfig(filePath string) (*Config, error)
	ValidateConfig(config *Config) error
	GetPlaceholders(config *Config, salutation, body string) domain.PlaceholderMap
}

// configManager 配置管理器实现
type configManager struct {
	validator *validator.Validate
	environ   func() []string
}

// NewConfigManager 创建新的配置管理器
func NewConfigManager() ConfigManager {
	return &configManager{
		validator: validator.New(),
	}
}

// LoadConfig 按 默认值 < 配置文件 < 环境变量 的顺序加载配置
// filePath 为空时只使用默认值和环境变量
func (cm *configManager) LoadConfig(filePath string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("加载默认配置失败: %w", err)
	}

	if filePath != "" {
		data, err := readConfigFile(filePath)
		if err != nil {
			return nil, err
		}
		if err := k.Load(rawMap(data), nil); err != nil {
			return nil, fmt.Errorf("应用配置文件失败: %w", err)
		}
	}

	if err := k.Load(env.Provider(".", env.Opt{
		Prefix:        EnvPrefix,
		TransformFunc: transformEnvKey,
		EnvironFunc:   cm.environ,
	}), nil); err != nil {
		return nil, fmt.Errorf("加载环境变量失败: %w", err)
	}

	var config Config
	if err := k.UnmarshalWithConf("", &config, koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			WeaklyTypedInput: true,
			Result:           &config,
			TagName:          "koanf",
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
			),
		},
	}); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}

	config.Placeholders.normalize()

	// 验证配置
	if err := cm.ValidateConfig(&config); err != nil {
		return nil, fmt.Errorf("配置验证失败: %w", err)
	}

	return &config, nil
}

// readConfigFile 读取 JSON 配置文件
func readConfigFile(filePath string) (map[string]any, error) {
	// 检查文件是否存在
	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		return nil, fmt.Errorf("配置文件不存在: %s", filePath)
	}

	// 检查文件扩展名
	if ext := filepath.Ext(filePath); ext != ".json" {
		return nil, fmt.Errorf("配置文件必须是 JSON 格式，当前文件: %s", ext)
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %w", err)
	}
	return raw, nil
}

// transformEnvKey MAILMERGE_DIRECTORY__SELECTORS__TAG_MARKER -> directory.selectors.tag_marker
func transformEnvKey(key, value string) (string, any) {
	key = strings.TrimPrefix(key, EnvPrefix)
	if key == "" {
		return "", nil
	}
	key = strings.ToLower(key)
	return strings.ReplaceAll(key, "__", "."), value
}

// ValidateConfig 验证配置的有效性
func (cm *configManager) ValidateConfig(config *Config) error {
	if config == nil {
		return fmt.Errorf("配置不能为空")
	}

	if err := cm.validator.Struct(config); err != nil {
		return err
	}

	for _, key := range []string{config.Placeholders.Salutation, config.Placeholders.Body} {
		if !matcher.ValidatePlaceholderFormat(key) {
			return fmt.Errorf("占位符必须是 <<NAME>> 格式: %s", key)
		}
	}
	if config.Placeholders.Salutation == config.Placeholders.Body {
		return fmt.Errorf("称呼和正文的占位符不能相同: %s", config.Placeholders.Body)
	}
	if !strings.Contains(config.Convert.Command, "{input}") {
		return fmt.Errorf("转换命令必须包含 {input}: %s", config.Convert.Command)
	}
	if config.Mail.Host != "" && config.Mail.Port == 0 {
		return fmt.Errorf("SMTP 端口不能为 0")
	}

	return nil
}

// GetPlaceholders 组装一封信的占位符映射：称呼在前，正文在后
func (cm *configManager) GetPlaceholders(config *Config, salutation, body string) domain.PlaceholderMap {
	if config == nil {
		config = Default()
	}

	return domain.PlaceholderMap{
		{Key: config.Placeholders.Salutation, Value: salutation},
		{Key: config.Placeholders.Body, Value: strings.TrimRight(body, "\r\n")},
	}
}

// rawMap 把 map[string]any 适配为 koanf.Provider
type rawMap map[string]any

func (r rawMap) Read() (map[string]any, error) {
	return r, nil
}

func (r rawMap) ReadBytes() ([]byte, error) {
	return nil, fmt.Errorf("ReadBytes not implemented")
}
