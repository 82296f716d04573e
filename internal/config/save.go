package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// fileConfig 写入文件时使用的形式，时长写成 "15s" 这样的字符串
type fileConfig struct {
	Project   ProjectConfig `json:"project"`
	Directory struct {
		BaseURL    string         `json:"base_url"`
		SearchPath string         `json:"search_path"`
		QueryParam string         `json:"query_param"`
		Timeout    string         `json:"timeout"`
		Pause      string         `json:"pause"`
		UserAgent  string         `json:"user_agent"`
		Selectors  SelectorConfig `json:"selectors"`
	} `json:"directory"`
	Convert struct {
		Command string `json:"command"`
		Timeout string `json:"timeout"`
	} `json:"convert"`
	Mail struct {
		Host     string `json:"host"`
		Port     int    `json:"port"`
		Username string `json:"username"`
		Password string `json:"password"`
		TLS      string `json:"tls"`
		Timeout  string `json:"timeout"`
	} `json:"mail"`
	Placeholders PlaceholderConfig `json:"placeholders"`
	Log          LogConfig         `json:"log"`
}

func toFileConfig(c *Config) fileConfig {
	var fc fileConfig
	fc.Project = c.Project
	fc.Directory.BaseURL = c.Directory.BaseURL
	fc.Directory.SearchPath = c.Directory.SearchPath
	fc.Directory.QueryParam = c.Directory.QueryParam
	fc.Directory.Timeout = c.Directory.Timeout.String()
	fc.Directory.Pause = c.Directory.Pause.String()
	fc.Directory.UserAgent = c.Directory.UserAgent
	fc.Directory.Selectors = c.Directory.Selectors
	fc.Convert.Command = c.Convert.Command
	fc.Convert.Timeout = c.Convert.Timeout.String()
	fc.Mail.Host = c.Mail.Host
	fc.Mail.Port = c.Mail.Port
	fc.Mail.Username = c.Mail.Username
	fc.Mail.Password = c.Mail.Password
	fc.Mail.TLS = c.Mail.TLS
	fc.Mail.Timeout = c.Mail.Timeout.String()
	fc.Placeholders = c.Placeholders
	fc.Log = c.Log
	return fc
}

// SaveConfig 保存配置到文件，已有文件先备份
func SaveConfig(config *Config, filePath string) error {
	if config == nil {
		return fmt.Errorf("配置不能为空")
	}

	// 验证配置
	if err := NewConfigManager().ValidateConfig(config); err != nil {
		return fmt.Errorf("配置验证失败: %w", err)
	}

	if _, err := createBackup(filePath); err != nil {
		return fmt.Errorf("创建备份失败: %w", err)
	}

	// 序列化配置
	data, err := json.MarshalIndent(toFileConfig(config), "", "  ")
	if err != nil {
		return fmt.Errorf("序列化配置失败: %w", err)
	}

	// 确保目录存在
	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return fmt.Errorf("创建目录失败: %w", err)
	}

	// 写入文件
	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return fmt.Errorf("写入配置文件失败: %w", err)
	}

	return nil
}

// createBackup 创建配置文件备份，返回备份路径；文件不存在时返回空串
func createBackup(filePath string) (string, error) {
	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		return "", nil
	}

	// 生成备份文件名
	dir := filepath.Dir(filePath)
	base := filepath.Base(filePath)
	ext := filepath.Ext(base)
	name := strings.TrimSuffix(base, ext)
	timestamp := time.Now().Format("20060102_150405")
	backupPath := filepath.Join(dir, fmt.Sprintf("%s_backup_%s%s", name, timestamp, ext))

	src, err := os.ReadFile(filePath)
	if err != nil {
		return "", fmt.Errorf("读取原文件失败: %w", err)
	}

	if err := os.WriteFile(backupPath, src, 0644); err != nil {
		return "", fmt.Errorf("写入备份文件失败: %w", err)
	}

	return backupPath, nil
}
