package main

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// Config 保存 CLI 全局配置
type Config struct {
	ServerURL string `yaml:"server_url" json:"server_url"`
	Token     string `yaml:"token" json:"token"`
	Output    string `yaml:"-" json:"-"`
}

// LoadConfig 按优先级加载配置：命令行标志 > 环境变量 > 配置文件 > 默认值
func LoadConfig(cmd *cobra.Command) *Config {
	cfg := &Config{}

	// 1. 配置文件（最低优先级）
	loadConfigFile(cfg)

	// 2. 环境变量
	if v := os.Getenv("VOXSCRIBE_SERVER_URL"); v != "" {
		cfg.ServerURL = v
	}
	if v := os.Getenv("VOXSCRIBE_TOKEN"); v != "" {
		cfg.Token = v
	}

	// 3. 命令行标志（最高优先级）
	if v, _ := cmd.Flags().GetString("server-url"); v != "" {
		cfg.ServerURL = v
	}
	if v, _ := cmd.Flags().GetString("token"); v != "" {
		cfg.Token = v
	}
	if v, _ := cmd.Flags().GetString("output"); v != "" {
		cfg.Output = v
	}

	// 4. 默认值
	if cfg.ServerURL == "" {
		cfg.ServerURL = "http://localhost:8000"
	}
	cfg.ServerURL = strings.TrimRight(cfg.ServerURL, "/")
	if cfg.Output == "" {
		cfg.Output = "text"
	}

	return cfg
}

// loadConfigFile 从 ~/.voxscribe/config.yaml 读取配置
func loadConfigFile(cfg *Config) {
	home, err := os.UserHomeDir()
	if err != nil {
		return
	}

	configPath := filepath.Join(home, ".voxscribe", "config.yaml")
	data, err := os.ReadFile(configPath)
	if err != nil {
		return
	}

	_ = yaml.Unmarshal(data, cfg)
}

// addGlobalFlags 为命令添加全局标志
func addGlobalFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().String("server-url", "", "服务器地址 (env: VOXSCRIBE_SERVER_URL, 默认: http://localhost:8000)")
	cmd.PersistentFlags().String("token", "", "认证令牌 (env: VOXSCRIBE_TOKEN)")
	cmd.PersistentFlags().StringP("output", "o", "", "输出格式: json / text (默认: text)")
}
