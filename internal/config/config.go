package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// AppConfig 应用配置
type AppConfig struct {
	Server    ServerConfig     `yaml:"server" validate:"required"`
	Docker    DockerConfig     `yaml:"docker"`
	Database  DatabaseConfig   `yaml:"database"`
	Log       LogConfig        `yaml:"log"`
	JWT       JWTConfig        `yaml:"jwt" validate:"required"`
	Users     map[string]string `yaml:"users"` // 用户名 -> bcrypt加密的密码
	OIDC      *OIDCConfig      `yaml:"oidc"`  // OIDC配置（可选）
	Telemetry TelemetryConfig  `yaml:"telemetry"`
	Retention RetentionConfig  `yaml:"retention"`
}

// ServerConfig HTTP 服务配置
type ServerConfig struct {
	Addr string `yaml:"addr" validate:"required"`
}

// DockerConfig 容器运行时连接配置
type DockerConfig struct {
	Host       string `yaml:"host"`       // 为空时使用 DOCKER_HOST 或默认 socket
	APIVersion string `yaml:"apiVersion"` // 为空时自动协商
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Path string `yaml:"path"` // sqlite 文件路径
}

// LogConfig 日志配置
type LogConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	MaxSize    int    `yaml:"maxSize"`    // MB
	MaxBackups int    `yaml:"maxBackups"` // 保留的旧日志文件数
	MaxAge     int    `yaml:"maxAge"`     // 天数
	Compress   bool   `yaml:"compress"`
}

// JWTConfig JWT配置
type JWTConfig struct {
	Secret       string `yaml:"secret" validate:"required,min=16"`
	ExpiresHours int    `yaml:"expiresHours" validate:"gte=0"`
}

// OIDCConfig OIDC认证配置
type OIDCConfig struct {
	Enabled      bool   `yaml:"enabled"`
	Issuer       string `yaml:"issuer"`
	ClientID     string `yaml:"clientId"`
	ClientSecret string `yaml:"clientSecret"`
	RedirectURL  string `yaml:"redirectUrl"`
}

// TelemetryConfig 实时指标配置
type TelemetryConfig struct {
	StatsInterval     int `yaml:"statsInterval"`     // 单容器采样间隔（秒）
	AggregateInterval int `yaml:"aggregateInterval"` // 汇总采样间隔（秒）
	FanoutLimit       int `yaml:"fanoutLimit"`       // 汇总采样并发上限
}

// RetentionConfig 数据保留配置
type RetentionConfig struct {
	PullHistoryDays int `yaml:"pullHistoryDays"` // 镜像拉取记录保留天数
}

// StatsInterval 单容器采样间隔
func (c TelemetryConfig) Interval() time.Duration {
	if c.StatsInterval <= 0 {
		return 2 * time.Second
	}
	return time.Duration(c.StatsInterval) * time.Second
}

// AggregateTick 汇总采样间隔
func (c TelemetryConfig) AggregateTick() time.Duration {
	if c.AggregateInterval <= 0 {
		return 3 * time.Second
	}
	return time.Duration(c.AggregateInterval) * time.Second
}

// Fanout 汇总采样并发上限
func (c TelemetryConfig) Fanout() int {
	if c.FanoutLimit <= 0 {
		return 8
	}
	return c.FanoutLimit
}

// Load 从文件加载配置
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %w", err)
	}
	return cfg, nil
}

// Default 默认配置
func Default() *AppConfig {
	return &AppConfig{
		Server:   ServerConfig{Addr: ":8780"},
		Database: DatabaseConfig{Path: "data/stevedore.db"},
		Log:      LogConfig{Level: "info"},
		JWT:      JWTConfig{ExpiresHours: 24},
		Retention: RetentionConfig{
			PullHistoryDays: 30,
		},
	}
}
