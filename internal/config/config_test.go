package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Server.Addr == "" {
		t.Error("默认配置应包含监听地址")
	}
	if cfg.JWT.ExpiresHours != 24 {
		t.Errorf("默认令牌有效期应为 24 小时，实际 %d", cfg.JWT.ExpiresHours)
	}
	if cfg.Retention.PullHistoryDays != 30 {
		t.Errorf("默认拉取记录保留期应为 30 天，实际 %d", cfg.Retention.PullHistoryDays)
	}
}

func TestLoad(t *testing.T) {
	content := `
server:
  addr: ":9090"
jwt:
  secret: "0123456789abcdef"
telemetry:
  statsInterval: 5
users:
  admin: "$2a$10$abcdefghijklmnopqrstuv"
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("加载配置失败: %v", err)
	}
	if cfg.Server.Addr != ":9090" {
		t.Errorf("监听地址应为 :9090，实际 %s", cfg.Server.Addr)
	}
	if cfg.Telemetry.Interval() != 5*time.Second {
		t.Errorf("采样间隔应为 5s，实际 %v", cfg.Telemetry.Interval())
	}
	// 未显式配置的字段保持默认值
	if cfg.Retention.PullHistoryDays != 30 {
		t.Errorf("保留期应保持默认 30 天，实际 %d", cfg.Retention.PullHistoryDays)
	}
	if len(cfg.Users) != 1 {
		t.Errorf("应加载 1 个本地用户，实际 %d", len(cfg.Users))
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load("/no/such/config.yaml"); err == nil {
		t.Error("配置文件不存在时应返回错误")
	}
}

func TestTelemetryDefaults(t *testing.T) {
	var c TelemetryConfig
	if c.Interval() != 2*time.Second {
		t.Errorf("默认单容器采样间隔应为 2s，实际 %v", c.Interval())
	}
	if c.AggregateTick() != 3*time.Second {
		t.Errorf("默认汇总间隔应为 3s，实际 %v", c.AggregateTick())
	}
	if c.Fanout() != 8 {
		t.Errorf("默认并发上限应为 8，实际 %d", c.Fanout())
	}
}
