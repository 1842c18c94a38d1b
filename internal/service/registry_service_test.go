package service

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stevedore-dev/stevedore/internal/models"
	"github.com/stevedore-dev/stevedore/internal/validation"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestRegistryService(t *testing.T) *RegistryService {
	t.Helper()
	// 内存 SQLite 每个连接是独立数据库，使用临时文件让连接池共享同一实例
	dsn := filepath.Join(t.TempDir(), "registry_test.db")
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("打开测试数据库失败: %v", err)
	}
	if err := db.AutoMigrate(&models.Registry{}); err != nil {
		t.Fatalf("迁移失败: %v", err)
	}
	v, err := validation.New()
	if err != nil {
		t.Fatalf("创建校验器失败: %v", err)
	}
	return NewRegistryService(zap.NewNop(), db, v)
}

func TestRegistryCreateAndGet(t *testing.T) {
	s := newTestRegistryService(t)
	ctx := context.Background()

	created, err := s.Create(ctx, &RegistryRequest{
		Name:     "harbor",
		URL:      "https://harbor.example.com",
		Username: "admin",
		Password: "secret",
		Tags:     []string{"prod"},
	})
	if err != nil {
		t.Fatalf("创建失败: %v", err)
	}
	if created.ID == "" {
		t.Fatal("创建后应分配 ID")
	}

	got, err := s.Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("查询失败: %v", err)
	}
	if got.Name != "harbor" || got.URL != "https://harbor.example.com" {
		t.Errorf("字段不一致: %+v", got)
	}
	if len(got.Tags) != 1 || got.Tags[0] != "prod" {
		t.Errorf("标签应持久化，实际 %v", got.Tags)
	}
}

func TestRegistryCreateValidation(t *testing.T) {
	s := newTestRegistryService(t)

	if _, err := s.Create(context.Background(), &RegistryRequest{Name: "", URL: "https://x"}); err == nil {
		t.Error("缺少名称应校验失败")
	}
	if _, err := s.Create(context.Background(), &RegistryRequest{Name: "a", URL: "not-a-url"}); err == nil {
		t.Error("非法 URL 应校验失败")
	}
}

func TestRegistryCreateDuplicateName(t *testing.T) {
	s := newTestRegistryService(t)
	ctx := context.Background()

	req := &RegistryRequest{Name: "dup", URL: "https://a.example.com"}
	if _, err := s.Create(ctx, req); err != nil {
		t.Fatalf("首次创建失败: %v", err)
	}
	if _, err := s.Create(ctx, &RegistryRequest{Name: "dup", URL: "https://b.example.com"}); err == nil {
		t.Error("重复名称应拒绝创建")
	}
}

func TestRegistryUpdateKeepsPassword(t *testing.T) {
	s := newTestRegistryService(t)
	ctx := context.Background()

	created, err := s.Create(ctx, &RegistryRequest{
		Name:     "keep",
		URL:      "https://keep.example.com",
		Password: "original",
	})
	if err != nil {
		t.Fatalf("创建失败: %v", err)
	}

	updated, err := s.Update(ctx, created.ID, &RegistryRequest{
		Name: "keep-renamed",
		URL:  "https://keep.example.com",
		// 密码留空表示保持不变
	})
	if err != nil {
		t.Fatalf("更新失败: %v", err)
	}
	if updated.Password != "original" {
		t.Errorf("密码留空时应保持原值，实际 %q", updated.Password)
	}
	if updated.Name != "keep-renamed" {
		t.Errorf("名称应更新，实际 %s", updated.Name)
	}
}

func TestRegistryDelete(t *testing.T) {
	s := newTestRegistryService(t)
	ctx := context.Background()

	created, err := s.Create(ctx, &RegistryRequest{Name: "gone", URL: "https://gone.example.com"})
	if err != nil {
		t.Fatalf("创建失败: %v", err)
	}
	if err := s.Delete(ctx, created.ID); err != nil {
		t.Fatalf("删除失败: %v", err)
	}
	if _, err := s.Get(ctx, created.ID); err == nil {
		t.Error("删除后查询应返回错误")
	}
}
