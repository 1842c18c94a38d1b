package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/docker/docker/api/types/image"
	"github.com/glebarez/sqlite"
	"github.com/stevedore-dev/stevedore/internal/models"
	"github.com/stevedore-dev/stevedore/internal/protocol"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// fakeImageRuntime 测试用的镜像运行时
type fakeImageRuntime struct {
	pullBody string
	pullErr  error
}

func (f *fakeImageRuntime) ListImages(ctx context.Context) ([]image.Summary, error) {
	return nil, nil
}

func (f *fakeImageRuntime) RemoveImage(ctx context.Context, imageID string, force bool) error {
	return nil
}

func (f *fakeImageRuntime) PullImage(ctx context.Context, ref string) (io.ReadCloser, error) {
	if f.pullErr != nil {
		return nil, f.pullErr
	}
	return io.NopCloser(strings.NewReader(f.pullBody)), nil
}

// recordSink 记录收到的全部信封
type recordSink struct {
	mu   sync.Mutex
	envs []protocol.Envelope
}

func (s *recordSink) Send(env protocol.Envelope) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.envs = append(s.envs, env)
	return nil
}

func (s *recordSink) all() []protocol.Envelope {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]protocol.Envelope(nil), s.envs...)
}

func newTestImageService(t *testing.T, rt ImageRuntime) (*ImageService, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("打开测试数据库失败: %v", err)
	}
	if err := db.AutoMigrate(&models.PullRecord{}); err != nil {
		t.Fatalf("迁移失败: %v", err)
	}
	return NewImageService(zap.NewNop(), db, rt), db
}

func TestPullEstablishFailureEmitsError(t *testing.T) {
	rt := &fakeImageRuntime{pullErr: errors.New("no such image: ghost:404")}
	s, _ := newTestImageService(t, rt)

	sink := &recordSink{}
	err := s.Pull(context.Background(), sink, "ghost:404")
	if err == nil {
		t.Fatal("建立失败应向调用方返回错误")
	}

	// 流已经打开，观察者应恰好收到一条错误消息
	envs := sink.all()
	if len(envs) != 1 {
		t.Fatalf("建立失败应恰好发出 1 条消息，实际 %d 条: %+v", len(envs), envs)
	}
	if envs[0].Event != protocol.EventError {
		t.Errorf("消息类型应为 error，实际 %s", envs[0].Event)
	}
	payload, ok := envs[0].Data.(protocol.ErrorPayload)
	if !ok || payload.Message == "" {
		t.Errorf("错误消息应携带原因，实际 %+v", envs[0].Data)
	}

	records, err := s.PullHistory(context.Background(), 10)
	if err != nil {
		t.Fatalf("查询拉取记录失败: %v", err)
	}
	if len(records) != 1 || records[0].Status != "failed" {
		t.Errorf("建立失败应落一条 failed 记录，实际 %+v", records)
	}
}

func TestPullSuccessRecordsAndStreams(t *testing.T) {
	rt := &fakeImageRuntime{pullBody: `{"id":"layer1","status":"Pull complete"}`}
	s, _ := newTestImageService(t, rt)

	sink := &recordSink{}
	if err := s.Pull(context.Background(), sink, "nginx:latest"); err != nil {
		t.Fatalf("拉取失败: %v", err)
	}

	envs := sink.all()
	if len(envs) != 3 {
		t.Fatalf("应发出 start/progress/complete 三条消息，实际 %d 条", len(envs))
	}

	records, err := s.PullHistory(context.Background(), 10)
	if err != nil {
		t.Fatalf("查询拉取记录失败: %v", err)
	}
	if len(records) != 1 || records[0].Status != "success" {
		t.Errorf("成功拉取应落一条 success 记录，实际 %+v", records)
	}
	if records[0].Ref != "nginx:latest" {
		t.Errorf("记录应保存镜像引用，实际 %s", records[0].Ref)
	}
}

func TestPrunePullHistory(t *testing.T) {
	s, db := newTestImageService(t, &fakeImageRuntime{})

	old := &models.PullRecord{Ref: "old", Status: "success", CreatedAt: 1000}
	recent := &models.PullRecord{Ref: "recent", Status: "success", CreatedAt: 9_999_999_999_999}
	if err := db.Create(old).Error; err != nil {
		t.Fatal(err)
	}
	if err := db.Create(recent).Error; err != nil {
		t.Fatal(err)
	}

	deleted, err := s.PrunePullHistory(context.Background(), 0)
	if err != nil {
		t.Fatalf("清理失败: %v", err)
	}
	if deleted != 1 {
		t.Errorf("应只清理保留期之前的记录，实际删除 %d 条", deleted)
	}

	records, err := s.PullHistory(context.Background(), 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 || records[0].Ref != "recent" {
		t.Errorf("保留期内的记录应保留，实际 %+v", records)
	}
}
