package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/stevedore-dev/stevedore/internal/service"
	"go.uber.org/zap"
)

// CleanupScheduler 后台清理任务调度器
// 目前只有一个任务：按保留期清理镜像拉取历史
type CleanupScheduler struct {
	cron         *cron.Cron
	logger       *zap.Logger
	imageService *service.ImageService
	retention    time.Duration
	ctx          context.Context
	cancel       context.CancelFunc
}

// NewCleanupScheduler 创建调度器
func NewCleanupScheduler(logger *zap.Logger, imageService *service.ImageService, retentionDays int) *CleanupScheduler {
	if retentionDays <= 0 {
		retentionDays = 30
	}
	return &CleanupScheduler{
		cron:         cron.New(),
		logger:       logger,
		imageService: imageService,
		retention:    time.Duration(retentionDays) * 24 * time.Hour,
	}
}

// Start 启动调度器
func (s *CleanupScheduler) Start(ctx context.Context) error {
	s.ctx, s.cancel = context.WithCancel(ctx)

	if _, err := s.cron.AddFunc("@daily", s.prunePullHistory); err != nil {
		return err
	}

	// 启动时先清理一次，避免长期停机后积压
	go s.prunePullHistory()

	s.cron.Start()
	s.logger.Info("清理任务调度器已启动", zap.Duration("retention", s.retention))
	return nil
}

// Stop 停止调度器，等待在途任务完成
func (s *CleanupScheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}

	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("清理任务调度器已停止")
}

// prunePullHistory 清理保留期之前的拉取记录
func (s *CleanupScheduler) prunePullHistory() {
	deleted, err := s.imageService.PrunePullHistory(s.ctx, s.retention)
	if err != nil {
		s.logger.Error("清理拉取记录失败", zap.Error(err))
		return
	}
	if deleted > 0 {
		s.logger.Info("拉取记录清理完成", zap.Int64("deleted", deleted))
	}
}
