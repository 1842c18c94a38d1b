package service

import (
	"context"
	"io"
	"time"

	"github.com/docker/docker/api/types/image"
	"github.com/stevedore-dev/stevedore/internal/models"
	"github.com/stevedore-dev/stevedore/internal/protocol"
	"github.com/stevedore-dev/stevedore/internal/repo"
	"github.com/stevedore-dev/stevedore/internal/stream"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ImageRuntime 镜像服务依赖的运行时接口
type ImageRuntime interface {
	ListImages(ctx context.Context) ([]image.Summary, error)
	RemoveImage(ctx context.Context, imageID string, force bool) error
	PullImage(ctx context.Context, ref string) (io.ReadCloser, error)
}

// ImageService 镜像服务
type ImageService struct {
	logger         *zap.Logger
	client         ImageRuntime
	pullRecordRepo *repo.PullRecordRepo
}

func NewImageService(logger *zap.Logger, db *gorm.DB, client ImageRuntime) *ImageService {
	return &ImageService{
		logger:         logger,
		client:         client,
		pullRecordRepo: repo.NewPullRecordRepo(db),
	}
}

// List 列出本地镜像
func (s *ImageService) List(ctx context.Context) ([]image.Summary, error) {
	return s.client.ListImages(ctx)
}

// Remove 删除镜像
func (s *ImageService) Remove(ctx context.Context, id string, force bool) error {
	if err := s.client.RemoveImage(ctx, id, force); err != nil {
		return err
	}
	s.logger.Info("镜像已删除", zap.String("imageId", id))
	return nil
}

// Pull 拉取镜像并把进度流推送给观察者，完成后写入拉取记录
func (s *ImageService) Pull(ctx context.Context, sink stream.Sink, ref string) error {
	startedAt := time.Now().UnixMilli()

	rc, err := s.client.PullImage(ctx, ref)
	if err != nil {
		// 建立阶段失败：观察者的流已经打开，先发一条错误再结束
		_ = sink.Send(protocol.NewEnvelope(protocol.EventError, protocol.ErrorPayload{Message: err.Error()}))
		s.recordPull(ref, "failed", err.Error(), startedAt)
		return err
	}

	streamErr := stream.StreamPull(ctx, s.logger, sink, ref, rc)
	switch {
	case streamErr == nil:
		s.recordPull(ref, "success", "", startedAt)
	case ctx.Err() != nil:
		s.recordPull(ref, "canceled", ctx.Err().Error(), startedAt)
	default:
		s.recordPull(ref, "failed", streamErr.Error(), startedAt)
	}
	return streamErr
}

// PullHistory 最近的拉取记录
func (s *ImageService) PullHistory(ctx context.Context, limit int) ([]models.PullRecord, error) {
	return s.pullRecordRepo.List(ctx, limit)
}

// PrunePullHistory 删除保留期之前的拉取记录
func (s *ImageService) PrunePullHistory(ctx context.Context, retention time.Duration) (int64, error) {
	cutoff := time.Now().Add(-retention).UnixMilli()
	return s.pullRecordRepo.DeleteCreatedBefore(ctx, cutoff)
}

// recordPull 写拉取记录；历史记录只作展示，失败不影响主流程
func (s *ImageService) recordPull(ref, status, errMsg string, startedAt int64) {
	record := &models.PullRecord{
		Ref:        ref,
		Status:     status,
		Error:      errMsg,
		StartedAt:  startedAt,
		FinishedAt: time.Now().UnixMilli(),
		CreatedAt:  time.Now().UnixMilli(),
	}
	// 客户端断开会取消请求上下文，落库用独立的短超时上下文
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := s.pullRecordRepo.Create(ctx, record); err != nil {
		s.logger.Error("保存拉取记录失败", zap.String("ref", ref), zap.Error(err))
	}
}
