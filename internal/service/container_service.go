package service

import (
	"context"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/go-orz/cache"
	"github.com/stevedore-dev/stevedore/internal/docker"
	"github.com/stevedore-dev/stevedore/internal/telemetry"
	"go.uber.org/zap"
)

const containerListCacheKey = "containers"

// ContainerService 容器 CRUD 服务（运行时 API 的薄封装）
type ContainerService struct {
	logger *zap.Logger
	client *docker.Client

	// 列表缓存：聚合页面轮询频繁，短 TTL 缓存减轻运行时压力
	listCache cache.Cache[string, []telemetry.Container]
}

func NewContainerService(logger *zap.Logger, client *docker.Client) *ContainerService {
	return &ContainerService{
		logger:    logger,
		client:    client,
		listCache: cache.New[string, []telemetry.Container](2 * time.Second),
	}
}

// List 列出全部容器
func (s *ContainerService) List(ctx context.Context) ([]telemetry.Container, error) {
	if cached, ok := s.listCache.Get(containerListCacheKey); ok {
		return cached, nil
	}

	containers, err := s.client.ListContainers(ctx)
	if err != nil {
		return nil, err
	}
	s.listCache.Set(containerListCacheKey, containers, 2*time.Second)
	return containers, nil
}

// Inspect 查看容器详情
func (s *ContainerService) Inspect(ctx context.Context, id string) (container.InspectResponse, error) {
	return s.client.InspectContainer(ctx, id)
}

// Start 启动容器
func (s *ContainerService) Start(ctx context.Context, id string) error {
	s.listCache.Delete(containerListCacheKey)
	return s.client.StartContainer(ctx, id)
}

// Stop 停止容器
func (s *ContainerService) Stop(ctx context.Context, id string) error {
	s.listCache.Delete(containerListCacheKey)
	return s.client.StopContainer(ctx, id)
}

// Restart 重启容器
func (s *ContainerService) Restart(ctx context.Context, id string) error {
	s.listCache.Delete(containerListCacheKey)
	return s.client.RestartContainer(ctx, id)
}

// Remove 删除容器
func (s *ContainerService) Remove(ctx context.Context, id string, force bool) error {
	s.listCache.Delete(containerListCacheKey)
	if err := s.client.RemoveContainer(ctx, id, force); err != nil {
		return err
	}
	s.logger.Info("容器已删除", zap.String("containerId", id), zap.Bool("force", force))
	return nil
}
