package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stevedore-dev/stevedore/internal/docker"
	"github.com/stevedore-dev/stevedore/internal/protocol"
	"github.com/stevedore-dev/stevedore/internal/service"
	"github.com/stevedore-dev/stevedore/internal/stream"
	"github.com/stevedore-dev/stevedore/internal/telemetry"
	"go.uber.org/zap"
)

// ContainerHandler 容器处理器
type ContainerHandler struct {
	logger   *zap.Logger
	service  *service.ContainerService
	client   *docker.Client
	interval time.Duration
}

// NewContainerHandler 创建处理器
func NewContainerHandler(logger *zap.Logger, service *service.ContainerService, client *docker.Client, interval time.Duration) *ContainerHandler {
	return &ContainerHandler{
		logger:   logger,
		service:  service,
		client:   client,
		interval: interval,
	}
}

// List 列出全部容器
// GET /api/containers
func (h *ContainerHandler) List(c echo.Context) error {
	containers, err := h.service.List(c.Request().Context())
	if err != nil {
		h.logger.Error("查询容器列表失败", zap.Error(err))
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, containers)
}

// Inspect 查看容器详情
// GET /api/containers/:id
func (h *ContainerHandler) Inspect(c echo.Context) error {
	detail, err := h.service.Inspect(c.Request().Context(), c.Param("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, detail)
}

// Start 启动容器
// POST /api/containers/:id/start
func (h *ContainerHandler) Start(c echo.Context) error {
	if err := h.service.Start(c.Request().Context(), c.Param("id")); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "容器已启动"})
}

// Stop 停止容器
// POST /api/containers/:id/stop
func (h *ContainerHandler) Stop(c echo.Context) error {
	if err := h.service.Stop(c.Request().Context(), c.Param("id")); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "容器已停止"})
}

// Restart 重启容器
// POST /api/containers/:id/restart
func (h *ContainerHandler) Restart(c echo.Context) error {
	if err := h.service.Restart(c.Request().Context(), c.Param("id")); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "容器已重启"})
}

// Remove 删除容器
// DELETE /api/containers/:id
func (h *ContainerHandler) Remove(c echo.Context) error {
	force := c.QueryParam("force") == "true"
	if err := h.service.Remove(c.Request().Context(), c.Param("id"), force); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "容器已删除"})
}

// StreamStats 单容器指标推送流
// GET /api/containers/:id/stats/stream
func (h *ContainerHandler) StreamStats(c echo.Context) error {
	containerID := c.Param("id")
	ctx := c.Request().Context()

	writer, err := stream.NewSSEWriter(c)
	if err != nil {
		return err
	}

	// 采样器归本次会话独占，prev 快照缓存随会话销毁
	sampler := telemetry.NewSampler(h.logger, h.client, 1)
	session := stream.NewSession(h.logger, writer)
	session.OnTeardown(func() {
		sampler.Evict(containerID)
		h.logger.Debug("容器指标会话结束", zap.String("containerId", containerID))
	})

	session.RunPeriodic(ctx, protocol.EventContainerStats, h.interval, func(ctx context.Context) (any, error) {
		return sampler.SampleOne(ctx, containerID)
	})
	return nil
}
