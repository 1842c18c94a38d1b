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

// SystemHandler 主机概要与全局推送流处理器
type SystemHandler struct {
	logger      *zap.Logger
	hostService *service.HostService
	client      *docker.Client
	interval    time.Duration
	fanout      int
}

// NewSystemHandler 创建处理器
func NewSystemHandler(logger *zap.Logger, hostService *service.HostService, client *docker.Client, interval time.Duration, fanout int) *SystemHandler {
	return &SystemHandler{
		logger:      logger,
		hostService: hostService,
		client:      client,
		interval:    interval,
		fanout:      fanout,
	}
}

// Overview 主机概要
// GET /api/system/overview
func (h *SystemHandler) Overview(c echo.Context) error {
	overview, err := h.hostService.Overview(c.Request().Context())
	if err != nil {
		h.logger.Error("采集主机概要失败", zap.Error(err))
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, overview)
}

// StreamAggregateStats 全部运行中容器的聚合指标推送流
// GET /api/system/stats/stream
func (h *SystemHandler) StreamAggregateStats(c echo.Context) error {
	ctx := c.Request().Context()

	writer, err := stream.NewSSEWriter(c)
	if err != nil {
		return err
	}

	sampler := telemetry.NewSampler(h.logger, h.client, h.fanout)
	session := stream.NewSession(h.logger, writer)

	session.RunPeriodic(ctx, protocol.EventAggregateStats, h.interval, func(ctx context.Context) (any, error) {
		return sampler.SampleAggregate(ctx)
	})
	return nil
}

// StreamEvents 运行时生命周期事件推送流
// GET /api/system/events/stream
func (h *SystemHandler) StreamEvents(c echo.Context) error {
	ctx := c.Request().Context()

	writer, err := stream.NewSSEWriter(c)
	if err != nil {
		return err
	}

	feed := stream.NewEventFeed(h.logger, h.client)
	session := stream.NewSession(h.logger, writer)
	session.RunFeed(ctx, feed.Run(ctx))
	return nil
}
