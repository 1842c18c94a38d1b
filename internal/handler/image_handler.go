package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/stevedore-dev/stevedore/internal/service"
	"github.com/stevedore-dev/stevedore/internal/stream"
	"go.uber.org/zap"
)

// ImageHandler 镜像处理器
type ImageHandler struct {
	logger  *zap.Logger
	service *service.ImageService
}

// NewImageHandler 创建处理器
func NewImageHandler(logger *zap.Logger, service *service.ImageService) *ImageHandler {
	return &ImageHandler{
		logger:  logger,
		service: service,
	}
}

// List 列出本地镜像
// GET /api/images
func (h *ImageHandler) List(c echo.Context) error {
	images, err := h.service.List(c.Request().Context())
	if err != nil {
		h.logger.Error("查询镜像列表失败", zap.Error(err))
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, images)
}

// Remove 删除镜像
// DELETE /api/images/:id
func (h *ImageHandler) Remove(c echo.Context) error {
	force := c.QueryParam("force") == "true"
	if err := h.service.Remove(c.Request().Context(), c.Param("id"), force); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "镜像已删除"})
}

// StreamPull 拉取镜像并推送进度流
// GET /api/images/pull/stream?ref=nginx:latest
func (h *ImageHandler) StreamPull(c echo.Context) error {
	ref := c.QueryParam("ref")
	if ref == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "镜像引用不能为空"})
	}

	writer, err := stream.NewSSEWriter(c)
	if err != nil {
		return err
	}

	if err := h.service.Pull(c.Request().Context(), writer, ref); err != nil {
		// 响应头已经发出，错误只能记录日志（进度流里已经包含 error 消息）
		h.logger.Error("镜像拉取失败", zap.String("ref", ref), zap.Error(err))
	}
	return nil
}

// PullHistory 最近的拉取记录
// GET /api/images/pull/history
func (h *ImageHandler) PullHistory(c echo.Context) error {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	records, err := h.service.PullHistory(c.Request().Context(), limit)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, records)
}
