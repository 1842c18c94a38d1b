package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/stevedore-dev/stevedore/internal/service"
	"go.uber.org/zap"
)

// RegistryHandler 镜像仓库配置处理器
type RegistryHandler struct {
	logger  *zap.Logger
	service *service.RegistryService
}

// NewRegistryHandler 创建处理器
func NewRegistryHandler(logger *zap.Logger, service *service.RegistryService) *RegistryHandler {
	return &RegistryHandler{
		logger:  logger,
		service: service,
	}
}

// List 列出全部镜像仓库
// GET /api/registries
func (h *RegistryHandler) List(c echo.Context) error {
	registries, err := h.service.List(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, registries)
}

// Get 获取单个镜像仓库
// GET /api/registries/:id
func (h *RegistryHandler) Get(c echo.Context) error {
	registry, err := h.service.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, registry)
}

// Create 创建镜像仓库
// POST /api/registries
func (h *RegistryHandler) Create(c echo.Context) error {
	var req service.RegistryRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "请求参数错误"})
	}

	registry, err := h.service.Create(c.Request().Context(), &req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, registry)
}

// Update 更新镜像仓库
// PUT /api/registries/:id
func (h *RegistryHandler) Update(c echo.Context) error {
	var req service.RegistryRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "请求参数错误"})
	}

	registry, err := h.service.Update(c.Request().Context(), c.Param("id"), &req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, registry)
}

// Delete 删除镜像仓库
// DELETE /api/registries/:id
func (h *RegistryHandler) Delete(c echo.Context) error {
	if err := h.service.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "删除成功"})
}
