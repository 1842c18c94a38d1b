package handler

import (
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/stevedore-dev/stevedore/internal/ws"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// 仪表盘与 API 同源部署，前端通过 token 鉴权
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WSHandler 持久双工连接处理器
type WSHandler struct {
	logger  *zap.Logger
	manager *ws.Manager
}

// NewWSHandler 创建处理器
func NewWSHandler(logger *zap.Logger, manager *ws.Manager) *WSHandler {
	return &WSHandler{
		logger:  logger,
		manager: manager,
	}
}

// Handle 升级连接并托管读写循环
// GET /api/ws
func (h *WSHandler) Handle(c echo.Context) error {
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		h.logger.Warn("WebSocket 升级失败", zap.Error(err))
		return err
	}

	client := h.manager.Register(conn)
	defer h.manager.Unregister(client.ID)

	go client.WritePump()
	h.manager.ReadLoop(client)
	return nil
}
