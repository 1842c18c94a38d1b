package router

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/stevedore-dev/stevedore/internal/handler"
	"github.com/stevedore-dev/stevedore/internal/service"
	"go.uber.org/zap"
)

// Handlers 路由需要的全部处理器
type Handlers struct {
	Auth      *handler.AuthHandler
	Container *handler.ContainerHandler
	Image     *handler.ImageHandler
	Registry  *handler.RegistryHandler
	System    *handler.SystemHandler
	WS        *handler.WSHandler
}

// New 组装 echo 实例和全部路由
func New(logger *zap.Logger, authService *service.AuthService, h Handlers) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())

	// 登录接口不需要鉴权
	e.POST("/api/auth/login", h.Auth.Login)
	e.GET("/api/auth/oidc/login", h.Auth.OIDCLogin)
	e.GET("/api/auth/oidc/callback", h.Auth.OIDCCallback)

	api := e.Group("/api", authMiddleware(logger, authService))

	api.GET("/containers", h.Container.List)
	api.GET("/containers/:id", h.Container.Inspect)
	api.POST("/containers/:id/start", h.Container.Start)
	api.POST("/containers/:id/stop", h.Container.Stop)
	api.POST("/containers/:id/restart", h.Container.Restart)
	api.DELETE("/containers/:id", h.Container.Remove)
	api.GET("/containers/:id/stats/stream", h.Container.StreamStats)

	api.GET("/images", h.Image.List)
	api.DELETE("/images/:id", h.Image.Remove)
	api.GET("/images/pull/stream", h.Image.StreamPull)
	api.GET("/images/pull/history", h.Image.PullHistory)

	api.GET("/registries", h.Registry.List)
	api.GET("/registries/:id", h.Registry.Get)
	api.POST("/registries", h.Registry.Create)
	api.PUT("/registries/:id", h.Registry.Update)
	api.DELETE("/registries/:id", h.Registry.Delete)

	api.GET("/system/overview", h.System.Overview)
	api.GET("/system/stats/stream", h.System.StreamAggregateStats)
	api.GET("/system/events/stream", h.System.StreamEvents)

	api.GET("/ws", h.WS.Handle)

	return e
}

// authMiddleware JWT 鉴权
// SSE 和 WebSocket 无法自定义请求头，放行 query 参数里的 token
func authMiddleware(logger *zap.Logger, authService *service.AuthService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := ""
			if auth := c.Request().Header.Get(echo.HeaderAuthorization); auth != "" {
				token = strings.TrimPrefix(auth, "Bearer ")
			}
			if token == "" {
				token = c.QueryParam("token")
			}
			if token == "" {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "未登录"})
			}

			subject, err := authService.VerifyToken(token)
			if err != nil {
				logger.Debug("令牌校验失败", zap.Error(err))
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "登录已过期"})
			}
			c.Set("username", subject)
			return next(c)
		}
	}
}
