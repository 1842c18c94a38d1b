package handler

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stevedore-dev/stevedore/internal/service"
	"go.uber.org/zap"
)

// AuthHandler 认证处理器
type AuthHandler struct {
	logger  *zap.Logger
	service *service.AuthService
}

// NewAuthHandler 创建处理器
func NewAuthHandler(logger *zap.Logger, service *service.AuthService) *AuthHandler {
	return &AuthHandler{
		logger:  logger,
		service: service,
	}
}

// Login 本地用户登录
// POST /api/auth/login
func (h *AuthHandler) Login(c echo.Context) error {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "请求参数错误"})
	}

	token, err := h.service.Login(req.Username, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "用户名或密码错误"})
		}
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"token": token})
}

// OIDCLogin 跳转到 OIDC Provider
// GET /api/auth/oidc/login
func (h *AuthHandler) OIDCLogin(c echo.Context) error {
	state := uuid.NewString()
	url, err := h.service.OIDCAuthURL(state)
	if err != nil {
		return writeError(c, err)
	}

	// state 放进短期 cookie，回调时校验防 CSRF
	c.SetCookie(&http.Cookie{
		Name:     "oidc_state",
		Value:    state,
		Path:     "/",
		MaxAge:   300,
		HttpOnly: true,
	})
	return c.Redirect(http.StatusFound, url)
}

// OIDCCallback OIDC 回调
// GET /api/auth/oidc/callback
func (h *AuthHandler) OIDCCallback(c echo.Context) error {
	stateCookie, err := c.Cookie("oidc_state")
	if err != nil || stateCookie.Value == "" || c.QueryParam("state") != stateCookie.Value {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "state 校验失败"})
	}

	token, err := h.service.OIDCExchange(c.Request().Context(), c.QueryParam("code"))
	if err != nil {
		h.logger.Error("OIDC 登录失败", zap.Error(err))
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "OIDC 登录失败"})
	}
	return c.JSON(http.StatusOK, map[string]string{"token": token})
}
