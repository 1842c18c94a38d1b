package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/stevedore-dev/stevedore/internal/docker"
	"github.com/stevedore-dev/stevedore/internal/validation"
	"gorm.io/gorm"
)

// writeError 统一的错误响应映射
func writeError(c echo.Context, err error) error {
	var validationErr *validation.ValidationError

	switch {
	case errors.Is(err, docker.ErrContainerNotFound), errors.Is(err, gorm.ErrRecordNotFound):
		return c.JSON(http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.Is(err, docker.ErrContainerNotRunning):
		return c.JSON(http.StatusConflict, map[string]string{"error": err.Error()})
	case errors.As(err, &validationErr):
		return c.JSON(http.StatusBadRequest, map[string]string{"error": validationErr.Message})
	default:
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
}
