package docker

import (
	"errors"
	"fmt"

	"github.com/docker/docker/errdefs"
	goerrors "github.com/go-errors/errors"
)

var (
	// ErrContainerNotFound 容器不存在
	ErrContainerNotFound = errors.New("container not found")
	// ErrContainerNotRunning 容器未处于运行状态
	ErrContainerNotRunning = errors.New("container is not running")
)

// MapError 将运行时 API 错误归一为本地错误
// 未识别的错误带调用栈包装后按上游错误处理，绝不向上层抛出 panic
func MapError(err error, containerID string) error {
	switch {
	case err == nil:
		return nil
	case errdefs.IsNotFound(err):
		return fmt.Errorf("%w: %s", ErrContainerNotFound, containerID)
	case errdefs.IsConflict(err):
		return fmt.Errorf("%w: %s", ErrContainerNotRunning, containerID)
	default:
		return goerrors.Wrap(err, 1)
	}
}
