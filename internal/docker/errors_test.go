package docker

import (
	"errors"
	"testing"

	"github.com/docker/docker/errdefs"
)

func TestMapErrorNil(t *testing.T) {
	if MapError(nil, "c1") != nil {
		t.Error("nil 错误应原样返回 nil")
	}
}

func TestMapErrorNotFound(t *testing.T) {
	err := MapError(errdefs.NotFound(errors.New("no such container")), "c1")
	if !errors.Is(err, ErrContainerNotFound) {
		t.Errorf("应映射为 ErrContainerNotFound，实际 %v", err)
	}
}

func TestMapErrorConflict(t *testing.T) {
	err := MapError(errdefs.Conflict(errors.New("container is not running")), "c1")
	if !errors.Is(err, ErrContainerNotRunning) {
		t.Errorf("应映射为 ErrContainerNotRunning，实际 %v", err)
	}
}

func TestMapErrorUpstreamWrapped(t *testing.T) {
	cause := errors.New("dial unix /var/run/docker.sock: connect: refused")
	err := MapError(cause, "")
	if err == nil {
		t.Fatal("未识别的错误不应被吞掉")
	}
	if errors.Is(err, ErrContainerNotFound) || errors.Is(err, ErrContainerNotRunning) {
		t.Error("未识别的错误不应映射为哨兵错误")
	}
	if !errors.Is(err, cause) {
		t.Error("包装后应能追溯到原始错误")
	}
}
