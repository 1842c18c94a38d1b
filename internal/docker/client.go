package docker

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/events"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/client"
	"github.com/stevedore-dev/stevedore/internal/config"
	"github.com/stevedore-dev/stevedore/internal/telemetry"
	"go.uber.org/zap"
)

// Client 容器运行时客户端封装
type Client struct {
	logger *zap.Logger
	cli    *client.Client
}

// NewClient 创建运行时客户端并验证连通性
func NewClient(ctx context.Context, logger *zap.Logger, cfg config.DockerConfig) (*Client, error) {
	opts := []client.Opt{client.FromEnv}
	if cfg.Host != "" {
		opts = append(opts, client.WithHost(cfg.Host))
	}
	if cfg.APIVersion != "" {
		opts = append(opts, client.WithVersion(cfg.APIVersion))
	} else {
		opts = append(opts, client.WithAPIVersionNegotiation())
	}

	cli, err := client.NewClientWithOpts(opts...)
	if err != nil {
		return nil, MapError(err, "")
	}

	ping, err := cli.Ping(ctx)
	if err != nil {
		return nil, MapError(err, "")
	}
	logger.Info("已连接容器运行时", zap.String("apiVersion", ping.APIVersion))

	return &Client{logger: logger, cli: cli}, nil
}

// Close 关闭底层连接
func (c *Client) Close() error {
	return c.cli.Close()
}

// ListContainers 列出全部容器（包含已停止的）
func (c *Client) ListContainers(ctx context.Context) ([]telemetry.Container, error) {
	list, err := c.cli.ContainerList(ctx, container.ListOptions{All: true})
	if err != nil {
		return nil, MapError(err, "")
	}

	containers := make([]telemetry.Container, 0, len(list))
	for _, item := range list {
		name := ""
		if len(item.Names) > 0 {
			name = strings.TrimPrefix(item.Names[0], "/")
		}
		containers = append(containers, telemetry.Container{
			ID:    item.ID,
			Name:  name,
			Image: item.Image,
			State: string(item.State),
		})
	}
	return containers, nil
}

// StatsSnapshot 获取单容器的一次性计数器快照
func (c *Client) StatsSnapshot(ctx context.Context, containerID string) (*telemetry.RawSample, error) {
	resp, err := c.cli.ContainerStats(ctx, containerID, false)
	if err != nil {
		return nil, MapError(err, containerID)
	}
	defer resp.Body.Close()

	var stats container.StatsResponse
	if err := json.NewDecoder(resp.Body).Decode(&stats); err != nil {
		return nil, MapError(err, containerID)
	}

	// 停止的容器也会返回 200，但快照为空（Read 为零值）
	if stats.Read.IsZero() {
		return nil, fmt.Errorf("%w: %s", ErrContainerNotRunning, containerID)
	}

	sample := &telemetry.RawSample{
		ContainerID: containerID,
		CPUTotal:    stats.CPUStats.CPUUsage.TotalUsage,
		SystemCPU:   stats.CPUStats.SystemUsage,
		OnlineCPUs:  stats.CPUStats.OnlineCPUs,
		MemoryUsage: stats.MemoryStats.Usage,
		MemoryLimit: stats.MemoryStats.Limit,
		PIDs:        stats.PidsStats.Current,
		ReadAt:      stats.Read,
	}

	if len(stats.Networks) > 0 {
		sample.Networks = make(map[string]telemetry.NetworkCounters, len(stats.Networks))
		for name, nw := range stats.Networks {
			sample.Networks[name] = telemetry.NetworkCounters{
				RxBytes: nw.RxBytes,
				TxBytes: nw.TxBytes,
			}
		}
	}

	for _, entry := range stats.BlkioStats.IoServiceBytesRecursive {
		sample.Blkio = append(sample.Blkio, telemetry.BlkioEntry{
			Op:    strings.ToLower(entry.Op),
			Bytes: entry.Value,
		})
	}

	return sample, nil
}

// Events 订阅运行时事件流
func (c *Client) Events(ctx context.Context) (<-chan events.Message, <-chan error) {
	return c.cli.Events(ctx, events.ListOptions{})
}

// InspectContainer 查看容器详情
func (c *Client) InspectContainer(ctx context.Context, containerID string) (container.InspectResponse, error) {
	resp, err := c.cli.ContainerInspect(ctx, containerID)
	if err != nil {
		return container.InspectResponse{}, MapError(err, containerID)
	}
	return resp, nil
}

// StartContainer 启动容器
func (c *Client) StartContainer(ctx context.Context, containerID string) error {
	return MapError(c.cli.ContainerStart(ctx, containerID, container.StartOptions{}), containerID)
}

// StopContainer 停止容器
func (c *Client) StopContainer(ctx context.Context, containerID string) error {
	return MapError(c.cli.ContainerStop(ctx, containerID, container.StopOptions{}), containerID)
}

// RestartContainer 重启容器
func (c *Client) RestartContainer(ctx context.Context, containerID string) error {
	return MapError(c.cli.ContainerRestart(ctx, containerID, container.StopOptions{}), containerID)
}

// RemoveContainer 删除容器
func (c *Client) RemoveContainer(ctx context.Context, containerID string, force bool) error {
	return MapError(c.cli.ContainerRemove(ctx, containerID, container.RemoveOptions{
		Force:         force,
		RemoveVolumes: false,
	}), containerID)
}

// ListImages 列出镜像
func (c *Client) ListImages(ctx context.Context) ([]image.Summary, error) {
	list, err := c.cli.ImageList(ctx, image.ListOptions{All: false})
	if err != nil {
		return nil, MapError(err, "")
	}
	return list, nil
}

// PullImage 拉取镜像，返回进度流（调用方负责关闭）
func (c *Client) PullImage(ctx context.Context, ref string) (io.ReadCloser, error) {
	rc, err := c.cli.ImagePull(ctx, ref, image.PullOptions{})
	if err != nil {
		return nil, MapError(err, ref)
	}
	return rc, nil
}

// RemoveImage 删除镜像
func (c *Client) RemoveImage(ctx context.Context, imageID string, force bool) error {
	_, err := c.cli.ImageRemove(ctx, imageID, image.RemoveOptions{Force: force, PruneChildren: true})
	return MapError(err, imageID)
}

// Info 运行时概要信息
func (c *Client) Info(ctx context.Context) (types.Ping, error) {
	ping, err := c.cli.Ping(ctx)
	if err != nil {
		return types.Ping{}, MapError(err, "")
	}
	return ping, nil
}
