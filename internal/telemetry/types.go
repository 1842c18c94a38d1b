package telemetry

import (
	"context"
	"time"
)

// Container 容器摘要（采样时用于筛选运行中的容器）
type Container struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Image string `json:"image"`
	State string `json:"state"`
}

// Running 容器是否处于运行状态
func (c Container) Running() bool {
	return c.State == "running"
}

// NetworkCounters 单网卡的累计收发字节数
type NetworkCounters struct {
	RxBytes uint64
	TxBytes uint64
}

// BlkioEntry 按操作类型的累计块设备读写字节数
type BlkioEntry struct {
	Op    string // read / write
	Bytes uint64
}

// RawSample 运行时返回的一次原始计数器快照
// 所有计数器均为容器启动以来的累计值，采集后不再修改
type RawSample struct {
	ContainerID string
	CPUTotal    uint64 // 容器累计 CPU 时间（纳秒）
	SystemCPU   uint64 // 主机累计 CPU 时间（纳秒）
	OnlineCPUs  uint32 // 可调度 CPU 数，0 表示运行时未上报
	MemoryUsage uint64
	MemoryLimit uint64
	Networks    map[string]NetworkCounters
	Blkio       []BlkioEntry
	PIDs        uint64
	ReadAt      time.Time
}

// ContainerStats 单容器的瞬时利用率指标
// 网络与块设备字段是累计总量而非速率，需要速率的调用方自行对两次结果做差
type ContainerStats struct {
	ContainerID   string  `json:"containerId"`
	CPUPercent    float64 `json:"cpuPercent"`
	MemoryUsage   uint64  `json:"memoryUsage"`
	MemoryLimit   uint64  `json:"memoryLimit"`
	MemoryPercent float64 `json:"memoryPercent"`
	NetworkRx     uint64  `json:"networkRx"`
	NetworkTx     uint64  `json:"networkTx"`
	BlockRead     uint64  `json:"blockRead"`
	BlockWrite    uint64  `json:"blockWrite"`
	PIDs          uint64  `json:"pids"`
	Timestamp     int64   `json:"timestamp"` // 毫秒时间戳
}

// AggregateStats 所有运行中容器的指标汇总
type AggregateStats struct {
	TotalContainers   int     `json:"totalContainers"`
	RunningContainers int     `json:"runningContainers"`
	TotalCPUPercent   float64 `json:"totalCpuPercent"`
	TotalMemoryUsage  uint64  `json:"totalMemoryUsage"`
	TotalMemoryLimit  uint64  `json:"totalMemoryLimit"`
	TotalNetworkRx    uint64  `json:"totalNetworkRx"`
	TotalNetworkTx    uint64  `json:"totalNetworkTx"`
	TotalBlockRead    uint64  `json:"totalBlockRead"`
	TotalBlockWrite   uint64  `json:"totalBlockWrite"`
	PIDs              uint64  `json:"pids"`
	Timestamp         int64   `json:"timestamp"`
}

// Runtime 采样器依赖的运行时接口
type Runtime interface {
	// ListContainers 列出全部容器（包含已停止的）
	ListContainers(ctx context.Context) ([]Container, error)
	// StatsSnapshot 获取单容器的一次性计数器快照
	StatsSnapshot(ctx context.Context, containerID string) (*RawSample, error)
}
