package service

import (
	"context"
	"time"

	"github.com/shirou/gopsutil/v4/host"
	"github.com/shirou/gopsutil/v4/load"
	"github.com/shirou/gopsutil/v4/mem"
	"github.com/stevedore-dev/stevedore/internal/docker"
	"go.uber.org/zap"
)

// HostOverview 仪表盘首页的主机概要
type HostOverview struct {
	Hostname        string  `json:"hostname"`
	OS              string  `json:"os"`
	Platform        string  `json:"platform"`
	PlatformVersion string  `json:"platformVersion"`
	KernelVersion   string  `json:"kernelVersion"`
	KernelArch      string  `json:"kernelArch"`
	Uptime          uint64  `json:"uptime"` // 秒
	BootTime        uint64  `json:"bootTime"`
	Procs           uint64  `json:"procs"`
	Load1           float64 `json:"load1"`
	Load5           float64 `json:"load5"`
	Load15          float64 `json:"load15"`
	MemoryTotal     uint64  `json:"memoryTotal"`
	MemoryUsed      uint64  `json:"memoryUsed"`
	MemoryPercent   float64 `json:"memoryPercent"`
	RuntimeVersion  string  `json:"runtimeVersion"` // 运行时 API 版本
	Timestamp       int64   `json:"timestamp"`
}

// HostService 主机信息服务
type HostService struct {
	logger *zap.Logger
	client *docker.Client
}

func NewHostService(logger *zap.Logger, client *docker.Client) *HostService {
	return &HostService{logger: logger, client: client}
}

// Overview 采集主机概要信息
func (s *HostService) Overview(ctx context.Context) (*HostOverview, error) {
	hostInfo, err := host.Info()
	if err != nil {
		return nil, err
	}

	overview := &HostOverview{
		Hostname:        hostInfo.Hostname,
		OS:              hostInfo.OS,
		Platform:        hostInfo.Platform,
		PlatformVersion: hostInfo.PlatformVersion,
		KernelVersion:   hostInfo.KernelVersion,
		KernelArch:      hostInfo.KernelArch,
		Uptime:          hostInfo.Uptime,
		BootTime:        hostInfo.BootTime,
		Procs:           hostInfo.Procs,
		Timestamp:       time.Now().UnixMilli(),
	}

	if loadAvg, err := load.Avg(); err == nil && loadAvg != nil {
		overview.Load1 = loadAvg.Load1
		overview.Load5 = loadAvg.Load5
		overview.Load15 = loadAvg.Load15
	}

	if vm, err := mem.VirtualMemory(); err == nil && vm != nil {
		overview.MemoryTotal = vm.Total
		overview.MemoryUsed = vm.Used
		overview.MemoryPercent = vm.UsedPercent
	}

	if ping, err := s.client.Info(ctx); err == nil {
		overview.RuntimeVersion = ping.APIVersion
	} else {
		s.logger.Warn("获取运行时版本失败", zap.Error(err))
	}

	return overview, nil
}
