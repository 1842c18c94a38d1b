package telemetry

import (
	"context"
	"time"

	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"
)

// Sampler 容器指标采样器
// 每个流式会话持有独立实例，prev 快照缓存随会话创建和销毁
type Sampler struct {
	logger *zap.Logger
	rt     Runtime
	cache  *PrevCache
	fanout int
}

// NewSampler 创建采样器
func NewSampler(logger *zap.Logger, rt Runtime, fanout int) *Sampler {
	if fanout <= 0 {
		fanout = 8
	}
	return &Sampler{
		logger: logger,
		rt:     rt,
		cache:  NewPrevCache(),
		fanout: fanout,
	}
}

// SampleOne 采样单个容器
// 首次采样没有上一次快照，CPU 使用率为 0，之后每次调用都基于相邻两次快照
func (s *Sampler) SampleOne(ctx context.Context, containerID string) (*ContainerStats, error) {
	cur, err := s.rt.StatsSnapshot(ctx, containerID)
	if err != nil {
		return nil, err
	}

	prev := s.cache.Swap(containerID, *cur)
	stats := Derive(prev, *cur)
	return &stats, nil
}

// SampleAggregate 采样所有运行中容器并汇总
// 没有运行中的容器时直接返回零值汇总（保留正确的总数），不发起任何并发采样；
// 单个容器采样失败只记录日志并从汇总中剔除，不中断整体
func (s *Sampler) SampleAggregate(ctx context.Context) (*AggregateStats, error) {
	containers, err := s.rt.ListContainers(ctx)
	if err != nil {
		return nil, err
	}

	agg := &AggregateStats{
		TotalContainers: len(containers),
		Timestamp:       time.Now().UnixMilli(),
	}

	running := make([]Container, 0, len(containers))
	ids := make(map[string]struct{}, len(containers))
	for _, c := range containers {
		ids[c.ID] = struct{}{}
		if c.Running() {
			running = append(running, c)
		}
	}
	agg.RunningContainers = len(running)

	// 清理已消失容器的快照
	s.cache.Retain(ids)

	if len(running) == 0 {
		return agg, nil
	}

	p := pool.NewWithResults[*ContainerStats]().WithMaxGoroutines(s.fanout)
	for _, c := range running {
		p.Go(func() *ContainerStats {
			stats, err := s.SampleOne(ctx, c.ID)
			if err != nil {
				s.logger.Warn("容器指标采样失败，已从汇总中剔除",
					zap.String("containerId", c.ID),
					zap.String("name", c.Name),
					zap.Error(err))
				return nil
			}
			return stats
		})
	}

	for _, stats := range p.Wait() {
		if stats == nil {
			continue
		}
		agg.TotalCPUPercent += stats.CPUPercent
		agg.TotalMemoryUsage += stats.MemoryUsage
		agg.TotalMemoryLimit += stats.MemoryLimit
		agg.TotalNetworkRx += stats.NetworkRx
		agg.TotalNetworkTx += stats.NetworkTx
		agg.TotalBlockRead += stats.BlockRead
		agg.TotalBlockWrite += stats.BlockWrite
		agg.PIDs += stats.PIDs
	}
	agg.TotalCPUPercent = round2(agg.TotalCPUPercent)

	return agg, nil
}

// Evict 清除指定容器的快照缓存（容器被删除时调用）
func (s *Sampler) Evict(containerID string) {
	s.cache.Evict(containerID)
}

// CacheLen 当前缓存的快照数量（测试用）
func (s *Sampler) CacheLen() int {
	return s.cache.Len()
}
