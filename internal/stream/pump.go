package stream

import (
	"context"
	"time"

	"github.com/stevedore-dev/stevedore/internal/protocol"
	"github.com/stevedore-dev/stevedore/internal/telemetry"
	"go.uber.org/zap"
)

// Broadcaster 广播泵依赖的观察者注册表接口
type Broadcaster interface {
	BroadcastToChannel(channel, event string, data any)
	Count() int
}

// Pump 进程级广播泵
// 生命周期事件和聚合指标都按频道推送给订阅者；
// 进程启动时创建一次，随进程退出而停止
type Pump struct {
	logger   *zap.Logger
	manager  Broadcaster
	sampler  *telemetry.Sampler
	feed     *EventFeed
	interval time.Duration
}

// NewPump 创建广播泵
func NewPump(logger *zap.Logger, manager Broadcaster, rt telemetry.Runtime, src EventSource, interval time.Duration, fanout int) *Pump {
	return &Pump{
		logger:   logger,
		manager:  manager,
		sampler:  telemetry.NewSampler(logger, rt, fanout),
		feed:     NewEventFeed(logger, src),
		interval: interval,
	}
}

// Run 阻塞运行直到上下文取消
func (p *Pump) Run(ctx context.Context) {
	go p.runEvents(ctx)
	p.runAggregate(ctx)
}

// runAggregate 周期广播聚合指标
// 没有观察者时跳过采样，避免空转压榨运行时 API
func (p *Pump) runAggregate(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if p.manager.Count() == 0 {
				continue
			}
			stats, err := p.sampler.SampleAggregate(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				p.logger.Warn("聚合指标采样失败", zap.Error(err))
				continue
			}
			p.manager.BroadcastToChannel(protocol.ChannelAggregate, protocol.EventAggregateStats, stats)
		}
	}
}

// runEvents 把生命周期事件推送给 events 频道的订阅者
func (p *Pump) runEvents(ctx context.Context) {
	for env := range p.feed.Run(ctx) {
		p.manager.BroadcastToChannel(protocol.ChannelEvents, env.Event, env.Data)
	}
}
