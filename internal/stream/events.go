package stream

import (
	"context"
	"errors"
	"time"

	"github.com/docker/docker/api/types/events"
	"github.com/jpillora/backoff"
	"github.com/stevedore-dev/stevedore/internal/protocol"
	"go.uber.org/zap"
)

// EventSource 运行时生命周期事件源
type EventSource interface {
	Events(ctx context.Context) (<-chan events.Message, <-chan error)
}

// EventFeed 把运行时事件流转换为线格式信封
// 上游出错时向下游转发一条 error 信封，然后退避重连，直到上下文取消
type EventFeed struct {
	logger *zap.Logger
	src    EventSource
}

// NewEventFeed 创建事件流适配器
func NewEventFeed(logger *zap.Logger, src EventSource) *EventFeed {
	return &EventFeed{logger: logger, src: src}
}

// Run 启动转换协程，返回的 channel 在上下文取消后关闭
func (f *EventFeed) Run(ctx context.Context) <-chan protocol.Envelope {
	out := make(chan protocol.Envelope, 16)

	go func() {
		defer close(out)

		b := &backoff.Backoff{
			Min:    time.Second,
			Max:    30 * time.Second,
			Factor: 2,
			Jitter: true,
		}

		for {
			msgs, errs := f.src.Events(ctx)

		consume:
			for {
				select {
				case <-ctx.Done():
					return
				case msg, ok := <-msgs:
					if !ok {
						break consume
					}
					b.Reset()
					if !forward(ctx, out, protocol.NewEnvelope(protocol.EventLifecycle, MapLifecycleEvent(msg))) {
						return
					}
				case err, ok := <-errs:
					if !ok {
						break consume
					}
					if err == nil {
						continue
					}
					if errors.Is(err, context.Canceled) || ctx.Err() != nil {
						return
					}
					f.logger.Warn("事件流中断，准备重连", zap.Error(err))
					if !forward(ctx, out, protocol.NewEnvelope(protocol.EventError, protocol.ErrorPayload{Message: err.Error()})) {
						return
					}
					break consume
				}
			}

			select {
			case <-ctx.Done():
				return
			case <-time.After(b.Duration()):
			}
		}
	}()

	return out
}

// MapLifecycleEvent 把运行时原生事件映射为线格式
// 缺失的字段统一填充 unknown 占位值，而不是让会话失败
func MapLifecycleEvent(msg events.Message) protocol.LifecycleEvent {
	event := protocol.LifecycleEvent{
		Action:       orUnknown(string(msg.Action)),
		ResourceType: orUnknown(string(msg.Type)),
		Scope:        orUnknown(msg.Scope),
		Actor: protocol.LifecycleActor{
			ID:         orUnknown(msg.Actor.ID),
			Attributes: msg.Actor.Attributes,
		},
	}
	if event.Actor.Attributes == nil {
		event.Actor.Attributes = map[string]string{}
	}

	switch {
	case msg.TimeNano > 0:
		event.Time = msg.TimeNano / int64(time.Millisecond)
	case msg.Time > 0:
		event.Time = msg.Time * 1000
	default:
		event.Time = time.Now().UnixMilli()
	}

	return event
}

func orUnknown(s string) string {
	if s == "" {
		return protocol.UnknownValue
	}
	return s
}

func forward(ctx context.Context, out chan<- protocol.Envelope, env protocol.Envelope) bool {
	select {
	case <-ctx.Done():
		return false
	case out <- env:
		return true
	}
}
