package stream

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/stevedore-dev/stevedore/internal/protocol"
	"go.uber.org/zap"
)

// State 会话状态
type State int32

const (
	StateStarting State = iota
	StateActive
	StateClosing
	StateClosed
)

// Sink 会话的消息出口（SSE 响应或 WebSocket 定向投递）
type Sink interface {
	Send(env protocol.Envelope) error
}

// Session 一次流式请求对应的服务端控制循环
// 生命周期：Starting -> Active -> Closing -> Closed
// 只有客户端断开（请求上下文取消）或显式 Close 会结束会话，
// 数据源的单次错误只会转发给观察者
type Session struct {
	logger *zap.Logger
	sink   Sink

	state    atomic.Int32
	done     chan struct{}
	teardown []func()
	drained  bool

	mu        sync.Mutex // guards teardown/drained
	closeOnce sync.Once
}

// NewSession 创建会话，状态为 Starting
func NewSession(logger *zap.Logger, sink Sink) *Session {
	return &Session{
		logger: logger,
		sink:   sink,
		done:   make(chan struct{}),
	}
}

// OnTeardown 注册收尾动作（定时器、上游流句柄、注册表注销等）
// 收尾只执行一次，按注册的逆序执行，Starting 阶段失败时同样安全；
// 收尾已经执行完的会话再注册，动作立即执行而不是被丢弃
func (s *Session) OnTeardown(fn func()) {
	s.mu.Lock()
	if s.drained {
		s.mu.Unlock()
		fn()
		return
	}
	s.teardown = append(s.teardown, fn)
	s.mu.Unlock()
}

// State 当前状态
func (s *Session) State() State {
	return State(s.state.Load())
}

// Close 结束会话，幂等
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.state.Store(int32(StateClosing))
		close(s.done)

		s.mu.Lock()
		teardown := s.teardown
		s.teardown = nil
		s.drained = true
		s.mu.Unlock()

		for i := len(teardown) - 1; i >= 0; i-- {
			teardown[i]()
		}
		s.state.Store(int32(StateClosed))
	})
}

// Done 会话结束信号
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Fail 在 Starting 阶段失败：向观察者发一条错误后直接进入 Closed
func (s *Session) Fail(err error) {
	_ = s.sink.Send(protocol.NewEnvelope(protocol.EventError, protocol.ErrorPayload{Message: err.Error()}))
	s.Close()
}

// RunPeriodic 周期采样模式：立即发出首个结果，之后按固定间隔采样
// 阻塞直到客户端断开或 Close
func (s *Session) RunPeriodic(ctx context.Context, event string, interval time.Duration, fetch func(context.Context) (any, error)) {
	s.state.Store(int32(StateActive))
	defer s.Close()

	if !s.emit(ctx, event, fetch) {
		return
	}

	ticker := time.NewTicker(interval)
	s.OnTeardown(ticker.Stop)

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.done:
			return
		case <-ticker.C:
			if !s.emit(ctx, event, fetch) {
				return
			}
		}
	}
}

// RunFeed 推送模式：转发上游信封直到其关闭
func (s *Session) RunFeed(ctx context.Context, feed <-chan protocol.Envelope) {
	s.state.Store(int32(StateActive))
	defer s.Close()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.done:
			return
		case env, ok := <-feed:
			if !ok {
				return
			}
			if err := s.sink.Send(env); err != nil {
				return
			}
		}
	}
}

// emit 执行一次采样并推送，返回 false 表示会话应当结束
func (s *Session) emit(ctx context.Context, event string, fetch func(context.Context) (any, error)) bool {
	payload, err := fetch(ctx)

	// 采样返回时会话可能已经开始收尾，此时结果直接丢弃
	if s.State() >= StateClosing {
		return false
	}

	if err != nil {
		if ctx.Err() != nil {
			return false
		}
		// 数据源错误只转发给观察者，会话继续等待下一个周期
		s.logger.Debug("采样失败，已转发给观察者", zap.Error(err))
		if sendErr := s.sink.Send(protocol.NewEnvelope(protocol.EventError, protocol.ErrorPayload{Message: err.Error()})); sendErr != nil {
			return false
		}
		return true
	}

	if err := s.sink.Send(protocol.NewEnvelope(event, payload)); err != nil {
		return false
	}
	return true
}
