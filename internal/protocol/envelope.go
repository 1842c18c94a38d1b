package protocol

import "time"

// 推送事件名
const (
	EventConnected    = "connected"
	EventSubscribed   = "subscribed"
	EventUnsubscribed = "unsubscribed"
	EventPong         = "pong"
	EventError        = "error"

	EventContainerStats = "container-stats"
	EventAggregateStats = "aggregate-stats"
	EventLifecycle      = "docker-event"
	EventPullProgress   = "pull-progress"
)

// 客户端控制消息类型
const (
	ControlSubscribe   = "subscribe"
	ControlUnsubscribe = "unsubscribe"
	ControlPing        = "ping"
)

// Envelope 推送消息的统一信封（SSE 与 WebSocket 共用）
type Envelope struct {
	Event     string `json:"event"`
	Data      any    `json:"data"`
	Timestamp string `json:"timestamp"` // ISO-8601
	Channel   string `json:"channel,omitempty"`
}

// NewEnvelope 创建带当前时间戳的信封
func NewEnvelope(event string, data any) Envelope {
	return Envelope{
		Event:     event,
		Data:      data,
		Timestamp: time.Now().Format(time.RFC3339),
	}
}

// ControlMessage 客户端发来的控制消息
type ControlMessage struct {
	Type    string         `json:"type"`
	Payload ControlPayload `json:"payload"`
}

// ControlPayload 控制消息载荷
type ControlPayload struct {
	Channel string `json:"channel"`
}

// ErrorPayload error 事件的载荷
type ErrorPayload struct {
	Message string `json:"message"`
}

// 频道名
const (
	ChannelAggregate = "aggregate-stats"
	ChannelEvents    = "events"
)
