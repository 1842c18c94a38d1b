package ws

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stevedore-dev/stevedore/internal/protocol"
	"go.uber.org/zap"
)

// Manager 进程级的观察者注册表与广播器
// 在进程启动时构造一次，通过引用传给各个连接处理器
type Manager struct {
	logger *zap.Logger

	mu      sync.RWMutex
	clients map[string]*Client
}

// NewManager 创建管理器
func NewManager(logger *zap.Logger) *Manager {
	return &Manager{
		logger:  logger,
		clients: make(map[string]*Client),
	}
}

// Register 注册一个新观察者并立即发送 connected 确认
func (m *Manager) Register(conn *websocket.Conn) *Client {
	client := newClient(uuid.NewString(), conn, m.logger)

	m.mu.Lock()
	m.clients[client.ID] = client
	m.mu.Unlock()

	client.enqueue(protocol.NewEnvelope(protocol.EventConnected, map[string]string{"id": client.ID}))
	m.logger.Info("观察者已连接", zap.String("clientId", client.ID), zap.Int("total", m.Count()))
	return client
}

// Unregister 注销观察者，重复调用是空操作
func (m *Manager) Unregister(clientID string) {
	m.mu.Lock()
	client, ok := m.clients[clientID]
	if ok {
		delete(m.clients, clientID)
	}
	m.mu.Unlock()

	if !ok {
		return
	}
	client.close()
	m.logger.Info("观察者已断开", zap.String("clientId", clientID), zap.Int("total", m.Count()))
}

// Subscribe 订阅频道，观察者不存在时为空操作（可能已并发断开）
func (m *Manager) Subscribe(clientID, channel string) {
	if client := m.get(clientID); client != nil {
		client.subscribe(channel)
	}
}

// Unsubscribe 退订频道，观察者不存在时为空操作
func (m *Manager) Unsubscribe(clientID, channel string) {
	if client := m.get(clientID); client != nil {
		client.unsubscribe(channel)
	}
}

// SendToClient 定向发送；观察者不存在或连接已关闭时静默丢弃
func (m *Manager) SendToClient(clientID, event string, data any) {
	if client := m.get(clientID); client != nil {
		client.enqueue(protocol.NewEnvelope(event, data))
	}
}

// Broadcast 向所有观察者广播
func (m *Manager) Broadcast(event string, data any) {
	env := protocol.NewEnvelope(event, data)

	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, client := range m.clients {
		client.enqueue(env)
	}
}

// BroadcastToChannel 只向订阅了指定频道的观察者广播
func (m *Manager) BroadcastToChannel(channel, event string, data any) {
	env := protocol.NewEnvelope(event, data)
	env.Channel = channel

	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, client := range m.clients {
		if client.subscribed(channel) {
			client.enqueue(env)
		}
	}
}

// GetAllClients 当前所有观察者 ID
func (m *Manager) GetAllClients() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.clients))
	for id := range m.clients {
		ids = append(ids, id)
	}
	return ids
}

// Count 当前观察者数量
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.clients)
}

// CloseAll 进程退出时关闭所有观察者
func (m *Manager) CloseAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, client := range m.clients {
		client.close()
		delete(m.clients, id)
	}
}

// ReadLoop 读取并处理客户端控制消息，连接断开时返回
// 非法消息只记录日志并忽略，不会断开客户端
func (m *Manager) ReadLoop(client *Client) {
	client.conn.SetReadLimit(4096)
	client.conn.SetReadDeadline(time.Now().Add(pongWait))
	client.conn.SetPongHandler(func(string) error {
		client.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, payload, err := client.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				m.logger.Debug("观察者连接异常关闭", zap.String("clientId", client.ID), zap.Error(err))
			}
			return
		}

		var msg protocol.ControlMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			m.logger.Warn("无法解析的控制消息，已忽略",
				zap.String("clientId", client.ID),
				zap.Error(err))
			continue
		}

		switch msg.Type {
		case protocol.ControlSubscribe:
			m.Subscribe(client.ID, msg.Payload.Channel)
			m.SendToClient(client.ID, protocol.EventSubscribed, msg.Payload)
		case protocol.ControlUnsubscribe:
			m.Unsubscribe(client.ID, msg.Payload.Channel)
			m.SendToClient(client.ID, protocol.EventUnsubscribed, msg.Payload)
		case protocol.ControlPing:
			m.SendToClient(client.ID, protocol.EventPong, nil)
		default:
			m.logger.Warn("未知的控制消息类型，已忽略",
				zap.String("clientId", client.ID),
				zap.String("type", msg.Type))
		}
	}
}

func (m *Manager) get(clientID string) *Client {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.clients[clientID]
}
