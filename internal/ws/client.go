package ws

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stevedore-dev/stevedore/internal/protocol"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	sendBufferSize = 64
)

// Client 一个已连接的观察者
// 连接句柄由写协程独占，其他组件只能通过 send 队列投递消息
type Client struct {
	ID   string
	conn *websocket.Conn

	mu       sync.RWMutex
	channels map[string]struct{}

	send      chan protocol.Envelope
	closeOnce sync.Once
	logger    *zap.Logger
}

func newClient(id string, conn *websocket.Conn, logger *zap.Logger) *Client {
	return &Client{
		ID:       id,
		conn:     conn,
		channels: make(map[string]struct{}),
		send:     make(chan protocol.Envelope, sendBufferSize),
		logger:   logger,
	}
}

// enqueue 投递一条消息；队列已满或已关闭时直接丢弃，绝不阻塞广播方
func (c *Client) enqueue(env protocol.Envelope) {
	defer func() {
		// send 可能已被 close 关闭，向关闭的 channel 投递按丢弃处理
		_ = recover()
	}()
	select {
	case c.send <- env:
	default:
		c.logger.Debug("观察者消息队列已满，丢弃消息",
			zap.String("clientId", c.ID),
			zap.String("event", env.Event))
	}
}

func (c *Client) subscribe(channel string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.channels[channel] = struct{}{}
}

func (c *Client) unsubscribe(channel string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.channels, channel)
}

func (c *Client) subscribed(channel string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.channels[channel]
	return ok
}

// close 关闭发送队列，幂等
func (c *Client) close() {
	c.closeOnce.Do(func() {
		close(c.send)
	})
}

// WritePump 写协程：串行消费 send 队列并定期发心跳
// send 关闭或写失败时退出并关闭底层连接
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case env, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(env); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
