package stream

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/labstack/echo/v4"
	"github.com/stevedore-dev/stevedore/internal/protocol"
)

// SSEWriter 将信封按 `event: <json>\n\n` 帧写入响应流
type SSEWriter struct {
	mu      sync.Mutex
	resp    *echo.Response
	flusher http.Flusher
}

// NewSSEWriter 初始化 SSE 响应头并返回写入器
func NewSSEWriter(c echo.Context) (*SSEWriter, error) {
	resp := c.Response()
	flusher, ok := resp.Writer.(http.Flusher)
	if !ok {
		return nil, fmt.Errorf("响应不支持流式输出")
	}

	header := resp.Header()
	header.Set(echo.HeaderContentType, "text/event-stream")
	header.Set("Cache-Control", "no-cache")
	header.Set("Connection", "keep-alive")
	header.Set("X-Accel-Buffering", "no")
	resp.WriteHeader(http.StatusOK)
	flusher.Flush()

	return &SSEWriter{resp: resp, flusher: flusher}, nil
}

// Send 写一帧，按消息产生顺序串行输出
func (w *SSEWriter) Send(env protocol.Envelope) error {
	data, err := json.Marshal(env)
	if err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if _, err := fmt.Fprintf(w.resp, "event: %s\n\n", data); err != nil {
		return err
	}
	w.flusher.Flush()
	return nil
}
