package stream

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stevedore-dev/stevedore/internal/protocol"
)

func newTestSSE(t *testing.T) (*SSEWriter, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

	w, err := NewSSEWriter(c)
	if err != nil {
		t.Fatalf("创建 SSE 写入器失败: %v", err)
	}
	return w, rec
}

func TestSSEWriterHeaders(t *testing.T) {
	_, rec := newTestSSE(t)

	if got := rec.Header().Get(echo.HeaderContentType); got != "text/event-stream" {
		t.Errorf("Content-Type 应为 text/event-stream，实际 %s", got)
	}
	if got := rec.Header().Get("Cache-Control"); got != "no-cache" {
		t.Errorf("Cache-Control 应为 no-cache，实际 %s", got)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("状态码应为 200，实际 %d", rec.Code)
	}
}

func TestSSEWriterFrameFormat(t *testing.T) {
	w, rec := newTestSSE(t)

	if err := w.Send(protocol.NewEnvelope("container-stats", map[string]int{"pids": 3})); err != nil {
		t.Fatalf("发送失败: %v", err)
	}

	body := rec.Body.String()
	if !strings.HasPrefix(body, "event: ") {
		t.Fatalf("帧应以 event: 开头，实际 %q", body)
	}
	if !strings.HasSuffix(body, "\n\n") {
		t.Fatalf("帧应以空行结束，实际 %q", body)
	}

	payload := strings.TrimSuffix(strings.TrimPrefix(body, "event: "), "\n\n")
	var env protocol.Envelope
	if err := json.Unmarshal([]byte(payload), &env); err != nil {
		t.Fatalf("帧内容应为合法 JSON 信封: %v", err)
	}
	if env.Event != "container-stats" {
		t.Errorf("事件类型应为 container-stats，实际 %s", env.Event)
	}
	if env.Timestamp == "" {
		t.Error("信封应携带时间戳")
	}
}

func TestSSEWriterPreservesOrder(t *testing.T) {
	w, rec := newTestSSE(t)

	for i := 0; i < 3; i++ {
		if err := w.Send(protocol.NewEnvelope("tick", i)); err != nil {
			t.Fatalf("发送失败: %v", err)
		}
	}

	frames := strings.Split(strings.TrimSuffix(rec.Body.String(), "\n\n"), "\n\n")
	if len(frames) != 3 {
		t.Fatalf("应有 3 帧，实际 %d", len(frames))
	}
	for i, frame := range frames {
		var env protocol.Envelope
		if err := json.Unmarshal([]byte(strings.TrimPrefix(frame, "event: ")), &env); err != nil {
			t.Fatalf("解析第 %d 帧失败: %v", i, err)
		}
		if int(env.Data.(float64)) != i {
			t.Errorf("帧顺序错误: 第 %d 帧数据为 %v", i, env.Data)
		}
	}
}
