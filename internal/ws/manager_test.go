package ws

import (
	"testing"

	"github.com/stevedore-dev/stevedore/internal/protocol"
	"go.uber.org/zap"
)

// drain 读空客户端的发送队列
func drain(c *Client) []protocol.Envelope {
	var envs []protocol.Envelope
	for {
		select {
		case env := <-c.send:
			envs = append(envs, env)
		default:
			return envs
		}
	}
}

func TestRegisterSendsConnected(t *testing.T) {
	m := NewManager(zap.NewNop())
	client := m.Register(nil)

	if client.ID == "" {
		t.Fatal("注册后观察者应分配 ID")
	}
	if m.Count() != 1 {
		t.Errorf("观察者数量应为 1，实际 %d", m.Count())
	}

	envs := drain(client)
	if len(envs) != 1 || envs[0].Event != protocol.EventConnected {
		t.Fatalf("注册后应立即收到 connected 确认，实际 %+v", envs)
	}
	data, ok := envs[0].Data.(map[string]string)
	if !ok || data["id"] != client.ID {
		t.Errorf("connected 信封应携带观察者 ID，实际 %+v", envs[0].Data)
	}
}

func TestUnregisterIdempotent(t *testing.T) {
	m := NewManager(zap.NewNop())
	client := m.Register(nil)

	m.Unregister(client.ID)
	m.Unregister(client.ID)
	m.Unregister("no-such-client")

	if m.Count() != 0 {
		t.Errorf("注销后观察者数量应为 0，实际 %d", m.Count())
	}
}

func TestBroadcastReachesAllClients(t *testing.T) {
	m := NewManager(zap.NewNop())
	c1 := m.Register(nil)
	c2 := m.Register(nil)
	c3 := m.Register(nil)
	for _, c := range []*Client{c1, c2, c3} {
		drain(c) // 清掉 connected
	}

	m.Broadcast("docker-event", map[string]string{"action": "start"})

	for _, c := range []*Client{c1, c2, c3} {
		envs := drain(c)
		if len(envs) != 1 || envs[0].Event != "docker-event" {
			t.Errorf("观察者 %s 应收到广播，实际 %+v", c.ID, envs)
		}
	}
}

func TestBroadcastToChannelOnlySubscribers(t *testing.T) {
	m := NewManager(zap.NewNop())
	sub := m.Register(nil)
	other := m.Register(nil)
	drain(sub)
	drain(other)

	m.Subscribe(sub.ID, protocol.ChannelAggregate)
	m.BroadcastToChannel(protocol.ChannelAggregate, protocol.EventAggregateStats, nil)

	envs := drain(sub)
	if len(envs) != 1 {
		t.Fatalf("订阅者应收到频道广播，实际 %d 条", len(envs))
	}
	if envs[0].Channel != protocol.ChannelAggregate {
		t.Errorf("信封应携带频道名，实际 %q", envs[0].Channel)
	}
	if got := drain(other); len(got) != 0 {
		t.Errorf("未订阅者不应收到频道广播，实际 %+v", got)
	}
}

func TestUnsubscribeStopsChannelDelivery(t *testing.T) {
	m := NewManager(zap.NewNop())
	client := m.Register(nil)
	drain(client)

	m.Subscribe(client.ID, protocol.ChannelEvents)
	m.Unsubscribe(client.ID, protocol.ChannelEvents)
	m.BroadcastToChannel(protocol.ChannelEvents, protocol.EventLifecycle, nil)

	if got := drain(client); len(got) != 0 {
		t.Errorf("退订后不应再收到频道广播，实际 %+v", got)
	}
}

func TestOpsOnAbsentClientAreNoops(t *testing.T) {
	m := NewManager(zap.NewNop())

	// 观察者可能已并发断开，这些操作都不应 panic 或报错
	m.Subscribe("ghost", protocol.ChannelEvents)
	m.Unsubscribe("ghost", protocol.ChannelEvents)
	m.SendToClient("ghost", protocol.EventPong, nil)
}

func TestSendToClosedClientDropsSilently(t *testing.T) {
	m := NewManager(zap.NewNop())
	client := m.Register(nil)
	client.close()

	// 发送队列已关闭，投递按丢弃处理
	m.SendToClient(client.ID, protocol.EventPong, nil)
	m.Broadcast("docker-event", nil)
}

func TestEnqueueDropsWhenBufferFull(t *testing.T) {
	m := NewManager(zap.NewNop())
	client := m.Register(nil)

	for i := 0; i < sendBufferSize*2; i++ {
		m.SendToClient(client.ID, "tick", i)
	}

	if len(client.send) != sendBufferSize {
		t.Errorf("队列满后应丢弃消息而不是阻塞，队列长度 %d", len(client.send))
	}
}

func TestCloseAll(t *testing.T) {
	m := NewManager(zap.NewNop())
	m.Register(nil)
	m.Register(nil)

	m.CloseAll()
	if m.Count() != 0 {
		t.Errorf("CloseAll 后观察者数量应为 0，实际 %d", m.Count())
	}
}

func TestGetAllClients(t *testing.T) {
	m := NewManager(zap.NewNop())
	c1 := m.Register(nil)
	c2 := m.Register(nil)

	ids := m.GetAllClients()
	if len(ids) != 2 {
		t.Fatalf("应返回 2 个观察者 ID，实际 %d", len(ids))
	}
	seen := map[string]bool{}
	for _, id := range ids {
		seen[id] = true
	}
	if !seen[c1.ID] || !seen[c2.ID] {
		t.Errorf("返回的 ID 不完整: %v", ids)
	}
}
