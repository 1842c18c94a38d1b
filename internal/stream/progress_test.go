package stream

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stevedore-dev/stevedore/internal/protocol"
	"go.uber.org/zap"
)

func pullPhases(t *testing.T, envs []protocol.Envelope) []string {
	t.Helper()
	phases := make([]string, 0, len(envs))
	for _, env := range envs {
		if env.Event == protocol.EventError {
			phases = append(phases, "error")
			continue
		}
		p, ok := env.Data.(protocol.PullProgress)
		if !ok {
			t.Fatalf("数据类型错误: %T", env.Data)
		}
		phases = append(phases, p.Phase)
	}
	return phases
}

func TestStreamPullContract(t *testing.T) {
	body := strings.Join([]string{
		`{"id":"layer1","status":"Downloading","progressDetail":{"current":10,"total":100}}`,
		`{"id":"layer1","status":"Pull complete"}`,
	}, "\n")

	sink := &captureSink{}
	err := StreamPull(context.Background(), zap.NewNop(), sink, "nginx:latest", io.NopCloser(strings.NewReader(body)))
	if err != nil {
		t.Fatalf("拉取流转发失败: %v", err)
	}

	phases := pullPhases(t, sink.all())
	want := []string{protocol.PhasePullStart, protocol.PhasePullProgress, protocol.PhasePullProgress, protocol.PhasePullComplete}
	if len(phases) != len(want) {
		t.Fatalf("阶段数量错误: %v", phases)
	}
	for i := range want {
		if phases[i] != want[i] {
			t.Errorf("第 %d 个阶段应为 %s，实际 %s", i, want[i], phases[i])
		}
	}

	first, ok := sink.all()[1].Data.(protocol.PullProgress)
	if !ok {
		t.Fatal("进度数据类型错误")
	}
	if first.ID != "layer1" || first.Status != "Downloading" {
		t.Errorf("进度字段映射错误: %+v", first)
	}
	if first.ProgressDetail == nil || first.ProgressDetail.Current != 10 || first.ProgressDetail.Total != 100 {
		t.Errorf("进度明细映射错误: %+v", first.ProgressDetail)
	}
	if first.ResourceRef != "nginx:latest" {
		t.Errorf("resourceRef 应为请求的镜像引用，实际 %s", first.ResourceRef)
	}
}

func TestStreamPullEmptyUpstream(t *testing.T) {
	sink := &captureSink{}
	err := StreamPull(context.Background(), zap.NewNop(), sink, "busybox", io.NopCloser(strings.NewReader("")))
	if err != nil {
		t.Fatalf("空上游不应报错: %v", err)
	}

	phases := pullPhases(t, sink.all())
	if len(phases) != 2 || phases[0] != protocol.PhasePullStart || phases[1] != protocol.PhasePullComplete {
		t.Errorf("零进度时也应发出 start 和 complete，实际 %v", phases)
	}
}

func TestStreamPullUpstreamErrorChunk(t *testing.T) {
	body := strings.Join([]string{
		`{"id":"layer1","status":"Downloading"}`,
		`{"errorDetail":{"message":"manifest unknown"},"error":"manifest unknown"}`,
	}, "\n")

	sink := &captureSink{}
	err := StreamPull(context.Background(), zap.NewNop(), sink, "ghost:404", io.NopCloser(strings.NewReader(body)))
	if err != nil {
		t.Fatalf("错误块不应中断流: %v", err)
	}

	phases := pullPhases(t, sink.all())
	want := []string{protocol.PhasePullStart, protocol.PhasePullProgress, "error", protocol.PhasePullComplete}
	if len(phases) != len(want) {
		t.Fatalf("阶段序列错误: %v", phases)
	}
	for i := range want {
		if phases[i] != want[i] {
			t.Errorf("第 %d 个阶段应为 %s，实际 %s", i, want[i], phases[i])
		}
	}
}

func TestStreamPullMalformedChunk(t *testing.T) {
	sink := &captureSink{}
	err := StreamPull(context.Background(), zap.NewNop(), sink, "x", io.NopCloser(strings.NewReader("not json")))
	if err != nil {
		t.Fatalf("解析失败应转发后收尾: %v", err)
	}

	phases := pullPhases(t, sink.all())
	if phases[len(phases)-1] != protocol.PhasePullComplete {
		t.Errorf("解析失败后仍应发出 pull-complete，实际 %v", phases)
	}
}
