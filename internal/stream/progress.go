package stream

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"time"

	"github.com/docker/docker/pkg/jsonmessage"
	"github.com/stevedore-dev/stevedore/internal/protocol"
	"go.uber.org/zap"
)

// StreamPull 把镜像拉取进度流转发给观察者
// 契约固定为三段：先发一条合成的 pull-start，逐条镜像上游进度，
// 上游结束后恰好发一条 pull-complete —— 即使上游一条进度都没有输出
func StreamPull(ctx context.Context, logger *zap.Logger, sink Sink, ref string, rc io.ReadCloser) error {
	defer rc.Close()

	start := protocol.PullProgress{
		Phase:       protocol.PhasePullStart,
		ResourceRef: ref,
		Timestamp:   time.Now().UnixMilli(),
	}
	if err := sink.Send(protocol.NewEnvelope(protocol.EventPullProgress, start)); err != nil {
		return err
	}

	dec := json.NewDecoder(rc)
	for {
		var msg jsonmessage.JSONMessage
		if err := dec.Decode(&msg); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			// 解析失败按上游错误转发，随后仍然走完成收尾
			logger.Warn("解析拉取进度失败", zap.String("ref", ref), zap.Error(err))
			_ = sink.Send(protocol.NewEnvelope(protocol.EventError, protocol.ErrorPayload{Message: err.Error()}))
			break
		}

		if msg.Error != nil {
			if err := sink.Send(protocol.NewEnvelope(protocol.EventError, protocol.ErrorPayload{Message: msg.Error.Message})); err != nil {
				return err
			}
			continue
		}

		chunk := protocol.PullProgress{
			Phase:       protocol.PhasePullProgress,
			ResourceRef: ref,
			ID:          msg.ID,
			Status:      msg.Status,
			Timestamp:   time.Now().UnixMilli(),
		}
		if msg.Progress != nil {
			chunk.Progress = msg.Progress.String()
			chunk.ProgressDetail = &protocol.ProgressDetail{
				Current: msg.Progress.Current,
				Total:   msg.Progress.Total,
			}
		}
		if err := sink.Send(protocol.NewEnvelope(protocol.EventPullProgress, chunk)); err != nil {
			return err
		}
	}

	complete := protocol.PullProgress{
		Phase:       protocol.PhasePullComplete,
		ResourceRef: ref,
		Timestamp:   time.Now().UnixMilli(),
	}
	return sink.Send(protocol.NewEnvelope(protocol.EventPullProgress, complete))
}
