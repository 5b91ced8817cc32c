package worker

import (
	"context"
	"encoding/json"

	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"

	"github.com/blakebrandon-hub/GH-Turn-based-Queue-Test/internal/service"
	"github.com/blakebrandon-hub/GH-Turn-based-Queue-Test/internal/tasks"
)

// TurnMirrorFlushHandler 处理回合镜像刷新任务：
// 把内存回合注册表中标脏的房间重新写入数据库镜像。
type TurnMirrorFlushHandler struct {
	turns *service.TurnRegistry
}

// NewTurnMirrorFlushHandler 创建 Handler 实例
func NewTurnMirrorFlushHandler(turns *service.TurnRegistry) *TurnMirrorFlushHandler {
	if turns == nil {
		panic("TurnRegistry cannot be nil for TurnMirrorFlushHandler")
	}
	return &TurnMirrorFlushHandler{turns: turns}
}

// ProcessTask 实现 asynq.Handler 接口
func (h *TurnMirrorFlushHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	logCtx := logrus.WithField("task_type", t.Type())

	var payload tasks.TurnMirrorFlushPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		// 载荷损坏无法通过重试修复；下一个周期任务会重新覆盖
		logCtx.WithError(err).Error("Failed to unmarshal task payload")
		return asynq.SkipRetry
	}

	if err := h.turns.FlushDirty(ctx); err != nil {
		logCtx.WithError(err).Warn("Turn mirror flush incomplete, will retry")
		return err
	}
	logCtx.Debug("Turn mirror flush completed")
	return nil
}
