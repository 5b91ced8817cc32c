package tasks

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

// 任务类型常量
const (
	// TypeTurnMirrorFlush 把内存中标脏的回合顺序刷回数据库镜像。
	// 镜像只保证最终一致：写入失败不回滚内存状态，由该周期任务补偿。
	TypeTurnMirrorFlush = "turn:flush_mirror"
)

// TurnMirrorFlushPayload 是回合镜像刷新任务的数据结构
type TurnMirrorFlushPayload struct {
	ScheduledAt time.Time `json:"scheduled_at"`
}

// NewTurnMirrorFlushTask 创建一个回合镜像刷新任务
func NewTurnMirrorFlushTask() (*asynq.Task, error) {
	payload, err := json.Marshal(TurnMirrorFlushPayload{ScheduledAt: time.Now()})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeTurnMirrorFlush, payload), nil
}
