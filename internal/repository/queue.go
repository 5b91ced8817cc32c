package repository

import (
	"context"

	"github.com/blakebrandon-hub/GH-Turn-based-Queue-Test/internal/domain"
)

// QueueItemRepository 定义了播放队列的持久化操作。
// 排序键始终是自增 ID：ID 最小的条目即当前活跃条目。
//
// 读操作假定的隔离级别：一致快照读即可，不要求可串行化；
// 与写入并发时出现毫秒级的陈旧读在本领域是可接受的。
type QueueItemRepository interface {
	// Append 在队列尾部插入一个条目 (ID 由存储分配)。
	// 写入失败时返回底层错误，调用方必须在广播前中止。
	Append(ctx context.Context, item *domain.QueueItem) error

	// ActiveItem 返回房间内 ID 最小的条目。
	// 队列为空时返回 (nil, nil)，空队列是正常状态而非错误。
	ActiveItem(ctx context.Context, roomID uint) (*domain.QueueItem, error)

	// FindByID 根据条目 ID 查找条目 (预加载贡献者)。
	// 条目不存在时返回 ErrVideoNotFound。
	FindByID(ctx context.Context, id uint) (*domain.QueueItem, error)

	// Delete 删除指定条目。条目已不存在时静默成功 (删除是幂等的)。
	Delete(ctx context.Context, id uint) error

	// DeleteAllByRoom 删除房间的全部条目。
	DeleteAllByRoom(ctx context.Context, roomID uint) error

	// ListOrdered 返回房间的全部条目，按 ID 升序 (最早的在前)，预加载贡献者。
	ListOrdered(ctx context.Context, roomID uint) ([]domain.QueueItem, error)

	// CountByRoom 返回房间的条目数量。
	CountByRoom(ctx context.Context, roomID uint) (int64, error)
}
