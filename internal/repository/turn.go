package repository

import (
	"context"

	"github.com/blakebrandon-hub/GH-Turn-based-Queue-Test/internal/domain"
)

// TurnEntryRepository 定义了回合顺序镜像表的持久化操作。
// 镜像采用先删后插的整体覆写语义：写放大换取实现简单和崩溃自愈
// (写坏的镜像会在下一次成功覆写时恢复)。
type TurnEntryRepository interface {
	// ListByRoom 返回房间的镜像条目，按 Position 升序。
	ListByRoom(ctx context.Context, roomID uint) ([]domain.TurnEntry, error)

	// ReplaceForRoom 在单个事务内删除房间的全部镜像条目并按给定顺序重新插入。
	ReplaceForRoom(ctx context.Context, roomID uint, usernames []string) error
}
