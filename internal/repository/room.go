package repository

import (
	"context"

	"github.com/blakebrandon-hub/GH-Turn-based-Queue-Test/internal/domain"
)

// RoomRepository 定义了房间数据的存储和检索操作。
// 引擎本身只读取房间；创建/删除属于外围管理流程。
type RoomRepository interface {
	// FindByID 根据房间 ID 查找房间。
	// 房间不存在时返回 ErrRoomNotFound。
	FindByID(ctx context.Context, id uint) (*domain.Room, error)

	// FindByName 根据房间名查找房间，忽略大小写。
	// 房间不存在时返回 ErrRoomNotFound。
	FindByName(ctx context.Context, name string) (*domain.Room, error)

	// Save 保存房间信息 (基于 ID 创建或更新)。
	// 房间名冲突时返回 ErrDuplicateEntry。
	Save(ctx context.Context, room *domain.Room) error

	// FindPublic 返回所有公开房间。
	FindPublic(ctx context.Context) ([]domain.Room, error)

	// Delete 删除房间及其级联数据 (队列条目与回合镜像)。
	Delete(ctx context.Context, id uint) error
}
