package gormpersistence

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/blakebrandon-hub/GH-Turn-based-Queue-Test/internal/domain"
	"github.com/blakebrandon-hub/GH-Turn-based-Queue-Test/internal/repository"
)

// GormQueueItemRepository 是 QueueItemRepository 接口的 GORM 实现。
// 所有有序读取都显式按 id 排序，不信任任何其他位置字段。
type GormQueueItemRepository struct {
	db *gorm.DB
}

// NewGormQueueItemRepository 创建 GormQueueItemRepository 实例
func NewGormQueueItemRepository(db *gorm.DB) *GormQueueItemRepository {
	if db == nil {
		panic("database connection cannot be nil for GormQueueItemRepository")
	}
	return &GormQueueItemRepository{db: db}
}

// Append 实现在队列尾部插入条目 (ID 由数据库自增分配)
func (r *GormQueueItemRepository) Append(ctx context.Context, item *domain.QueueItem) error {
	if err := r.db.WithContext(ctx).Create(item).Error; err != nil {
		return fmt.Errorf("gorm: append queue item (room: %d): %w", item.RoomID, err)
	}
	return nil
}

// ActiveItem 实现查询房间内 ID 最小的条目；空队列返回 (nil, nil)
func (r *GormQueueItemRepository) ActiveItem(ctx context.Context, roomID uint) (*domain.QueueItem, error) {
	var item domain.QueueItem
	err := r.db.WithContext(ctx).Where("room_id = ?", roomID).Order("id").First(&item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil // 队列为空，不是错误
		}
		return nil, fmt.Errorf("gorm: find active queue item (room: %d): %w", roomID, err)
	}
	return &item, nil
}

// FindByID 实现根据条目 ID 查找条目，预加载贡献者
func (r *GormQueueItemRepository) FindByID(ctx context.Context, id uint) (*domain.QueueItem, error) {
	var item domain.QueueItem
	err := r.db.WithContext(ctx).Preload("User").First(&item, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrVideoNotFound
		}
		return nil, fmt.Errorf("gorm: find queue item by id %d: %w", id, err)
	}
	return &item, nil
}

// Delete 实现删除指定条目；条目不存在时静默成功
func (r *GormQueueItemRepository) Delete(ctx context.Context, id uint) error {
	if err := r.db.WithContext(ctx).Delete(&domain.QueueItem{}, id).Error; err != nil {
		return fmt.Errorf("gorm: delete queue item %d: %w", id, err)
	}
	return nil
}

// DeleteAllByRoom 实现删除房间的全部条目
func (r *GormQueueItemRepository) DeleteAllByRoom(ctx context.Context, roomID uint) error {
	if err := r.db.WithContext(ctx).Where("room_id = ?", roomID).Delete(&domain.QueueItem{}).Error; err != nil {
		return fmt.Errorf("gorm: clear queue (room: %d): %w", roomID, err)
	}
	return nil
}

// ListOrdered 实现按 ID 升序返回房间的全部条目，预加载贡献者
func (r *GormQueueItemRepository) ListOrdered(ctx context.Context, roomID uint) ([]domain.QueueItem, error) {
	var items []domain.QueueItem
	err := r.db.WithContext(ctx).Preload("User").Where("room_id = ?", roomID).Order("id").Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("gorm: list queue items (room: %d): %w", roomID, err)
	}
	return items, nil
}

// CountByRoom 实现统计房间的条目数量
func (r *GormQueueItemRepository) CountByRoom(ctx context.Context, roomID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.QueueItem{}).Where("room_id = ?", roomID).Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("gorm: count queue items (room: %d): %w", roomID, err)
	}
	return count, nil
}
