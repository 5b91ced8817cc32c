package gormpersistence

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/blakebrandon-hub/GH-Turn-based-Queue-Test/internal/domain"
)

// GormTurnEntryRepository 是 TurnEntryRepository 接口的 GORM 实现
type GormTurnEntryRepository struct {
	db *gorm.DB
}

// NewGormTurnEntryRepository 创建 GormTurnEntryRepository 实例
func NewGormTurnEntryRepository(db *gorm.DB) *GormTurnEntryRepository {
	if db == nil {
		panic("database connection cannot be nil for GormTurnEntryRepository")
	}
	return &GormTurnEntryRepository{db: db}
}

// ListByRoom 实现按 Position 升序返回房间的镜像条目
func (r *GormTurnEntryRepository) ListByRoom(ctx context.Context, roomID uint) ([]domain.TurnEntry, error) {
	var entries []domain.TurnEntry
	err := r.db.WithContext(ctx).Where("room_id = ?", roomID).Order("position").Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("gorm: list turn entries (room: %d): %w", roomID, err)
	}
	return entries, nil
}

// ReplaceForRoom 实现镜像的整体覆写：单事务内先删后插。
// 事务保证不会留下半写的镜像；即使留下了，下一次成功覆写也会自愈。
func (r *GormTurnEntryRepository) ReplaceForRoom(ctx context.Context, roomID uint, usernames []string) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("room_id = ?", roomID).Delete(&domain.TurnEntry{}).Error; err != nil {
			return err
		}
		if len(usernames) == 0 {
			return nil
		}
		entries := make([]domain.TurnEntry, 0, len(usernames))
		for position, username := range usernames {
			entries = append(entries, domain.TurnEntry{
				RoomID:   roomID,
				Username: username,
				Position: position,
			})
		}
		return tx.Create(&entries).Error
	})
	if err != nil {
		return fmt.Errorf("gorm: replace turn entries (room: %d): %w", roomID, err)
	}
	return nil
}
