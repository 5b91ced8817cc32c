package gormpersistence

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm"

	"github.com/blakebrandon-hub/GH-Turn-based-Queue-Test/internal/domain"
	"github.com/blakebrandon-hub/GH-Turn-based-Queue-Test/internal/repository"
)

// GormRoomRepository 是 RoomRepository 接口的 GORM 实现
type GormRoomRepository struct {
	db *gorm.DB
}

// NewGormRoomRepository 创建 GormRoomRepository 实例
func NewGormRoomRepository(db *gorm.DB) *GormRoomRepository {
	if db == nil {
		panic("database connection cannot be nil for GormRoomRepository")
	}
	return &GormRoomRepository{db: db}
}

// FindByID 实现根据房间 ID 查找房间
func (r *GormRoomRepository) FindByID(ctx context.Context, id uint) (*domain.Room, error) {
	var room domain.Room
	err := r.db.WithContext(ctx).First(&room, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrRoomNotFound
		}
		return nil, fmt.Errorf("gorm: find room by id %d: %w", id, err)
	}
	return &room, nil
}

// FindByName 实现根据房间名查找房间 (忽略大小写)
func (r *GormRoomRepository) FindByName(ctx context.Context, name string) (*domain.Room, error) {
	var room domain.Room
	err := r.db.WithContext(ctx).Where("LOWER(name) = ?", strings.ToLower(name)).First(&room).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrRoomNotFound
		}
		return nil, fmt.Errorf("gorm: find room by name '%s': %w", name, err)
	}
	return &room, nil
}

// Save 实现保存房间信息 (创建或更新)
func (r *GormRoomRepository) Save(ctx context.Context, room *domain.Room) error {
	err := r.db.WithContext(ctx).Save(room).Error
	if err != nil {
		// 唯一约束检查 (MySQL 错误号 1062)
		var mysqlErr *mysql.MySQLError
		if errors.As(err, &mysqlErr) && mysqlErr.Number == 1062 {
			return repository.ErrDuplicateEntry
		}
		return fmt.Errorf("gorm: save room (id: %d, name: %s): %w", room.ID, room.Name, err)
	}
	return nil
}

// FindPublic 实现查询所有公开房间
func (r *GormRoomRepository) FindPublic(ctx context.Context) ([]domain.Room, error) {
	var rooms []domain.Room
	err := r.db.WithContext(ctx).Where("is_private = ?", false).Order("created_at").Find(&rooms).Error
	if err != nil {
		return nil, fmt.Errorf("gorm: find public rooms: %w", err)
	}
	return rooms, nil
}

// Delete 实现删除房间，并级联删除其队列条目与回合镜像 (单事务)
func (r *GormRoomRepository) Delete(ctx context.Context, id uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("room_id = ?", id).Delete(&domain.QueueItem{}).Error; err != nil {
			return err
		}
		if err := tx.Where("room_id = ?", id).Delete(&domain.TurnEntry{}).Error; err != nil {
			return err
		}
		return tx.Delete(&domain.Room{}, id).Error
	})
	if err != nil {
		return fmt.Errorf("gorm: delete room %d: %w", id, err)
	}
	return nil
}
