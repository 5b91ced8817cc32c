package setup

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/blakebrandon-hub/GH-Turn-based-Queue-Test/internal/domain"
	"github.com/blakebrandon-hub/GH-Turn-based-Queue-Test/internal/repository"
)

// MigrateDB 迁移全部数据库模式。
// 返回错误以便调用者知道迁移是否成功。
func MigrateDB(db *gorm.DB) error {
	if db == nil {
		return fmt.Errorf("cannot migrate database with nil DB connection")
	}

	err := db.AutoMigrate(
		&domain.User{},
		&domain.Room{},
		&domain.QueueItem{},
		&domain.TurnEntry{},
	)
	if err != nil {
		return fmt.Errorf("failed to auto-migrate tables: %w", err)
	}

	logrus.Info("Database migration completed successfully")
	return nil
}

// EnsureDefaultRoom 保证默认房间存在 (不变式：众所周知的默认房间总是存在)。
// 并发启动时的创建竞争通过唯一约束解决：冲突即视为他人已创建。
func EnsureDefaultRoom(ctx context.Context, roomRepo repository.RoomRepository) (*domain.Room, error) {
	room, err := roomRepo.FindByName(ctx, domain.DefaultRoomName)
	if err == nil {
		return room, nil
	}
	if !errors.Is(err, repository.ErrRoomNotFound) {
		return nil, fmt.Errorf("failed to look up default room: %w", err)
	}

	room = &domain.Room{Name: domain.DefaultRoomName, IsPrivate: false}
	err = roomRepo.Save(ctx, room)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateEntry) {
			// 竞争中落败，重新读取
			return roomRepo.FindByName(ctx, domain.DefaultRoomName)
		}
		return nil, fmt.Errorf("failed to create default room: %w", err)
	}
	logrus.WithField("room", room.Name).Info("Default room created")
	return room, nil
}
