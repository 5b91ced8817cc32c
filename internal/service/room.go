package service

import (
	"context"
	"errors"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/blakebrandon-hub/GH-Turn-based-Queue-Test/internal/domain"
	"github.com/blakebrandon-hub/GH-Turn-based-Queue-Test/internal/repository"
)

// MaxRoomNameLength 是房间名允许的最大长度
const MaxRoomNameLength = 24

// RoomService 负责房间管理相关的业务逻辑 (同步引擎之外的薄 CRUD 层)。
type RoomService struct {
	roomRepo repository.RoomRepository
}

// NewRoomService 创建 RoomService 实例
func NewRoomService(roomRepo repository.RoomRepository) *RoomService {
	if roomRepo == nil {
		panic("RoomRepository cannot be nil for RoomService")
	}
	return &RoomService{roomRepo: roomRepo}
}

// CreateRoom 创建一个新房间
func (s *RoomService) CreateRoom(ctx context.Context, name string, isPrivate bool, creator string) (*domain.Room, error) {
	logCtx := logrus.WithFields(logrus.Fields{"room": name, "creator": creator})

	name = strings.TrimSpace(name)
	if name == "" || len(name) > MaxRoomNameLength {
		return nil, ErrInvalidInput
	}

	room := &domain.Room{
		Name:      name,
		IsPrivate: isPrivate,
		CreatedBy: creator,
	}
	err := s.roomRepo.Save(ctx, room)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateEntry) {
			logCtx.Warn("RoomService.CreateRoom: room name already exists")
			return nil, ErrRoomNameTaken
		}
		logCtx.WithError(err).Error("RoomService.CreateRoom: failed to save room")
		return nil, ErrInternalServer
	}

	logCtx.WithField("room_id", room.ID).Info("Room created")
	return room, nil
}

// FindByName 根据房间名查找房间 (忽略大小写)
func (s *RoomService) FindByName(ctx context.Context, name string) (*domain.Room, error) {
	room, err := s.roomRepo.FindByName(ctx, name)
	if err != nil {
		if errors.Is(err, repository.ErrRoomNotFound) {
			return nil, ErrRoomNotFound
		}
		logrus.WithError(err).WithField("room", name).Error("RoomService.FindByName: repository error")
		return nil, ErrInternalServer
	}
	return room, nil
}

// ListPublic 返回所有公开房间
func (s *RoomService) ListPublic(ctx context.Context) ([]domain.Room, error) {
	rooms, err := s.roomRepo.FindPublic(ctx)
	if err != nil {
		logrus.WithError(err).Error("RoomService.ListPublic: repository error")
		return nil, ErrInternalServer
	}
	return rooms, nil
}

// DeleteRoom 删除房间及其级联数据；仅创建者或管理员可删除。
func (s *RoomService) DeleteRoom(ctx context.Context, name string, requester *domain.User) error {
	logCtx := logrus.WithFields(logrus.Fields{"room": name, "user": requester.Username})

	room, err := s.FindByName(ctx, name)
	if err != nil {
		return err
	}
	if !requester.IsAdmin && room.CreatedBy != requester.Username {
		logCtx.Warn("RoomService.DeleteRoom: permission denied")
		return ErrPermissionDenied
	}

	if err := s.roomRepo.Delete(ctx, room.ID); err != nil {
		logCtx.WithError(err).Error("RoomService.DeleteRoom: failed to delete room")
		return ErrInternalServer
	}
	logCtx.Info("Room deleted")
	return nil
}
