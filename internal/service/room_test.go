package service_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/blakebrandon-hub/GH-Turn-based-Queue-Test/internal/domain"
	"github.com/blakebrandon-hub/GH-Turn-based-Queue-Test/internal/repository"
	"github.com/blakebrandon-hub/GH-Turn-based-Queue-Test/internal/repository/mocks"
	"github.com/blakebrandon-hub/GH-Turn-based-Queue-Test/internal/service"
)

func TestRoomService_CreateRoom_Success(t *testing.T) {
	mockRoomRepo := new(mocks.RoomRepository)
	roomService := service.NewRoomService(mockRoomRepo)

	mockRoomRepo.On("Save", mock.Anything, mock.MatchedBy(func(room *domain.Room) bool {
		return room.Name == "Chill Lounge" && room.CreatedBy == "alice" && !room.IsPrivate
	})).
		Run(func(args mock.Arguments) {
			args.Get(1).(*domain.Room).ID = 3
		}).
		Return(nil).
		Once()

	room, err := roomService.CreateRoom(context.Background(), "  Chill Lounge  ", false, "alice")

	require.NoError(t, err)
	assert.Equal(t, uint(3), room.ID)
	assert.Equal(t, "Chill Lounge", room.Name, "房间名应去除首尾空白")
	mockRoomRepo.AssertExpectations(t)
}

func TestRoomService_CreateRoom_InvalidName(t *testing.T) {
	mockRoomRepo := new(mocks.RoomRepository)
	roomService := service.NewRoomService(mockRoomRepo)
	ctx := context.Background()

	_, err := roomService.CreateRoom(ctx, "   ", false, "alice")
	assert.True(t, errors.Is(err, service.ErrInvalidInput), "空房间名应被拒绝")

	_, err = roomService.CreateRoom(ctx, strings.Repeat("x", 25), false, "alice")
	assert.True(t, errors.Is(err, service.ErrInvalidInput), "超长房间名应被拒绝")

	mockRoomRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestRoomService_CreateRoom_NameTaken(t *testing.T) {
	mockRoomRepo := new(mocks.RoomRepository)
	roomService := service.NewRoomService(mockRoomRepo)

	mockRoomRepo.On("Save", mock.Anything, mock.AnythingOfType("*domain.Room")).
		Return(repository.ErrDuplicateEntry).
		Once()

	_, err := roomService.CreateRoom(context.Background(), "Main Room", false, "alice")

	assert.True(t, errors.Is(err, service.ErrRoomNameTaken))
	mockRoomRepo.AssertExpectations(t)
}

func TestRoomService_DeleteRoom_CreatorMayDelete(t *testing.T) {
	mockRoomRepo := new(mocks.RoomRepository)
	roomService := service.NewRoomService(mockRoomRepo)

	mockRoomRepo.On("FindByName", mock.Anything, "Side Room").
		Return(&domain.Room{ID: 2, Name: "Side Room", CreatedBy: "alice"}, nil).Once()
	mockRoomRepo.On("Delete", mock.Anything, uint(2)).Return(nil).Once()

	err := roomService.DeleteRoom(context.Background(), "Side Room", &domain.User{Username: "alice"})

	require.NoError(t, err)
	mockRoomRepo.AssertExpectations(t)
}

func TestRoomService_DeleteRoom_StrangerDenied(t *testing.T) {
	mockRoomRepo := new(mocks.RoomRepository)
	roomService := service.NewRoomService(mockRoomRepo)

	mockRoomRepo.On("FindByName", mock.Anything, "Side Room").
		Return(&domain.Room{ID: 2, Name: "Side Room", CreatedBy: "alice"}, nil).Once()

	err := roomService.DeleteRoom(context.Background(), "Side Room", &domain.User{Username: "mallory"})

	assert.True(t, errors.Is(err, service.ErrPermissionDenied))
	mockRoomRepo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestRoomService_DeleteRoom_AdminMayDeleteAny(t *testing.T) {
	mockRoomRepo := new(mocks.RoomRepository)
	roomService := service.NewRoomService(mockRoomRepo)

	mockRoomRepo.On("FindByName", mock.Anything, "Side Room").
		Return(&domain.Room{ID: 2, Name: "Side Room", CreatedBy: "alice"}, nil).Once()
	mockRoomRepo.On("Delete", mock.Anything, uint(2)).Return(nil).Once()

	err := roomService.DeleteRoom(context.Background(), "Side Room", &domain.User{Username: "root", IsAdmin: true})

	require.NoError(t, err)
	mockRoomRepo.AssertExpectations(t)
}
