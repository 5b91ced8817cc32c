package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/blakebrandon-hub/GH-Turn-based-Queue-Test/internal/domain"
	"github.com/blakebrandon-hub/GH-Turn-based-Queue-Test/internal/repository/mocks"
	"github.com/blakebrandon-hub/GH-Turn-based-Queue-Test/internal/service"
)

const testRoom = "Main Room"

// newTurnRegistry 构造一个镜像读写都成功的 TurnRegistry
func newTurnRegistry() (*service.TurnRegistry, *mocks.TurnEntryRepository) {
	roomRepo := new(mocks.RoomRepository)
	turnRepo := new(mocks.TurnEntryRepository)
	roomRepo.On("FindByName", mock.Anything, mock.Anything).
		Return(&domain.Room{ID: 1, Name: testRoom}, nil)
	turnRepo.On("ListByRoom", mock.Anything, uint(1)).
		Return([]domain.TurnEntry{}, nil)
	turnRepo.On("ReplaceForRoom", mock.Anything, uint(1), mock.Anything).
		Return(nil)
	return service.NewTurnRegistry(roomRepo, turnRepo), turnRepo
}

func TestTurnRegistry_Add_DuplicateIsNoop(t *testing.T) {
	registry, _ := newTurnRegistry()
	ctx := context.Background()

	assert.True(t, registry.Add(ctx, testRoom, "alice"), "首次加入应返回 true")
	assert.False(t, registry.Add(ctx, testRoom, "alice"), "重复加入应为 no-op")
	assert.Equal(t, []string{"alice"}, registry.Snapshot(ctx, testRoom))
}

func TestTurnRegistry_Advance_RotatesHeadToTail(t *testing.T) {
	registry, _ := newTurnRegistry()
	ctx := context.Background()
	registry.Add(ctx, testRoom, "alice")
	registry.Add(ctx, testRoom, "bob")
	registry.Add(ctx, testRoom, "carol")

	head, ok := registry.Advance(ctx, testRoom)

	require.True(t, ok)
	assert.Equal(t, "bob", head, "推进后新队首应为第二位参与者")
	assert.Equal(t, []string{"bob", "carol", "alice"}, registry.Snapshot(ctx, testRoom), "旧队首应旋转到队尾")
}

func TestTurnRegistry_Advance_SingleEntryRotatesToSelf(t *testing.T) {
	registry, _ := newTurnRegistry()
	ctx := context.Background()
	registry.Add(ctx, testRoom, "alice")

	head, ok := registry.Advance(ctx, testRoom)

	require.True(t, ok)
	assert.Equal(t, "alice", head, "唯一的参与者推进后仍是队首")
}

func TestTurnRegistry_Advance_EmptyQueue(t *testing.T) {
	registry, _ := newTurnRegistry()

	head, ok := registry.Advance(context.Background(), testRoom)

	assert.False(t, ok)
	assert.Empty(t, head)
}

func TestTurnRegistry_Remove_Head(t *testing.T) {
	registry, _ := newTurnRegistry()
	ctx := context.Background()
	registry.Add(ctx, testRoom, "alice")
	registry.Add(ctx, testRoom, "bob")
	registry.Add(ctx, testRoom, "carol")

	removed := registry.Remove(ctx, testRoom, "alice")

	assert.True(t, removed)
	// 无补偿动作：新队首就是原来的第二位
	assert.Equal(t, []string{"bob", "carol"}, registry.Snapshot(ctx, testRoom))
	current, ok := registry.Current(ctx, testRoom)
	require.True(t, ok)
	assert.Equal(t, "bob", current)
}

func TestTurnRegistry_Remove_Absent(t *testing.T) {
	registry, _ := newTurnRegistry()
	ctx := context.Background()
	registry.Add(ctx, testRoom, "alice")

	assert.False(t, registry.Remove(ctx, testRoom, "ghost"))
	assert.Equal(t, []string{"alice"}, registry.Snapshot(ctx, testRoom))
}

func TestTurnRegistry_RoomNameCaseInsensitive(t *testing.T) {
	registry, _ := newTurnRegistry()
	ctx := context.Background()

	registry.Add(ctx, "Main Room", "alice")

	assert.Equal(t, []string{"alice"}, registry.Snapshot(ctx, "main room"), "房间名应忽略大小写")
}

func TestTurnRegistry_MirrorFlushFailureIsSwallowed(t *testing.T) {
	// Arrange: 镜像覆写始终失败
	roomRepo := new(mocks.RoomRepository)
	turnRepo := new(mocks.TurnEntryRepository)
	roomRepo.On("FindByName", mock.Anything, mock.Anything).
		Return(&domain.Room{ID: 1, Name: testRoom}, nil)
	turnRepo.On("ListByRoom", mock.Anything, uint(1)).
		Return([]domain.TurnEntry{}, nil)
	turnRepo.On("ReplaceForRoom", mock.Anything, uint(1), mock.Anything).
		Return(errors.New("mysql is down"))
	registry := service.NewTurnRegistry(roomRepo, turnRepo)
	ctx := context.Background()

	// Act: 变更本身必须成功，镜像失败只影响持久化
	added := registry.Add(ctx, testRoom, "alice")

	// Assert: 内存副本是权威数据
	assert.True(t, added, "镜像失败不应影响内存变更")
	assert.Equal(t, []string{"alice"}, registry.Snapshot(ctx, testRoom))

	// 后台重试仍然失败时应把错误报告给任务层
	assert.Error(t, registry.FlushDirty(ctx))
}

func TestTurnRegistry_FlushDirty_RecoversMirror(t *testing.T) {
	// Arrange: 首次覆写失败，之后恢复
	roomRepo := new(mocks.RoomRepository)
	turnRepo := new(mocks.TurnEntryRepository)
	roomRepo.On("FindByName", mock.Anything, mock.Anything).
		Return(&domain.Room{ID: 1, Name: testRoom}, nil)
	turnRepo.On("ListByRoom", mock.Anything, uint(1)).
		Return([]domain.TurnEntry{}, nil)
	turnRepo.On("ReplaceForRoom", mock.Anything, uint(1), mock.Anything).
		Return(errors.New("mysql is down")).Once()
	turnRepo.On("ReplaceForRoom", mock.Anything, uint(1), []string{"alice"}).
		Return(nil).Once()
	registry := service.NewTurnRegistry(roomRepo, turnRepo)
	ctx := context.Background()

	registry.Add(ctx, testRoom, "alice") // 镜像落盘失败，房间标脏

	// Act + Assert: 重试成功后脏标记被清除，再次刷新无事可做
	require.NoError(t, registry.FlushDirty(ctx))
	require.NoError(t, registry.FlushDirty(ctx))
	turnRepo.AssertExpectations(t)
}

func TestTurnRegistry_HydratesFromMirror(t *testing.T) {
	// Arrange: 镜像表中已有历史顺序
	roomRepo := new(mocks.RoomRepository)
	turnRepo := new(mocks.TurnEntryRepository)
	roomRepo.On("FindByName", mock.Anything, mock.Anything).
		Return(&domain.Room{ID: 1, Name: testRoom}, nil)
	turnRepo.On("ListByRoom", mock.Anything, uint(1)).
		Return([]domain.TurnEntry{
			{RoomID: 1, Username: "bob", Position: 0},
			{RoomID: 1, Username: "alice", Position: 1},
		}, nil).Once()
	registry := service.NewTurnRegistry(roomRepo, turnRepo)

	// Act: 首次访问懒加载镜像
	snapshot := registry.Snapshot(context.Background(), testRoom)

	// Assert
	assert.Equal(t, []string{"bob", "alice"}, snapshot)
	turnRepo.AssertExpectations(t)
}
