package hub

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/blakebrandon-hub/GH-Turn-based-Queue-Test/internal/domain"
	"github.com/blakebrandon-hub/GH-Turn-based-Queue-Test/internal/repository/mocks"
	"github.com/blakebrandon-hub/GH-Turn-based-Queue-Test/internal/service"
)

func newTestHub() *Hub {
	roomRepo := new(mocks.RoomRepository)
	queueRepo := new(mocks.QueueItemRepository)
	turnRepo := new(mocks.TurnEntryRepository)

	roomRepo.On("FindByName", mock.Anything, mock.Anything).
		Return(&domain.Room{ID: 1, Name: domain.DefaultRoomName}, nil)
	queueRepo.On("ListOrdered", mock.Anything, mock.Anything).
		Return([]domain.QueueItem{}, nil)
	turnRepo.On("ListByRoom", mock.Anything, mock.Anything).
		Return([]domain.TurnEntry{}, nil)
	turnRepo.On("ReplaceForRoom", mock.Anything, mock.Anything, mock.Anything).
		Return(nil)

	turns := service.NewTurnRegistry(roomRepo, turnRepo)
	syncSvc := service.NewRoomSyncService(roomRepo, queueRepo, turns, service.NewRoomClock(), "Blake")
	return NewHub(syncSvc, service.NewChatService())
}

func testClient(h *Hub, username string) *Client {
	return NewClient(h, nil, service.Participant{Username: username}, domain.DefaultRoomName)
}

// 广播与断开并发交错时进程必须存活：任何失败只影响单个客户端。
func TestHub_BroadcastDuringDisconnectDoesNotPanic(t *testing.T) {
	h := newTestHub()

	done := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-done:
					return
				default:
					h.broadcastRoom(domain.DefaultRoomName, EventNewMessage, map[string]string{"text": "hi"})
				}
			}
		}()
	}

	for i := 0; i < 20000; i++ {
		c := testClient(h, "alice")
		h.addToRoom(c, domain.DefaultRoomName)
		h.removeFromRoom(c, domain.DefaultRoomName)
	}

	close(done)
	wg.Wait()
}

func TestClient_TrySendAfterCloseIsDropped(t *testing.T) {
	h := newTestHub()
	c := testClient(h, "alice")

	require.True(t, c.trySend([]byte("one")))

	c.closeSend()
	c.closeSend() // 幂等

	assert.False(t, c.trySend([]byte("two")), "关闭后发送应被静默丢弃")
}

func TestClient_TrySendDropsWhenBufferFull(t *testing.T) {
	h := newTestHub()
	c := testClient(h, "alice")

	for i := 0; i < cap(c.send); i++ {
		require.True(t, c.trySend([]byte("fill")))
	}

	assert.False(t, c.trySend([]byte("overflow")), "缓冲满时应丢弃而非阻塞")
}

func TestHub_RemoveFromRoomIsIdempotent(t *testing.T) {
	h := newTestHub()
	c := testClient(h, "alice")
	h.addToRoom(c, domain.DefaultRoomName)

	assert.True(t, h.removeFromRoom(c, domain.DefaultRoomName))
	assert.False(t, h.removeFromRoom(c, domain.DefaultRoomName), "重复移除应为 no-op")
}

func TestHub_RegisterQueuesRegistration(t *testing.T) {
	h := newTestHub()
	c := testClient(h, "alice")

	require.True(t, h.Register(c))

	msg := <-h.messageChan
	assert.Equal(t, messageRegister, msg.Type)
	assert.Same(t, c, msg.Client)
}
