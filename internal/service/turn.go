package service

import (
	"context"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/blakebrandon-hub/GH-Turn-based-Queue-Test/internal/repository"
)

// TurnRegistry 维护每个房间的回合 FIFO：队首的参与者拥有添加下一个视频的权利。
//
// 每个房间的队列在首次访问时从镜像表懒加载，之后缓存在内存中直到进程退出。
// 每次变更都会同步地整体覆写持久化镜像 (先删后插)；覆写失败不回滚内存变更——
// 进程存续期间内存 FIFO 才是权威数据，持久化只是建议性的，失败的房间被标记为
// dirty，由后台任务重试，重启时恢复到最后一次成功落盘的状态。
type TurnRegistry struct {
	mu     sync.Mutex
	queues map[string][]string // 规范化房间名 -> FIFO，队首在前
	dirty  map[string]bool     // 镜像落后于内存副本的房间

	roomRepo repository.RoomRepository
	turnRepo repository.TurnEntryRepository
}

// NewTurnRegistry 创建 TurnRegistry 实例
func NewTurnRegistry(roomRepo repository.RoomRepository, turnRepo repository.TurnEntryRepository) *TurnRegistry {
	if roomRepo == nil {
		panic("RoomRepository cannot be nil for TurnRegistry")
	}
	if turnRepo == nil {
		panic("TurnEntryRepository cannot be nil for TurnRegistry")
	}
	return &TurnRegistry{
		queues:   make(map[string][]string),
		dirty:    make(map[string]bool),
		roomRepo: roomRepo,
		turnRepo: turnRepo,
	}
}

// roomKey 规范化房间名：房间名忽略大小写
func roomKey(room string) string {
	return strings.ToLower(room)
}

// queueFor 返回房间的 FIFO，必要时从镜像表懒加载。调用方必须持有 r.mu。
func (r *TurnRegistry) queueFor(ctx context.Context, room string) []string {
	key := roomKey(room)
	if q, ok := r.queues[key]; ok {
		return q
	}

	queue := []string{}
	roomData, err := r.roomRepo.FindByName(ctx, room)
	if err == nil {
		entries, err := r.turnRepo.ListByRoom(ctx, roomData.ID)
		if err != nil {
			// 加载失败时从空队列开始；镜像仅是建议性的
			logrus.WithError(err).WithField("room", room).Warn("TurnRegistry: failed to hydrate turn queue, starting empty")
		} else {
			for _, e := range entries {
				queue = append(queue, e.Username)
			}
		}
	}
	r.queues[key] = queue
	return queue
}

// Add 将参与者追加到队尾，已存在时为静默 no-op。
// 返回是否发生了变更。
func (r *TurnRegistry) Add(ctx context.Context, room, username string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	queue := r.queueFor(ctx, room)
	for _, u := range queue {
		if u == username {
			return false
		}
	}
	r.queues[roomKey(room)] = append(queue, username)
	r.flushLocked(ctx, room)
	return true
}

// Advance 消耗一个回合：队首旋转到队尾，返回新队首。
// 队列为空时返回 ("", false)。
func (r *TurnRegistry) Advance(ctx context.Context, room string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	queue := r.queueFor(ctx, room)
	if len(queue) == 0 {
		return "", false
	}
	head := queue[0]
	queue = append(queue[1:], head)
	r.queues[roomKey(room)] = queue
	r.flushLocked(ctx, room)
	return queue[0], true
}

// Remove 移除参与者的首次出现，无论其位置。
// 移除队首时无需补偿动作：新队首就是现在排在最前的元素。
func (r *TurnRegistry) Remove(ctx context.Context, room, username string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	queue := r.queueFor(ctx, room)
	for i, u := range queue {
		if u == username {
			queue = append(queue[:i], queue[i+1:]...)
			r.queues[roomKey(room)] = queue
			r.flushLocked(ctx, room)
			return true
		}
	}
	return false
}

// Current 返回队首的身份，队列为空时返回 ("", false)。
func (r *TurnRegistry) Current(ctx context.Context, room string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	queue := r.queueFor(ctx, room)
	if len(queue) == 0 {
		return "", false
	}
	return queue[0], true
}

// Snapshot 返回房间 FIFO 的副本，队首在前。
func (r *TurnRegistry) Snapshot(ctx context.Context, room string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	queue := r.queueFor(ctx, room)
	out := make([]string, len(queue))
	copy(out, queue)
	return out
}

// flushLocked 将房间的内存队列同步覆写到镜像表。调用方必须持有 r.mu。
// 失败被显式丢弃 (仅记录日志并标记 dirty)：可用性优先于镜像的新鲜度。
func (r *TurnRegistry) flushLocked(ctx context.Context, room string) {
	key := roomKey(room)
	roomData, err := r.roomRepo.FindByName(ctx, room)
	if err != nil {
		logrus.WithError(err).WithField("room", room).Warn("TurnRegistry: cannot resolve room for mirror flush")
		r.dirty[key] = true
		return
	}
	if err := r.turnRepo.ReplaceForRoom(ctx, roomData.ID, r.queues[key]); err != nil {
		logrus.WithError(err).WithField("room", room).Warn("TurnRegistry: turn mirror flush failed, in-memory copy stays authoritative")
		r.dirty[key] = true
		return
	}
	delete(r.dirty, key)
}

// FlushDirty 重试所有落盘失败房间的镜像覆写，由后台任务周期调用。
// 返回第一个仍然失败的错误 (如果有)，以便任务层决定是否重试。
func (r *TurnRegistry) FlushDirty(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var firstErr error
	for key := range r.dirty {
		roomData, err := r.roomRepo.FindByName(ctx, key)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if err := r.turnRepo.ReplaceForRoom(ctx, roomData.ID, r.queues[key]); err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		delete(r.dirty, key)
	}
	return firstErr
}
