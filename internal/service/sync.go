package service

import (
	"context"
	"errors"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/blakebrandon-hub/GH-Turn-based-Queue-Test/internal/domain"
	"github.com/blakebrandon-hub/GH-Turn-based-Queue-Test/internal/repository"
)

// Participant 标识一次连接背后的参与者。
type Participant struct {
	UserID   uint
	Username string
	IsAdmin  bool
}

// VideoRef 是队列快照中的单个条目 (遗留客户端格式)。
type VideoRef struct {
	VideoID string `json:"video_id"`
	Title   string `json:"title"`
}

// QueueSnapshot 是广播给客户端的队列快照：索引 -> 条目，0 为活跃条目。
type QueueSnapshot map[int]VideoRef

// TurnState 是广播用的回合状态：当前队首与完整顺序。
type TurnState struct {
	CurrentTurn string   `json:"current_turn"`
	TurnQueue   []string `json:"turn_queue"`
}

// JoinResult 汇总加入房间后发给加入者和房间的全部状态。
type JoinResult struct {
	Room         *domain.Room
	TurnAdded    bool // 是否为该身份新建了回合条目
	Turn         TurnState
	Queue        QueueSnapshot
	CurrentVideo string
}

// QueueUpdate 汇总一次队列变更后的广播状态。
type QueueUpdate struct {
	Room         string
	Queue        QueueSnapshot
	CurrentVideo string
	Turn         TurnState
}

// SyncState 是对 sync 请求的应答：当前位置、活跃视频与服务器时间戳。
type SyncState struct {
	Time         float64 `json:"time"`
	CurrentVideo string  `json:"current_video"`
	ServerTS     float64 `json:"server_ts"`
}

// RoomSyncService 是房间协调器：响应入站事件，统一变更回合注册表、
// 队列存储和房间时钟，并保证派生的广播状态与持久化状态一致。
//
// 并发模型：同一房间的所有变更操作通过 per-room 互斥锁串行化——单个事件
// (如 add_video) 同时触及回合、队列和时钟，必须作为一个原子步骤被广播观察到；
// 不同房间的操作完全并行，不存在跨房间协调，因此没有全局锁也没有死锁风险。
type RoomSyncService struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex // 规范化房间名 -> 房间锁

	roomRepo  repository.RoomRepository
	queueRepo repository.QueueItemRepository
	turns     *TurnRegistry
	clock     *RoomClock

	// 默认房间的指定主持人用户名 (可为空)，拥有默认房间的管理权限
	defaultModerator string
}

// NewRoomSyncService 创建 RoomSyncService 实例
func NewRoomSyncService(
	roomRepo repository.RoomRepository,
	queueRepo repository.QueueItemRepository,
	turns *TurnRegistry,
	clock *RoomClock,
	defaultModerator string,
) *RoomSyncService {
	if roomRepo == nil || queueRepo == nil {
		panic("repositories cannot be nil for RoomSyncService")
	}
	if turns == nil {
		panic("TurnRegistry cannot be nil for RoomSyncService")
	}
	if clock == nil {
		panic("RoomClock cannot be nil for RoomSyncService")
	}
	return &RoomSyncService{
		locks:            make(map[string]*sync.Mutex),
		roomRepo:         roomRepo,
		queueRepo:        queueRepo,
		turns:            turns,
		clock:            clock,
		defaultModerator: defaultModerator,
	}
}

// roomLock 返回房间的互斥锁，按需创建
func (s *RoomSyncService) roomLock(room string) *sync.Mutex {
	key := roomKey(room)
	s.mu.Lock()
	defer s.mu.Unlock()
	if lock, ok := s.locks[key]; ok {
		return lock
	}
	lock := &sync.Mutex{}
	s.locks[key] = lock
	return lock
}

// CanModerate 判断参与者是否拥有房间的管理权限：
// 全局管理员、房间创建者，或默认房间的指定主持人。
func (s *RoomSyncService) CanModerate(p Participant, room *domain.Room) bool {
	if p.IsAdmin {
		return true
	}
	if room.CreatedBy != "" && room.CreatedBy == p.Username {
		return true
	}
	if s.defaultModerator != "" && p.Username == s.defaultModerator &&
		strings.EqualFold(room.Name, domain.DefaultRoomName) {
		return true
	}
	return false
}

// findRoom 解析房间；默认房间缺失时自动创建 (不变式：默认房间总是存在)。
func (s *RoomSyncService) findRoom(ctx context.Context, name string) (*domain.Room, error) {
	room, err := s.roomRepo.FindByName(ctx, name)
	if err == nil {
		return room, nil
	}
	if !errors.Is(err, repository.ErrRoomNotFound) {
		logrus.WithError(err).WithField("room", name).Error("RoomSyncService: repository error resolving room")
		return nil, ErrInternalServer
	}
	if !strings.EqualFold(name, domain.DefaultRoomName) {
		return nil, ErrRoomNotFound
	}
	room = &domain.Room{Name: domain.DefaultRoomName, IsPrivate: false}
	if err := s.roomRepo.Save(ctx, room); err != nil {
		if errors.Is(err, repository.ErrDuplicateEntry) {
			return s.roomRepo.FindByName(ctx, name)
		}
		return nil, ErrInternalServer
	}
	return room, nil
}

// turnState 组装当前回合状态的广播形式
func (s *RoomSyncService) turnState(ctx context.Context, room string) TurnState {
	current, _ := s.turns.Current(ctx, room)
	return TurnState{
		CurrentTurn: current,
		TurnQueue:   s.turns.Snapshot(ctx, room),
	}
}

// queueSnapshot 从持久化队列组装遗留格式的快照，并返回活跃视频 ID
func (s *RoomSyncService) queueSnapshot(ctx context.Context, roomID uint) (QueueSnapshot, string, error) {
	items, err := s.queueRepo.ListOrdered(ctx, roomID)
	if err != nil {
		return nil, "", err
	}
	snapshot := make(QueueSnapshot, len(items))
	currentVideo := ""
	for i, item := range items {
		videoID := domain.ExtractVideoID(item.VideoURL)
		snapshot[i] = VideoRef{VideoID: videoID, Title: item.VideoTitle}
		if i == 0 {
			currentVideo = videoID
		}
	}
	return snapshot, currentVideo, nil
}

// Join 将参与者绑定到房间：懒创建回合条目，返回发给加入者的完整快照。
func (s *RoomSyncService) Join(ctx context.Context, roomName string, p Participant) (*JoinResult, error) {
	lock := s.roomLock(roomName)
	lock.Lock()
	defer lock.Unlock()

	room, err := s.findRoom(ctx, roomName)
	if err != nil {
		return nil, err
	}

	added := s.turns.Add(ctx, room.Name, p.Username)

	queue, currentVideo, err := s.queueSnapshot(ctx, room.ID)
	if err != nil {
		logrus.WithError(err).WithField("room", room.Name).Error("RoomSyncService.Join: failed to load queue snapshot")
		return nil, ErrInternalServer
	}

	logrus.WithFields(logrus.Fields{"room": room.Name, "username": p.Username, "turn_added": added}).
		Info("Participant joined room")

	return &JoinResult{
		Room:         room,
		TurnAdded:    added,
		Turn:         s.turnState(ctx, room.Name),
		Queue:        queue,
		CurrentVideo: currentVideo,
	}, nil
}

// AddVideo 处理 add_video 事件：执行准入检查，追加条目，必要时启动时钟，
// 并且总是推进回合——即使是管理员添加，也不允许任何身份无限期占据队首。
func (s *RoomSyncService) AddVideo(ctx context.Context, roomName string, p Participant, title, videoID string) (*QueueUpdate, error) {
	if title == "" || videoID == "" {
		return nil, ErrInvalidInput
	}

	lock := s.roomLock(roomName)
	lock.Lock()
	defer lock.Unlock()

	room, err := s.findRoom(ctx, roomName)
	if err != nil {
		return nil, err
	}
	logCtx := logrus.WithFields(logrus.Fields{"room": room.Name, "username": p.Username, "video_id": videoID})

	// 准入策略：管理权限无条件放行；否则只有队首可以添加；
	// 回合队列为空 (还没有人加入回合) 时不受限制。
	if !s.CanModerate(p, room) {
		if head, ok := s.turns.Current(ctx, room.Name); ok && head != p.Username {
			logCtx.WithField("current_turn", head).Info("Add rejected: not this participant's turn")
			return nil, &TurnViolationError{CurrentTurn: head}
		}
	}

	item := &domain.QueueItem{
		RoomID:     room.ID,
		VideoURL:   domain.WatchURL(videoID),
		VideoTitle: title,
		AddedBy:    p.UserID,
	}
	// 持久化失败必须在任何广播之前中止，客户端绝不能看到幻影条目。
	// 回合在写入成功之后才推进，因此这里没有需要回滚的副作用。
	if err := s.queueRepo.Append(ctx, item); err != nil {
		logCtx.WithError(err).Error("RoomSyncService.AddVideo: failed to persist queue item")
		return nil, ErrInternalServer
	}

	// 这是唯一的条目时播放从此刻开始：时钟从 0 启动
	count, err := s.queueRepo.CountByRoom(ctx, room.ID)
	if err != nil {
		logCtx.WithError(err).Warn("RoomSyncService.AddVideo: failed to count queue items")
	} else if count == 1 {
		s.clock.Start(room.Name, videoID, 0)
	}

	// 总是推进回合，管理员也不例外：否则管理员连续注入条目时
	// 永远不会让出队首，轮换公平性被破坏。
	s.turns.Advance(ctx, room.Name)

	queue, currentVideo, err := s.queueSnapshot(ctx, room.ID)
	if err != nil {
		logCtx.WithError(err).Error("RoomSyncService.AddVideo: failed to load queue snapshot")
		return nil, ErrInternalServer
	}

	logCtx.Info("Video added to queue")
	return &QueueUpdate{
		Room:         room.Name,
		Queue:        queue,
		CurrentVideo: currentVideo,
		Turn:         s.turnState(ctx, room.Name),
	}, nil
}

// removeActiveLocked 删除活跃条目并为新的活跃条目重启时钟 (或在队列清空时暂停)。
// skip 与自然播放结束共用这条路径，二者效果完全相同。调用方必须持有房间锁。
func (s *RoomSyncService) removeActiveLocked(ctx context.Context, room *domain.Room) (*QueueUpdate, error) {
	active, err := s.queueRepo.ActiveItem(ctx, room.ID)
	if err != nil {
		return nil, err
	}
	if active != nil {
		if err := s.queueRepo.Delete(ctx, active.ID); err != nil {
			return nil, err
		}
	}

	queue, currentVideo, err := s.queueSnapshot(ctx, room.ID)
	if err != nil {
		return nil, err
	}
	if currentVideo != "" {
		s.clock.Start(room.Name, currentVideo, 0)
	} else {
		s.clock.Pause(room.Name)
	}

	return &QueueUpdate{
		Room:         room.Name,
		Queue:        queue,
		CurrentVideo: currentVideo,
		Turn:         s.turnState(ctx, room.Name),
	}, nil
}

// Skip 处理 skip_song 事件：仅限管理权限，删除活跃条目并重启时钟。
func (s *RoomSyncService) Skip(ctx context.Context, roomName string, p Participant) (*QueueUpdate, error) {
	lock := s.roomLock(roomName)
	lock.Lock()
	defer lock.Unlock()

	room, err := s.findRoom(ctx, roomName)
	if err != nil {
		return nil, err
	}
	if !s.CanModerate(p, room) {
		return nil, ErrPermissionDenied
	}

	update, err := s.removeActiveLocked(ctx, room)
	if err != nil {
		logrus.WithError(err).WithField("room", room.Name).Error("RoomSyncService.Skip: failed to remove active item")
		return nil, ErrInternalServer
	}
	logrus.WithFields(logrus.Fields{"room": room.Name, "username": p.Username}).Info("Active video skipped")
	return update, nil
}

// VideoEnded 处理 video_ended 事件：效果与 skip 完全一致。
// 这是一个被信任的客户端报告，服务器不验证播放是否真正完成——已知的设计缺口，
// 而非静默修复的对象。
func (s *RoomSyncService) VideoEnded(ctx context.Context, roomName string) (*QueueUpdate, error) {
	lock := s.roomLock(roomName)
	lock.Lock()
	defer lock.Unlock()

	room, err := s.findRoom(ctx, roomName)
	if err != nil {
		return nil, err
	}
	update, err := s.removeActiveLocked(ctx, room)
	if err != nil {
		logrus.WithError(err).WithField("room", room.Name).Error("RoomSyncService.VideoEnded: failed to remove active item")
		return nil, ErrInternalServer
	}
	return update, nil
}

// RequestSync 处理 sync 请求：检测时钟漂移 (时钟记录的活跃条目与队列实际
// 活跃条目不一致时，为新条目从 0 重启时钟；队列为空时暂停)，返回当前位置。
func (s *RoomSyncService) RequestSync(ctx context.Context, roomName string) (*SyncState, error) {
	lock := s.roomLock(roomName)
	lock.Lock()
	defer lock.Unlock()

	room, err := s.findRoom(ctx, roomName)
	if err != nil {
		return nil, err
	}

	active, err := s.queueRepo.ActiveItem(ctx, room.ID)
	if err != nil {
		logrus.WithError(err).WithField("room", room.Name).Error("RoomSyncService.RequestSync: failed to load active item")
		return nil, ErrInternalServer
	}
	headID := ""
	if active != nil {
		headID = domain.ExtractVideoID(active.VideoURL)
	}

	recorded, exists := s.clock.ActiveVideo(room.Name)
	if headID != "" && (!exists || recorded != headID) {
		s.clock.Start(room.Name, headID, 0)
	} else if headID == "" {
		s.clock.Pause(room.Name)
	}

	return &SyncState{
		Time:         math.Round(s.clock.PositionNow(room.Name)*100) / 100,
		CurrentVideo: headID,
		ServerTS:     float64(time.Now().UnixNano()) / 1e9,
	}, nil
}

// RemoveVideo 删除指定条目，无论其位置；仅限贡献者本人或持有管理权限者。
// 返回删除后的队列状态用于广播。
func (s *RoomSyncService) RemoveVideo(ctx context.Context, videoID uint, p Participant) (*QueueUpdate, error) {
	item, err := s.queueRepo.FindByID(ctx, videoID)
	if err != nil {
		if errors.Is(err, repository.ErrVideoNotFound) {
			return nil, ErrVideoNotFound
		}
		logrus.WithError(err).WithField("video_id", videoID).Error("RoomSyncService.RemoveVideo: repository error")
		return nil, ErrInternalServer
	}
	room, err := s.roomRepo.FindByID(ctx, item.RoomID)
	if err != nil {
		if errors.Is(err, repository.ErrRoomNotFound) {
			return nil, ErrRoomNotFound
		}
		return nil, ErrInternalServer
	}

	if item.AddedBy != p.UserID && !s.CanModerate(p, room) {
		return nil, ErrPermissionDenied
	}

	lock := s.roomLock(room.Name)
	lock.Lock()
	defer lock.Unlock()

	// 删除是幂等的：条目在检查和删除之间消失时静默成功
	if err := s.queueRepo.Delete(ctx, item.ID); err != nil {
		logrus.WithError(err).WithField("video_id", videoID).Error("RoomSyncService.RemoveVideo: failed to delete item")
		return nil, ErrInternalServer
	}

	queue, currentVideo, err := s.queueSnapshot(ctx, room.ID)
	if err != nil {
		return nil, ErrInternalServer
	}
	logrus.WithFields(logrus.Fields{"room": room.Name, "video_id": videoID, "username": p.Username}).
		Info("Video removed from queue")
	return &QueueUpdate{
		Room:         room.Name,
		Queue:        queue,
		CurrentVideo: currentVideo,
		Turn:         s.turnState(ctx, room.Name),
	}, nil
}

// ClearQueue 删除房间的全部条目；仅限管理权限。
// 时钟不在这里变更：下一次 sync 请求的漂移检测会把它暂停。
func (s *RoomSyncService) ClearQueue(ctx context.Context, roomName string, p Participant) error {
	lock := s.roomLock(roomName)
	lock.Lock()
	defer lock.Unlock()

	room, err := s.findRoom(ctx, roomName)
	if err != nil {
		return err
	}
	if !s.CanModerate(p, room) {
		return ErrPermissionDenied
	}
	if err := s.queueRepo.DeleteAllByRoom(ctx, room.ID); err != nil {
		logrus.WithError(err).WithField("room", room.Name).Error("RoomSyncService.ClearQueue: failed to clear queue")
		return ErrInternalServer
	}
	logrus.WithFields(logrus.Fields{"room": room.Name, "username": p.Username}).Info("Queue cleared")
	return nil
}

// Disconnect 处理连接断开：将身份从房间的回合顺序中移除。
// 返回移除后的回合状态与是否发生了移除。
func (s *RoomSyncService) Disconnect(ctx context.Context, roomName string, p Participant) (TurnState, bool) {
	lock := s.roomLock(roomName)
	lock.Lock()
	defer lock.Unlock()

	removed := s.turns.Remove(ctx, roomName, p.Username)
	return s.turnState(ctx, roomName), removed
}

// QueueItems 返回房间的完整有序队列 (只读，供 HTTP 查询接口使用)。
// 一致快照读即可，与写入者并发调用是安全的。
func (s *RoomSyncService) QueueItems(ctx context.Context, roomName string) ([]domain.QueueItem, error) {
	room, err := s.findRoom(ctx, roomName)
	if err != nil {
		return nil, err
	}
	items, err := s.queueRepo.ListOrdered(ctx, room.ID)
	if err != nil {
		logrus.WithError(err).WithField("room", room.Name).Error("RoomSyncService.QueueItems: failed to list queue")
		return nil, ErrInternalServer
	}
	return items, nil
}
