package service

import (
	"sync"
	"time"
)

// clockState 是单个房间的逻辑播放时钟：活跃视频 ID、已计入的基准偏移 (秒)、
// 以及可选的起播时刻。startedAt 为 nil 时时钟暂停在 base。
type clockState struct {
	videoID   string
	base      float64
	startedAt *time.Time
}

// RoomClock 维护每个房间的播放位置估计。
// 仅存在于内存中：进程重启后所有时钟归零暂停，这是可接受的限制。
// 时钟只度量"当前条目活跃了多少秒"，从不追踪条目内的 seek 位置。
type RoomClock struct {
	mu     sync.Mutex
	states map[string]*clockState
	now    func() time.Time // 可注入，便于测试
}

// NewRoomClock 创建 RoomClock 实例
func NewRoomClock() *RoomClock {
	return &RoomClock{
		states: make(map[string]*clockState),
		now:    time.Now,
	}
}

// Start 将房间时钟设置为从 base 开始运行，无条件覆盖之前的状态：
// 新条目开始播放总是重置该房间的时钟。
func (c *RoomClock) Start(room, videoID string, base float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	startedAt := c.now()
	c.states[roomKey(room)] = &clockState{videoID: videoID, base: base, startedAt: &startedAt}
}

// Pause 将房间时钟设置为"无活跃条目"：位置固定为 0。
// 在队列被清空时由协调器调用。
func (c *RoomClock) Pause(room string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.states[roomKey(room)] = &clockState{videoID: "", base: 0, startedAt: nil}
}

// PositionNow 返回房间当前的播放位置估计 (秒)。
// 没有时钟状态时返回 0；暂停时返回 base；运行时返回 base + 流逝时间。
func (c *RoomClock) PositionNow(room string) float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.states[roomKey(room)]
	if !ok {
		return 0
	}
	if s.startedAt == nil {
		return s.base
	}
	return s.base + c.now().Sub(*s.startedAt).Seconds()
}

// ActiveVideo 返回时钟记录的活跃视频 ID。
// 协调器用它做漂移检测：时钟记录的活跃条目与队列的实际活跃条目不一致时重启时钟。
func (c *RoomClock) ActiveVideo(room string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.states[roomKey(room)]
	if !ok {
		return "", false
	}
	return s.videoID, true
}
