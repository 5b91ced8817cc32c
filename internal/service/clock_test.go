package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestClock 返回一个时间可控的 RoomClock
func newTestClock(start time.Time) (*RoomClock, *time.Time) {
	current := start
	clock := NewRoomClock()
	clock.now = func() time.Time { return current }
	return clock, &current
}

func TestRoomClock_PositionAdvancesWhileRunning(t *testing.T) {
	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	clock, current := newTestClock(base)

	clock.Start("Main Room", "dQw4w9WgXcQ", 0)
	assert.InDelta(t, 0, clock.PositionNow("Main Room"), 1e-9)

	*current = base.Add(42500 * time.Millisecond)
	assert.InDelta(t, 42.5, clock.PositionNow("Main Room"), 1e-9)
}

func TestRoomClock_StartOverwritesPreviousState(t *testing.T) {
	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	clock, current := newTestClock(base)

	clock.Start("Main Room", "first", 0)
	*current = base.Add(30 * time.Second)

	// 新条目开始播放：时钟无条件归零重启
	clock.Start("Main Room", "second", 0)
	assert.InDelta(t, 0, clock.PositionNow("Main Room"), 1e-9)

	videoID, ok := clock.ActiveVideo("Main Room")
	require.True(t, ok)
	assert.Equal(t, "second", videoID)
}

func TestRoomClock_PauseFreezesAtZero(t *testing.T) {
	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	clock, current := newTestClock(base)

	clock.Start("Main Room", "abc", 0)
	*current = base.Add(time.Minute)
	clock.Pause("Main Room")
	*current = base.Add(2 * time.Minute)

	assert.InDelta(t, 0, clock.PositionNow("Main Room"), 1e-9)
	videoID, ok := clock.ActiveVideo("Main Room")
	assert.True(t, ok)
	assert.Empty(t, videoID, "暂停后没有活跃条目")
}

func TestRoomClock_UnknownRoom(t *testing.T) {
	clock := NewRoomClock()

	assert.InDelta(t, 0, clock.PositionNow("never seen"), 1e-9)
	_, ok := clock.ActiveVideo("never seen")
	assert.False(t, ok)
}

func TestRoomClock_RoomNameCaseInsensitive(t *testing.T) {
	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	clock, _ := newTestClock(base)

	clock.Start("Main Room", "abc", 0)

	videoID, ok := clock.ActiveVideo("main room")
	require.True(t, ok)
	assert.Equal(t, "abc", videoID)
}
