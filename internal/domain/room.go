package domain

import "time"

// DefaultRoomName 是众所周知的默认房间，启动时必须存在。
const DefaultRoomName = "Main Room"

// Room 表示一个独立的协作会话：拥有自己的播放队列、回合顺序和时钟。
// 房间名唯一 (忽略大小写)，作为所有引擎操作的键。
type Room struct {
	ID        uint      `gorm:"primaryKey"`                   // 主键，自增
	Name      string    `gorm:"uniqueIndex;size:24;not null"` // 房间名，唯一且非空，最长 24 字符
	IsPrivate bool      `gorm:"not null;default:false"`       // 私有标志，仅影响房间列表展示
	CreatedBy string    `gorm:"size:150"`                     // 创建者用户名，创建者拥有本房间的管理权限
	CreatedAt time.Time `gorm:"autoCreateTime"`               // 创建时间
}
