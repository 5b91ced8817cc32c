package domain

import "time"

// QueueItem 表示播放队列中的一个条目。
// 队列的唯一排序键是自增主键 ID：同一房间内 ID 最小的条目即"正在播放"的条目，
// 不存在单独的 now-playing 指针，活跃性由查询派生。
type QueueItem struct {
	ID            uint      `gorm:"primaryKey"`              // 主键，自增，同时是排序键
	RoomID        uint      `gorm:"index;not null"`          // 所属房间 ID，外键，带索引
	VideoURL      string    `gorm:"size:255;not null"`       // 规范化的可播放 URL
	VideoTitle    string    `gorm:"size:255"`                // 展示标题
	VideoDuration int       `gorm:"not null;default:0"`      // 时长 (秒)，来自客户端，可能为 0
	AddedBy       uint      `gorm:"index;not null"`          // 贡献者用户 ID，外键
	AddedAt       time.Time `gorm:"autoCreateTime"`          // 创建时间
	User          *User     `gorm:"foreignKey:AddedBy"`      // 贡献者关联，用于查询展示名
}
