package domain

// TurnEntry 是内存中回合 FIFO 的持久化镜像：(房间, 用户名, 位置) 三元组。
// 镜像在每次变更后被整体覆写 (先删后插)，因此 Position 只在重启恢复时用来排序，
// 进程存续期间内存副本才是权威数据。
type TurnEntry struct {
	ID       uint   `gorm:"primaryKey"`        // 主键，自增
	RoomID   uint   `gorm:"index;not null"`    // 所属房间 ID，带索引
	Username string `gorm:"size:150;not null"` // 参与者用户名
	Position int    `gorm:"not null"`          // 在 FIFO 中的位置，0 为队首
}
