// Package domain 定义了应用程序的核心数据结构 (数据库模型与值对象)。
package domain

import "time"

// User 表示注册用户。
type User struct {
	ID        uint      `gorm:"primaryKey"`                    // 用户唯一标识符 (主键)
	Username  string    `gorm:"uniqueIndex;size:150;not null"` // 用户名，唯一且非空，同时是回合队列中的身份
	Password  string    `gorm:"not null"`                      // bcrypt 哈希后的密码
	IsAdmin   bool      `gorm:"not null;default:false"`        // 全局管理员标志，可绕过回合限制
	CreatedAt time.Time `gorm:"autoCreateTime"`                // 记录创建时间 (GORM 自动填充)
}
