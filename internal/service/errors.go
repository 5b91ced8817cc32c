package service

import (
	"errors"
	"fmt"
)

var (
	ErrAuthenticationFailed = errors.New("authentication failed")
	ErrRegistrationFailed   = errors.New("registration failed: username already exists")
	ErrRoomNotFound         = errors.New("room not found")
	ErrRoomNameTaken        = errors.New("room name already exists")
	ErrVideoNotFound        = errors.New("video not found")
	ErrPermissionDenied     = errors.New("permission denied")
	ErrInvalidInput         = errors.New("invalid input")
	ErrInternalServer       = errors.New("internal server error")
)

// TurnViolationError 表示添加视频的准入请求被回合规则拒绝。
// 携带当前队首的身份，仅发回给违规的调用方，便于客户端渲染提示；
// 拒绝没有任何副作用：条目未创建，回合未推进。
type TurnViolationError struct {
	CurrentTurn string
}

func (e *TurnViolationError) Error() string {
	return fmt.Sprintf("turn violation: current turn belongs to %s", e.CurrentTurn)
}

// Message 返回适合直接展示给违规客户端的提示文本
func (e *TurnViolationError) Message() string {
	return fmt.Sprintf("Not your turn. It's %s's turn.", e.CurrentTurn)
}
