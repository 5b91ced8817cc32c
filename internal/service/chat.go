package service

import "sync"

// maxChatHistory 限制每个房间保留的聊天记录条数，超出后丢弃最旧的。
const maxChatHistory = 500

// ChatMessage 是一条聊天消息；Username 为空表示系统消息 (加入/离开提示)。
type ChatMessage struct {
	Username string `json:"username"`
	Text     string `json:"text"`
}

// ChatService 维护每个房间的内存聊天记录。
// 纯内存，不持久化；重启即清空。消息只在房间内广播，不做任何协调。
type ChatService struct {
	mu       sync.Mutex
	messages map[string][]ChatMessage
}

// NewChatService 创建 ChatService 实例
func NewChatService() *ChatService {
	return &ChatService{messages: make(map[string][]ChatMessage)}
}

// Append 追加一条消息到房间的历史并返回它
func (s *ChatService) Append(room, username, text string) ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()

	msg := ChatMessage{Username: username, Text: text}
	key := roomKey(room)
	history := append(s.messages[key], msg)
	if len(history) > maxChatHistory {
		history = history[len(history)-maxChatHistory:]
	}
	s.messages[key] = history
	return msg
}

// History 返回房间聊天记录的副本，最旧的在前
func (s *ChatService) History(room string) []ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()

	history := s.messages[roomKey(room)]
	out := make([]ChatMessage, len(history))
	copy(out, history)
	return out
}
