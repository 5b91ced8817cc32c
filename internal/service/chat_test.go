package service_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/blakebrandon-hub/GH-Turn-based-Queue-Test/internal/service"
)

func TestChatService_AppendAndHistory(t *testing.T) {
	chat := service.NewChatService()

	chat.Append("Main Room", "alice", "hello")
	chat.Append("Main Room", "", "bob joined the room") // 系统消息：Username 为空

	history := chat.History("Main Room")
	assert.Len(t, history, 2)
	assert.Equal(t, service.ChatMessage{Username: "alice", Text: "hello"}, history[0])
	assert.Empty(t, history[1].Username)
}

func TestChatService_HistoryIsPerRoom(t *testing.T) {
	chat := service.NewChatService()

	chat.Append("Main Room", "alice", "hello")

	assert.Empty(t, chat.History("Side Room"))
	// 房间名忽略大小写
	assert.Len(t, chat.History("main room"), 1)
}

func TestChatService_HistoryIsBounded(t *testing.T) {
	chat := service.NewChatService()

	for i := 0; i < 520; i++ {
		chat.Append("Main Room", "alice", fmt.Sprintf("msg %d", i))
	}

	history := chat.History("Main Room")
	assert.Len(t, history, 500, "超出上限时丢弃最旧的消息")
	assert.Equal(t, "msg 20", history[0].Text)
	assert.Equal(t, "msg 519", history[len(history)-1].Text)
}

func TestChatService_HistoryReturnsCopy(t *testing.T) {
	chat := service.NewChatService()
	chat.Append("Main Room", "alice", "hello")

	history := chat.History("Main Room")
	history[0].Text = "tampered"

	assert.Equal(t, "hello", chat.History("Main Room")[0].Text, "返回的历史应是副本")
}
