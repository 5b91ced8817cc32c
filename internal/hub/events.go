package hub

import "encoding/json"

// 入站事件名 (客户端 -> 服务器)
const (
	EventJoinRoom    = "join_room"
	EventAddVideo    = "add_video"
	EventSkipSong    = "skip_song"
	EventClearQueue  = "clear_queue"
	EventVideoEnded  = "video_ended"
	EventRequestSync = "request_sync"
	EventChatMessage = "chat_message"
	EventRemoveVideo = "remove_video"
)

// 出站事件名 (服务器 -> 客户端)
const (
	EventRoomJoined  = "room_joined"
	EventSyncVideo   = "sync_video"
	EventVideoAdded  = "video_added"
	EventSkipVideo   = "skip_video"
	EventSync        = "sync"
	EventTurnUpdate  = "turn_update"
	EventTurnError   = "turn_error"
	EventUserJoined  = "user_joined"
	EventNewMessage  = "new_message"
	EventChatHistory = "chat_history"
	EventError       = "error"
)

// Envelope 是线上消息的统一封装：{"event": ..., "data": ...}。
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// encodeEvent 将事件封装序列化为线上字节。
// data 为 nil 时只携带事件名 (如 skip_video)。
func encodeEvent(event string, data interface{}) ([]byte, error) {
	out := struct {
		Event string      `json:"event"`
		Data  interface{} `json:"data,omitempty"`
	}{Event: event, Data: data}
	return json.Marshal(out)
}

// joinRoomPayload 是 join_room 事件的数据体
type joinRoomPayload struct {
	Room     string `json:"room"`
	Username string `json:"username"`
}

// addVideoPayload 是 add_video 事件的数据体
type addVideoPayload struct {
	Title   string `json:"title"`
	VideoID string `json:"video_id"`
}

// chatMessagePayload 是 chat_message 事件的数据体
type chatMessagePayload struct {
	Text     string `json:"text"`
	Username string `json:"username"`
}

// removeVideoPayload 是 remove_video 事件的数据体
type removeVideoPayload struct {
	VideoID uint `json:"video_id"`
}
