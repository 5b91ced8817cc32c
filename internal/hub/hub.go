// Package hub 维护活跃的 WebSocket 连接集合，按房间组织，
// 并把入站事件分发给房间协调器。它同时充当会话目录 (连接 -> 房间绑定)
// 和事件广播器 (fire-and-forget，至多一次，不重放)。
package hub

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/blakebrandon-hub/GH-Turn-based-Queue-Test/internal/service"
)

// 包级别的 WebSocket 常量
const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 4096
)

// HubMessage 类型
const (
	messageRegister   = "register"
	messageUnregister = "unregister"
	messageEvent      = "event"
)

// HubMessage 是 Hub 内部通道传递的消息
type HubMessage struct {
	Type    string
	Client  *Client
	RawData []byte // 仅用于 event：原始 WebSocket 消息
}

// Hub 维护活跃客户端集合并协调事件处理
type Hub struct {
	messageChan chan HubMessage

	// 客户端集合，按规范化房间名组织：这就是会话目录
	rooms   map[string]map[*Client]bool
	roomsMu sync.RWMutex

	syncService *service.RoomSyncService
	chatService *service.ChatService
}

// NewHub 创建并返回 Hub 实例
func NewHub(syncService *service.RoomSyncService, chatService *service.ChatService) *Hub {
	if syncService == nil {
		panic("RoomSyncService cannot be nil for Hub")
	}
	if chatService == nil {
		panic("ChatService cannot be nil for Hub")
	}
	return &Hub{
		messageChan: make(chan HubMessage, 512),
		rooms:       make(map[string]map[*Client]bool),
		syncService: syncService,
		chatService: chatService,
	}
}

func hubRoomKey(room string) string {
	return strings.ToLower(room)
}

// Run 启动 Hub 的主事件处理循环，应在单独的 goroutine 中运行。
func (h *Hub) Run() {
	log := logrus.WithField("component", "hub")
	log.Info("Hub is running...")

	for msg := range h.messageChan {
		switch msg.Type {
		case messageRegister:
			h.registerClient(msg.Client)
		case messageUnregister:
			h.unregisterClient(msg.Client)
		case messageEvent:
			// 异步处理，避免阻塞 Hub 主循环；
			// 同一房间的变更由协调器的房间锁串行化
			go h.handleClientEvent(msg.Client, msg.RawData)
		default:
			log.Warnf("Received unknown hub message type: %s", msg.Type)
		}
	}
	log.Info("Hub is shutting down...")
}

// QueueMessage 将消息放入 Hub 的处理队列 (非阻塞)。
// 返回 false 表示队列已满，消息被丢弃。
func (h *Hub) QueueMessage(msg HubMessage) bool {
	select {
	case h.messageChan <- msg:
		return true
	default:
		logrus.WithField("message_type", msg.Type).Warn("Hub message channel full, dropping message")
		return false
	}
}

// Register 将连接注册消息放入 Hub 的处理队列 (非阻塞)。
// 返回 false 表示队列已满，调用方应当关闭连接。
func (h *Hub) Register(client *Client) bool {
	return h.QueueMessage(HubMessage{Type: messageRegister, Client: client})
}

// RoomOccupancy 返回当前绑定到房间的连接数 (供房间列表展示)
func (h *Hub) RoomOccupancy(room string) int {
	h.roomsMu.RLock()
	defer h.roomsMu.RUnlock()
	return len(h.rooms[hubRoomKey(room)])
}

// --- 注册 / 注销 ---

// registerClient 处理连接建立：绑定到初始房间并执行加入流程。
// 连接事件只向加入者发送房间快照；完整的 join_room 事件由客户端随后显式发送。
func (h *Hub) registerClient(client *Client) {
	if client == nil {
		logrus.Error("Hub: attempted to register a nil client")
		return
	}
	p := client.Participant()
	logCtx := logrus.WithFields(logrus.Fields{"username": p.Username, "room": client.Room()})

	ctx := context.Background()
	result, err := h.syncService.Join(ctx, client.Room(), p)
	if err != nil {
		logCtx.WithError(err).Error("Hub: failed to join room on connect")
		h.sendToClient(client, EventError, map[string]interface{}{"message": "Failed to join room"})
		// 仍然注册连接：客户端可以用 join_room 重试
	}

	room := client.Room()
	if result != nil {
		room = result.Room.Name
		client.setRoom(room)
	}
	h.addToRoom(client, room)
	logCtx.Info("Client registered to Hub")

	if result != nil {
		h.sendToClient(client, EventRoomJoined, map[string]interface{}{
			"room":         result.Room.Name,
			"username":     p.Username,
			"is_private":   result.Room.IsPrivate,
			"current_turn": result.Turn.CurrentTurn,
			"turn_queue":   result.Turn.TurnQueue,
		})
		if result.TurnAdded {
			h.broadcastTurnUpdate(room, result.Turn)
		}
	}
}

// unregisterClient 处理连接断开：解除会话绑定并把身份移出回合顺序。
// 断开期间在途的变更不会失效：幸存的会话会在下一次广播中看到它。
func (h *Hub) unregisterClient(client *Client) {
	if client == nil {
		return
	}
	p := client.Participant()
	room := client.Room()
	logCtx := logrus.WithFields(logrus.Fields{"username": p.Username, "room": room})

	if !h.removeFromRoom(client, room) {
		return // 已经注销过
	}
	logCtx.Info("Client unregistered from Hub")

	ctx := context.Background()
	turn, removed := h.syncService.Disconnect(ctx, room, p)
	if removed {
		leaveMsg := h.chatService.Append(room, "", p.Username+" left the room")
		h.broadcastRoom(room, EventNewMessage, leaveMsg)
	}
	h.broadcastTurnUpdate(room, turn)
}

// addToRoom 将客户端加入房间的连接集合
func (h *Hub) addToRoom(client *Client, room string) {
	key := hubRoomKey(room)
	h.roomsMu.Lock()
	defer h.roomsMu.Unlock()
	if _, ok := h.rooms[key]; !ok {
		h.rooms[key] = make(map[*Client]bool)
	}
	h.rooms[key][client] = true
}

// removeFromRoom 将客户端移出房间的连接集合并关闭其发送通道。
// 返回是否确实发生了移除。
func (h *Hub) removeFromRoom(client *Client, room string) bool {
	key := hubRoomKey(room)
	h.roomsMu.Lock()
	defer h.roomsMu.Unlock()

	roomClients, ok := h.rooms[key]
	if !ok {
		return false
	}
	if _, ok := roomClients[client]; !ok {
		return false
	}
	delete(roomClients, client)
	client.closeSend()
	if len(roomClients) == 0 {
		delete(h.rooms, key)
	}
	return true
}

// rebindRoom 在显式 join_room 时把客户端从旧房间的集合移到新房间。
// 与注销不同，发送通道保持打开。
func (h *Hub) rebindRoom(client *Client, newRoom string) {
	oldKey := hubRoomKey(client.Room())
	newKey := hubRoomKey(newRoom)
	if oldKey == newKey {
		client.setRoom(newRoom)
		return
	}

	h.roomsMu.Lock()
	if roomClients, ok := h.rooms[oldKey]; ok {
		delete(roomClients, client)
		if len(roomClients) == 0 {
			delete(h.rooms, oldKey)
		}
	}
	if _, ok := h.rooms[newKey]; !ok {
		h.rooms[newKey] = make(map[*Client]bool)
	}
	h.rooms[newKey][client] = true
	h.roomsMu.Unlock()

	client.setRoom(newRoom)
}

// --- 事件分发 ---

// handleClientEvent 解析并处理一条入站事件
func (h *Hub) handleClientEvent(client *Client, raw []byte) {
	var envelope Envelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		logrus.WithError(err).Debug("Hub: dropping malformed client message")
		return
	}

	ctx := context.Background()
	switch envelope.Event {
	case EventJoinRoom:
		h.handleJoinRoom(ctx, client, envelope.Data)
	case EventAddVideo:
		h.handleAddVideo(ctx, client, envelope.Data)
	case EventSkipSong:
		h.handleSkipSong(ctx, client)
	case EventClearQueue:
		h.handleClearQueue(ctx, client)
	case EventVideoEnded:
		h.handleVideoEnded(ctx, client)
	case EventRequestSync:
		h.handleRequestSync(ctx, client)
	case EventChatMessage:
		h.handleChatMessage(client, envelope.Data)
	case EventRemoveVideo:
		h.handleRemoveVideo(ctx, client, envelope.Data)
	default:
		logrus.WithField("event", envelope.Event).Debug("Hub: unknown client event")
	}
}

// handleJoinRoom 处理显式加入房间：重新绑定会话并发送完整快照。
func (h *Hub) handleJoinRoom(ctx context.Context, client *Client, data json.RawMessage) {
	var payload joinRoomPayload
	_ = json.Unmarshal(data, &payload)
	// 身份始终取认证后的参与者；载荷中的 username 仅为遗留客户端兼容
	p := client.Participant()

	result, err := h.syncService.Join(ctx, payload.Room, p)
	if err != nil {
		if errors.Is(err, service.ErrRoomNotFound) {
			h.sendToClient(client, EventError, map[string]interface{}{"message": "Room not found"})
		} else {
			h.sendToClient(client, EventError, map[string]interface{}{"message": "Failed to join room"})
		}
		return
	}
	room := result.Room.Name
	h.rebindRoom(client, room)

	h.sendToClient(client, EventChatHistory, h.chatService.History(room))
	h.sendToClient(client, EventSyncVideo, map[string]interface{}{
		"video_queue":   result.Queue,
		"time":          0,
		"current_video": result.CurrentVideo,
	})
	h.sendToClient(client, EventRoomJoined, map[string]interface{}{
		"room":         room,
		"username":     p.Username,
		"is_private":   result.Room.IsPrivate,
		"current_turn": result.Turn.CurrentTurn,
		"turn_queue":   result.Turn.TurnQueue,
	})

	joinMsg := h.chatService.Append(room, "", p.Username+" joined the room")
	h.broadcastRoom(room, EventNewMessage, joinMsg)
	h.broadcastRoom(room, EventUserJoined, map[string]interface{}{
		"username":     p.Username,
		"current_turn": result.Turn.CurrentTurn,
		"turn_queue":   result.Turn.TurnQueue,
	})
	if result.TurnAdded {
		h.broadcastTurnUpdate(room, result.Turn)
	}
}

// handleAddVideo 处理添加视频：队列快照和回合更新按此顺序广播，
// 回合违规只发回给违规的调用方。
func (h *Hub) handleAddVideo(ctx context.Context, client *Client, data json.RawMessage) {
	var payload addVideoPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return
	}

	update, err := h.syncService.AddVideo(ctx, client.Room(), client.Participant(), payload.Title, payload.VideoID)
	if err != nil {
		var violation *service.TurnViolationError
		if errors.As(err, &violation) {
			h.sendToClient(client, EventTurnError, map[string]interface{}{"message": violation.Message()})
			return
		}
		if errors.Is(err, service.ErrInvalidInput) {
			return
		}
		h.sendToClient(client, EventError, map[string]interface{}{"message": "Failed to add video"})
		return
	}

	h.broadcastRoom(update.Room, EventVideoAdded, update.Queue)
	h.broadcastTurnUpdate(update.Room, update.Turn)
}

// handleSkipSong 处理跳过：权限不足只通知调用方，不广播。
func (h *Hub) handleSkipSong(ctx context.Context, client *Client) {
	update, err := h.syncService.Skip(ctx, client.Room(), client.Participant())
	if err != nil {
		if errors.Is(err, service.ErrPermissionDenied) {
			h.sendToClient(client, EventError, map[string]interface{}{"message": "Permission denied"})
		}
		return
	}
	h.broadcastRoom(update.Room, EventVideoAdded, update.Queue)
	h.broadcastRoom(update.Room, EventSkipVideo, nil)
}

// handleClearQueue 处理清空队列 (仅限管理权限)
func (h *Hub) handleClearQueue(ctx context.Context, client *Client) {
	err := h.syncService.ClearQueue(ctx, client.Room(), client.Participant())
	if err != nil {
		if errors.Is(err, service.ErrPermissionDenied) {
			h.sendToClient(client, EventError, map[string]interface{}{"message": "Permission denied"})
		}
		return
	}
	h.broadcastRoom(client.Room(), EventClearQueue, nil)
}

// handleVideoEnded 处理客户端报告的播放结束：效果与跳过一致，
// 广播结束信号和一份新鲜的同步快照。
func (h *Hub) handleVideoEnded(ctx context.Context, client *Client) {
	update, err := h.syncService.VideoEnded(ctx, client.Room())
	if err != nil {
		return
	}
	h.broadcastRoom(update.Room, EventVideoEnded, nil)
	h.broadcastRoom(update.Room, EventSyncVideo, map[string]interface{}{
		"video_queue":   update.Queue,
		"time":          0,
		"current_video": update.CurrentVideo,
	})
}

// handleRequestSync 处理同步请求：只应答请求者
func (h *Hub) handleRequestSync(ctx context.Context, client *Client) {
	state, err := h.syncService.RequestSync(ctx, client.Room())
	if err != nil {
		return
	}
	h.sendToClient(client, EventSync, state)
}

// handleChatMessage 处理聊天消息：直通聊天服务，无协调
func (h *Hub) handleChatMessage(client *Client, data json.RawMessage) {
	var payload chatMessagePayload
	if err := json.Unmarshal(data, &payload); err != nil || payload.Text == "" {
		return
	}
	username := payload.Username
	if username == "" {
		username = client.Participant().Username
	}
	room := client.Room()
	msg := h.chatService.Append(room, username, payload.Text)
	h.broadcastRoom(room, EventNewMessage, msg)
}

// handleRemoveVideo 处理删除指定条目 (贡献者本人或管理权限)
func (h *Hub) handleRemoveVideo(ctx context.Context, client *Client, data json.RawMessage) {
	var payload removeVideoPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return
	}
	update, err := h.syncService.RemoveVideo(ctx, payload.VideoID, client.Participant())
	if err != nil {
		if errors.Is(err, service.ErrPermissionDenied) {
			h.sendToClient(client, EventError, map[string]interface{}{"message": "Permission denied"})
		}
		return
	}
	h.broadcastRoom(update.Room, EventVideoAdded, update.Queue)
}

// --- 广播 ---

func (h *Hub) broadcastTurnUpdate(room string, turn service.TurnState) {
	h.broadcastRoom(room, EventTurnUpdate, map[string]interface{}{
		"current_turn": turn.CurrentTurn,
		"turn_queue":   turn.TurnQueue,
	})
}

// BroadcastQueueUpdate 把一次队列变更广播到房间 (供 HTTP 侧的删除接口复用)
func (h *Hub) BroadcastQueueUpdate(update *service.QueueUpdate) {
	if update == nil {
		return
	}
	h.broadcastRoom(update.Room, EventVideoAdded, update.Queue)
}

// broadcastRoom 将事件发送给房间内的所有客户端。
// 投递是 fire-and-forget 的：每次调用至多一次，无确认无重放；
// 单个慢客户端不会阻塞广播 (非阻塞发送，缓冲满即丢弃)。
func (h *Hub) broadcastRoom(room, event string, data interface{}) {
	message, err := encodeEvent(event, data)
	if err != nil {
		logrus.WithError(err).WithField("event", event).Error("Hub: failed to marshal broadcast message")
		return
	}

	h.roomsMu.RLock()
	roomClients := h.rooms[hubRoomKey(room)]
	clients := make([]*Client, 0, len(roomClients))
	for client := range roomClients {
		clients = append(clients, client)
	}
	h.roomsMu.RUnlock()

	for _, client := range clients {
		if !client.trySend(message) {
			logrus.WithFields(logrus.Fields{"event": event, "username": client.Participant().Username}).
				Warn("Client unreachable during broadcast (buffer full or closing), skipping")
		}
	}
}

// sendToClient 将事件发送给单个客户端 (fire-and-forget)
func (h *Hub) sendToClient(client *Client, event string, data interface{}) {
	message, err := encodeEvent(event, data)
	if err != nil {
		logrus.WithError(err).WithField("event", event).Error("Hub: failed to marshal client message")
		return
	}
	if !client.trySend(message) {
		logrus.WithField("event", event).Warn("Client unreachable (buffer full or closing), message dropped")
	}
}
