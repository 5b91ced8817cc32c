package hub

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/blakebrandon-hub/GH-Turn-based-Queue-Test/internal/service"
)

// Client 代表一个连接到 Hub 的 WebSocket 客户端。
// 每个客户端对应会话目录中的一条绑定：(连接 -> 当前房间)。
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte // 向此客户端发送消息的缓冲通道

	participant service.Participant

	mu     sync.Mutex
	room   string // 当前绑定的房间名；只由 Hub 的事件处理更新
	closed bool   // send 通道是否已关闭；置位后 trySend 静默丢弃
}

// NewClient 创建 Client 实例。room 是连接时的初始绑定 (缺省为默认房间)。
func NewClient(hub *Hub, conn *websocket.Conn, participant service.Participant, room string) *Client {
	return &Client{
		hub:         hub,
		conn:        conn,
		send:        make(chan []byte, 256),
		participant: participant,
		room:        room,
	}
}

// Room 返回客户端当前绑定的房间名
func (c *Client) Room() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.room
}

func (c *Client) setRoom(room string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.room = room
}

// Participant 返回此连接背后的参与者身份
func (c *Client) Participant() service.Participant {
	return c.participant
}

// trySend 向客户端非阻塞投递一条已编码的消息。
// 通道已关闭或缓冲已满时丢弃并返回 false。
// 关闭检查和发送在同一把锁内完成：广播者不可能向已关闭的通道发送。
func (c *Client) trySend(message []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- message:
		return true
	default:
		return false
	}
}

// closeSend 关闭发送通道，通知 WritePump 退出。幂等。
func (c *Client) closeSend() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

// Run 启动客户端的读写 goroutine
func (c *Client) Run() {
	go c.WritePump()
	go c.ReadPump()
}

// CloseConn 直接关闭底层连接 (注册失败时的兜底)
func (c *Client) CloseConn() {
	c.conn.Close()
}

// ReadPump 将消息从 WebSocket 连接泵送到 Hub 的处理通道。
// 它在自己的 goroutine 中运行；退出时触发注销。
func (c *Client) ReadPump() {
	logCtx := logrus.WithFields(logrus.Fields{"username": c.participant.Username, "room": c.Room()})
	defer func() {
		unregisterMsg := HubMessage{Type: messageUnregister, Client: c}
		select {
		case c.hub.messageChan <- unregisterMsg:
		case <-time.After(1 * time.Second): // 防止 Hub 阻塞时泄漏 goroutine
			logCtx.Warn("Timeout sending unregister message to Hub channel")
		}
		c.conn.Close()
		logCtx.Debug("ReadPump exited, client unregistered")
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		messageType, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logCtx.WithError(err).Warn("WebSocket read error (unexpected close)")
			}
			break
		}
		if messageType != websocket.TextMessage {
			continue
		}

		eventMsg := HubMessage{Type: messageEvent, Client: c, RawData: message}
		// 非阻塞发送：Hub 处理不过来时丢弃，离线期间错过的状态由 sync 请求恢复
		select {
		case c.hub.messageChan <- eventMsg:
		default:
			logCtx.Warn("Hub message channel full, dropping client message")
		}
	}
}

// WritePump 将消息从 send 通道泵送到 WebSocket 连接，并定期发送 Ping。
// 它在自己的 goroutine 中运行。
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub 在注销时关闭了 send 通道
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				logrus.WithFields(logrus.Fields{"username": c.participant.Username}).
					WithError(err).Warn("Failed to write message to websocket")
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
