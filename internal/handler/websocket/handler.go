package websocket

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/blakebrandon-hub/GH-Turn-based-Queue-Test/internal/domain"
	"github.com/blakebrandon-hub/GH-Turn-based-Queue-Test/internal/hub"
	"github.com/blakebrandon-hub/GH-Turn-based-Queue-Test/internal/service"
)

// WebSocketHandler 负责处理 WebSocket 升级请求和客户端注册
type WebSocketHandler struct {
	upgrader websocket.Upgrader
	hub      *hub.Hub
}

// NewWebSocketHandler 创建 WebSocketHandler 实例。
// allowedOrigin 为空时允许所有来源 (开发环境)。
func NewWebSocketHandler(h *hub.Hub, allowedOrigin string) *WebSocketHandler {
	if h == nil {
		panic("Hub cannot be nil for WebSocketHandler")
	}

	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if allowedOrigin == "" {
				return true
			}
			return r.Header.Get("Origin") == allowedOrigin
		},
	}

	return &WebSocketHandler{
		upgrader: upgrader,
		hub:      h,
	}
}

// HandleConnection 处理 WebSocket 连接请求。
// 可选的 ?room= 查询参数指定初始房间，缺省为默认房间；
// 客户端随后仍可通过 join_room 事件切换房间。
func (h *WebSocketHandler) HandleConnection(c *gin.Context) {
	// 1. 获取认证身份 (由 Auth 中间件设置)
	userIDAny, exists := c.Get("user_id")
	if !exists {
		logrus.Warn("WS Handler: User ID not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return // 此时还未升级到 WebSocket，返回 HTTP 错误
	}
	userID, ok := userIDAny.(uint)
	if !ok {
		logrus.Error("WS Handler: User ID in context is not uint")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	participant := service.Participant{
		UserID:   userID,
		Username: c.GetString("username"),
		IsAdmin:  c.GetBool("is_admin"),
	}
	logCtx := logrus.WithFields(logrus.Fields{"user_id": userID, "username": participant.Username})

	// 2. 确定初始房间
	room := c.Query("room")
	if room == "" {
		room = domain.DefaultRoomName
	}
	logCtx = logCtx.WithField("room", room)

	// 3. 升级 HTTP 连接到 WebSocket
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade 已自动发送 HTTP 错误响应，这里只记录日志
		logCtx.WithError(err).Error("WS Handler: Failed to upgrade connection")
		return
	}
	logCtx.Info("WS Handler: Connection upgraded to WebSocket")

	// 4. 创建 Client 并向 Hub 注册
	client := hub.NewClient(h.hub, conn, participant, room)
	if !h.hub.Register(client) {
		logCtx.Error("WS Handler: Hub message channel full, failed to register client")
		client.CloseConn()
		return
	}

	// 5. 启动客户端的读写 goroutine；后续通信由读写泵处理
	go client.Run()
}
