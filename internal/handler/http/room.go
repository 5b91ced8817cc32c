package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/blakebrandon-hub/GH-Turn-based-Queue-Test/internal/domain"
	"github.com/blakebrandon-hub/GH-Turn-based-Queue-Test/internal/hub"
	"github.com/blakebrandon-hub/GH-Turn-based-Queue-Test/internal/service"
)

// RoomHandler 封装了房间管理相关的 HTTP 处理逻辑
type RoomHandler struct {
	roomService *service.RoomService
	hub         *hub.Hub
}

// NewRoomHandler 创建 RoomHandler 实例
func NewRoomHandler(roomService *service.RoomService, h *hub.Hub) *RoomHandler {
	return &RoomHandler{roomService: roomService, hub: h}
}

// CreateRoomRequest 定义创建房间请求的结构体
type CreateRoomRequest struct {
	Name      string `json:"name" binding:"required"`
	IsPrivate bool   `json:"is_private"`
}

// RoomResponse 是房间列表中的单个条目，带当前在线人数
type RoomResponse struct {
	Name      string `json:"name"`
	CreatedBy string `json:"created_by"`
	Occupants int    `json:"occupants"`
}

// Create 处理创建房间请求
func (h *RoomHandler) Create(c *gin.Context) {
	var req CreateRoomRequest
	// 1. 绑定并验证输入 JSON
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "Invalid input: room name required")
		return
	}

	username := c.GetString("username")
	logCtx := logrus.WithFields(logrus.Fields{"room": req.Name, "username": username})

	// 2. 调用 Service 层创建房间
	room, err := h.roomService.CreateRoom(c.Request.Context(), req.Name, req.IsPrivate, username)
	if err != nil {
		logCtx.WithError(err).Warn("Handler.CreateRoom: failed")
		HandleServiceError(c, err)
		return
	}

	logCtx.WithField("room_id", room.ID).Info("Handler.CreateRoom: room created")
	SuccessResponse(c, http.StatusCreated, gin.H{
		"message":    "Room created successfully",
		"name":       room.Name,
		"is_private": room.IsPrivate,
	})
}

// List 返回所有公开房间及其在线人数
func (h *RoomHandler) List(c *gin.Context) {
	rooms, err := h.roomService.ListPublic(c.Request.Context())
	if err != nil {
		HandleServiceError(c, err)
		return
	}

	out := make([]RoomResponse, 0, len(rooms))
	for _, room := range rooms {
		out = append(out, RoomResponse{
			Name:      room.Name,
			CreatedBy: room.CreatedBy,
			Occupants: h.hub.RoomOccupancy(room.Name),
		})
	}
	SuccessResponse(c, http.StatusOK, gin.H{"rooms": out})
}

// Delete 处理删除房间请求 (仅创建者或管理员)
func (h *RoomHandler) Delete(c *gin.Context) {
	name := c.Param("name")
	requester := &domain.User{
		ID:       c.GetUint("user_id"),
		Username: c.GetString("username"),
		IsAdmin:  c.GetBool("is_admin"),
	}

	if err := h.roomService.DeleteRoom(c.Request.Context(), name, requester); err != nil {
		HandleServiceError(c, err)
		return
	}
	logrus.WithFields(logrus.Fields{"room": name, "username": requester.Username}).Info("Handler.DeleteRoom: room deleted")
	SuccessResponse(c, http.StatusOK, gin.H{"message": "Room deleted"})
}
