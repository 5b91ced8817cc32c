package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/blakebrandon-hub/GH-Turn-based-Queue-Test/internal/domain"
	"github.com/blakebrandon-hub/GH-Turn-based-Queue-Test/internal/hub"
	"github.com/blakebrandon-hub/GH-Turn-based-Queue-Test/internal/service"
)

// QueueHandler 封装了播放队列相关的 HTTP 处理逻辑
type QueueHandler struct {
	syncService *service.RoomSyncService
	hub         *hub.Hub
}

// NewQueueHandler 创建 QueueHandler 实例
func NewQueueHandler(syncService *service.RoomSyncService, h *hub.Hub) *QueueHandler {
	return &QueueHandler{syncService: syncService, hub: h}
}

// QueueItemResponse 是队列列表中的单个条目
type QueueItemResponse struct {
	ID       uint   `json:"id"`
	VideoID  string `json:"video_id"`
	URL      string `json:"url"`
	Title    string `json:"title"`
	Duration int    `json:"duration"`
	AddedBy  string `json:"added_by"`
	AddedAt  string `json:"added_at"`
}

// List 返回房间的完整播放队列，按添加顺序，队首为当前播放条目
func (h *QueueHandler) List(c *gin.Context) {
	room := c.Param("room")

	items, err := h.syncService.QueueItems(c.Request.Context(), room)
	if err != nil {
		HandleServiceError(c, err)
		return
	}

	out := make([]QueueItemResponse, 0, len(items))
	for _, item := range items {
		// 贡献者关联未加载时 (如用户已注销) 展示占位名
		addedBy := "Unknown"
		if item.User != nil {
			addedBy = item.User.Username
		}
		out = append(out, QueueItemResponse{
			ID:       item.ID,
			VideoID:  domain.ExtractVideoID(item.VideoURL),
			URL:      item.VideoURL,
			Title:    item.VideoTitle,
			Duration: item.VideoDuration,
			AddedBy:  addedBy,
			AddedAt:  item.AddedAt.Format("15:04:05"),
		})
	}
	SuccessResponse(c, http.StatusOK, gin.H{"queue": out})
}

// Remove 删除队列中的指定条目并把更新广播到房间
func (h *QueueHandler) Remove(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "Invalid video id")
		return
	}

	p := service.Participant{
		UserID:   c.GetUint("user_id"),
		Username: c.GetString("username"),
		IsAdmin:  c.GetBool("is_admin"),
	}

	update, err := h.syncService.RemoveVideo(c.Request.Context(), uint(id), p)
	if err != nil {
		HandleServiceError(c, err)
		return
	}

	// 删除经由 HTTP 到达，但房间内的会话仍要立即看到队列变化
	h.hub.BroadcastQueueUpdate(update)
	logrus.WithFields(logrus.Fields{"video_id": id, "username": p.Username}).Info("Handler.RemoveVideo: video removed")
	SuccessResponse(c, http.StatusOK, gin.H{"message": "Video removed"})
}
