package http

import (
	"encoding/json"
	"net/http"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const youtubeSearchEndpoint = "https://www.googleapis.com/youtube/v3/search"

// SearchHandler 代理 YouTube 搜索请求，避免把 API 密钥暴露给客户端
type SearchHandler struct {
	apiKey string
	client *http.Client
}

// NewSearchHandler 创建 SearchHandler 实例
func NewSearchHandler(apiKey string) *SearchHandler {
	return &SearchHandler{
		apiKey: apiKey,
		client: &http.Client{Timeout: 8 * time.Second},
	}
}

// Search 处理视频搜索请求：?q=<query>
func (h *SearchHandler) Search(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		ErrorResponse(c, http.StatusBadRequest, "Search query required")
		return
	}
	if h.apiKey == "" {
		ErrorResponse(c, http.StatusServiceUnavailable, "Search is not configured")
		return
	}

	params := url.Values{}
	params.Set("part", "snippet")
	params.Set("type", "video")
	params.Set("maxResults", "10")
	params.Set("q", query)
	params.Set("key", h.apiKey)

	req, err := http.NewRequestWithContext(c.Request.Context(), http.MethodGet, youtubeSearchEndpoint+"?"+params.Encode(), nil)
	if err != nil {
		ErrorResponse(c, http.StatusInternalServerError, "Search failed")
		return
	}

	resp, err := h.client.Do(req)
	if err != nil {
		logrus.WithError(err).Error("Handler.Search: upstream request failed")
		ErrorResponse(c, http.StatusBadGateway, "Search failed")
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		logrus.WithField("status", resp.StatusCode).Warn("Handler.Search: upstream returned non-200")
		ErrorResponse(c, http.StatusBadGateway, "Search failed")
		return
	}

	// 直接透传上游的 JSON 响应体
	var body json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		ErrorResponse(c, http.StatusBadGateway, "Search failed")
		return
	}
	c.Data(http.StatusOK, "application/json", body)
}
