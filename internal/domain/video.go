package domain

import "strings"

// WatchURL 根据外部视频服务的 ID 构造规范化的可播放 URL。
func WatchURL(videoID string) string {
	return "https://www.youtube.com/watch?v=" + videoID
}

// ExtractVideoID 从视频 URL 中提取规范的视频 ID。
// 规则：URL 包含 "v=" 时取其后到下一个 "&" 之前的子串；
// 否则包含 "youtu.be/" 时取其后到下一个 "?" 之前的子串；
// 否则整个 URL 就是 ID。
func ExtractVideoID(videoURL string) string {
	if _, after, ok := strings.Cut(videoURL, "v="); ok {
		id, _, _ := strings.Cut(after, "&")
		return id
	}
	if _, after, ok := strings.Cut(videoURL, "youtu.be/"); ok {
		id, _, _ := strings.Cut(after, "?")
		return id
	}
	return videoURL
}
