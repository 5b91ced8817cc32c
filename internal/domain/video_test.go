package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractVideoID(t *testing.T) {
	// 标准 watch URL：取 "v=" 之后、"&" 之前
	assert.Equal(t, "dQw4w9WgXcQ", ExtractVideoID("https://www.youtube.com/watch?v=dQw4w9WgXcQ"))
	assert.Equal(t, "dQw4w9WgXcQ", ExtractVideoID("https://www.youtube.com/watch?v=dQw4w9WgXcQ&t=42s"))

	// 短链接：取 "youtu.be/" 之后、"?" 之前
	assert.Equal(t, "dQw4w9WgXcQ", ExtractVideoID("https://youtu.be/dQw4w9WgXcQ"))
	assert.Equal(t, "dQw4w9WgXcQ", ExtractVideoID("https://youtu.be/dQw4w9WgXcQ?si=xyz"))

	// 其他情况：整个字符串即 ID
	assert.Equal(t, "dQw4w9WgXcQ", ExtractVideoID("dQw4w9WgXcQ"))
}

func TestWatchURL(t *testing.T) {
	assert.Equal(t, "https://www.youtube.com/watch?v=abc123", WatchURL("abc123"))
}
