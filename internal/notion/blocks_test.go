package notion

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunkText(t *testing.T) {
	assert.Equal(t, []string{"短文本"}, ChunkText("短文本", 2000))

	long := strings.Repeat("中", 4500)
	chunks := ChunkText(long, 2000)
	require.Len(t, chunks, 3)
	assert.Len(t, []rune(chunks[0]), 2000)
	assert.Len(t, []rune(chunks[1]), 2000)
	assert.Len(t, []rune(chunks[2]), 500)
	assert.Equal(t, long, strings.Join(chunks, ""))

	// 正好在边界上不拆分
	exact := strings.Repeat("a", 2000)
	assert.Equal(t, []string{exact}, ChunkText(exact, 2000))
}

func TestParagraphs(t *testing.T) {
	blocks := Paragraphs(strings.Repeat("x", 2001))
	require.Len(t, blocks, 2)
	for _, b := range blocks {
		assert.Equal(t, "paragraph", b["type"])
	}
}

func TestMediaBlock(t *testing.T) {
	tests := []struct {
		kind string
		want string
	}{
		{"photo", "image"},
		{"video", "video"},
		{"audio", "audio"},
		{"document", "file"},
		{"unknown", "file"},
	}

	for _, tt := range tests {
		block := MediaBlock(tt.kind, "fu-123")
		assert.Equal(t, tt.want, block["type"], "kind %s", tt.kind)

		payload, ok := block[tt.want].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "file_upload", payload["type"])
	}
}

func TestBlockShapes(t *testing.T) {
	assert.Equal(t, "quote", Quote("引用")["type"])
	assert.Equal(t, "divider", Divider()["type"])
	assert.Equal(t, "heading_3", Heading("标题")["type"])

	callout := Callout("来源", "📢")
	assert.Equal(t, "callout", callout["type"])
	payload := callout["callout"].(map[string]any)
	icon := payload["icon"].(map[string]any)
	assert.Equal(t, "📢", icon["emoji"])
}
