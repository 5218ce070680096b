package transfer

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestHumanBytes(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0 B"},
		{512, "512 B"},
		{1024, "1.00 KB"},
		{1536, "1.50 KB"},
		{50_000_000, "47.68 MB"},
		{3 * 1024 * 1024 * 1024, "3.00 GB"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, HumanBytes(tt.in))
	}
}

func TestHumanDuration(t *testing.T) {
	assert.Equal(t, "0s", HumanDuration(300*time.Millisecond))
	assert.Equal(t, "45s", HumanDuration(45*time.Second))
	assert.Equal(t, "2m5s", HumanDuration(125*time.Second))
	assert.Equal(t, "1h30m", HumanDuration(90*time.Minute))
}

func TestProgressBar(t *testing.T) {
	assert.Equal(t, strings.Repeat("□", 15), progressBar(0))
	assert.Equal(t, strings.Repeat("■", 15), progressBar(100))

	half := progressBar(50)
	assert.Equal(t, 7, strings.Count(half, "■"))
	assert.Equal(t, 8, strings.Count(half, "□"))
}

func TestRenderProgress(t *testing.T) {
	text := renderProgress("⏬ 下载中 (1/3)", 50*1024*1024, 100*1024*1024, 10*time.Second)

	assert.Contains(t, text, "⏬ 下载中 (1/3)")
	assert.Contains(t, text, "50.0%")
	assert.Contains(t, text, "50.00 MB / 100.00 MB")
	assert.Contains(t, text, "5.00 MB/s")
	assert.Contains(t, text, "10s")
}
