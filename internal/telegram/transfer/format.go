package transfer

import (
	"fmt"
	"strings"
	"time"
)

var byteUnits = []string{"B", "KB", "MB", "GB", "TB"}

// HumanBytes 字节数的可读表示
func HumanBytes(n int64) string {
	value := float64(n)
	unit := 0
	for value >= 1024 && unit < len(byteUnits)-1 {
		value /= 1024
		unit++
	}
	if unit == 0 {
		return fmt.Sprintf("%d %s", n, byteUnits[0])
	}
	return fmt.Sprintf("%.2f %s", value, byteUnits[unit])
}

// HumanDuration 时长的可读表示（最多两个单位）
func HumanDuration(d time.Duration) string {
	if d < time.Second {
		return "0s"
	}

	d = d.Round(time.Second)
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60

	switch {
	case h > 0:
		return fmt.Sprintf("%dh%dm", h, m)
	case m > 0:
		return fmt.Sprintf("%dm%ds", m, s)
	default:
		return fmt.Sprintf("%ds", s)
	}
}

// progressBar 15 格进度条
func progressBar(percent float64) string {
	const cells = 15
	filled := int(percent / 100 * cells)
	if filled > cells {
		filled = cells
	}
	return strings.Repeat("■", filled) + strings.Repeat("□", cells-filled)
}

// renderProgress 渲染进度面板文本
func renderProgress(label string, current, total int64, elapsed time.Duration) string {
	percent := float64(0)
	if total > 0 {
		percent = float64(current) / float64(total) * 100
	}

	speed := float64(0)
	if elapsed > 0 {
		speed = float64(current) / elapsed.Seconds()
	}

	eta := "-"
	if speed > 0 && current < total {
		remaining := time.Duration(float64(total-current)/speed) * time.Second
		eta = HumanDuration(remaining)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "<b>%s</b>\n\n", label)
	fmt.Fprintf(&b, "%s %.1f%%\n\n", progressBar(percent), percent)
	fmt.Fprintf(&b, "📦 %s / %s\n", HumanBytes(current), HumanBytes(total))
	fmt.Fprintf(&b, "🚀 %s/s\n", HumanBytes(int64(speed)))
	fmt.Fprintf(&b, "⏳ 预计剩余: %s", eta)
	return b.String()
}
