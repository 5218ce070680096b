package transport

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-telegram/bot"
)

// ErrSessionInvalidated 委托会话凭据已失效
// 批次中途遇到时整批终止，清空存储的会话并提示重新登录。
var ErrSessionInvalidated = errors.New("session invalidated")

// ErrStopTransmission 进度回调主动中断传输
// 取消检查命中时由回调返回，下载/上传立即中止。
var ErrStopTransmission = errors.New("transmission stopped")

// FloodWaitError 限流信号，携带必须等待的时长
type FloodWaitError struct {
	Duration time.Duration
}

func (e *FloodWaitError) Error() string {
	return fmt.Sprintf("flood wait for %s", e.Duration)
}

// FloodWait 从错误中提取限流等待时长
// 同时识别自有的 FloodWaitError 和 Bot API 的 TooManyRequestsError
func FloodWait(err error) (time.Duration, bool) {
	var fw *FloodWaitError
	if errors.As(err, &fw) {
		return fw.Duration, true
	}

	var tmr *bot.TooManyRequestsError
	if errors.As(err, &tmr) {
		return time.Duration(tmr.RetryAfter) * time.Second, true
	}

	return 0, false
}

// IsCancelled 错误是否为协作式取消（区别于失败）
func IsCancelled(err error) bool {
	return errors.Is(err, ErrStopTransmission)
}
