package transfer

import (
	"context"
	"strconv"
	"time"

	botModels "github.com/go-telegram/bot/models"

	"savebot/internal/logger"
	"savebot/internal/telegram/transport"
)

// 进度面板的最小刷新间隔
const progressInterval = 25 * time.Second

// CancelMarkup 带取消按钮的行内键盘
func CancelMarkup(transferID int64) botModels.InlineKeyboardMarkup {
	return botModels.InlineKeyboardMarkup{
		InlineKeyboard: [][]botModels.InlineKeyboardButton{{
			{Text: "❌ 取消", CallbackData: "cancel " + strconv.FormatInt(transferID, 10)},
		}},
	}
}

// Reporter 把传输进度渲染成状态消息
//
// 小于阈值的文件不显示面板；面板刷新至少间隔 progressInterval，
// 传输完成的那次刷新不受间隔限制。每次回调都检查取消标记，
// 命中时返回 ErrStopTransmission 中断传输。
type Reporter struct {
	bot         transport.BotClient
	target      transport.Sent
	transferID  int64
	label       string
	threshold   int64
	isCancelled func(int64) bool

	start    time.Time
	lastEdit time.Time
}

func newReporter(bot transport.BotClient, target transport.Sent, transferID int64, label string, threshold int64, isCancelled func(int64) bool) *Reporter {
	return &Reporter{
		bot:         bot,
		target:      target,
		transferID:  transferID,
		label:       label,
		threshold:   threshold,
		isCancelled: isCancelled,
		start:       time.Now(),
	}
}

// Callback 返回可挂到 Download/Upload 上的进度回调
func (r *Reporter) Callback(ctx context.Context) transport.ProgressFunc {
	return func(current, total int64) error {
		if r.isCancelled(r.transferID) {
			return transport.ErrStopTransmission
		}

		if total < r.threshold {
			return nil
		}

		done := current >= total
		if !done && time.Since(r.lastEdit) < progressInterval {
			return nil
		}
		r.lastEdit = time.Now()

		text := renderProgress(r.label, current, total, time.Since(r.start))
		opts := &transport.SendOptions{ReplyMarkup: CancelMarkup(r.transferID)}
		if err := r.bot.EditMessage(ctx, r.target.ChatID, r.target.MessageID, text, opts); err != nil {
			// 面板刷新失败不中断传输
			logger.L().Debugf("Failed to update progress panel: %v", err)
		}
		return nil
	}
}
