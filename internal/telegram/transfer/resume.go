package transfer

import (
	"context"
	"fmt"
	"strconv"

	botModels "github.com/go-telegram/bot/models"

	"savebot/internal/logger"
	"savebot/internal/telegram/models"
	"savebot/internal/telegram/repository"
	"savebot/internal/telegram/transport"
)

// Resumer 重启后的批次恢复协调器
//
// 启动时把所有 sleeping/in_progress 记录的属主各通知一次，并把
// 记录状态清空，保证重复重启不会重复打扰；真正的恢复由用户点
// 按钮触发。关闭时把在册的活跃记录翻成 sleeping 落库。
type Resumer struct {
	bot       transport.BotClient
	transfers repository.TransferRepository
	registry  *Registry
}

// NewResumer 创建恢复协调器
func NewResumer(bot transport.BotClient, transfers repository.TransferRepository, registry *Registry) *Resumer {
	return &Resumer{bot: bot, transfers: transfers, registry: registry}
}

// ResumeMarkup 带恢复按钮的行内键盘
func ResumeMarkup(transferID int64) botModels.InlineKeyboardMarkup {
	return botModels.InlineKeyboardMarkup{
		InlineKeyboard: [][]botModels.InlineKeyboardButton{{
			{Text: "▶️ 继续转存", CallbackData: "resume " + strconv.FormatInt(transferID, 10)},
		}},
	}
}

// AnnouncePending 通知所有挂起批次的属主
// 单条记录的失败只记日志，不阻塞其余记录。
func (r *Resumer) AnnouncePending(ctx context.Context) error {
	pending, err := r.transfers.ListByStatuses(ctx, []string{
		models.TransferStatusSleeping,
		models.TransferStatusInProgress,
	})
	if err != nil {
		return fmt.Errorf("failed to list pending transfers: %w", err)
	}

	for _, t := range pending {
		remaining := len(t.RemainingLinks())
		text := fmt.Sprintf("⏸ 上次的转存被中断，还剩 %d 个链接未处理。", remaining)
		opts := &transport.SendOptions{ReplyMarkup: ResumeMarkup(t.ID)}
		if _, err := r.bot.SendMessage(ctx, t.UserID, text, opts); err != nil {
			logger.L().Errorf("Failed to announce pending transfer %d: %v", t.ID, err)
			continue
		}

		// 状态清空表示已通知，重启后不再重复提示
		if err := r.transfers.UpdateStatus(ctx, t.ID, models.TransferStatusNone); err != nil {
			logger.L().Errorf("Failed to mark transfer %d announced: %v", t.ID, err)
		}
	}

	if len(pending) > 0 {
		logger.L().Infof("Announced %d pending transfers", len(pending))
	}
	return nil
}

// MarkSleeping 把在册的活跃批次翻成 sleeping
// 进程关闭路径调用，用不受取消影响的上下文落库。
func (r *Resumer) MarkSleeping(ctx context.Context) {
	for _, t := range r.registry.Snapshot() {
		if !t.IsActive() {
			continue
		}
		if err := r.transfers.UpdateStatus(ctx, t.ID, models.TransferStatusSleeping); err != nil {
			logger.L().Errorf("Failed to mark transfer %d sleeping: %v", t.ID, err)
		}
	}
}

// Pending 读取一条待恢复记录
func (r *Resumer) Pending(ctx context.Context, transferID int64) (*models.Transfer, error) {
	return r.transfers.Get(ctx, transferID)
}
