package telegram

import (
	"context"
	"strconv"
	"strings"

	"github.com/go-telegram/bot"
	botModels "github.com/go-telegram/bot/models"

	"savebot/internal/logger"
	"savebot/internal/telegram/models"
	"savebot/internal/telegram/transfer"
	"savebot/internal/telegram/transport"
)

// handleCancelCallback 进度面板上的取消按钮
// 取消是协作式的：标记后由引擎在下一个检查点停下。
// 任务不存在时提示找不到；重复点击等价于一次成功取消。
func (b *Bot) handleCancelCallback(ctx context.Context, botInstance *bot.Bot, update *botModels.Update) {
	cq := update.CallbackQuery
	if cq == nil {
		return
	}

	id, ok := parseCallbackID(cq.Data, "cancel ")
	if !ok {
		b.answerCallback(ctx, cq.ID, "无效的请求")
		return
	}

	if !b.registry.Cancel(id) {
		b.answerCallback(ctx, cq.ID, "没有找到该转存任务")
		return
	}

	if err := b.transferRepo.UpdateStatus(ctx, id, models.TransferStatusCancelled); err != nil {
		logger.L().Errorf("Failed to persist cancel for transfer %d: %v", id, err)
	}
	b.answerCallback(ctx, cq.ID, "✅ 将在当前步骤完成后取消")
}

// handleResumeCallback 重启通知上的继续按钮
// 读取记录的剩余链接，删除旧记录后按新批次重新进入流水线。
func (b *Bot) handleResumeCallback(ctx context.Context, botInstance *bot.Bot, update *botModels.Update) {
	cq := update.CallbackQuery
	if cq == nil {
		return
	}

	id, ok := parseCallbackID(cq.Data, "resume ")
	if !ok {
		b.answerCallback(ctx, cq.ID, "无效的请求")
		return
	}

	record, err := b.resumer.Pending(ctx, id)
	if err != nil {
		b.answerCallback(ctx, cq.ID, "没有找到可恢复的任务")
		return
	}

	remaining := record.RemainingLinks()
	if err := b.transferRepo.Delete(ctx, id); err != nil {
		logger.L().Errorf("Failed to delete resumed transfer %d: %v", id, err)
	}
	b.registry.Remove(id)

	if len(remaining) == 0 {
		b.answerCallback(ctx, cq.ID, "该任务已全部完成")
		return
	}

	b.answerCallback(ctx, cq.ID, "▶️ 继续转存")
	b.runTransfer(ctx, record.UserID, remaining, transfer.BatchOptions{
		Origin: transport.Sent{ChatID: record.OriginChatID, MessageID: record.OriginMessageID},
	})
}

// parseCallbackID 解析回调数据里的任务 ID
func parseCallbackID(data, prefix string) (int64, bool) {
	raw := strings.TrimPrefix(data, prefix)
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return id, true
}
