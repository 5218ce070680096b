package telegram

import (
	"context"

	"github.com/go-telegram/bot"
	botModels "github.com/go-telegram/bot/models"

	"savebot/internal/logger"
)

// RequireOwner 中间件：仅允许 Owner 执行
// 未配置 Owner 列表时放行所有用户。
func (b *Bot) RequireOwner(next bot.HandlerFunc) bot.HandlerFunc {
	return func(ctx context.Context, botInstance *bot.Bot, update *botModels.Update) {
		if update.Message == nil || update.Message.From == nil {
			return
		}

		if len(b.cfg.BotOwnerIDs) > 0 && !b.cfg.IsOwner(update.Message.From.ID) {
			logger.L().Warnf("Non-owner user %d attempted to use owner command", update.Message.From.ID)
			b.sendErrorMessage(ctx, update.Message.Chat.ID, "此命令仅限 Bot Owner 使用")
			return
		}

		next(ctx, botInstance, update)
	}
}

// isPrivate 更新是否来自私聊
func isPrivate(update *botModels.Update) bool {
	return update.Message != nil && update.Message.Chat.Type == botModels.ChatTypePrivate
}
