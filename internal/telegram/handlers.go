package telegram

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-telegram/bot"
	botModels "github.com/go-telegram/bot/models"

	"savebot/internal/logger"
	"savebot/internal/telegram/models"
	"savebot/internal/telegram/repository"
	"savebot/internal/telegram/transfer"
	"savebot/internal/telegram/transport"
)

// 批量范围一次预取的消息 ID 数
const fetchChunkSize = 200

// 会话式追问的等待上限
const askTimeout = 5 * time.Minute

const helpText = `📖 <b>使用说明</b>

直接发送消息链接即可转存，支持一次发送多条。

命令：
/batch - 按范围批量转存
/nbatch - 批量转存并索引到 Notion
/cancel - 取消进行中的转存
/status - 查看当前转存状态
/help - 显示本说明

支持的链接形式：
• https://t.me/频道名/消息ID
• https://t.me/c/频道数字ID/消息ID
• tg://openmessage?user_id=..&message_id=..`

// handleStart /start 命令：登记用户并发欢迎语
func (b *Bot) handleStart(ctx context.Context, botInstance *bot.Bot, update *botModels.Update) {
	if !isPrivate(update) {
		return
	}
	userID := update.Message.From.ID

	if err := b.ensureUser(ctx, update.Message.From); err != nil {
		logger.L().Errorf("Failed to ensure user %d: %v", userID, err)
	}

	b.sendMessage(ctx, userID, "👋 欢迎使用转存助手！\n\n发送消息链接即可开始，/help 查看完整用法。")
}

// handleHelp /help 命令
func (b *Bot) handleHelp(ctx context.Context, botInstance *bot.Bot, update *botModels.Update) {
	if !isPrivate(update) {
		return
	}
	b.sendMessage(ctx, update.Message.Chat.ID, helpText)
}

// handleDefault 非命令消息：优先喂给等待中的追问，其次识别链接
func (b *Bot) handleDefault(ctx context.Context, botInstance *bot.Bot, update *botModels.Update) {
	if !isPrivate(update) || update.Message.Text == "" {
		return
	}
	userID := update.Message.From.ID
	text := update.Message.Text

	if b.deliverAsk(userID, text) {
		return
	}

	if !transfer.IsLikelyLink(text) {
		b.sendMessage(ctx, userID, "💡 发送消息链接即可转存，/help 查看用法")
		return
	}

	var links []string
	for _, field := range strings.Fields(text) {
		if transfer.IsLikelyLink(field) {
			links = append(links, field)
		}
	}

	origin := transport.Sent{ChatID: update.Message.Chat.ID, MessageID: update.Message.ID}
	b.runTransfer(ctx, userID, links, transfer.BatchOptions{Origin: origin})
}

// handleBatch /batch 命令：追问范围端点后批量转存
func (b *Bot) handleBatch(ctx context.Context, botInstance *bot.Bot, update *botModels.Update) {
	b.startRangeBatch(ctx, update, false)
}

// handleNbatch /nbatch 命令：批量转存并索引到 Notion
func (b *Bot) handleNbatch(ctx context.Context, botInstance *bot.Bot, update *botModels.Update) {
	if !b.cfg.NotionEnabled() {
		if isPrivate(update) {
			b.sendErrorMessage(ctx, update.Message.Chat.ID, "Notion 集成未配置，无法使用 /nbatch")
		}
		return
	}
	b.startRangeBatch(ctx, update, true)
}

// startRangeBatch 批量范围转存的会话流程
func (b *Bot) startRangeBatch(ctx context.Context, update *botModels.Update, indexToNotion bool) {
	if !isPrivate(update) {
		return
	}
	userID := update.Message.From.ID

	if b.registry.HasActive(userID) {
		b.sendErrorMessage(ctx, userID, "已有正在进行的转存，请等待完成或先 /cancel")
		return
	}

	firstText, err := b.ask(ctx, userID, "📝 请发送第一条消息的链接")
	if err != nil {
		b.sendErrorMessage(ctx, userID, "等待输入超时，已取消")
		return
	}
	first := transfer.ParseLink(firstText)
	if first == nil {
		b.sendErrorMessage(ctx, userID, "链接无效，请重新执行命令")
		return
	}

	secondText, err := b.ask(ctx, userID, "📝 请发送最后一条消息的链接，或要转存的消息数量")
	if err != nil {
		b.sendErrorMessage(ctx, userID, "等待输入超时，已取消")
		return
	}

	var last *transfer.LinkParts
	if count, convErr := strconv.Atoi(strings.TrimSpace(secondText)); convErr == nil {
		if count < 1 {
			b.sendErrorMessage(ctx, userID, "数量必须大于 0")
			return
		}
		last = transfer.ExpandRange(first, count)
	} else {
		last = transfer.ParseLink(secondText)
		if last == nil {
			b.sendErrorMessage(ctx, userID, "链接无效，请重新执行命令")
			return
		}
	}

	if err := transfer.ValidateRange(first, last); err != nil {
		b.sendErrorMessage(ctx, userID, err.Error())
		return
	}

	links := b.rangeLinks(ctx, userID, first, last)
	if len(links) == 0 {
		b.sendErrorMessage(ctx, userID, "范围内没有可转存的消息")
		return
	}

	origin := transport.Sent{ChatID: update.Message.Chat.ID, MessageID: update.Message.ID}
	b.runTransfer(ctx, userID, links, transfer.BatchOptions{
		Origin:            origin,
		IndexToNotion:     indexToNotion,
		StopOnAccessError: true,
	})
}

// rangeLinks 展开范围并尽量预取过滤空消息
// 预取按 fetchChunkSize 分块；预取失败的块退回原始链接，由引擎逐条处理。
func (b *Bot) rangeLinks(ctx context.Context, userID int64, first, last *transfer.LinkParts) []string {
	if first.TopicID != 0 {
		return transfer.RangeLinks(first, last)
	}

	client, err := b.engine.Client(ctx, userID)
	if err != nil {
		return transfer.RangeLinks(first, last)
	}

	ids := transfer.RangeIDs(first, last)
	links := make([]string, 0, len(ids))
	for start := 0; start < len(ids); start += fetchChunkSize {
		end := start + fetchChunkSize
		if end > len(ids) {
			end = len(ids)
		}

		msgs, err := client.GetMessages(ctx, first.Chat, ids[start:end])
		if err != nil {
			logger.L().Warnf("Range prefetch failed for chunk %d-%d: %v", ids[start], ids[end-1], err)
			for _, id := range ids[start:end] {
				links = append(links, transfer.BuildLink(first.Chat, id, 0))
			}
			continue
		}
		for _, msg := range msgs {
			if msg == nil || msg.Kind == transport.KindEmpty {
				continue
			}
			links = append(links, transfer.BuildLink(first.Chat, msg.ID, 0))
		}
	}
	return links
}

// runTransfer 执行批次并把结果反馈给用户
func (b *Bot) runTransfer(ctx context.Context, userID int64, links []string, opts transfer.BatchOptions) {
	result, err := b.engine.RunBatch(ctx, userID, links, opts)
	switch {
	case errors.Is(err, transfer.ErrTransferBusy):
		b.sendErrorMessage(ctx, userID, "已有正在进行的转存，请等待完成或先 /cancel")
		return
	case errors.Is(err, transfer.ErrNotLoggedIn):
		b.sendErrorMessage(ctx, userID, "请先登录账号再使用转存功能")
		return
	case errors.Is(err, repository.ErrUserNotFound):
		b.sendErrorMessage(ctx, userID, "请先发送 /start 初始化")
		return
	case err != nil:
		logger.L().Errorf("Transfer batch failed for user %d: %v", userID, err)
		if result == nil {
			b.sendErrorMessage(ctx, userID, "转存失败，请稍后再试")
			return
		}
	}

	if result.Cancelled {
		b.sendMessage(ctx, userID, "🛑 转存已取消")
	}
	b.sendMessage(ctx, userID, result.Summary())
}

// handleCancelCommand /cancel 命令：取消该用户的全部转存
func (b *Bot) handleCancelCommand(ctx context.Context, botInstance *bot.Bot, update *botModels.Update) {
	if !isPrivate(update) {
		return
	}
	userID := update.Message.From.ID

	ids := b.registry.CancelAllForUser(userID)
	if len(ids) == 0 {
		b.sendErrorMessage(ctx, userID, "没有进行中的转存")
		return
	}

	for _, id := range ids {
		if err := b.transferRepo.UpdateStatus(ctx, id, models.TransferStatusCancelled); err != nil {
			logger.L().Errorf("Failed to persist cancel for transfer %d: %v", id, err)
		}
	}
	b.sendSuccessMessage(ctx, userID, "已请求取消，当前步骤完成后停止")
}

// handleStatus /status 命令：展示用户的转存进度
func (b *Bot) handleStatus(ctx context.Context, botInstance *bot.Bot, update *botModels.Update) {
	if !isPrivate(update) {
		return
	}
	userID := update.Message.From.ID

	var lines []string
	for _, t := range b.registry.Snapshot() {
		if t.UserID != userID {
			continue
		}
		lines = append(lines, fmt.Sprintf("• 任务 %d: 第 %d/%d 个链接 (%s)",
			t.ID, t.LinkIndex+1, len(t.Links), t.Status))
	}

	if len(lines) == 0 {
		b.sendMessage(ctx, userID, "😴 当前没有进行中的转存")
		return
	}
	b.sendMessage(ctx, userID, "📊 <b>转存状态</b>\n\n"+strings.Join(lines, "\n"))
}

// handleMediaType /mediatype 命令：查看或切换允许的媒体类型
func (b *Bot) handleMediaType(ctx context.Context, botInstance *bot.Bot, update *botModels.Update) {
	if !isPrivate(update) {
		return
	}
	chatID := update.Message.Chat.ID
	args := strings.Fields(update.Message.Text)[1:]

	allowed, err := b.mediaTypeRepo.Allowed(ctx)
	if err != nil {
		logger.L().Errorf("Failed to load media types: %v", err)
		b.sendErrorMessage(ctx, chatID, "读取媒体类型配置失败")
		return
	}

	if len(args) == 0 {
		var lines []string
		for _, kind := range models.AllMediaKinds() {
			mark := "🚫"
			if containsString(allowed, kind) {
				mark = "✅"
			}
			lines = append(lines, fmt.Sprintf("%s %s", mark, kind))
		}
		b.sendMessage(ctx, chatID, "🎛 <b>允许的媒体类型</b>\n\n"+strings.Join(lines, "\n")+
			"\n\n用 /mediatype &lt;类型&gt; 切换")
		return
	}

	kind := strings.ToLower(args[0])
	if !containsString(models.AllMediaKinds(), kind) {
		b.sendErrorMessage(ctx, chatID, "未知的媒体类型: "+kind)
		return
	}

	if containsString(allowed, kind) {
		if err := b.mediaTypeRepo.Remove(ctx, kind); err != nil {
			logger.L().Errorf("Failed to remove media type %s: %v", kind, err)
			b.sendErrorMessage(ctx, chatID, "更新失败，请稍后再试")
			return
		}
		b.sendSuccessMessage(ctx, chatID, "已禁止转存 "+kind)
		return
	}

	if err := b.mediaTypeRepo.Add(ctx, kind); err != nil {
		logger.L().Errorf("Failed to add media type %s: %v", kind, err)
		b.sendErrorMessage(ctx, chatID, "更新失败，请稍后再试")
		return
	}
	b.sendSuccessMessage(ctx, chatID, "已允许转存 "+kind)
}

// ensureUser 确保用户记录存在，新用户通知到用户日志频道
func (b *Bot) ensureUser(ctx context.Context, from *botModels.User) error {
	_, err := b.userRepo.Get(ctx, from.ID)
	if err == nil {
		return nil
	}
	if !errors.Is(err, repository.ErrUserNotFound) {
		return err
	}

	if err := b.userRepo.Create(ctx, &models.User{
		TelegramID: from.ID,
		CreatedAt:  time.Now(),
	}); err != nil {
		return err
	}

	if b.cfg.UserInfoLogChatID != 0 {
		b.sendMessage(ctx, b.cfg.UserInfoLogChatID,
			fmt.Sprintf("🆕 新用户: %d @%s %s", from.ID, from.Username, from.FirstName))
	}
	return nil
}

// ask 向用户追问一条输入，阻塞等待默认 handler 投递
func (b *Bot) ask(ctx context.Context, userID int64, prompt string) (string, error) {
	ch := make(chan string, 1)
	b.askMu.Lock()
	b.asks[userID] = ch
	b.askMu.Unlock()
	defer func() {
		b.askMu.Lock()
		delete(b.asks, userID)
		b.askMu.Unlock()
	}()

	b.sendMessage(ctx, userID, prompt)

	select {
	case text := <-ch:
		return text, nil
	case <-time.After(askTimeout):
		return "", fmt.Errorf("ask timed out")
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// deliverAsk 把用户输入投递给等待中的追问
func (b *Bot) deliverAsk(userID int64, text string) bool {
	b.askMu.Lock()
	ch, ok := b.asks[userID]
	if ok {
		delete(b.asks, userID)
	}
	b.askMu.Unlock()

	if !ok {
		return false
	}
	ch <- text
	return true
}

func containsString(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
