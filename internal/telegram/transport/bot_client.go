package transport

import (
	"context"
	"fmt"

	"github.com/go-telegram/bot"
	botModels "github.com/go-telegram/bot/models"
)

// BotAPIClient BotClient 的 go-telegram/bot 适配实现
type BotAPIClient struct {
	bot *bot.Bot
}

// NewBotAPIClient 包装 bot 实例
func NewBotAPIClient(b *bot.Bot) *BotAPIClient {
	return &BotAPIClient{bot: b}
}

// SendMessage 发送文本消息（HTML 格式）
func (c *BotAPIClient) SendMessage(ctx context.Context, chatID int64, text string, opts *SendOptions) (Sent, error) {
	params := &bot.SendMessageParams{
		ChatID:    chatID,
		Text:      text,
		ParseMode: botModels.ParseModeHTML,
	}
	applySendOptions(params, opts)

	msg, err := c.bot.SendMessage(ctx, params)
	if err != nil {
		return Sent{}, fmt.Errorf("failed to send message to chat %d: %w", chatID, err)
	}
	return Sent{ChatID: chatID, MessageID: msg.ID}, nil
}

// EditMessage 编辑已发送消息的文本
func (c *BotAPIClient) EditMessage(ctx context.Context, chatID int64, messageID int, text string, opts *SendOptions) error {
	params := &bot.EditMessageTextParams{
		ChatID:    chatID,
		MessageID: messageID,
		Text:      text,
		ParseMode: botModels.ParseModeHTML,
	}
	if opts != nil {
		if markup, ok := opts.ReplyMarkup.(botModels.InlineKeyboardMarkup); ok {
			params.ReplyMarkup = markup
		}
		if opts.DisablePreview {
			params.LinkPreviewOptions = &botModels.LinkPreviewOptions{IsDisabled: bot.True()}
		}
	}

	if _, err := c.bot.EditMessageText(ctx, params); err != nil {
		return fmt.Errorf("failed to edit message %d in chat %d: %w", messageID, chatID, err)
	}
	return nil
}

// DeleteMessage 删除消息
func (c *BotAPIClient) DeleteMessage(ctx context.Context, chatID int64, messageID int) error {
	_, err := c.bot.DeleteMessage(ctx, &bot.DeleteMessageParams{
		ChatID:    chatID,
		MessageID: messageID,
	})
	if err != nil {
		return fmt.Errorf("failed to delete message %d in chat %d: %w", messageID, chatID, err)
	}
	return nil
}

// CopyMessage 复制消息到目标聊天
func (c *BotAPIClient) CopyMessage(ctx context.Context, toChatID int64, from Sent, caption string, threadID int) (Sent, error) {
	params := &bot.CopyMessageParams{
		ChatID:     toChatID,
		FromChatID: from.ChatID,
		MessageID:  from.MessageID,
	}
	if caption != "" {
		params.Caption = caption
	}
	if threadID != 0 {
		params.MessageThreadID = threadID
	}

	id, err := c.bot.CopyMessage(ctx, params)
	if err != nil {
		return Sent{}, fmt.Errorf("failed to copy message to chat %d: %w", toChatID, err)
	}
	return Sent{ChatID: toChatID, MessageID: id.ID}, nil
}

// SendPaidMedia 以付费媒体形式发送照片/视频
func (c *BotAPIClient) SendPaidMedia(ctx context.Context, p PaidMediaParams) error {
	var media botModels.InputPaidMedia
	switch p.Kind {
	case KindVideo:
		media = &botModels.InputPaidMediaVideo{Media: p.FileID}
	default:
		media = &botModels.InputPaidMediaPhoto{Media: p.FileID}
	}

	params := &bot.SendPaidMediaParams{
		ChatID:    p.ChatID,
		StarCount: int(p.Stars),
		Media:     []botModels.InputPaidMedia{media},
		Caption:   p.Caption,
	}
	// Bot API 的 sendPaidMedia 没有话题参数，用回复定位到话题首贴
	if p.ThreadID != 0 {
		params.ReplyParameters = &botModels.ReplyParameters{MessageID: p.ThreadID}
	}

	if _, err := c.bot.SendPaidMedia(ctx, params); err != nil {
		return fmt.Errorf("failed to send paid media to chat %d: %w", p.ChatID, err)
	}
	return nil
}

// GetChat 查询聊天信息
func (c *BotAPIClient) GetChat(ctx context.Context, chatID int64) (*Chat, error) {
	info, err := c.bot.GetChat(ctx, &bot.GetChatParams{ChatID: chatID})
	if err != nil {
		return nil, fmt.Errorf("failed to get chat %d: %w", chatID, err)
	}
	return &Chat{
		ID:       info.ID,
		Title:    info.Title,
		Username: info.Username,
		IsForum:  info.IsForum,
	}, nil
}

func applySendOptions(params *bot.SendMessageParams, opts *SendOptions) {
	if opts == nil {
		return
	}
	if opts.ReplyMarkup != nil {
		params.ReplyMarkup = opts.ReplyMarkup
	}
	if opts.ReplyTo > 0 {
		params.ReplyParameters = &botModels.ReplyParameters{MessageID: opts.ReplyTo}
	}
	if opts.ThreadID != 0 {
		params.MessageThreadID = opts.ThreadID
	}
	if opts.DisablePreview {
		params.LinkPreviewOptions = &botModels.LinkPreviewOptions{IsDisabled: bot.True()}
	}
}
