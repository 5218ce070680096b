package transport

import (
	"context"

	botModels "github.com/go-telegram/bot/models"
)

// ProgressFunc 下载/上传进度回调
// 返回非 nil 错误（通常为 ErrStopTransmission）时立即中断传输。
type ProgressFunc func(current, total int64) error

// Sent 已发送消息的定位信息
type Sent struct {
	ChatID    int64
	MessageID int
}

// SendOptions 发送/编辑消息的可选参数
type SendOptions struct {
	ReplyMarkup    botModels.ReplyMarkup
	ReplyTo        int
	ThreadID       int
	DisablePreview bool
}

// PaidMediaParams 付费媒体发送参数
type PaidMediaParams struct {
	ChatID   int64
	Stars    int64
	FileID   string
	Kind     string // photo 或 video
	Caption  string
	ThreadID int
}

// BotClient 机器人侧传输原语
// 转存引擎只依赖这些原语加上限流/会话失效两种错误信号。
type BotClient interface {
	SendMessage(ctx context.Context, chatID int64, text string, opts *SendOptions) (Sent, error)
	EditMessage(ctx context.Context, chatID int64, messageID int, text string, opts *SendOptions) error
	DeleteMessage(ctx context.Context, chatID int64, messageID int) error
	CopyMessage(ctx context.Context, toChatID int64, from Sent, caption string, threadID int) (Sent, error)
	SendPaidMedia(ctx context.Context, params PaidMediaParams) error
	GetChat(ctx context.Context, chatID int64) (*Chat, error)
}

// UploadOptions 上传归档副本的可选参数
type UploadOptions struct {
	Caption  string
	FileName string
	ThreadID int
}

// UserClient 委托用户会话的传输原语
// 具体实现由登录/会话交换层提供；引擎只消费接口。
type UserClient interface {
	// ID 会话所属账号 ID
	ID() int64

	// Connected 会话是否仍然在线
	Connected() bool

	// ResolveChat 按引用解析聊天
	ResolveChat(ctx context.Context, ref ChatRef) (*Chat, error)

	// GetMessage 读取单条远端消息
	GetMessage(ctx context.Context, chat ChatRef, messageID int) (*Message, error)

	// GetMessages 批量读取远端消息（按 ID 列表）
	GetMessages(ctx context.Context, chat ChatRef, messageIDs []int) ([]*Message, error)

	// Download 下载消息媒体到本地文件，返回文件路径
	Download(ctx context.Context, msg *Message, fileName string, progress ProgressFunc) (string, error)

	// Upload 上传本地文件到指定聊天，返回上传后的消息快照
	Upload(ctx context.Context, chatID int64, filePath string, opts UploadOptions, progress ProgressFunc) (*Message, error)

	// ListTopics 列出话题结构聊天的全部话题（标题 -> 话题 ID）
	ListTopics(ctx context.Context, chatID int64) (map[string]int, error)

	// CreateTopic 创建话题并返回话题 ID
	CreateTopic(ctx context.Context, chatID int64, title string) (int, error)
}
