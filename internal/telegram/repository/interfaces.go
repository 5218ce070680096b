package repository

import (
	"context"

	"savebot/internal/telegram/models"
)

// TransferRepository 转存任务数据访问接口
type TransferRepository interface {
	// Create 创建转存记录
	Create(ctx context.Context, transfer *models.Transfer) error

	// Get 根据任务 ID 获取记录
	Get(ctx context.Context, id int64) (*models.Transfer, error)

	// UpdateStatus 更新任务状态
	UpdateStatus(ctx context.Context, id int64, status string) error

	// UpdateLinkIndex 更新当前链接下标
	UpdateLinkIndex(ctx context.Context, id int64, index int) error

	// Delete 删除记录（成功或终止取消时）
	Delete(ctx context.Context, id int64) error

	// ListByStatuses 按状态集合查询记录
	ListByStatuses(ctx context.Context, statuses []string) ([]*models.Transfer, error)

	// EnsureIndexes 确保索引存在
	EnsureIndexes(ctx context.Context) error
}

// MessageRepository 归档消息元数据访问接口
type MessageRepository interface {
	// Upsert 按自然键 (chat_id, message_id) 创建或更新记录
	// 返回记录 ID 和是否需要索引到 Notion
	Upsert(ctx context.Context, record *models.MessageRecord) (string, bool, error)

	// GetByNaturalKey 按自然键查询记录
	GetByNaturalKey(ctx context.Context, chatID int64, messageID int) (*models.MessageRecord, error)

	// ListUnindexed 查询所有尚未索引的记录
	ListUnindexed(ctx context.Context) ([]*models.MessageRecord, error)

	// MarkIndexed 标记记录已索引并写入页面 ID
	MarkIndexed(ctx context.Context, id string, notionPageID string) error

	// EnsureIndexes 确保索引存在
	EnsureIndexes(ctx context.Context) error
}

// ChannelRepository 用户镜像频道数据访问接口
type ChannelRepository interface {
	// ListByUser 列出用户的全部频道
	ListByUser(ctx context.Context, userID int64) ([]*models.Channel, error)

	// ListEnabledByUser 列出用户启用的频道
	ListEnabledByUser(ctx context.Context, userID int64) ([]*models.Channel, error)

	// EnsureIndexes 确保索引存在
	EnsureIndexes(ctx context.Context) error
}

// UserRepository 用户数据访问接口
type UserRepository interface {
	// Create 创建用户记录（已存在时报错）
	Create(ctx context.Context, user *models.User) error

	// Get 根据 Telegram ID 获取用户
	Get(ctx context.Context, telegramID int64) (*models.User, error)

	// ClearSession 清空用户的委托会话（会话失效时）
	ClearSession(ctx context.Context, telegramID int64) error
}

// MediaTypeRepository 允许的媒体类型集合访问接口
type MediaTypeRepository interface {
	// Allowed 返回当前允许的媒体类型（不存在时创建默认全集）
	Allowed(ctx context.Context) ([]string, error)

	// Add 向允许集合添加媒体类型
	Add(ctx context.Context, kind string) error

	// Remove 从允许集合移除媒体类型
	Remove(ctx context.Context, kind string) error
}

// NotionMappingRepository 聊天/话题到 Notion 页面映射访问接口
type NotionMappingRepository interface {
	// GetPageID 查询映射的页面 ID（不存在时返回空串）
	GetPageID(ctx context.Context, chatID int64, topicID int) (string, error)

	// Save 保存一条映射
	Save(ctx context.Context, mapping *models.NotionMapping) error
}
