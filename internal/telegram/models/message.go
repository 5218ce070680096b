package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// 媒体类型常量（允许转存的内容种类）
const (
	MediaKindText     = "text"
	MediaKindPhoto    = "photo"
	MediaKindVideo    = "video"
	MediaKindAudio    = "audio"
	MediaKindDocument = "document"
)

// AllMediaKinds 默认允许的全部媒体类型
func AllMediaKinds() []string {
	return []string{MediaKindPhoto, MediaKindVideo, MediaKindAudio, MediaKindDocument, MediaKindText}
}

// MessageRecord 已归档消息的元数据
// 自然键为 (chat_id, message_id)；重复转存同一条消息时原地更新而不是新建。
// indexed=true 的记录不会被重新打开索引（防止 Notion 页面重复），
// 但 media_url 可以刷新（Notion 文件引用会过期）。
type MessageRecord struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	MessageID   int                `bson:"message_id"` // 源消息 ID
	ChatID      int64              `bson:"chat_id"`    // 源聊天 ID
	TopicID     int                `bson:"topic_id,omitempty"`
	ChannelName string             `bson:"channel_name,omitempty"` // 源频道显示名
	TopicName   string             `bson:"topic_name,omitempty"`   // 源话题显示名

	MediaKind  string `bson:"mime_type"`             // text/photo/video/audio/document
	Size       int64  `bson:"size,omitempty"`        // 文件字节数
	Caption    string `bson:"caption,omitempty"`     // 文本或媒体说明
	MediaTitle string `bson:"media_title,omitempty"` // 文件名
	MediaURL   string `bson:"media_url,omitempty"`   // 外部存储引用（Notion file upload ID）

	Indexed      bool      `bson:"indexed"`                  // 是否已建立 Notion 页面
	NotionPageID string    `bson:"notion_page_id,omitempty"` // 索引完成后的页面 ID
	CreatedAt    time.Time `bson:"created_at"`
}

// IsMedia 记录是否为媒体消息（非纯文本）
func (m *MessageRecord) IsMedia() bool {
	return m.MediaKind != "" && m.MediaKind != MediaKindText
}
