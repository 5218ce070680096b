package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// PaidMediaPolicy 付费媒体策略
// 开启后，照片/视频以付费媒体形式发送到该频道
type PaidMediaPolicy struct {
	Enabled bool  `bson:"status"` // 是否启用
	Stars   int64 `bson:"stars"`  // 解锁价格（Stars）
}

// Channel 用户的镜像目标频道
// 由设置菜单创建和编辑；转存引擎只读取。
type Channel struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Title     string             `bson:"title"`              // 显示名
	UserID    int64              `bson:"user_id"`            // 所属用户
	ChannelID int64              `bson:"channel_id"`         // 远端频道 ID
	TopicID   int                `bson:"topic_id,omitempty"` // 固定话题 ID（可选）
	PaidMedia PaidMediaPolicy    `bson:"paid_media"`
	Enabled   bool               `bson:"status"` // 是否参与镜像
}
