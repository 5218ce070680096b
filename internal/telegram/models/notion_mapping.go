package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// NotionMapping 聊天/话题到 Notion 页面的映射
// 键为 (chat_id) 或 (chat_id, topic_id)；索引器用它定位层级目标页面。
type NotionMapping struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	ChatID       int64              `bson:"chat_id"`
	ChatName     string             `bson:"chat_name,omitempty"`
	TopicID      int                `bson:"topic_id,omitempty"`
	TopicName    string             `bson:"topic_name,omitempty"`
	NotionPageID string             `bson:"notion_page_id"`
}
