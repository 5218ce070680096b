package repository

import (
	"context"
	"fmt"

	"savebot/internal/telegram/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// MongoNotionMappingRepository 聊天/话题到 Notion 页面映射（MongoDB 实现）
type MongoNotionMappingRepository struct {
	collection *mongo.Collection
}

// NewNotionMappingRepository 创建映射 Repository
func NewNotionMappingRepository(db *mongo.Database) NotionMappingRepository {
	return &MongoNotionMappingRepository{
		collection: db.Collection("notion_mapping"),
	}
}

// GetPageID 查询映射的页面 ID
// topicID 为 0 时按聊天级映射查询；不存在时返回空串
func (r *MongoNotionMappingRepository) GetPageID(ctx context.Context, chatID int64, topicID int) (string, error) {
	filter := bson.M{"chat_id": chatID}
	if topicID != 0 {
		filter["topic_id"] = topicID
	}

	var mapping models.NotionMapping
	err := r.collection.FindOne(ctx, filter).Decode(&mapping)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return "", nil
		}
		return "", fmt.Errorf("failed to get notion mapping: %w", err)
	}
	return mapping.NotionPageID, nil
}

// Save 保存一条映射
func (r *MongoNotionMappingRepository) Save(ctx context.Context, mapping *models.NotionMapping) error {
	_, err := r.collection.InsertOne(ctx, mapping)
	if err != nil {
		return fmt.Errorf("failed to save notion mapping: %w", err)
	}
	return nil
}
