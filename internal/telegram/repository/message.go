package repository

import (
	"context"
	"fmt"
	"time"

	"savebot/internal/telegram/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoMessageRepository 归档消息元数据访问层（MongoDB 实现）
type MongoMessageRepository struct {
	collection *mongo.Collection
}

// NewMessageRepository 创建消息 Repository
func NewMessageRepository(db *mongo.Database) MessageRepository {
	return &MongoMessageRepository{
		collection: db.Collection("messages"),
	}
}

// Upsert 按自然键 (chat_id, message_id) 创建或更新记录
//
// 幂等语义：
//   - 记录不存在：创建（indexed=false），返回 shouldIndex=true
//   - 已存在且已索引：只刷新 media_url（Notion 文件引用会过期），
//     其余字段不动，返回 shouldIndex=false，重试不会产生重复页面
//   - 已存在但未索引：原地更新描述字段（处理编辑/重投递），返回 shouldIndex=true
func (r *MongoMessageRepository) Upsert(ctx context.Context, record *models.MessageRecord) (string, bool, error) {
	existing, err := r.GetByNaturalKey(ctx, record.ChatID, record.MessageID)
	if err != nil && err != mongo.ErrNoDocuments {
		return "", false, err
	}

	if existing == nil {
		record.Indexed = false
		record.CreatedAt = time.Now()
		res, err := r.collection.InsertOne(ctx, record)
		if err != nil {
			return "", false, fmt.Errorf("failed to create message record: %w", err)
		}
		id, _ := res.InsertedID.(primitive.ObjectID)
		return id.Hex(), true, nil
	}

	if existing.Indexed {
		if record.MediaURL != "" && record.MediaURL != existing.MediaURL {
			update := bson.M{"$set": bson.M{"media_url": record.MediaURL}}
			if _, err := r.collection.UpdateOne(ctx, bson.M{"_id": existing.ID}, update); err != nil {
				return "", false, fmt.Errorf("failed to refresh media url: %w", err)
			}
		}
		return existing.ID.Hex(), false, nil
	}

	setFields := bson.M{
		"topic_id":     record.TopicID,
		"channel_name": record.ChannelName,
		"topic_name":   record.TopicName,
		"mime_type":    record.MediaKind,
		"size":         record.Size,
		"caption":      record.Caption,
		"media_title":  record.MediaTitle,
	}
	if record.MediaURL != "" {
		setFields["media_url"] = record.MediaURL
	}

	if _, err := r.collection.UpdateOne(ctx, bson.M{"_id": existing.ID}, bson.M{"$set": setFields}); err != nil {
		return "", false, fmt.Errorf("failed to update message record: %w", err)
	}
	return existing.ID.Hex(), true, nil
}

// GetByNaturalKey 按自然键查询记录
// 不存在时返回 (nil, mongo.ErrNoDocuments)
func (r *MongoMessageRepository) GetByNaturalKey(ctx context.Context, chatID int64, messageID int) (*models.MessageRecord, error) {
	filter := bson.M{
		"chat_id":    chatID,
		"message_id": messageID,
	}

	var record models.MessageRecord
	err := r.collection.FindOne(ctx, filter).Decode(&record)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, mongo.ErrNoDocuments
		}
		return nil, fmt.Errorf("failed to get message record: %w", err)
	}
	return &record, nil
}

// ListUnindexed 查询所有尚未索引的记录
func (r *MongoMessageRepository) ListUnindexed(ctx context.Context) ([]*models.MessageRecord, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"indexed": false})
	if err != nil {
		return nil, fmt.Errorf("failed to list unindexed messages: %w", err)
	}
	defer cursor.Close(ctx)

	var records []*models.MessageRecord
	if err := cursor.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("failed to decode message records: %w", err)
	}
	return records, nil
}

// MarkIndexed 标记记录已索引并写入页面 ID
func (r *MongoMessageRepository) MarkIndexed(ctx context.Context, id string, notionPageID string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("invalid message record id %q: %w", id, err)
	}

	update := bson.M{"$set": bson.M{
		"indexed":        true,
		"notion_page_id": notionPageID,
	}}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": oid}, update)
	if err != nil {
		return fmt.Errorf("failed to mark message indexed: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("message record not found: %s", id)
	}
	return nil
}

// EnsureIndexes 确保索引存在
func (r *MongoMessageRepository) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		// 自然键唯一索引（防止重复归档）
		{
			Keys: bson.D{
				{Key: "chat_id", Value: 1},
				{Key: "message_id", Value: 1},
			},
			Options: options.Index().SetUnique(true),
		},
		// 索引器按 indexed 扫描
		{
			Keys: bson.D{{Key: "indexed", Value: 1}},
		},
	}

	_, err := r.collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		return fmt.Errorf("failed to create indexes for messages: %w", err)
	}
	return nil
}
