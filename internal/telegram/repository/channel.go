package repository

import (
	"context"
	"fmt"

	"savebot/internal/telegram/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// MongoChannelRepository 用户镜像频道数据访问层（MongoDB 实现）
type MongoChannelRepository struct {
	collection *mongo.Collection
}

// NewChannelRepository 创建频道 Repository
func NewChannelRepository(db *mongo.Database) ChannelRepository {
	return &MongoChannelRepository{
		collection: db.Collection("user_channels"),
	}
}

// ListByUser 列出用户的全部频道
func (r *MongoChannelRepository) ListByUser(ctx context.Context, userID int64) ([]*models.Channel, error) {
	return r.list(ctx, bson.M{"user_id": userID})
}

// ListEnabledByUser 列出用户启用的频道
func (r *MongoChannelRepository) ListEnabledByUser(ctx context.Context, userID int64) ([]*models.Channel, error) {
	return r.list(ctx, bson.M{"user_id": userID, "status": true})
}

func (r *MongoChannelRepository) list(ctx context.Context, filter bson.M) ([]*models.Channel, error) {
	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list channels: %w", err)
	}
	defer cursor.Close(ctx)

	var channels []*models.Channel
	if err := cursor.All(ctx, &channels); err != nil {
		return nil, fmt.Errorf("failed to decode channels: %w", err)
	}
	return channels, nil
}

// EnsureIndexes 确保索引存在
func (r *MongoChannelRepository) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "user_id", Value: 1}},
		},
	}

	_, err := r.collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		return fmt.Errorf("failed to create indexes for user_channels: %w", err)
	}
	return nil
}
