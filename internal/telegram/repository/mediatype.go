package repository

import (
	"context"
	"fmt"

	"savebot/internal/telegram/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const mediaTypeConfigName = "media_type"

// MongoMediaTypeRepository 允许的媒体类型集合（存放在 config 集合的单条文档中）
type MongoMediaTypeRepository struct {
	collection *mongo.Collection
}

// NewMediaTypeRepository 创建媒体类型 Repository
func NewMediaTypeRepository(db *mongo.Database) MediaTypeRepository {
	return &MongoMediaTypeRepository{
		collection: db.Collection("config"),
	}
}

// Allowed 返回当前允许的媒体类型
// 文档不存在时写入默认全集并返回
func (r *MongoMediaTypeRepository) Allowed(ctx context.Context) ([]string, error) {
	filter := bson.M{"name": mediaTypeConfigName}
	update := bson.M{"$setOnInsert": bson.M{
		"name":  mediaTypeConfigName,
		"value": models.AllMediaKinds(),
	}}

	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var doc struct {
		Value []string `bson:"value"`
	}
	if err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to load allowed media types: %w", err)
	}
	return doc.Value, nil
}

// Add 向允许集合添加媒体类型
func (r *MongoMediaTypeRepository) Add(ctx context.Context, kind string) error {
	filter := bson.M{"name": mediaTypeConfigName}
	update := bson.M{"$addToSet": bson.M{"value": kind}}

	_, err := r.collection.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to add media type %q: %w", kind, err)
	}
	return nil
}

// Remove 从允许集合移除媒体类型
func (r *MongoMediaTypeRepository) Remove(ctx context.Context, kind string) error {
	filter := bson.M{"name": mediaTypeConfigName}
	update := bson.M{"$pull": bson.M{"value": kind}}

	_, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to remove media type %q: %w", kind, err)
	}
	return nil
}
