package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"savebot/internal/telegram/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// ErrTransferNotFound 转存记录不存在
var ErrTransferNotFound = errors.New("transfer not found")

// MongoTransferRepository 转存任务数据访问层（MongoDB 实现）
type MongoTransferRepository struct {
	collection *mongo.Collection
}

// NewTransferRepository 创建转存任务 Repository
func NewTransferRepository(db *mongo.Database) TransferRepository {
	return &MongoTransferRepository{
		collection: db.Collection("transfers"),
	}
}

// Create 创建转存记录
func (r *MongoTransferRepository) Create(ctx context.Context, transfer *models.Transfer) error {
	if transfer.CreatedAt.IsZero() {
		transfer.CreatedAt = time.Now()
	}

	_, err := r.collection.InsertOne(ctx, transfer)
	if err != nil {
		return fmt.Errorf("failed to create transfer: %w", err)
	}
	return nil
}

// Get 根据任务 ID 获取记录
func (r *MongoTransferRepository) Get(ctx context.Context, id int64) (*models.Transfer, error) {
	var transfer models.Transfer
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&transfer)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrTransferNotFound
		}
		return nil, fmt.Errorf("failed to get transfer %d: %w", id, err)
	}
	return &transfer, nil
}

// UpdateStatus 更新任务状态
func (r *MongoTransferRepository) UpdateStatus(ctx context.Context, id int64, status string) error {
	update := bson.M{"$set": bson.M{"status": status}}
	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return fmt.Errorf("failed to update transfer status: %w", err)
	}
	return nil
}

// UpdateLinkIndex 更新当前链接下标
func (r *MongoTransferRepository) UpdateLinkIndex(ctx context.Context, id int64, index int) error {
	update := bson.M{"$set": bson.M{"link_index": index}}
	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return fmt.Errorf("failed to update transfer link index: %w", err)
	}
	return nil
}

// Delete 删除记录
// 只在链接处理收尾或整批放弃时调用，瞬时失败不会删除记录
func (r *MongoTransferRepository) Delete(ctx context.Context, id int64) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete transfer: %w", err)
	}
	return nil
}

// ListByStatuses 按状态集合查询记录
func (r *MongoTransferRepository) ListByStatuses(ctx context.Context, statuses []string) ([]*models.Transfer, error) {
	filter := bson.M{"status": bson.M{"$in": statuses}}

	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list transfers: %w", err)
	}
	defer cursor.Close(ctx)

	var transfers []*models.Transfer
	if err := cursor.All(ctx, &transfers); err != nil {
		return nil, fmt.Errorf("failed to decode transfers: %w", err)
	}

	return transfers, nil
}

// EnsureIndexes 确保索引存在
func (r *MongoTransferRepository) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		// user_id 索引（用于查询用户的活跃任务）
		{
			Keys: bson.D{{Key: "user_id", Value: 1}},
		},
		// status 索引（重启恢复时按状态扫描）
		{
			Keys: bson.D{{Key: "status", Value: 1}},
		},
	}

	_, err := r.collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		return fmt.Errorf("failed to create indexes for transfers: %w", err)
	}
	return nil
}
