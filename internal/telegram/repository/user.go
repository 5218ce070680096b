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

// ErrUserNotFound 用户不存在
var ErrUserNotFound = errors.New("user not found")

// MongoUserRepository 用户数据访问层（MongoDB 实现）
type MongoUserRepository struct {
	collection *mongo.Collection
}

// NewUserRepository 创建用户 Repository
func NewUserRepository(db *mongo.Database) UserRepository {
	return &MongoUserRepository{
		collection: db.Collection("users"),
	}
}

// Create 创建用户记录
func (r *MongoUserRepository) Create(ctx context.Context, user *models.User) error {
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}

	_, err := r.collection.InsertOne(ctx, user)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// Get 根据 Telegram ID 获取用户
func (r *MongoUserRepository) Get(ctx context.Context, telegramID int64) (*models.User, error) {
	var user models.User
	err := r.collection.FindOne(ctx, bson.M{"_id": telegramID}).Decode(&user)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user %d: %w", telegramID, err)
	}
	return &user, nil
}

// ClearSession 清空用户的委托会话
// 会话失效（凭据作废）时调用，用户需要重新登录
func (r *MongoUserRepository) ClearSession(ctx context.Context, telegramID int64) error {
	update := bson.M{"$set": bson.M{"session": models.Session{}}}
	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": telegramID}, update)
	if err != nil {
		return fmt.Errorf("failed to clear user session: %w", err)
	}
	return nil
}
