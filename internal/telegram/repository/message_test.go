package repository

import (
	"context"
	"testing"

	"savebot/internal/telegram/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func TestMongoMessageRepositoryUpsert(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("creates new record", func(mt *mtest.T) {
		repo := &MongoMessageRepository{collection: mt.Coll}
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, "savebot.messages", mtest.FirstBatch),
			mtest.CreateSuccessResponse(),
		)

		record := &models.MessageRecord{
			MessageID: 42,
			ChatID:    -100123,
			MediaKind: models.MediaKindVideo,
			Caption:   "测试视频",
		}
		id, shouldIndex, err := repo.Upsert(context.Background(), record)
		if err != nil {
			t.Fatalf("Upsert failed: %v", err)
		}
		if !shouldIndex {
			t.Fatalf("expected shouldIndex=true for new record")
		}
		if id == "" || id == primitive.NilObjectID.Hex() {
			t.Fatalf("expected generated id, got %q", id)
		}
	})

	mt.Run("indexed record only refreshes media url", func(mt *mtest.T) {
		repo := &MongoMessageRepository{collection: mt.Coll}
		existingID := primitive.NewObjectID()
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, "savebot.messages", mtest.FirstBatch, bson.D{
				{Key: "_id", Value: existingID},
				{Key: "message_id", Value: 42},
				{Key: "chat_id", Value: int64(-100123)},
				{Key: "mime_type", Value: models.MediaKindVideo},
				{Key: "media_url", Value: "fu-old"},
				{Key: "indexed", Value: true},
			}),
			mtest.CreateSuccessResponse(),
		)

		record := &models.MessageRecord{
			MessageID: 42,
			ChatID:    -100123,
			MediaKind: models.MediaKindVideo,
			MediaURL:  "fu-new",
		}
		id, shouldIndex, err := repo.Upsert(context.Background(), record)
		if err != nil {
			t.Fatalf("Upsert failed: %v", err)
		}
		if shouldIndex {
			t.Fatalf("expected shouldIndex=false for indexed record")
		}
		if id != existingID.Hex() {
			t.Fatalf("expected existing id %s, got %s", existingID.Hex(), id)
		}
	})

	mt.Run("unindexed record updates in place", func(mt *mtest.T) {
		repo := &MongoMessageRepository{collection: mt.Coll}
		existingID := primitive.NewObjectID()
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, "savebot.messages", mtest.FirstBatch, bson.D{
				{Key: "_id", Value: existingID},
				{Key: "message_id", Value: 42},
				{Key: "chat_id", Value: int64(-100123)},
				{Key: "mime_type", Value: models.MediaKindVideo},
				{Key: "indexed", Value: false},
			}),
			mtest.CreateSuccessResponse(),
		)

		record := &models.MessageRecord{
			MessageID: 42,
			ChatID:    -100123,
			MediaKind: models.MediaKindVideo,
			Caption:   "更新后的说明",
		}
		id, shouldIndex, err := repo.Upsert(context.Background(), record)
		if err != nil {
			t.Fatalf("Upsert failed: %v", err)
		}
		if !shouldIndex {
			t.Fatalf("expected shouldIndex=true for unindexed record")
		}
		if id != existingID.Hex() {
			t.Fatalf("expected existing id %s, got %s", existingID.Hex(), id)
		}
	})
}

func TestMongoMessageRepositoryMarkIndexed(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("success", func(mt *mtest.T) {
		repo := &MongoMessageRepository{collection: mt.Coll}
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 1},
			bson.E{Key: "nModified", Value: 1},
		))

		id := primitive.NewObjectID().Hex()
		if err := repo.MarkIndexed(context.Background(), id, "page-1"); err != nil {
			t.Fatalf("MarkIndexed failed: %v", err)
		}
	})

	mt.Run("record not found", func(mt *mtest.T) {
		repo := &MongoMessageRepository{collection: mt.Coll}
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 0},
			bson.E{Key: "nModified", Value: 0},
		))

		id := primitive.NewObjectID().Hex()
		if err := repo.MarkIndexed(context.Background(), id, "page-1"); err == nil {
			t.Fatalf("expected error for missing record")
		}
	})

	mt.Run("invalid id", func(mt *mtest.T) {
		repo := &MongoMessageRepository{collection: mt.Coll}
		if err := repo.MarkIndexed(context.Background(), "not-a-hex", "page-1"); err == nil {
			t.Fatalf("expected error for invalid id")
		}
	})
}

func TestMongoMessageRepositoryListUnindexed(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("returns pending records", func(mt *mtest.T) {
		repo := &MongoMessageRepository{collection: mt.Coll}
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "savebot.messages", mtest.FirstBatch, bson.D{
			{Key: "_id", Value: primitive.NewObjectID()},
			{Key: "message_id", Value: 7},
			{Key: "chat_id", Value: int64(-100123)},
			{Key: "mime_type", Value: models.MediaKindText},
			{Key: "indexed", Value: false},
		}))

		records, err := repo.ListUnindexed(context.Background())
		if err != nil {
			t.Fatalf("ListUnindexed failed: %v", err)
		}
		if len(records) != 1 || records[0].MessageID != 7 {
			t.Fatalf("unexpected records: %+v", records)
		}
	})
}
