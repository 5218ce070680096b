package repository

import (
	"context"
	"errors"
	"testing"

	"savebot/internal/telegram/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func TestMongoTransferRepositoryCreate(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("success sets created_at", func(mt *mtest.T) {
		repo := &MongoTransferRepository{collection: mt.Coll}
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		transfer := &models.Transfer{
			ID:     42,
			UserID: 7,
			Links:  []string{"https://t.me/c/123/1"},
			Status: models.TransferStatusInProgress,
		}
		if err := repo.Create(context.Background(), transfer); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
		if transfer.CreatedAt.IsZero() {
			t.Fatalf("expected created_at to be set")
		}
	})

	mt.Run("insert error", func(mt *mtest.T) {
		repo := &MongoTransferRepository{collection: mt.Coll}
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{
			Code:    11000,
			Name:    "DuplicateKey",
			Message: "mock duplicate",
		}))

		if err := repo.Create(context.Background(), &models.Transfer{ID: 42}); err == nil {
			t.Fatalf("expected error but got nil")
		}
	})
}

func TestMongoTransferRepositoryGet(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("found", func(mt *mtest.T) {
		repo := &MongoTransferRepository{collection: mt.Coll}
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "savebot.transfers", mtest.FirstBatch, bson.D{
			{Key: "_id", Value: int64(42)},
			{Key: "user_id", Value: int64(7)},
			{Key: "links", Value: bson.A{"a", "b"}},
			{Key: "link_index", Value: 1},
			{Key: "status", Value: models.TransferStatusSleeping},
		}))

		transfer, err := repo.Get(context.Background(), 42)
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if transfer.UserID != 7 || transfer.LinkIndex != 1 {
			t.Fatalf("unexpected transfer: %+v", transfer)
		}
		if got := transfer.RemainingLinks(); len(got) != 1 || got[0] != "b" {
			t.Fatalf("unexpected remaining links: %v", got)
		}
	})

	mt.Run("not found", func(mt *mtest.T) {
		repo := &MongoTransferRepository{collection: mt.Coll}
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "savebot.transfers", mtest.FirstBatch))

		_, err := repo.Get(context.Background(), 404)
		if !errors.Is(err, ErrTransferNotFound) {
			t.Fatalf("expected ErrTransferNotFound, got %v", err)
		}
	})
}

func TestMongoTransferRepositoryListByStatuses(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("returns matching records", func(mt *mtest.T) {
		repo := &MongoTransferRepository{collection: mt.Coll}
		first := mtest.CreateCursorResponse(1, "savebot.transfers", mtest.FirstBatch, bson.D{
			{Key: "_id", Value: int64(1)},
			{Key: "user_id", Value: int64(5)},
			{Key: "status", Value: models.TransferStatusSleeping},
		})
		second := mtest.CreateCursorResponse(0, "savebot.transfers", mtest.NextBatch, bson.D{
			{Key: "_id", Value: int64(2)},
			{Key: "user_id", Value: int64(6)},
			{Key: "status", Value: models.TransferStatusInProgress},
		})
		mt.AddMockResponses(first, second)

		transfers, err := repo.ListByStatuses(context.Background(), []string{
			models.TransferStatusSleeping,
			models.TransferStatusInProgress,
		})
		if err != nil {
			t.Fatalf("ListByStatuses failed: %v", err)
		}
		if len(transfers) != 2 {
			t.Fatalf("expected 2 transfers, got %d", len(transfers))
		}
	})
}

func TestMongoTransferRepositoryUpdateStatus(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("success", func(mt *mtest.T) {
		repo := &MongoTransferRepository{collection: mt.Coll}
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		if err := repo.UpdateStatus(context.Background(), 42, models.TransferStatusCancelled); err != nil {
			t.Fatalf("UpdateStatus failed: %v", err)
		}
	})
}
