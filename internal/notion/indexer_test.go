package notion

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"savebot/internal/telegram/models"
)

type stubMessages struct {
	mu      sync.Mutex
	records []*models.MessageRecord
	indexed map[string]string // record id -> page id
}

func (s *stubMessages) Upsert(ctx context.Context, record *models.MessageRecord) (string, bool, error) {
	return "", false, fmt.Errorf("not used")
}

func (s *stubMessages) GetByNaturalKey(ctx context.Context, chatID int64, messageID int) (*models.MessageRecord, error) {
	return nil, fmt.Errorf("not used")
}

func (s *stubMessages) ListUnindexed(ctx context.Context) ([]*models.MessageRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.MessageRecord
	for _, r := range s.records {
		if !r.Indexed {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *stubMessages) MarkIndexed(ctx context.Context, id string, notionPageID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.indexed[id] = notionPageID
	for _, r := range s.records {
		if r.ID.Hex() == id {
			r.Indexed = true
		}
	}
	return nil
}

func (s *stubMessages) EnsureIndexes(ctx context.Context) error { return nil }

type stubMappings struct {
	mu    sync.Mutex
	pages map[string]string // "chatID/topicID" -> page id
}

func (s *stubMappings) key(chatID int64, topicID int) string {
	return fmt.Sprintf("%d/%d", chatID, topicID)
}

func (s *stubMappings) GetPageID(ctx context.Context, chatID int64, topicID int) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pages[s.key(chatID, topicID)], nil
}

func (s *stubMappings) Save(ctx context.Context, mapping *models.NotionMapping) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pages[s.key(mapping.ChatID, mapping.TopicID)] = mapping.NotionPageID
	return nil
}

func TestIndexPending(t *testing.T) {
	var createdTitles []string
	pageSeq := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/pages", r.URL.Path)

		var payload struct {
			Properties struct {
				Title struct {
					Title []struct {
						Text struct {
							Content string `json:"content"`
						} `json:"text"`
					} `json:"title"`
				} `json:"title"`
			} `json:"properties"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		createdTitles = append(createdTitles, payload.Properties.Title.Title[0].Text.Content)

		pageSeq++
		_ = json.NewEncoder(w).Encode(map[string]string{"id": fmt.Sprintf("page-%d", pageSeq)})
	}))
	defer server.Close()

	recordID := primitive.NewObjectID()
	messages := &stubMessages{
		indexed: map[string]string{},
		records: []*models.MessageRecord{{
			ID:          recordID,
			MessageID:   42,
			ChatID:      -100123,
			TopicID:     7,
			ChannelName: "资源频道",
			TopicName:   "电影",
			MediaKind:   models.MediaKindVideo,
			Size:        1024,
			Caption:     "测试视频",
			MediaURL:    "fu-9",
			CreatedAt:   time.Now(),
		}},
	}
	mappings := &stubMappings{pages: map[string]string{}}

	indexer := NewIndexer(NewClient("tok", WithBaseURL(server.URL)), messages, mappings, "root-page")
	require.NoError(t, indexer.IndexPending(context.Background()))

	// 频道页、话题页、消息页各建一次
	assert.Equal(t, []string{"资源频道", "电影", "测试视频"}, createdTitles)
	assert.Equal(t, "page-3", messages.indexed[recordID.Hex()])

	// 映射已缓存，重复索引同来源不再建层级页
	channelPage, _ := mappings.GetPageID(context.Background(), -100123, 0)
	topicPage, _ := mappings.GetPageID(context.Background(), -100123, 7)
	assert.Equal(t, "page-1", channelPage)
	assert.Equal(t, "page-2", topicPage)

	// 全部标记已索引后再跑一遍是空操作
	require.NoError(t, indexer.IndexPending(context.Background()))
	assert.Equal(t, 3, pageSeq)
}
