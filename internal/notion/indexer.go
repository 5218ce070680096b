package notion

import (
	"context"
	"fmt"
	"strings"
	"time"

	"savebot/internal/logger"
	"savebot/internal/telegram/models"
	"savebot/internal/telegram/repository"
	"savebot/internal/telegram/transfer"
)

// Indexer 把归档消息的元数据索引成 Notion 页面
//
// 页面按 父页面 > 频道页面 > 话题页面 > 消息页面 的层级组织，
// 频道/话题页面 ID 缓存在映射集合里，同一来源不会重复建页。
type Indexer struct {
	client       *Client
	messages     repository.MessageRepository
	mappings     repository.NotionMappingRepository
	parentPageID string
}

// NewIndexer 创建索引器
func NewIndexer(client *Client, messages repository.MessageRepository, mappings repository.NotionMappingRepository, parentPageID string) *Indexer {
	return &Indexer{
		client:       client,
		messages:     messages,
		mappings:     mappings,
		parentPageID: parentPageID,
	}
}

// UploadFile 上传媒体副本，返回 file upload ID
func (i *Indexer) UploadFile(ctx context.Context, path string) (string, error) {
	return i.client.UploadFile(ctx, path)
}

// IndexPending 处理全部待索引记录
// 单条记录的失败只记日志并跳过，不影响其余记录。
func (i *Indexer) IndexPending(ctx context.Context) error {
	pending, err := i.messages.ListUnindexed(ctx)
	if err != nil {
		return fmt.Errorf("failed to list unindexed records: %w", err)
	}

	for _, record := range pending {
		pageID, err := i.indexRecord(ctx, record)
		if err != nil {
			logger.L().Errorf("Failed to index message %d/%d: %v", record.ChatID, record.MessageID, err)
			continue
		}
		if err := i.messages.MarkIndexed(ctx, record.ID.Hex(), pageID); err != nil {
			logger.L().Errorf("Failed to mark message %d/%d indexed: %v", record.ChatID, record.MessageID, err)
		}
	}
	return nil
}

// indexRecord 为一条记录建立消息页面，返回页面 ID
func (i *Indexer) indexRecord(ctx context.Context, record *models.MessageRecord) (string, error) {
	parent, err := i.ensureChannelPage(ctx, record)
	if err != nil {
		return "", err
	}
	if record.TopicID != 0 {
		parent, err = i.ensureTopicPage(ctx, record, parent)
		if err != nil {
			return "", err
		}
	}

	return i.client.CreatePage(ctx, parent, pageTitle(record), buildBlocks(record))
}

// ensureChannelPage 定位或创建频道页面
func (i *Indexer) ensureChannelPage(ctx context.Context, record *models.MessageRecord) (string, error) {
	pageID, err := i.mappings.GetPageID(ctx, record.ChatID, 0)
	if err != nil {
		return "", fmt.Errorf("lookup channel page failed: %w", err)
	}
	if pageID != "" {
		return pageID, nil
	}

	name := record.ChannelName
	if name == "" {
		name = fmt.Sprintf("频道 %d", record.ChatID)
	}

	pageID, err = i.client.CreatePage(ctx, i.parentPageID, name, nil)
	if err != nil {
		return "", err
	}

	if err := i.mappings.Save(ctx, &models.NotionMapping{
		ChatID:       record.ChatID,
		ChatName:     record.ChannelName,
		NotionPageID: pageID,
	}); err != nil {
		return "", fmt.Errorf("save channel mapping failed: %w", err)
	}
	return pageID, nil
}

// ensureTopicPage 定位或创建话题子页面
func (i *Indexer) ensureTopicPage(ctx context.Context, record *models.MessageRecord, channelPageID string) (string, error) {
	pageID, err := i.mappings.GetPageID(ctx, record.ChatID, record.TopicID)
	if err != nil {
		return "", fmt.Errorf("lookup topic page failed: %w", err)
	}
	if pageID != "" {
		return pageID, nil
	}

	name := record.TopicName
	if name == "" {
		name = fmt.Sprintf("话题 %d", record.TopicID)
	}

	pageID, err = i.client.CreatePage(ctx, channelPageID, name, nil)
	if err != nil {
		return "", err
	}

	if err := i.mappings.Save(ctx, &models.NotionMapping{
		ChatID:       record.ChatID,
		ChatName:     record.ChannelName,
		TopicID:      record.TopicID,
		TopicName:    record.TopicName,
		NotionPageID: pageID,
	}); err != nil {
		return "", fmt.Errorf("save topic mapping failed: %w", err)
	}
	return pageID, nil
}

// buildBlocks 渲染消息页面的内容块
func buildBlocks(record *models.MessageRecord) []Block {
	blocks := []Block{
		Callout(sourceLine(record), "📢"),
		Divider(),
	}

	if record.MediaURL != "" {
		blocks = append(blocks, MediaBlock(record.MediaKind, record.MediaURL))
	}
	if record.Caption != "" {
		blocks = append(blocks, Quote(ChunkText(record.Caption, textChunkLimit)[0]))
		if paragraphs := Paragraphs(record.Caption); len(paragraphs) > 1 {
			blocks = append(blocks, paragraphs[1:]...)
		}
	}

	blocks = append(blocks, Divider(), Callout(footerLine(record), "🗂"))
	return blocks
}

// sourceLine 页面头部的来源信息
func sourceLine(record *models.MessageRecord) string {
	var b strings.Builder
	if record.ChannelName != "" {
		b.WriteString(record.ChannelName)
	} else {
		fmt.Fprintf(&b, "%d", record.ChatID)
	}
	if record.TopicName != "" {
		b.WriteString(" > ")
		b.WriteString(record.TopicName)
	}
	fmt.Fprintf(&b, " · #%d · %s", record.MessageID, record.CreatedAt.Format(time.DateTime))
	return b.String()
}

// footerLine 页面尾部的媒体信息
func footerLine(record *models.MessageRecord) string {
	parts := []string{record.MediaKind}
	if record.MediaTitle != "" {
		parts = append(parts, record.MediaTitle)
	}
	if record.Size > 0 {
		parts = append(parts, transfer.HumanBytes(record.Size))
	}
	return strings.Join(parts, " · ")
}

// pageTitle 消息页面标题
// 取说明文字首行（截断），其次文件名，最后落到种类加消息 ID。
func pageTitle(record *models.MessageRecord) string {
	if record.Caption != "" {
		line := record.Caption
		if idx := strings.IndexByte(line, '\n'); idx >= 0 {
			line = line[:idx]
		}
		runes := []rune(line)
		if len(runes) > 80 {
			line = string(runes[:80])
		}
		if line != "" {
			return line
		}
	}
	if record.MediaTitle != "" {
		return record.MediaTitle
	}
	return fmt.Sprintf("%s #%d", record.MediaKind, record.MessageID)
}
