package notion

// Block Notion 内容块
// 直接以 map 构造 API 负载，块类型有限且结构浅，不值得做成类型树。
type Block map[string]any

// Notion 单个富文本元素的长度上限（按字符计）
const textChunkLimit = 2000

// richText 构造富文本数组
func richText(text string) []map[string]any {
	return []map[string]any{
		{"type": "text", "text": map[string]any{"content": text}},
	}
}

// ChunkText 按字符数切分文本
// 超过 Notion 单元素上限的文本必须拆成多个块。
func ChunkText(text string, limit int) []string {
	runes := []rune(text)
	if len(runes) <= limit {
		return []string{text}
	}

	var chunks []string
	for len(runes) > 0 {
		n := limit
		if n > len(runes) {
			n = len(runes)
		}
		chunks = append(chunks, string(runes[:n]))
		runes = runes[n:]
	}
	return chunks
}

// Paragraph 段落块
func Paragraph(text string) Block {
	return Block{
		"object": "block",
		"type":   "paragraph",
		"paragraph": map[string]any{
			"rich_text": richText(text),
		},
	}
}

// Paragraphs 把长文本拆成若干段落块
func Paragraphs(text string) []Block {
	chunks := ChunkText(text, textChunkLimit)
	blocks := make([]Block, 0, len(chunks))
	for _, chunk := range chunks {
		blocks = append(blocks, Paragraph(chunk))
	}
	return blocks
}

// Quote 引用块
func Quote(text string) Block {
	return Block{
		"object": "block",
		"type":   "quote",
		"quote": map[string]any{
			"rich_text": richText(text),
		},
	}
}

// Callout 标注块
func Callout(text, emoji string) Block {
	return Block{
		"object": "block",
		"type":   "callout",
		"callout": map[string]any{
			"rich_text": richText(text),
			"icon":      map[string]any{"type": "emoji", "emoji": emoji},
		},
	}
}

// Divider 分隔线块
func Divider() Block {
	return Block{
		"object":  "block",
		"type":    "divider",
		"divider": map[string]any{},
	}
}

// Heading 三级标题块
func Heading(text string) Block {
	return Block{
		"object": "block",
		"type":   "heading_3",
		"heading_3": map[string]any{
			"rich_text": richText(text),
		},
	}
}

// MediaBlock 引用已上传文件的媒体块
// kind 为 photo/video/audio/document，其余落到通用 file 块。
func MediaBlock(kind, fileUploadID string) Block {
	blockType := "file"
	switch kind {
	case "photo":
		blockType = "image"
	case "video":
		blockType = "video"
	case "audio":
		blockType = "audio"
	}

	return Block{
		"object": "block",
		"type":   blockType,
		blockType: map[string]any{
			"type":        "file_upload",
			"file_upload": map[string]any{"id": fileUploadID},
		},
	}
}
