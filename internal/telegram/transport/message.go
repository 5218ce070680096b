package transport

// 消息内容种类判别值
// 媒体种类与 models 中的允许集合取值一致；其余为引擎的跳过分类。
const (
	KindText     = "text"
	KindPhoto    = "photo"
	KindVideo    = "video"
	KindAudio    = "audio"
	KindDocument = "document"
	KindSticker  = "sticker"
	KindService  = "service"
	KindEmpty    = "empty"
)

// ChatRef 链接解析出的聊天引用
// 数字 ID 和公开用户名二选一
type ChatRef struct {
	ID       int64  // 内部数字 ID（频道为 -100 前缀负数空间）
	Username string // 公开用户名（不带 @）
}

// IsZero 引用是否为空
func (r ChatRef) IsZero() bool {
	return r.ID == 0 && r.Username == ""
}

// Chat 解析后的聊天信息
type Chat struct {
	ID       int64
	Title    string
	Username string
	IsForum  bool // 是否为话题（论坛）结构
}

// Message 通过委托会话读取的远端消息快照
// Kind 为显式判别值，避免按字段存在性反复探测。
type Message struct {
	ID       int
	ChatID   int64
	ChatName string
	Link     string

	TopicID   int    // 所在话题 ID（非话题消息为 0）
	TopicName string // 所在话题显示名

	Kind    string // 判别值，见 Kind* 常量
	Text    string // 纯文本消息的内容
	Caption string // 媒体消息的说明文字

	FileID   string // 媒体文件引用
	FileName string // 文件名（可能为空）
	FileSize int64  // 文件字节数
	MimeType string
}

// IsSkippable 是否应跳过（空消息、贴纸、服务消息）
func (m *Message) IsSkippable() bool {
	switch m.Kind {
	case KindEmpty, KindSticker, KindService:
		return true
	}
	return false
}

// HasMedia 是否携带需要下载的媒体
func (m *Message) HasMedia() bool {
	switch m.Kind {
	case KindPhoto, KindVideo, KindAudio, KindDocument:
		return true
	}
	return false
}

// MediaKind 媒体策略过滤用的种类（文本消息返回 "text"）
func (m *Message) MediaKind() string {
	if m.Kind == KindText {
		return KindText
	}
	return m.Kind
}

// CaptionOrText 返回说明文字或正文（归档副本的文案基线）
func (m *Message) CaptionOrText() string {
	if m.Text != "" {
		return m.Text
	}
	return m.Caption
}
