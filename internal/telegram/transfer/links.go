package transfer

import (
	"fmt"
	"strconv"
	"strings"

	"savebot/internal/telegram/transport"
)

// 识别为消息链接的域名
var linkDomains = []string{"t.me", "telegram.me", "telegram.dog", "tg://"}

// LinkParts 链接解析结果
type LinkParts struct {
	Chat      transport.ChatRef
	MessageID int
	TopicID   int // 0 表示非话题寻址
}

// IsLikelyLink 文本是否包含消息链接
func IsLikelyLink(text string) bool {
	for _, domain := range linkDomains {
		if strings.Contains(text, domain) {
			return true
		}
	}
	return false
}

// ParseLink 解析转存目标链接
//
// 支持两种形式：
//   - 深链接 tg://openmessage?user_id=..&message_id=..
//   - http(s) 链接 .../<聊天段>/<消息ID>[/<话题ID>]
//
// 纯数字聊天段映射到 -100 前缀的频道 ID 空间；其余视为公开用户名。
// 四段路径时末段为话题 ID、前一段为消息 ID（话题优先寻址）。
// 格式错误时返回 nil，调用方必须检查。
func ParseLink(link string) *LinkParts {
	link = strings.TrimSpace(link)

	if strings.HasPrefix(link, "tg://") {
		return parseDeepLink(link)
	}

	if !strings.HasPrefix(link, "http") {
		return nil
	}

	link = strings.TrimPrefix(link, "https://")
	link = strings.TrimPrefix(link, "http://")
	link = strings.ReplaceAll(link, "/c/", "/")
	link = strings.ReplaceAll(link, "/s/", "/")
	link = strings.ReplaceAll(link, "/b/", "/")
	link = strings.SplitN(link, "?", 2)[0]
	link = strings.TrimSuffix(link, "/")

	parts := strings.Split(link, "/")
	if len(parts) < 3 {
		return nil
	}

	result := &LinkParts{Chat: parseChatSegment(parts[1])}
	if result.Chat.IsZero() {
		return nil
	}

	messageID, err := strconv.Atoi(parts[2])
	if err != nil {
		return nil
	}
	result.MessageID = messageID

	if len(parts) == 4 {
		topicID, err := strconv.Atoi(parts[3])
		if err != nil {
			return nil
		}
		result.TopicID = topicID
	}

	return result
}

// parseDeepLink 解析 tg://openmessage 深链接
func parseDeepLink(link string) *LinkParts {
	if !strings.Contains(link, "openmessage?") {
		return nil
	}

	query := strings.SplitN(link, "?", 2)
	if len(query) != 2 {
		return nil
	}

	params := make(map[string]string)
	for _, pair := range strings.Split(query[1], "&") {
		kv := strings.SplitN(pair, "=", 2)
		if len(kv) != 2 {
			continue
		}
		params[kv[0]] = kv[1]
	}

	userID := params["user_id"]
	if userID == "" {
		return nil
	}

	messageID, err := strconv.Atoi(params["message_id"])
	if err != nil {
		return nil
	}

	result := &LinkParts{MessageID: messageID}
	if id, err := strconv.ParseInt(userID, 10, 64); err == nil {
		// 深链接携带的是用户 ID，不做频道空间映射
		result.Chat = transport.ChatRef{ID: id}
	} else {
		result.Chat = transport.ChatRef{Username: strings.TrimPrefix(userID, "@")}
	}
	return result
}

// parseChatSegment 解析聊天段
// 纯数字段进入 -100 前缀的广播频道数字空间
func parseChatSegment(segment string) transport.ChatRef {
	if segment == "" {
		return transport.ChatRef{}
	}
	if isDigits(segment) {
		id, err := strconv.ParseInt("-100"+segment, 10, 64)
		if err != nil {
			return transport.ChatRef{}
		}
		return transport.ChatRef{ID: id}
	}
	return transport.ChatRef{Username: strings.TrimPrefix(segment, "@")}
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// ExpandRange 用数量展开批量范围
// 返回与 first 同聊天、ID 为 first+count-1 的终点；话题寻址时在话题 ID 上展开
func ExpandRange(first *LinkParts, count int) *LinkParts {
	last := &LinkParts{
		Chat:      first.Chat,
		MessageID: first.MessageID + count - 1,
		TopicID:   first.TopicID,
	}
	if first.TopicID != 0 {
		last.TopicID = first.TopicID + count - 1
		last.MessageID = first.MessageID
	}
	return last
}

// ValidateRange 校验批量范围的两个端点
func ValidateRange(first, last *LinkParts) error {
	if first.Chat != last.Chat {
		return fmt.Errorf("两条链接必须来自同一个聊天")
	}
	if last.MessageID < first.MessageID {
		return fmt.Errorf("结束消息必须不早于起始消息")
	}
	if first.TopicID != 0 && last.TopicID < first.TopicID {
		return fmt.Errorf("结束话题必须不早于起始话题")
	}
	return nil
}

// BuildLink 由聊天引用重建规范链接
func BuildLink(chat transport.ChatRef, messageID, topicID int) string {
	var base string
	if chat.Username != "" {
		base = "https://t.me/" + chat.Username
	} else {
		base = "https://t.me/c/" + strings.TrimPrefix(strconv.FormatInt(chat.ID, 10), "-100")
	}
	if topicID != 0 {
		return fmt.Sprintf("%s/%d/%d", base, messageID, topicID)
	}
	return fmt.Sprintf("%s/%d", base, messageID)
}

// RangeLinks 把批量范围展开成逐条链接
func RangeLinks(first, last *LinkParts) []string {
	ids := RangeIDs(first, last)
	links := make([]string, 0, len(ids))
	for _, id := range ids {
		if first.TopicID != 0 {
			links = append(links, BuildLink(first.Chat, first.MessageID, id))
		} else {
			links = append(links, BuildLink(first.Chat, id, 0))
		}
	}
	return links
}

// RangeIDs 返回范围内待抓取的消息 ID 列表
// 话题寻址时在话题 ID 区间上展开（链接的话题段充当抓取 ID）
func RangeIDs(first, last *LinkParts) []int {
	from, to := first.MessageID, last.MessageID
	if first.TopicID != 0 && last.TopicID != 0 {
		from, to = first.TopicID, last.TopicID
	}

	ids := make([]int, 0, to-from+1)
	for id := from; id <= to; id++ {
		ids = append(ids, id)
	}
	return ids
}
