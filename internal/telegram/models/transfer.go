package models

import "time"

// 转存任务状态常量
const (
	TransferStatusInProgress = "in_progress" // 正在处理
	TransferStatusCancelled  = "cancelled"   // 用户已取消
	TransferStatusSleeping   = "sleeping"    // 进程关闭时挂起（重启后由恢复流程认领）
	TransferStatusNone       = ""            // 已通知用户、等待手动恢复
)

// Transfer 转存任务记录
// 每条记录对应一个批次；_id 为引擎生成的随机数字 ID。
// 记录在批次收尾（完成、取消、会话失效）后删除；只有进程中途
// 退出时记录才会留在数据库里，供重启后恢复剩余链接。
type Transfer struct {
	ID        int64     `bson:"_id"`        // 下载任务 ID（随机生成，活跃期间唯一）
	UserID    int64     `bson:"user_id"`    // 发起用户 ID
	Links     []string  `bson:"links"`      // 本批次的全部链接（按顺序）
	LinkIndex int       `bson:"link_index"` // 当前处理到的链接下标（从 0 开始）
	Status    string    `bson:"status"`     // in_progress/cancelled/sleeping/空
	// 触发本批次的原始命令消息，恢复时用它重新读取剩余链接
	OriginChatID    int64     `bson:"user_message_chat_id"`
	OriginMessageID int       `bson:"user_message_id"`
	CreatedAt       time.Time `bson:"created_at"` // 创建时间
}

// IsActive 记录是否处于活跃状态（未取消）
func (t *Transfer) IsActive() bool {
	return t.Status == TransferStatusInProgress
}

// IsCancelled 记录是否已被取消
func (t *Transfer) IsCancelled() bool {
	return t.Status == TransferStatusCancelled
}

// RemainingLinks 返回尚未处理的链接尾部
func (t *Transfer) RemainingLinks() []string {
	if t.LinkIndex < 0 || t.LinkIndex >= len(t.Links) {
		return nil
	}
	return t.Links[t.LinkIndex:]
}
