package models

import "time"

// Session 用户的委托账号会话引用
// 登录向导写入；会话失效时整体清空。
type Session struct {
	String   string `bson:"string,omitempty"`   // 序列化的会话凭据
	ID       int64  `bson:"id,omitempty"`       // 会话所属账号 ID
	Username string `bson:"username,omitempty"` // 会话所属账号用户名
}

// User 用户模型
type User struct {
	TelegramID int64     `bson:"_id"` // Telegram 用户 ID（唯一）
	Banned     bool      `bson:"banned"`
	Session    Session   `bson:"session"`
	CreatedAt  time.Time `bson:"created_at"`
}

// HasSession 用户是否有可用的委托会话
func (u *User) HasSession() bool {
	return u.Session.String != ""
}
