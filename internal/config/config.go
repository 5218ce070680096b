package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config 应用程序配置
type Config struct {
	TelegramToken string  // Telegram Bot API Token
	BotOwnerIDs   []int64 // Bot管理员ID列表
	MongoURI      string  // MongoDB连接URI
	MongoDBName   string  // MongoDB数据库名称

	FilesLogChatID    int64 // 文件归档频道 ID（所有转存的中转副本）
	UserInfoLogChatID int64 // 新用户通知频道 ID（可选）

	SleepTime         time.Duration // 链接之间的固定间隔（防止触发限流）
	ProgressThreshold int64         // 小于该字节数的下载不显示进度面板

	Notion NotionConfig

	WebServerEnabled bool   // 是否启动健康检查 HTTP 服务
	WebServerAddr    string // HTTP 监听地址
}

// NotionConfig Notion 集成配置
type NotionConfig struct {
	Token        string // Notion integration token
	ParentPageID string // 默认父页面 ID（频道页面挂在其下）
}

// 默认值
const (
	defaultSleepTime         = 60 * time.Second
	defaultProgressThreshold = 50_000_000 // 50 MB
	defaultWebServerAddr     = "0.0.0.0:8000"
)

// Load 从环境变量加载配置
// 存在 config.env 或 .env 文件时先加载到环境变量（缺失不视为错误）
func Load() (*Config, error) {
	if _, err := os.Stat("config.env"); err == nil {
		_ = godotenv.Load("config.env")
	} else {
		_ = godotenv.Load()
	}

	mongoDBName := os.Getenv("MONGO_DB_NAME")
	if mongoDBName == "" {
		mongoDBName = "savebot"
	}

	cfg := &Config{
		TelegramToken:     os.Getenv("TELEGRAM_TOKEN"),
		MongoURI:          os.Getenv("MONGO_URI"),
		MongoDBName:       mongoDBName,
		SleepTime:         defaultSleepTime,
		ProgressThreshold: defaultProgressThreshold,
		WebServerAddr:     defaultWebServerAddr,
	}

	if cfg.TelegramToken == "" {
		return nil, fmt.Errorf("TELEGRAM_TOKEN is required")
	}

	// 解析BOT_OWNER_IDS
	ownerIDsStr := os.Getenv("BOT_OWNER_IDS")
	if ownerIDsStr != "" {
		var err error
		cfg.BotOwnerIDs, err = parseOwnerIDs(ownerIDsStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse BOT_OWNER_IDS: %w", err)
		}
	}

	// 解析FILES_LOG（归档频道，必填）
	filesLog, err := parseChatID("FILES_LOG")
	if err != nil {
		return nil, err
	}
	if filesLog == 0 {
		return nil, fmt.Errorf("FILES_LOG is required")
	}
	cfg.FilesLogChatID = filesLog

	// 解析USER_INFO_LOG（可选）
	userInfoLog, err := parseChatID("USER_INFO_LOG")
	if err != nil {
		return nil, err
	}
	cfg.UserInfoLogChatID = userInfoLog

	// 解析SLEEP_TIME（秒，默认60）
	if sleepStr := strings.TrimSpace(os.Getenv("SLEEP_TIME")); sleepStr != "" {
		seconds, err := strconv.Atoi(sleepStr)
		if err != nil || seconds < 0 {
			return nil, fmt.Errorf("invalid SLEEP_TIME: %s", sleepStr)
		}
		cfg.SleepTime = time.Duration(seconds) * time.Second
	}

	// 解析PROGRESS_THRESHOLD（字节，默认50MB）
	if thresholdStr := strings.TrimSpace(os.Getenv("PROGRESS_THRESHOLD")); thresholdStr != "" {
		threshold, err := strconv.ParseInt(thresholdStr, 10, 64)
		if err != nil || threshold < 0 {
			return nil, fmt.Errorf("invalid PROGRESS_THRESHOLD: %s", thresholdStr)
		}
		cfg.ProgressThreshold = threshold
	}

	// Notion 配置（可选，未配置时 /nbatch 索引功能不可用）
	cfg.Notion = NotionConfig{
		Token:        strings.TrimSpace(os.Getenv("NOTION_TOKEN")),
		ParentPageID: strings.TrimSpace(os.Getenv("NOTION_PARENT_PAGE_ID")),
	}

	// 解析WEB_SERVER（默认关闭）
	if enabled := strings.TrimSpace(os.Getenv("WEB_SERVER")); enabled != "" {
		value, err := strconv.ParseBool(enabled)
		if err != nil {
			return nil, fmt.Errorf("failed to parse WEB_SERVER: %w", err)
		}
		cfg.WebServerEnabled = value
	}
	if addr := strings.TrimSpace(os.Getenv("WEB_SERVER_ADDR")); addr != "" {
		cfg.WebServerAddr = addr
	}

	return cfg, nil
}

// parseOwnerIDs 解析逗号分隔的用户ID字符串
// 支持格式: "123456789" 或 "123456789,987654321"
func parseOwnerIDs(s string) ([]int64, error) {
	parts := strings.Split(s, ",")
	ids := make([]int64, 0, len(parts))

	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid owner ID %q: %w", part, err)
		}
		ids = append(ids, id)
	}

	return ids, nil
}

// parseChatID 解析环境变量中的聊天 ID（缺失时返回 0）
func parseChatID(name string) (int64, error) {
	s := strings.TrimSpace(os.Getenv(name))
	if s == "" {
		return 0, nil
	}
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse %s: %w", name, err)
	}
	return id, nil
}

// IsOwner 判断用户是否在 Owner 列表中
func (c *Config) IsOwner(userID int64) bool {
	for _, id := range c.BotOwnerIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// NotionEnabled Notion 集成是否已配置
func (c *Config) NotionEnabled() bool {
	return c.Notion.Token != "" && c.Notion.ParentPageID != ""
}
