package app

import (
	"context"
	"fmt"

	"savebot/internal/config"
	"savebot/internal/logger"
	"savebot/internal/mongo"
	"savebot/internal/notion"
	"savebot/internal/telegram"
	"savebot/internal/telegram/repository"
	"savebot/internal/telegram/transfer"
	"savebot/internal/telegram/transport"
	"savebot/internal/webserver"
)

// App 应用服务容器
// 负责管理所有服务的生命周期（初始化、运行、关闭）
type App struct {
	MongoDB  *mongo.Client
	Bot      *telegram.Bot
	Web      *webserver.Server
	Sessions *transport.Sessions
}

// New 初始化应用及其所有服务
// 按顺序初始化各个服务，任何服务初始化失败都会返回错误
func New(cfg *config.Config) (*App, error) {
	app := &App{
		Sessions: transport.NewSessions(),
	}

	mongoClient, err := mongo.InitFromConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("init MongoDB failed: %w", err)
	}
	app.MongoDB = mongoClient
	logger.L().Info("MongoDB initialized successfully")

	db := mongoClient.Database()

	// Notion 集成按配置可选
	var indexer transfer.Indexer
	if cfg.NotionEnabled() {
		client := notion.NewClient(cfg.Notion.Token)
		indexer = notion.NewIndexer(client,
			repository.NewMessageRepository(db),
			repository.NewNotionMappingRepository(db),
			cfg.Notion.ParentPageID)
		logger.L().Info("Notion integration enabled")
	}

	bot, err := telegram.New(cfg, db, app.Sessions, indexer)
	if err != nil {
		_ = app.Close(context.Background())
		return nil, fmt.Errorf("init Telegram bot failed: %w", err)
	}
	app.Bot = bot

	if cfg.WebServerEnabled {
		app.Web = webserver.New(cfg.WebServerAddr)
	}

	return app, nil
}

// Close 优雅关闭所有服务
// 应该在应用退出时调用，确保资源正确释放
func (a *App) Close(ctx context.Context) error {
	if a.Bot != nil {
		a.Bot.Shutdown(ctx)
	}
	if a.Web != nil {
		if err := a.Web.Shutdown(ctx); err != nil {
			logger.L().Errorf("Failed to shut down web server: %v", err)
		}
	}
	if a.MongoDB != nil {
		if err := a.MongoDB.Close(ctx); err != nil {
			return fmt.Errorf("close MongoDB failed: %w", err)
		}
	}
	return nil
}
