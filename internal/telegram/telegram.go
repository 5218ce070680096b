package telegram

import (
	"context"
	"fmt"
	"sync"

	"github.com/go-telegram/bot"
	"go.mongodb.org/mongo-driver/mongo"

	"savebot/internal/config"
	"savebot/internal/logger"
	"savebot/internal/telegram/repository"
	"savebot/internal/telegram/transfer"
	"savebot/internal/telegram/transport"
)

// Bot Telegram Bot 服务
type Bot struct {
	bot  *bot.Bot
	cfg  *config.Config
	pool *WorkerPool

	client   transport.BotClient
	sessions *transport.Sessions
	registry *transfer.Registry
	engine   *transfer.Engine
	resumer  *transfer.Resumer

	transferRepo  repository.TransferRepository
	messageRepo   repository.MessageRepository
	channelRepo   repository.ChannelRepository
	userRepo      repository.UserRepository
	mediaTypeRepo repository.MediaTypeRepository

	// 会话式输入等待表（/batch 追问链接时使用）
	askMu sync.Mutex
	asks  map[int64]chan string
}

// New 创建 Telegram Bot 实例
// indexer 为 nil 时 Notion 相关功能不可用，其余功能不受影响。
func New(cfg *config.Config, db *mongo.Database, sessions *transport.Sessions, indexer transfer.Indexer) (*Bot, error) {
	if cfg.TelegramToken == "" {
		return nil, fmt.Errorf("telegram token cannot be empty")
	}

	telegramBot := &Bot{
		cfg:           cfg,
		pool:          NewWorkerPool(10, 100),
		sessions:      sessions,
		registry:      transfer.NewRegistry(),
		transferRepo:  repository.NewTransferRepository(db),
		messageRepo:   repository.NewMessageRepository(db),
		channelRepo:   repository.NewChannelRepository(db),
		userRepo:      repository.NewUserRepository(db),
		mediaTypeRepo: repository.NewMediaTypeRepository(db),
		asks:          make(map[int64]chan string),
	}

	b, err := bot.New(cfg.TelegramToken,
		bot.WithDefaultHandler(telegramBot.asyncHandler(telegramBot.handleDefault)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}
	telegramBot.bot = b
	telegramBot.client = transport.NewBotAPIClient(b)

	telegramBot.engine = transfer.NewEngine(transfer.Deps{
		Bot:        telegramBot.client,
		Sessions:   sessions,
		Registry:   telegramBot.registry,
		Transfers:  telegramBot.transferRepo,
		Messages:   telegramBot.messageRepo,
		Channels:   telegramBot.channelRepo,
		Users:      telegramBot.userRepo,
		MediaTypes: telegramBot.mediaTypeRepo,
		Indexer:    indexer,
	}, transfer.Options{
		FilesLogChatID:    cfg.FilesLogChatID,
		SleepTime:         cfg.SleepTime,
		ProgressThreshold: cfg.ProgressThreshold,
	})
	telegramBot.resumer = transfer.NewResumer(telegramBot.client, telegramBot.transferRepo, telegramBot.registry)

	telegramBot.registerHandlers()

	if err := telegramBot.ensureIndexes(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to ensure indexes: %w", err)
	}

	logger.L().Info("Telegram bot initialized successfully")
	return telegramBot, nil
}

// Start 启动 Bot（阻塞式，应在 goroutine 中运行）
// 启动前先把重启前挂起的批次通知到属主。
func (b *Bot) Start(ctx context.Context) error {
	if err := b.resumer.AnnouncePending(ctx); err != nil {
		logger.L().Errorf("Failed to announce pending transfers: %v", err)
	}

	logger.L().Info("Starting Telegram bot...")
	b.bot.Start(ctx)
	logger.L().Info("Telegram bot stopped")
	return nil
}

// Shutdown 收尾：在册批次转为 sleeping，等工作池排空
func (b *Bot) Shutdown(ctx context.Context) {
	b.resumer.MarkSleeping(ctx)
	b.pool.Shutdown()
}

// Registry 暴露任务镜像（应用层状态查询用）
func (b *Bot) Registry() *transfer.Registry {
	return b.registry
}

// registerHandlers 注册全部命令和回调
func (b *Bot) registerHandlers() {
	b.bot.RegisterHandler(bot.HandlerTypeMessageText, "/start", bot.MatchTypePrefix, b.asyncHandler(b.handleStart))
	b.bot.RegisterHandler(bot.HandlerTypeMessageText, "/help", bot.MatchTypePrefix, b.asyncHandler(b.handleHelp))
	b.bot.RegisterHandler(bot.HandlerTypeMessageText, "/batch", bot.MatchTypePrefix, b.asyncHandler(b.handleBatch))
	b.bot.RegisterHandler(bot.HandlerTypeMessageText, "/nbatch", bot.MatchTypePrefix, b.asyncHandler(b.handleNbatch))
	b.bot.RegisterHandler(bot.HandlerTypeMessageText, "/cancel", bot.MatchTypePrefix, b.asyncHandler(b.handleCancelCommand))
	b.bot.RegisterHandler(bot.HandlerTypeMessageText, "/status", bot.MatchTypePrefix, b.asyncHandler(b.handleStatus))
	b.bot.RegisterHandler(bot.HandlerTypeMessageText, "/mediatype", bot.MatchTypePrefix, b.asyncHandler(b.RequireOwner(b.handleMediaType)))

	b.bot.RegisterHandler(bot.HandlerTypeCallbackQueryData, "cancel ", bot.MatchTypePrefix, b.asyncHandler(b.handleCancelCallback))
	b.bot.RegisterHandler(bot.HandlerTypeCallbackQueryData, "resume ", bot.MatchTypePrefix, b.asyncHandler(b.handleResumeCallback))
}

// ensureIndexes 确保所有数据库索引存在
func (b *Bot) ensureIndexes(ctx context.Context) error {
	if err := b.transferRepo.EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("failed to ensure transfer indexes: %w", err)
	}
	if err := b.messageRepo.EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("failed to ensure message indexes: %w", err)
	}
	if err := b.channelRepo.EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("failed to ensure channel indexes: %w", err)
	}

	logger.L().Debug("Database indexes ensured")
	return nil
}
