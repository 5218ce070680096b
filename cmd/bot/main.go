package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"savebot/internal/app"
	"savebot/internal/config"
	"savebot/internal/logger"
)

func main() {
	logger.Init()

	cfg, err := config.Load()
	if err != nil {
		logger.L().Fatalf("Failed to load config: %v", err)
	}

	application, err := app.New(cfg)
	if err != nil {
		logger.L().Fatalf("Failed to initialize application: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if application.Web != nil {
		go func() {
			if err := application.Web.Start(); err != nil {
				logger.L().Errorf("Web server error: %v", err)
			}
		}()
	}

	if err := application.Bot.Start(ctx); err != nil {
		logger.L().Errorf("Bot stopped with error: %v", err)
	}

	// 收尾：挂起的批次落库为 sleeping，资源有序释放
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := application.Close(shutdownCtx); err != nil {
		logger.L().Errorf("Shutdown error: %v", err)
	}

	logger.L().Info("Application stopped")
}
