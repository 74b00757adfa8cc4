package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"time"

	"go.uber.org/zap"

	"github.com/adiallo/spendbot/internal/config"
	"github.com/adiallo/spendbot/internal/repository/mongodb"
	"github.com/adiallo/spendbot/internal/repository/sheets"
	"github.com/adiallo/spendbot/internal/scheduler"
	"github.com/adiallo/spendbot/internal/server/handlers"
	"github.com/adiallo/spendbot/internal/server/router"
	authsvc "github.com/adiallo/spendbot/internal/service/auth"
	commandsvc "github.com/adiallo/spendbot/internal/service/commands"
	reportingsvc "github.com/adiallo/spendbot/internal/service/reporting"
	telegramsvc "github.com/adiallo/spendbot/internal/service/telegram"
	telegramclient "github.com/adiallo/spendbot/pkg/clients/telegram"
	"github.com/adiallo/spendbot/pkg/logger"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}

	baseLogger := logger.Must(logger.New())
	defer func() { _ = baseLogger.Sync() }()

	zap.ReplaceGlobals(baseLogger)

	directory, err := mongodb.NewMongoDBDirectory(context.Background(), cfg.MongoDB.URI, cfg.MongoDB.DBName)
	if err != nil {
		baseLogger.Fatal("failed to init user directory", zap.Error(err))
	}
	defer func() {
		if err := directory.Close(context.Background()); err != nil {
			baseLogger.Error("failed to close mongodb connection", zap.Error(err))
		}
	}()

	authorizer := authsvc.NewService(cfg.Google)
	ledger := sheets.NewGoogleSheetLedger(authorizer.OAuthConfig(), baseLogger.Named("repo.sheets"))

	commandDispatcher := commandsvc.NewService(directory, ledger, authorizer, baseLogger.Named("svc.commands"))
	digestSvc := reportingsvc.NewService(ledger, baseLogger.Named("svc.reporting"))

	tgClient := telegramclient.NewClient(cfg.Telegram)
	messagingSvc := telegramsvc.NewBotService(cfg.Telegram, tgClient, commandDispatcher, baseLogger.Named("svc.telegram"))

	webhookHandler := handlers.NewWebhookHandler(messagingSvc, baseLogger.Named("handlers.telegram"))
	authHandler := handlers.NewAuthHandler(authorizer, directory, ledger, messagingSvc, baseLogger.Named("handlers.auth"))
	engine := router.New(webhookHandler, authHandler, baseLogger.Named("router"))

	sched := scheduler.NewScheduler(cfg.Digest, directory, digestSvc, messagingSvc, baseLogger.Named("scheduler"))
	sched.Start()
	defer sched.Stop()

	if cfg.Server.BaseURL != "" {
		webhookURL := cfg.Server.BaseURL + "/telegram/webhook"
		if err := tgClient.SetWebhook(context.Background(), webhookURL, cfg.Telegram.WebhookSecret); err != nil {
			baseLogger.Error("failed to register telegram webhook", zap.String("url", webhookURL), zap.Error(err))
		} else {
			baseLogger.Info("telegram webhook registered", zap.String("url", webhookURL))
		}
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	go func() {
		baseLogger.Info("server starting", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			baseLogger.Fatal("http server crashed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	baseLogger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		baseLogger.Error("graceful shutdown failed", zap.Error(err))
	}
}
