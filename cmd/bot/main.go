package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	goredis "github.com/go-redis/redis/v8"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	_ "github.com/joho/godotenv/autoload"

	"github.com/romanzzaa/domainape-bot/internal/bot"
	"github.com/romanzzaa/domainape-bot/internal/config"
	"github.com/romanzzaa/domainape-bot/internal/domain"
	"github.com/romanzzaa/domainape-bot/internal/infrastructure/database"
	"github.com/romanzzaa/domainape-bot/internal/infrastructure/doma"
	"github.com/romanzzaa/domainape-bot/internal/infrastructure/peter"
	"github.com/romanzzaa/domainape-bot/internal/infrastructure/redis"
	"github.com/romanzzaa/domainape-bot/internal/infrastructure/telegram"
	"github.com/romanzzaa/domainape-bot/internal/server"
	"github.com/romanzzaa/domainape-bot/internal/usecase"
	"github.com/romanzzaa/domainape-bot/internal/worker"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	db, err := database.NewConnection(database.Config{
		Host: cfg.Database.Host, Port: cfg.Database.Port, User: cfg.Database.User,
		Password: cfg.Database.Password, DBName: cfg.Database.DBName, SSLMode: cfg.Database.SSLMode,
	})
	if err != nil {
		logger.Error("failed to connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer db.Close()

	subsRepo := database.NewSubscriptionRepository(db)

	var cursorStore domain.CursorStore
	if cfg.Poll.CursorBackend == "redis" {
		rdb := goredis.NewClient(&goredis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()
		cursorStore = redis.NewCursorStore(rdb)
	} else {
		cursorStore = database.NewCursorRepository(db)
	}

	feed := doma.NewClient(cfg.Doma.BaseURL, cfg.Doma.APIKey,
		&http.Client{Timeout: cfg.Doma.Timeout}, logger)
	analyzer := peter.NewClient(cfg.Peter.APIURL,
		&http.Client{Timeout: cfg.Peter.Timeout})

	tgBot, err := tgbotapi.NewBotAPI(cfg.Telegram.BotToken)
	if err != nil {
		logger.Error("failed to init telegram bot", slog.String("error", err.Error()))
		os.Exit(1)
	}
	tgBot.Debug = false
	logger.Info("Telegram bot authorized", slog.String("username", tgBot.Self.UserName))

	pollService := usecase.NewPollService(
		feed, cursorStore, subsRepo,
		telegram.NewNotifier(tgBot),
		logger,
		usecase.Options{
			Limit:  cfg.Poll.Limit,
			FanOut: cfg.Poll.FanOut,
			Policy: cfg.Poll.AdvancePolicy,
		},
	)

	scheduler := worker.NewScheduler(pollService, cfg.Poll.Interval, logger)
	botHandler := bot.NewHandler(tgBot, subsRepo, analyzer, cfg.Peter.WebsiteURL, cfg.Telegram.AdminID, logger)
	srv := server.New(cfg.HTTPAddr, pollService, botHandler, logger)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	logger.Info("Starting bot...",
		slog.String("env", cfg.Env),
		slog.String("cursor_backend", cfg.Poll.CursorBackend),
		slog.String("advance_policy", string(cfg.Poll.AdvancePolicy)))

	if cfg.Telegram.WebhookURL != "" {
		if err := bot.EnsureWebhook(tgBot, cfg.Telegram.WebhookURL, logger); err != nil {
			logger.Error("webhook bootstrap failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
	} else {
		go botHandler.Start(ctx)
	}

	go func() {
		if err := scheduler.Run(ctx); err != nil {
			logger.Error("scheduler stopped with error", slog.String("error", err.Error()))
			cancel()
		}
	}()
	go func() {
		if err := srv.Run(ctx); err != nil {
			logger.Error("http server stopped with error", slog.String("error", err.Error()))
			cancel()
		}
	}()

	<-ctx.Done()
	logger.Info("Bot stopped gracefully")
}
