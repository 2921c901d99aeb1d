// Одноразовый прогон poll-цикла для внешних шедулеров (cron, systemd
// timer, serverless invocation). Exit code 0 = ok/partial, 1 = провал.
package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	goredis "github.com/go-redis/redis/v8"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	_ "github.com/joho/godotenv/autoload"

	"github.com/romanzzaa/domainape-bot/internal/config"
	"github.com/romanzzaa/domainape-bot/internal/domain"
	"github.com/romanzzaa/domainape-bot/internal/infrastructure/database"
	"github.com/romanzzaa/domainape-bot/internal/infrastructure/doma"
	"github.com/romanzzaa/domainape-bot/internal/infrastructure/redis"
	"github.com/romanzzaa/domainape-bot/internal/infrastructure/telegram"
	"github.com/romanzzaa/domainape-bot/internal/usecase"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))

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

	tgBot, err := tgbotapi.NewBotAPI(cfg.Telegram.BotToken)
	if err != nil {
		logger.Error("failed to init telegram bot", slog.String("error", err.Error()))
		os.Exit(1)
	}

	pollService := usecase.NewPollService(
		doma.NewClient(cfg.Doma.BaseURL, cfg.Doma.APIKey,
			&http.Client{Timeout: cfg.Doma.Timeout}, logger),
		cursorStore,
		database.NewSubscriptionRepository(db),
		telegram.NewNotifier(tgBot),
		logger,
		usecase.Options{
			Limit:  cfg.Poll.Limit,
			FanOut: cfg.Poll.FanOut,
			Policy: cfg.Poll.AdvancePolicy,
		},
	)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	report := pollService.RunCycle(ctx)

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(report)

	if report.Status == domain.CycleFailed {
		os.Exit(1)
	}
}
