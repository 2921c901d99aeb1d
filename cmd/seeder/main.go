package main

import (
	"context"
	"log"

	_ "github.com/joho/godotenv/autoload"
	_ "github.com/lib/pq"

	"github.com/romanzzaa/domainape-bot/internal/config"
	"github.com/romanzzaa/domainape-bot/internal/domain"
	"github.com/romanzzaa/domainape-bot/internal/infrastructure/database"
)

// Схема держится тут же: таблиц две, отдельный migration-тул не нужен.
const schema = `
CREATE TABLE IF NOT EXISTS subscriptions (
	id          BIGSERIAL PRIMARY KEY,
	telegram_id BIGINT      NOT NULL,
	domain      TEXT        NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	UNIQUE (telegram_id, domain)
);

CREATE INDEX IF NOT EXISTS idx_subscriptions_domain ON subscriptions (domain);

CREATE TABLE IF NOT EXISTS feed_cursor (
	id            INT PRIMARY KEY,
	last_event_id BIGINT      NOT NULL,
	updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Config error: %v", err)
	}

	if cfg.Env != "local" {
		log.Fatal("Seeder allowed only in local environment")
	}

	db, err := database.NewConnection(database.Config{
		Host: cfg.Database.Host, Port: cfg.Database.Port, User: cfg.Database.User,
		Password: cfg.Database.Password, DBName: cfg.Database.DBName, SSLMode: cfg.Database.SSLMode,
	})
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	ctx := context.Background()

	// --- ШАГ 1: Схема ---
	if _, err := db.ExecContext(ctx, schema); err != nil {
		log.Fatalf("Failed to apply schema: %v", err)
	}
	log.Println("✅ Schema applied")

	// --- ШАГ 2: Тестовая подписка ---
	// TelegramID = 12345 (тестовый), домен из примеров Doma testnet.
	subsRepo := database.NewSubscriptionRepository(db)
	sub := &domain.Subscription{
		TelegramID: 12345,
		Domain:     "crypto.ai",
	}

	if err := subsRepo.Create(ctx, sub); err != nil {
		if err == domain.ErrAlreadySubscribed {
			log.Println("[Seeder] Test subscription already exists. Skipping.")
			return
		}
		log.Fatalf("Failed to create subscription: %v", err)
	}
	log.Printf("✅ Test subscription created! ID: %d", sub.ID)
}
