package bot

import (
	"fmt"
	"log/slog"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// EnsureWebhook регистрирует webhook после деплоя, если текущий отличается.
// Идемпотентно: при совпадении URL ничего не делает, так что дергать можно
// на каждом старте.
func EnsureWebhook(api *tgbotapi.BotAPI, publicURL string, logger *slog.Logger) error {
	target := strings.TrimSuffix(publicURL, "/") + "/api/bot"

	info, err := api.GetWebhookInfo()
	if err != nil {
		return fmt.Errorf("get webhook info: %w", err)
	}
	if info.URL == target {
		return nil
	}

	wh, err := tgbotapi.NewWebhook(target)
	if err != nil {
		return fmt.Errorf("build webhook config: %w", err)
	}
	if _, err := api.Request(wh); err != nil {
		return fmt.Errorf("set webhook: %w", err)
	}

	logger.Info("webhook registered", slog.String("url", target))
	return nil
}
