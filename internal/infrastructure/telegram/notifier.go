package telegram

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Notifier - доставка алертов в Telegram. Реализует domain.NotificationService.
type Notifier struct {
	bot *tgbotapi.BotAPI
}

func NewNotifier(bot *tgbotapi.BotAPI) *Notifier {
	return &Notifier{bot: bot}
}

// Notify шлет одно сообщение одному получателю. Ошибка (заблокировал бота,
// rate limit) касается только этого получателя - решает вызывающий.
func (n *Notifier) Notify(ctx context.Context, chatID int64, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown

	if _, err := n.bot.Send(msg); err != nil {
		return fmt.Errorf("send to chat %d: %w", chatID, err)
	}
	return nil
}
