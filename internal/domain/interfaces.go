package domain

import "context"

// CursorStore - durable хранилище последнего обработанного event id.
// In-memory переменная тут недопустима: инстанс перезапускается, и мы
// либо дублируем алерты, либо теряем их.
type CursorStore interface {
	// Current возвращает текущий курсор; 0, если цикл еще ни разу не бегал.
	Current(ctx context.Context) (int64, error)

	// Advance двигает курсор до id. Монотонно и идемпотентно:
	// конкурентный/повторный вызов с меньшим id ничего не меняет.
	Advance(ctx context.Context, id int64) error
}

// EventFeed - клиент upstream-фида событий (Doma Poll API).
type EventFeed interface {
	// Poll возвращает до limit последних событий в порядке upstream'а.
	// Любая транспортная ошибка или не-2xx заворачивается в ErrFeedUnavailable.
	Poll(ctx context.Context, limit int) ([]MarketEvent, error)
}

// SubscriptionRepository - внешнее хранилище подписок.
type SubscriptionRepository interface {
	// Create падает с ErrAlreadySubscribed, если пара (telegram_id, domain) уже есть.
	Create(ctx context.Context, sub *Subscription) error

	// FindByDomain возвращает подписчиков домена; пустой список - не ошибка.
	FindByDomain(ctx context.Context, domainName string) ([]Subscription, error)

	FindByTelegramID(ctx context.Context, telegramID int64) ([]Subscription, error)

	Delete(ctx context.Context, telegramID int64, domainName string) error
}

// NotificationService - доставка одного сообщения одному получателю.
// Ошибка per-recipient, не per-batch.
type NotificationService interface {
	Notify(ctx context.Context, chatID int64, text string) error
}

// DomainAnalyzer - внешний аналитический API (Peter) для /report.
type DomainAnalyzer interface {
	Report(ctx context.Context, domainName string) (*DomainReport, error)
}
