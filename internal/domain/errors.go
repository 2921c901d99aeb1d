package domain

import "errors"

var (
	// ErrFeedUnavailable - фид недоступен (транспорт или не-2xx).
	// Единственная фатальная для цикла ошибка: курсор не трогаем.
	ErrFeedUnavailable = errors.New("event feed unavailable")

	// ErrAlreadySubscribed - пара (telegram_id, domain) уже существует.
	ErrAlreadySubscribed = errors.New("already subscribed")
)
