package usecase

import (
	"context"
	"log/slog"

	"github.com/romanzzaa/domainape-bot/internal/domain"
)

// resolver отвечает на вопрос "кому интересен этот домен".
// Живет один цикл: один и тот же домен в батче резолвится одним запросом
// в хранилище, повторы берутся из кэша. Не потокобезопасен - события
// цикла обрабатываются последовательно.
type resolver struct {
	repo   domain.SubscriptionRepository
	logger *slog.Logger
	cache  map[string][]domain.Subscription
}

func newResolver(repo domain.SubscriptionRepository, logger *slog.Logger) *resolver {
	return &resolver{
		repo:   repo,
		logger: logger,
		cache:  make(map[string][]domain.Subscription),
	}
}

// Resolve возвращает подписчиков домена. Пустой список - валидный ответ.
// Ошибка хранилища деградирует до пустого списка с warn'ом: потерять
// алерты одного домена лучше, чем уронить весь батч. Второй результат
// false = резолв упал (цикл пометится как partial).
func (r *resolver) Resolve(ctx context.Context, domainName string) ([]domain.Subscription, bool) {
	if subs, ok := r.cache[domainName]; ok {
		return subs, true
	}

	subs, err := r.repo.FindByDomain(ctx, domainName)
	if err != nil {
		r.logger.Warn("subscriber resolution failed, treating as empty",
			slog.String("domain", domainName),
			slog.String("error", err.Error()))
		r.cache[domainName] = nil
		return nil, false
	}

	r.cache[domainName] = subs
	return subs, true
}
