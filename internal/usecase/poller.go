package usecase

import (
	"context"
	"log/slog"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/romanzzaa/domainape-bot/internal/domain"
)

// Options - операционные константы одного poll-цикла.
type Options struct {
	Limit  int                  // Размер страницы фида
	FanOut int                  // Параллельных доставок на событие
	Policy domain.AdvancePolicy // Политика продвижения курсора
}

func (o Options) withDefaults() Options {
	if o.Limit <= 0 {
		o.Limit = 100
	}
	if o.FanOut <= 0 {
		o.FanOut = 1
	}
	if o.Policy == "" {
		o.Policy = domain.AdvanceAlways
	}
	return o
}

// PollService - оркестратор poll-цикла: fetch -> dedupe -> classify ->
// resolve -> notify -> advance. Каждая инвокация stateless, единственное
// переживающее ее состояние - курсор в CursorStore.
type PollService struct {
	feed     domain.EventFeed
	cursor   domain.CursorStore
	subs     domain.SubscriptionRepository
	notifier domain.NotificationService
	logger   *slog.Logger
	opts     Options
}

func NewPollService(
	feed domain.EventFeed,
	cursor domain.CursorStore,
	subs domain.SubscriptionRepository,
	notifier domain.NotificationService,
	logger *slog.Logger,
	opts Options,
) *PollService {
	if logger == nil {
		logger = slog.Default()
	}
	return &PollService{
		feed:     feed,
		cursor:   cursor,
		subs:     subs,
		notifier: notifier,
		logger:   logger,
		opts:     opts.withDefaults(),
	}
}

// RunCycle прогоняет один цикл до конца. Фатальна только недоступность
// фида или курсора до первого side effect'а; все per-event и per-delivery
// ошибки изолируются и считаются.
func (s *PollService) RunCycle(ctx context.Context) domain.CycleReport {
	report := domain.CycleReport{
		CycleID: uuid.NewString(),
		Status:  domain.CycleOK,
	}
	log := s.logger.With(slog.String("cycle_id", report.CycleID))

	before, err := s.cursor.Current(ctx)
	if err != nil {
		log.Error("failed to read cursor", slog.String("error", err.Error()))
		report.Status = domain.CycleFailed
		report.Error = err.Error()
		return report
	}
	report.CursorBefore = before
	report.CursorAfter = before

	events, err := s.feed.Poll(ctx, s.opts.Limit)
	if err != nil {
		// Курсор не тронут, доставок не было - цикл атомарно провален.
		log.Error("feed poll failed", slog.String("error", err.Error()))
		report.Status = domain.CycleFailed
		report.Error = err.Error()
		return report
	}
	report.Fetched = len(events)

	fresh := selectNew(events, before)
	report.New = len(fresh)
	if len(fresh) == 0 {
		log.Info("no new events", slog.Int64("cursor", before))
		return report
	}

	res := newResolver(s.subs, log)
	partial := false

	// Для block-on-failure: максимальный id префикса событий без единого
	// фейла доставки. Игнорируемые события и события без подписчиков
	// префикс не ломают.
	highestClean := before
	cleanPrefix := true

	for _, ev := range fresh {
		cand, alertable := Classify(ev)
		if !alertable {
			if cleanPrefix {
				highestClean = ev.ID
			}
			continue
		}

		subs, ok := res.Resolve(ctx, cand.Domain)
		if !ok {
			partial = true
		}
		if len(subs) == 0 {
			if cleanPrefix {
				highestClean = ev.ID
			}
			continue
		}

		report.Alerts++
		dr := s.deliverAll(ctx, ev.ID, subs, FormatAlert(cand))
		report.Delivered += dr.Delivered
		report.Failed += dr.Failed

		if dr.Clean() {
			if cleanPrefix {
				highestClean = ev.ID
			}
		} else {
			partial = true
			cleanPrefix = false
		}

		log.Info("event processed",
			slog.Int64("event_id", ev.ID),
			slog.String("domain", cand.Domain),
			slog.Int("delivered", dr.Delivered),
			slog.Int("failed", dr.Failed))
	}

	target := fresh[len(fresh)-1].ID
	if s.opts.Policy == domain.AdvanceBlockOnFailure {
		target = highestClean
	}

	if target > before {
		if err := s.cursor.Advance(ctx, target); err != nil {
			// Доставки уже случились; не двинутый курсор значит повтор
			// части алертов в следующем цикле. Лучше дубль, чем потеря.
			log.Error("failed to advance cursor", slog.String("error", err.Error()))
			partial = true
			report.Error = err.Error()
		} else {
			report.CursorAfter = target
		}
	}

	if partial {
		report.Status = domain.CyclePartial
	}

	log.Info("cycle finished",
		slog.String("status", string(report.Status)),
		slog.Int("new_events", report.New),
		slog.Int("delivered", report.Delivered),
		slog.Int("failed", report.Failed),
		slog.Int64("cursor", report.CursorAfter))

	return report
}

// selectNew выбирает события строго за курсором и сортирует их по id по
// возрастанию: upstream порядок не гарантирует, а продвижение курсора
// должно быть монотонным.
func selectNew(events []domain.MarketEvent, cursor int64) []domain.MarketEvent {
	var fresh []domain.MarketEvent
	for _, ev := range events {
		if ev.ID > cursor {
			fresh = append(fresh, ev)
		}
	}
	sort.Slice(fresh, func(i, j int) bool { return fresh[i].ID < fresh[j].ID })
	return fresh
}

// deliverAll шлет текст всем подписчикам события с ограниченным fan-out.
// Каждая доставка независима: фейл одного получателя не мешает остальным.
func (s *PollService) deliverAll(ctx context.Context, eventID int64, subs []domain.Subscription, text string) domain.DeliveryReport {
	rep := domain.DeliveryReport{EventID: eventID}

	sem := make(chan struct{}, s.opts.FanOut)
	var wg sync.WaitGroup
	var mu sync.Mutex

	for _, sub := range subs {
		wg.Add(1)
		sem <- struct{}{}
		go func(chatID int64) {
			defer wg.Done()
			defer func() { <-sem }()

			err := s.notifier.Notify(ctx, chatID, text)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				s.logger.Warn("delivery failed",
					slog.Int64("event_id", eventID),
					slog.Int64("chat_id", chatID),
					slog.String("error", err.Error()))
				rep.Failed++
				rep.FailedChats = append(rep.FailedChats, chatID)
				return
			}
			rep.Delivered++
		}(sub.TelegramID)
	}

	wg.Wait()
	return rep
}
