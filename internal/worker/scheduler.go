package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/romanzzaa/domainape-bot/internal/domain"
)

// CycleRunner - то, что умеет прогнать один poll-цикл.
type CycleRunner interface {
	RunCycle(ctx context.Context) domain.CycleReport
}

// Scheduler запускает poll-циклы по расписанию. In-process overlap guard:
// если предыдущий цикл еще бежит, тик пропускаем, а не запускаем второй
// рядом. Межпроцессные гонки закрывает монотонный Advance курсора.
type Scheduler struct {
	runner   CycleRunner
	logger   *slog.Logger
	interval time.Duration

	cron    *cron.Cron
	running atomic.Bool
}

func NewScheduler(runner CycleRunner, interval time.Duration, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		runner:   runner,
		logger:   logger.With("component", "scheduler"),
		interval: interval,
		cron:     cron.New(),
	}
}

// Run блокируется до отмены контекста.
func (s *Scheduler) Run(ctx context.Context) error {
	spec := fmt.Sprintf("@every %s", s.interval)
	if _, err := s.cron.AddFunc(spec, func() { s.Tick(ctx) }); err != nil {
		return fmt.Errorf("failed to schedule poll job: %w", err)
	}

	s.logger.Info("poll scheduler started", slog.Duration("interval", s.interval))
	s.cron.Start()

	// Первый цикл сразу, не ждем первого тика.
	s.Tick(ctx)

	<-ctx.Done()

	stopCtx := s.cron.Stop()
	<-stopCtx.Done()
	s.logger.Info("poll scheduler stopped")
	return nil
}

// Tick прогоняет один цикл, если другой не бежит прямо сейчас.
func (s *Scheduler) Tick(ctx context.Context) {
	if !s.running.CompareAndSwap(false, true) {
		s.logger.Warn("previous cycle still running, skipping tick")
		return
	}
	defer s.running.Store(false)

	report := s.runner.RunCycle(ctx)
	if report.Status == domain.CycleFailed {
		s.logger.Error("poll cycle failed", slog.String("error", report.Error))
	}
}
