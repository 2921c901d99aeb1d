package worker

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/romanzzaa/domainape-bot/internal/domain"
)

type blockingRunner struct {
	started chan struct{}
	release chan struct{}
	runs    atomic.Int32
}

func (r *blockingRunner) RunCycle(ctx context.Context) domain.CycleReport {
	r.runs.Add(1)
	r.started <- struct{}{}
	<-r.release
	return domain.CycleReport{Status: domain.CycleOK}
}

func TestTick_SkipsWhileCycleRunning(t *testing.T) {
	runner := &blockingRunner{
		started: make(chan struct{}, 1),
		release: make(chan struct{}),
	}
	s := NewScheduler(runner, time.Minute, nil)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.Tick(context.Background())
	}()

	// Ждем, пока первый цикл точно бежит, и дергаем тик еще раз.
	<-runner.started
	s.Tick(context.Background())

	if got := runner.runs.Load(); got != 1 {
		t.Errorf("runs = %d, want 1 (second tick must be skipped)", got)
	}

	close(runner.release)
	wg.Wait()

	// После завершения цикла тики снова проходят.
	runner.release = make(chan struct{})
	close(runner.release)
	go func() { <-runner.started }()
	s.Tick(context.Background())

	if got := runner.runs.Load(); got != 2 {
		t.Errorf("runs = %d, want 2 after first cycle finished", got)
	}
}
