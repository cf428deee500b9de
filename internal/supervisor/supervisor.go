package supervisor

import (
	"context"
	"log/slog"
	"math"
	"math/rand"
	"sync"
	"time"
)

// watchdogMinInterval and watchdogMaxInterval bound the randomized
// 20-30s connection rotation period.
const (
	watchdogMinInterval = 20 * time.Second
	watchdogMaxInterval = 30 * time.Second
)

// primaryFineCap is the fine cap given to the first two workers: an
// effectively unbounded value, since those two are rotated solely by
// the watchdog timer, not by their own fine accumulator. Later workers
// keep the configured WorkerConfig.FineCap and bow out on fines alone.
const primaryFineCap = math.MaxUint64

// Supervisor owns N connection workers, the shared duplicate-suppression
// ring, and the watchdog that rotates one of the first two workers on a
// timer.
type Supervisor struct {
	workers []*Worker
	ring    *DuplicateRing
	logger  *slog.Logger
}

// New builds a Supervisor with n workers, each configured by cfg and
// dialing through dialer. cfg is shared except for FineCap: workers 0
// and 1 (the "primary" pair the watchdog rotates) get primaryFineCap
// instead of cfg.FineCap.
func New(n int, cfg WorkerConfig, dialer Dialer, logger *slog.Logger) *Supervisor {
	ring := NewDuplicateRing()
	s := &Supervisor{ring: ring, logger: logger.With("component", "supervisor")}
	for i := 0; i < n; i++ {
		wcfg := cfg
		if i < 2 {
			wcfg.FineCap = primaryFineCap
		}
		s.workers = append(s.workers, NewWorker(i, wcfg, dialer, ring, logger))
	}
	return s
}

// Ready reports whether at least one worker has completed login and
// subscribe — the readiness probe's criterion.
func (s *Supervisor) Ready() bool {
	for _, w := range s.workers {
		if w.Ready() {
			return true
		}
	}
	return false
}

// Run starts every worker and the watchdog, and blocks until ctx is
// canceled and all of them have returned.
func (s *Supervisor) Run(ctx context.Context) {
	var wg sync.WaitGroup
	for _, w := range s.workers {
		wg.Add(1)
		go func(w *Worker) {
			defer wg.Done()
			w.Run(ctx)
		}(w)
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		s.watchdog(ctx)
	}()

	wg.Wait()
}

// watchdog force-closes one of the first two workers' connections every
// 20-30s, round-robin, to race a fresh connect against a potentially
// stale one. It is a no-op if fewer than two workers exist.
func (s *Supervisor) watchdog(ctx context.Context) {
	if len(s.workers) < 2 {
		return
	}
	turn := 0
	for {
		interval := watchdogMinInterval + time.Duration(rand.Int63n(int64(watchdogMaxInterval-watchdogMinInterval)))
		select {
		case <-ctx.Done():
			return
		case <-time.After(interval):
		}

		s.workers[turn].ForceClose()
		s.logger.Debug("watchdog rotated connection", "worker", turn)
		turn = (turn + 1) % 2
	}
}
