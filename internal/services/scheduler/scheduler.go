// Package scheduler runs the periodic fetch cycle.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/j-veylop/quonitor/internal/logger"
	"github.com/j-veylop/quonitor/internal/models"
)

// Fetcher fetches and persists usage for every account.
type Fetcher interface {
	FetchAllQuotas(ctx context.Context) []*models.QuotaData
}

// Checker evaluates a fresh result for threshold alerts.
type Checker interface {
	CheckAndNotify(ctx context.Context, q *models.QuotaData) error
}

// Cache receives every fresh result.
type Cache interface {
	Set(accountID string, q *models.QuotaData)
}

// Scheduler repeatedly runs a fetch cycle, sleeping the current interval
// between cycles. Interval changes apply from the next sleep.
type Scheduler struct {
	fetcher Fetcher
	checker Checker
	cache   Cache
	after   func(time.Duration) <-chan time.Time
	stopCh  chan struct{}

	interval time.Duration
	running  bool
	mu       sync.RWMutex
	wg       sync.WaitGroup
}

// New creates a stopped scheduler.
func New(fetcher Fetcher, checker Checker, cache Cache, interval time.Duration) *Scheduler {
	return &Scheduler{
		fetcher:  fetcher,
		checker:  checker,
		cache:    cache,
		after:    time.After,
		interval: interval,
	}
}

// Start launches the loop. The first cycle runs immediately in the
// background. Calling Start on a running scheduler does nothing.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	stop := make(chan struct{})
	s.stopCh = stop
	interval := s.interval
	s.mu.Unlock()

	logger.Info("Starting scheduler", "interval", interval)

	s.wg.Add(1)
	go s.loop(ctx, stop)
}

func (s *Scheduler) loop(ctx context.Context, stop chan struct{}) {
	defer s.wg.Done()
	defer func() {
		s.mu.Lock()
		if s.stopCh == stop {
			s.running = false
		}
		s.mu.Unlock()
	}()

	s.RunFetchCycle(ctx)

	for {
		select {
		case <-s.after(s.Interval()):
		case <-stop:
			return
		case <-ctx.Done():
			logger.Info("Scheduler context cancelled")
			return
		}

		if !s.IsRunning() {
			return
		}

		s.RunFetchCycle(ctx)
	}
}

// Stop ends the loop and waits for an in-flight cycle to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	close(s.stopCh)
	s.mu.Unlock()

	s.wg.Wait()
	logger.Info("Stopped scheduler")
}

// SetInterval changes the sleep between cycles. A sleep already in progress
// keeps its old duration.
func (s *Scheduler) SetInterval(d time.Duration) {
	s.mu.Lock()
	s.interval = d
	s.mu.Unlock()
	logger.Info("Updated scheduler interval", "interval", d)
}

// Interval returns the current sleep between cycles.
func (s *Scheduler) Interval() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.interval
}

// IsRunning reports whether the loop is active.
func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// RunFetchCycle fetches every account, checks each result for alerts and
// then caches it. It may run concurrently with the loop.
func (s *Scheduler) RunFetchCycle(ctx context.Context) []*models.QuotaData {
	start := time.Now()
	quotas := s.fetcher.FetchAllQuotas(ctx)

	for _, q := range quotas {
		if err := s.checker.CheckAndNotify(ctx, q); err != nil {
			logger.Error("Notification check failed", "account_id", q.AccountID, "error", err)
		}
		s.cache.Set(q.AccountID, q)
	}

	logger.Info("Completed fetch cycle", "accounts", len(quotas), "duration", time.Since(start))
	return quotas
}
