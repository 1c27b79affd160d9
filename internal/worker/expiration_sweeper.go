package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/polkiloo/pointsledger/internal/domain/model"
	"github.com/polkiloo/pointsledger/internal/metrics"
)

// ExpirationFacade exposes the subset of application functionality required by the sweeper.
type ExpirationFacade interface {
	DueBatches(ctx context.Context, cutoff time.Time, limit int) ([]model.PointBatch, error)
	ExpireBatch(ctx context.Context, batch model.PointBatch) error
}

// ExpirationSweeper periodically expires batches older than the points lifetime.
type ExpirationSweeper struct {
	facade   ExpirationFacade
	interval time.Duration
	lifetime time.Duration
	batch    int
	workers  int
	metrics  *metrics.Metrics
	logger   *slog.Logger
	now      func() time.Time

	jobs   chan model.PointBatch
	wg     sync.WaitGroup
	cancel context.CancelFunc
	mu     sync.Mutex

	// dispatched holds batches handed to workers that the projection has not dropped yet.
	dispatchedMu sync.Mutex
	dispatched   map[string]struct{}
}

// NewExpirationSweeper constructs the sweeper worker pool.
func NewExpirationSweeper(facade ExpirationFacade, interval, lifetime time.Duration, batch, workers int, m *metrics.Metrics, logger *slog.Logger) *ExpirationSweeper {
	if workers <= 0 {
		workers = 1
	}
	if batch <= 0 {
		batch = 1
	}
	return &ExpirationSweeper{
		facade:     facade,
		interval:   interval,
		lifetime:   lifetime,
		batch:      batch,
		workers:    workers,
		metrics:    m,
		logger:     logger,
		now:        time.Now,
		jobs:       make(chan model.PointBatch, batch*workers),
		dispatched: make(map[string]struct{}),
	}
}

// Start launches background processing.
func (s *ExpirationSweeper) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	for i := 0; i < s.workers; i++ {
		s.wg.Add(1)
		go s.worker(runCtx)
	}

	s.wg.Add(1)
	go s.dispatch(runCtx)
}

// Stop waits for all workers to finish.
func (s *ExpirationSweeper) Stop() {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.mu.Unlock()

	s.wg.Wait()
}

func (s *ExpirationSweeper) dispatch(ctx context.Context) {
	defer s.wg.Done()
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

// sweep lists due batches and queues the ones not already in flight.
func (s *ExpirationSweeper) sweep(ctx context.Context) {
	cutoff := s.now().Add(-s.lifetime)
	due, err := s.facade.DueBatches(ctx, cutoff, s.batch)
	if err != nil {
		s.logger.Error("list due batches failed", slog.String("error", err.Error()))
		return
	}

	listed := make(map[string]struct{}, len(due))
	for _, b := range due {
		listed[batchKey(b)] = struct{}{}
	}
	s.dispatchedMu.Lock()
	for key := range s.dispatched {
		if _, ok := listed[key]; !ok {
			delete(s.dispatched, key)
		}
	}
	s.dispatchedMu.Unlock()

	for _, b := range due {
		if !s.claim(b) {
			continue
		}
		select {
		case <-ctx.Done():
			return
		case s.jobs <- b:
		}
	}
}

func (s *ExpirationSweeper) worker(ctx context.Context) {
	defer s.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case b := <-s.jobs:
			s.expire(ctx, b)
		}
	}
}

func (s *ExpirationSweeper) expire(ctx context.Context, b model.PointBatch) {
	err := s.facade.ExpireBatch(ctx, b)
	s.metrics.ObserveExpiredBatch(err)
	if err != nil {
		s.release(b)
		s.logger.Error("expire batch failed",
			slog.String("loyalty_bank_id", b.LoyaltyBankID),
			slog.String("transaction_id", b.TransactionID),
			slog.Int64("points", b.Points),
			slog.String("error", err.Error()))
	}
}

func (s *ExpirationSweeper) claim(b model.PointBatch) bool {
	s.dispatchedMu.Lock()
	defer s.dispatchedMu.Unlock()
	key := batchKey(b)
	if _, ok := s.dispatched[key]; ok {
		return false
	}
	s.dispatched[key] = struct{}{}
	return true
}

func (s *ExpirationSweeper) release(b model.PointBatch) {
	s.dispatchedMu.Lock()
	defer s.dispatchedMu.Unlock()
	delete(s.dispatched, batchKey(b))
}

func batchKey(b model.PointBatch) string {
	return b.LoyaltyBankID + "/" + b.TransactionID
}
