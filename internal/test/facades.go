package test

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/polkiloo/pointsledger/internal/bus"
	domainErrors "github.com/polkiloo/pointsledger/internal/domain/errors"
	"github.com/polkiloo/pointsledger/internal/domain/model"
	"github.com/polkiloo/pointsledger/internal/ledger"
)

// OpsFacadeStub provides controllable behaviour for operator endpoints.
type OpsFacadeStub struct {
	HealthErr      error
	InterventionFn func(context.Context) ([]model.Intervention, error)
	SagaFn         func(context.Context, string, string) (*model.SagaRecord, error)
	HaltList       []bus.Halt
	ResumeFn       func(string, string) bool
	BankFn         func(context.Context, string) (ledger.LoyaltyBank, error)
	QueueFn        func(context.Context, string) ([]model.PointBatch, error)
}

// Health returns the configured health error.
func (s OpsFacadeStub) Health(context.Context) error { return s.HealthErr }

// Interventions delegates to provided function or returns nothing.
func (s OpsFacadeStub) Interventions(ctx context.Context) ([]model.Intervention, error) {
	if s.InterventionFn != nil {
		return s.InterventionFn(ctx)
	}
	return nil, nil
}

// Saga delegates to provided function or reports not found.
func (s OpsFacadeStub) Saga(ctx context.Context, sagaType, id string) (*model.SagaRecord, error) {
	if s.SagaFn != nil {
		return s.SagaFn(ctx, sagaType, id)
	}
	return nil, domainErrors.ErrNotFound
}

// Halts returns the configured halts.
func (s OpsFacadeStub) Halts() []bus.Halt { return s.HaltList }

// ResumeHalt delegates to provided function or reports no halt.
func (s OpsFacadeStub) ResumeHalt(subscriber, aggregateID string) bool {
	if s.ResumeFn != nil {
		return s.ResumeFn(subscriber, aggregateID)
	}
	return false
}

// LoyaltyBank delegates to provided function or reports not found.
func (s OpsFacadeStub) LoyaltyBank(ctx context.Context, id string) (ledger.LoyaltyBank, error) {
	if s.BankFn != nil {
		return s.BankFn(ctx, id)
	}
	return ledger.LoyaltyBank{}, domainErrors.ErrNotFound
}

// ExpirationQueue delegates to provided function or returns an empty queue.
func (s OpsFacadeStub) ExpirationQueue(ctx context.Context, id string) ([]model.PointBatch, error) {
	if s.QueueFn != nil {
		return s.QueueFn(ctx, id)
	}
	return nil, nil
}

// ExpirationFacadeStub mimics the sweeper's view of the ledger.
type ExpirationFacadeStub struct {
	// Due is returned from every DueBatches call until a batch is expired.
	Due      []model.PointBatch
	ListErr  error
	ExpireFn func(context.Context, model.PointBatch) error

	mu       sync.Mutex
	Cutoffs  []time.Time
	Expired  []model.PointBatch
	Failures int
}

// Lock exposes internal mutex for external synchronization.
func (s *ExpirationFacadeStub) Lock() { s.mu.Lock() }

// Unlock releases previously acquired lock.
func (s *ExpirationFacadeStub) Unlock() { s.mu.Unlock() }

// DueBatches returns the configured batches that were not expired yet.
func (s *ExpirationFacadeStub) DueBatches(_ context.Context, cutoff time.Time, limit int) ([]model.PointBatch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Cutoffs = append(s.Cutoffs, cutoff)
	if s.ListErr != nil {
		return nil, s.ListErr
	}
	var out []model.PointBatch
	for _, b := range s.Due {
		if len(out) == limit {
			break
		}
		if !s.expired(b) {
			out = append(out, b)
		}
	}
	return out, nil
}

// ExpireBatch records the batch, or counts a failure when ExpireFn fails.
func (s *ExpirationFacadeStub) ExpireBatch(ctx context.Context, b model.PointBatch) error {
	if s.ExpireFn != nil {
		if err := s.ExpireFn(ctx, b); err != nil {
			s.mu.Lock()
			s.Failures++
			s.mu.Unlock()
			return err
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.expired(b) {
		return errors.New("batch expired twice")
	}
	s.Expired = append(s.Expired, b)
	return nil
}

func (s *ExpirationFacadeStub) expired(b model.PointBatch) bool {
	for _, e := range s.Expired {
		if e.LoyaltyBankID == b.LoyaltyBankID && e.TransactionID == b.TransactionID {
			return true
		}
	}
	return false
}
