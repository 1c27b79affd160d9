package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	domainErrors "github.com/polkiloo/pointsledger/internal/domain/errors"
	"github.com/polkiloo/pointsledger/internal/domain/model"
)

// RedemptionRepository stores redemption records by payment id.
type RedemptionRepository struct {
	mu      sync.RWMutex
	records map[string]model.RedemptionRecord
}

// NewRedemptionRepository creates an empty RedemptionRepository.
func NewRedemptionRepository() *RedemptionRepository {
	return &RedemptionRepository{records: make(map[string]model.RedemptionRecord)}
}

func (r *RedemptionRepository) Get(_ context.Context, paymentID string) (*model.RedemptionRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	record, ok := r.records[paymentID]
	if !ok {
		return nil, domainErrors.ErrNotFound
	}
	return &record, nil
}

func (r *RedemptionRepository) Save(_ context.Context, record model.RedemptionRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records[record.PaymentID] = record
	return nil
}

func (r *RedemptionRepository) Delete(_ context.Context, paymentID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.records, paymentID)
	return nil
}

func (r *RedemptionRepository) DeleteByLoyaltyBank(_ context.Context, loyaltyBankID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, record := range r.records {
		if record.LoyaltyBankID == loyaltyBankID {
			delete(r.records, id)
		}
	}
	return nil
}

// ExpirationRepository stores batch queues by loyalty bank id.
type ExpirationRepository struct {
	mu     sync.RWMutex
	queues map[string][]model.PointBatch
}

// NewExpirationRepository creates an empty ExpirationRepository.
func NewExpirationRepository() *ExpirationRepository {
	return &ExpirationRepository{queues: make(map[string][]model.PointBatch)}
}

func (r *ExpirationRepository) Load(_ context.Context, loyaltyBankID string) ([]model.PointBatch, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	queue := r.queues[loyaltyBankID]
	out := make([]model.PointBatch, len(queue))
	copy(out, queue)
	return out, nil
}

func (r *ExpirationRepository) Replace(_ context.Context, loyaltyBankID string, batches []model.PointBatch) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(batches) == 0 {
		delete(r.queues, loyaltyBankID)
		return nil
	}
	queue := make([]model.PointBatch, len(batches))
	for i, b := range batches {
		b.LoyaltyBankID = loyaltyBankID
		queue[i] = b
	}
	r.queues[loyaltyBankID] = queue
	return nil
}

func (r *ExpirationRepository) ListCreatedBefore(_ context.Context, cutoff time.Time, limit int) ([]model.PointBatch, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []model.PointBatch
	for _, queue := range r.queues {
		for _, b := range queue {
			if b.CreatedAt.Before(cutoff) {
				out = append(out, b)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].TransactionID < out[j].TransactionID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
