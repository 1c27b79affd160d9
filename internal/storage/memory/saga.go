package memory

import (
	"context"
	"sort"
	"sync"

	domainErrors "github.com/polkiloo/pointsledger/internal/domain/errors"
	"github.com/polkiloo/pointsledger/internal/domain/model"
)

type sagaKey struct {
	sagaType string
	id       string
}

// SagaRepository stores saga records by type and id.
type SagaRepository struct {
	mu      sync.RWMutex
	records map[sagaKey]model.SagaRecord
}

// NewSagaRepository creates an empty SagaRepository.
func NewSagaRepository() *SagaRepository {
	return &SagaRepository{records: make(map[sagaKey]model.SagaRecord)}
}

func (r *SagaRepository) Get(_ context.Context, sagaType, id string) (*model.SagaRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	record, ok := r.records[sagaKey{sagaType, id}]
	if !ok {
		return nil, domainErrors.ErrNotFound
	}
	record.State = append([]byte(nil), record.State...)
	return &record, nil
}

func (r *SagaRepository) Save(_ context.Context, record model.SagaRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	record.State = append([]byte(nil), record.State...)
	r.records[sagaKey{record.Type, record.ID}] = record
	return nil
}

func (r *SagaRepository) ListActive(_ context.Context, sagaType string) ([]model.SagaRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []model.SagaRecord
	for key, record := range r.records {
		if key.sagaType == sagaType && !record.Ended {
			out = append(out, record)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// InterventionRepository keeps interventions in insertion order.
type InterventionRepository struct {
	mu    sync.RWMutex
	items []model.Intervention
}

// NewInterventionRepository creates an empty InterventionRepository.
func NewInterventionRepository() *InterventionRepository {
	return &InterventionRepository{}
}

func (r *InterventionRepository) Record(_ context.Context, intervention model.Intervention) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, intervention)
	return nil
}

func (r *InterventionRepository) List(_ context.Context) ([]model.Intervention, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]model.Intervention, len(r.items))
	copy(out, r.items)
	return out, nil
}
