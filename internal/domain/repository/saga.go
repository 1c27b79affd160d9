package repository

import (
	"context"

	"github.com/polkiloo/pointsledger/internal/domain/model"
)

// SagaRepository persists saga instances keyed by type and id.
type SagaRepository interface {
	Get(ctx context.Context, sagaType, id string) (*model.SagaRecord, error)
	Save(ctx context.Context, record model.SagaRecord) error
	ListActive(ctx context.Context, sagaType string) ([]model.SagaRecord, error)
}

// InterventionRepository records failures that need an operator.
type InterventionRepository interface {
	Record(ctx context.Context, intervention model.Intervention) error
	List(ctx context.Context) ([]model.Intervention, error)
}
