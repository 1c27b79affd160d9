package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	domainErrors "github.com/polkiloo/pointsledger/internal/domain/errors"
	"github.com/polkiloo/pointsledger/internal/domain/model"
)

type sagaRepository struct {
	storage *Storage
}

type interventionRepository struct {
	storage *Storage
}

// --- SagaRepository implementation ---

func (r *sagaRepository) Get(ctx context.Context, sagaType, id string) (*model.SagaRecord, error) {
	const query = `SELECT saga_type, id, phase, state, ended, updated_at FROM sagas WHERE saga_type=$1 AND id=$2`
	var rec model.SagaRecord
	err := r.storage.pool.QueryRow(ctx, query, sagaType, id).Scan(&rec.Type, &rec.ID, &rec.Phase, &rec.State, &rec.Ended, &rec.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrNotFound
		}
		return nil, err
	}
	return &rec, nil
}

func (r *sagaRepository) Save(ctx context.Context, record model.SagaRecord) error {
	const query = `INSERT INTO sagas (saga_type, id, phase, state, ended, updated_at)
                   VALUES ($1, $2, $3, $4, $5, $6)
                   ON CONFLICT (saga_type, id) DO UPDATE
                   SET phase = EXCLUDED.phase, state = EXCLUDED.state,
                       ended = EXCLUDED.ended, updated_at = EXCLUDED.updated_at`
	_, err := r.storage.pool.Exec(ctx, query, record.Type, record.ID, record.Phase, record.State, record.Ended, record.UpdatedAt)
	return err
}

func (r *sagaRepository) ListActive(ctx context.Context, sagaType string) ([]model.SagaRecord, error) {
	const query = `SELECT saga_type, id, phase, state, ended, updated_at
                   FROM sagas WHERE saga_type=$1 AND NOT ended ORDER BY id`
	rows, err := r.storage.pool.Query(ctx, query, sagaType)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []model.SagaRecord
	for rows.Next() {
		var rec model.SagaRecord
		if err := rows.Scan(&rec.Type, &rec.ID, &rec.Phase, &rec.State, &rec.Ended, &rec.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// --- InterventionRepository implementation ---

func (r *interventionRepository) Record(ctx context.Context, intervention model.Intervention) error {
	const query = `INSERT INTO interventions (id, source, subject, step, reason, created_at)
                   VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.storage.pool.Exec(ctx, query, intervention.ID, intervention.Source, intervention.Subject,
		intervention.Step, intervention.Reason, intervention.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domainErrors.ErrAlreadyExists
		}
		return err
	}
	return nil
}

func (r *interventionRepository) List(ctx context.Context) ([]model.Intervention, error) {
	const query = `SELECT id, source, subject, step, reason, created_at FROM interventions ORDER BY seq`
	rows, err := r.storage.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []model.Intervention
	for rows.Next() {
		var i model.Intervention
		if err := rows.Scan(&i.ID, &i.Source, &i.Subject, &i.Step, &i.Reason, &i.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
