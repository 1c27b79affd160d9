package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	domainErrors "github.com/polkiloo/pointsledger/internal/domain/errors"
	"github.com/polkiloo/pointsledger/internal/domain/model"
)

type eventStore struct {
	storage *Storage
}

func (r *eventStore) Load(ctx context.Context, aggregateID string) ([]model.Envelope, error) {
	const query = `SELECT event_id, aggregate_id, aggregate_type, sequence, event_type, correlation_id, payload, occurred_at
                   FROM events WHERE aggregate_id=$1 ORDER BY sequence`
	rows, err := r.storage.pool.Query(ctx, query, aggregateID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []model.Envelope
	for rows.Next() {
		var (
			env           model.Envelope
			aggregateType string
			eventType     string
			payload       []byte
		)
		if err := rows.Scan(&env.EventID, &env.AggregateID, &aggregateType, &env.Sequence, &eventType, &env.CorrelationID, &payload, &env.OccurredAt); err != nil {
			return nil, err
		}
		event, err := model.DecodeEvent(model.EventType(eventType), payload)
		if err != nil {
			return nil, fmt.Errorf("load %s#%d: %w", aggregateID, env.Sequence, err)
		}
		env.AggregateType = model.AggregateType(aggregateType)
		env.Event = event
		result = append(result, env)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Append relies on the (aggregate_id, sequence) constraint to reject racing writers.
func (r *eventStore) Append(ctx context.Context, expectedVersion int64, events []model.Envelope) error {
	if len(events) == 0 {
		return nil
	}
	aggregateID := events[0].AggregateID
	for i, env := range events {
		if env.AggregateID != aggregateID || env.Sequence != expectedVersion+int64(i)+1 {
			return fmt.Errorf("%w: envelope %d out of sequence", domainErrors.ErrIllegalArgument, i)
		}
	}

	const versionQuery = `SELECT COALESCE(MAX(sequence), 0) FROM events WHERE aggregate_id=$1`
	const insertQuery = `INSERT INTO events (event_id, aggregate_id, aggregate_type, sequence, event_type, correlation_id, payload, occurred_at)
                         VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	return r.storage.WithinTransaction(ctx, func(tx pgx.Tx) error {
		var version int64
		if err := tx.QueryRow(ctx, versionQuery, aggregateID).Scan(&version); err != nil {
			return err
		}
		if version != expectedVersion {
			return fmt.Errorf("%w: stream %s at version %d, expected %d",
				domainErrors.ErrConcurrencyConflict, aggregateID, version, expectedVersion)
		}
		for _, env := range events {
			payload, err := model.EncodeEvent(env.Event)
			if err != nil {
				return fmt.Errorf("encode %s: %w", env.Event.EventType(), err)
			}
			_, err = tx.Exec(ctx, insertQuery, env.EventID, env.AggregateID, string(env.AggregateType), env.Sequence,
				string(env.Event.EventType()), env.CorrelationID, payload, env.OccurredAt)
			if err != nil {
				if isUniqueViolation(err) {
					return fmt.Errorf("%w: stream %s", domainErrors.ErrConcurrencyConflict, aggregateID)
				}
				return err
			}
		}
		return nil
	})
}
