package repository

import (
	"context"

	"github.com/polkiloo/pointsledger/internal/domain/model"
)

// EventStore is the append-only, per-aggregate ordered fact log.
type EventStore interface {
	// Load returns the stream of aggregateID in sequence order; an unknown stream is empty.
	Load(ctx context.Context, aggregateID string) ([]model.Envelope, error)
	// Append writes events after expectedVersion or fails with ErrConcurrencyConflict.
	Append(ctx context.Context, expectedVersion int64, events []model.Envelope) error
}
