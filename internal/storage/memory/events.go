package memory

import (
	"context"
	"fmt"
	"sync"

	domainErrors "github.com/polkiloo/pointsledger/internal/domain/errors"
	"github.com/polkiloo/pointsledger/internal/domain/model"
)

// EventStore is an append-only map of streams.
type EventStore struct {
	mu      sync.RWMutex
	streams map[string][]model.Envelope
}

// NewEventStore creates an empty EventStore.
func NewEventStore() *EventStore {
	return &EventStore{streams: make(map[string][]model.Envelope)}
}

func (s *EventStore) Load(_ context.Context, aggregateID string) ([]model.Envelope, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stream := s.streams[aggregateID]
	out := make([]model.Envelope, len(stream))
	copy(out, stream)
	return out, nil
}

// Append checks expectedVersion against the stream of the first envelope and
// requires the batch to continue it without gaps.
func (s *EventStore) Append(_ context.Context, expectedVersion int64, events []model.Envelope) error {
	if len(events) == 0 {
		return nil
	}
	aggregateID := events[0].AggregateID
	s.mu.Lock()
	defer s.mu.Unlock()
	stream := s.streams[aggregateID]
	if int64(len(stream)) != expectedVersion {
		return fmt.Errorf("%w: stream %s at version %d, expected %d",
			domainErrors.ErrConcurrencyConflict, aggregateID, len(stream), expectedVersion)
	}
	for i, env := range events {
		if env.AggregateID != aggregateID || env.Sequence != expectedVersion+int64(i)+1 {
			return fmt.Errorf("%w: envelope %d out of sequence", domainErrors.ErrIllegalArgument, i)
		}
	}
	s.streams[aggregateID] = append(stream, events...)
	return nil
}
