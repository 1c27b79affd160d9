// Package memory keeps every repository in process memory. It backs tests and
// deployments started without DATABASE_URI.
package memory

import (
	"context"

	"github.com/polkiloo/pointsledger/internal/domain/repository"
)

// Storage holds all ledger state in memory.
type Storage struct {
	events        *EventStore
	redemptions   *RedemptionRepository
	expirations   *ExpirationRepository
	directory     *DirectoryRepository
	sagas         *SagaRepository
	interventions *InterventionRepository
}

// New creates an empty Storage.
func New() *Storage {
	return &Storage{
		events:        NewEventStore(),
		redemptions:   NewRedemptionRepository(),
		expirations:   NewExpirationRepository(),
		directory:     NewDirectoryRepository(),
		sagas:         NewSagaRepository(),
		interventions: NewInterventionRepository(),
	}
}

var _ repository.Factory = (*Storage)(nil)

func (s *Storage) Events() repository.EventStore                    { return s.events }
func (s *Storage) Redemptions() repository.RedemptionRepository     { return s.redemptions }
func (s *Storage) Expirations() repository.ExpirationRepository     { return s.expirations }
func (s *Storage) Directory() repository.DirectoryRepository        { return s.directory }
func (s *Storage) Sagas() repository.SagaRepository                 { return s.sagas }
func (s *Storage) Interventions() repository.InterventionRepository { return s.interventions }
func (s *Storage) HealthCheck(context.Context) error                { return nil }
