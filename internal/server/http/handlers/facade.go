package handlers

import (
	"context"

	"github.com/polkiloo/pointsledger/internal/bus"
	"github.com/polkiloo/pointsledger/internal/domain/model"
	"github.com/polkiloo/pointsledger/internal/ledger"
)

// HealthFacade reports storage health.
type HealthFacade interface {
	Health(ctx context.Context) error
}

// InterventionFacade lists failures waiting for an operator.
type InterventionFacade interface {
	Interventions(ctx context.Context) ([]model.Intervention, error)
}

// SagaFacade exposes persisted saga state.
type SagaFacade interface {
	Saga(ctx context.Context, sagaType, id string) (*model.SagaRecord, error)
}

// HaltFacade manages halted bus subscribers.
type HaltFacade interface {
	Halts() []bus.Halt
	ResumeHalt(subscriber, aggregateID string) bool
}

// LedgerFacade exposes the read side of one loyalty bank.
type LedgerFacade interface {
	LoyaltyBank(ctx context.Context, loyaltyBankID string) (ledger.LoyaltyBank, error)
	ExpirationQueue(ctx context.Context, loyaltyBankID string) ([]model.PointBatch, error)
}

// OpsFacade aggregates the full set of operations used across handlers.
type OpsFacade interface {
	HealthFacade
	InterventionFacade
	SagaFacade
	HaltFacade
	LedgerFacade
}
