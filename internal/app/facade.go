package app

import (
	"context"
	"time"

	"github.com/polkiloo/pointsledger/internal/bus"
	"github.com/polkiloo/pointsledger/internal/domain/model"
	"github.com/polkiloo/pointsledger/internal/domain/repository"
	"github.com/polkiloo/pointsledger/internal/ledger"
	"github.com/polkiloo/pointsledger/internal/projection"
	"github.com/polkiloo/pointsledger/internal/saga"
	"github.com/polkiloo/pointsledger/internal/usecase"
)

// CreationTicket identifies the streams a creation request will produce.
type CreationTicket struct {
	RequestID     string
	AccountID     string
	LoyaltyBankID string
}

// LedgerFacade is the single entry point used by the sweeper, the operator
// surface and embedding callers.
type LedgerFacade struct {
	commands    *usecase.CommandHandler
	storage     repository.Factory
	expirations *projection.ExpirationTracker
	redemptions *projection.RedemptionTracker
	runner      *saga.Runner
	bus         *bus.Bus
}

func NewLedgerFacade(
	commands *usecase.CommandHandler,
	storage repository.Factory,
	expirations *projection.ExpirationTracker,
	redemptions *projection.RedemptionTracker,
	runner *saga.Runner,
	b *bus.Bus,
) *LedgerFacade {
	return &LedgerFacade{
		commands:    commands,
		storage:     storage,
		expirations: expirations,
		redemptions: redemptions,
		runner:      runner,
		bus:         b,
	}
}

func (f *LedgerFacade) Dispatch(ctx context.Context, cmd model.Command) ([]model.Envelope, error) {
	return f.commands.Handle(ctx, cmd)
}

// StartAccountAndLoyaltyBankCreation fills in missing ids and starts the creation workflow.
func (f *LedgerFacade) StartAccountAndLoyaltyBankCreation(ctx context.Context, cmd model.StartAccountAndLoyaltyBankCreation) (CreationTicket, error) {
	if cmd.RequestID == "" {
		cmd.RequestID = model.NewID()
	}
	if cmd.AccountID == "" {
		cmd.AccountID = model.NewID()
	}
	if cmd.LoyaltyBankID == "" {
		cmd.LoyaltyBankID = model.NewID()
	}
	if cmd.CorrelationID == "" {
		cmd.CorrelationID = cmd.RequestID
	}
	ticket := CreationTicket{RequestID: cmd.RequestID, AccountID: cmd.AccountID, LoyaltyBankID: cmd.LoyaltyBankID}
	if _, err := f.commands.Handle(ctx, cmd); err != nil {
		return CreationTicket{}, err
	}
	return ticket, nil
}

func (f *LedgerFacade) LoyaltyBank(ctx context.Context, loyaltyBankID string) (ledger.LoyaltyBank, error) {
	return f.commands.LoyaltyBank(ctx, loyaltyBankID)
}

func (f *LedgerFacade) ExpirationQueue(ctx context.Context, loyaltyBankID string) ([]model.PointBatch, error) {
	return f.expirations.Batches(ctx, loyaltyBankID)
}

// RedeemablePoints returns points of paymentID still open for void or capture.
func (f *LedgerFacade) RedeemablePoints(ctx context.Context, paymentID string) (int64, error) {
	return f.redemptions.Available(ctx, paymentID)
}

func (f *LedgerFacade) DueBatches(ctx context.Context, cutoff time.Time, limit int) ([]model.PointBatch, error) {
	return f.storage.Expirations().ListCreatedBefore(ctx, cutoff, limit)
}

// ExpireBatch expires what is left of one batch.
func (f *LedgerFacade) ExpireBatch(ctx context.Context, batch model.PointBatch) error {
	_, err := f.commands.Handle(ctx, model.ExpirePoints{
		LoyaltyBankID: batch.LoyaltyBankID,
		TransactionID: batch.TransactionID,
		Points:        batch.Points,
	})
	return err
}

func (f *LedgerFacade) Health(ctx context.Context) error {
	return f.storage.HealthCheck(ctx)
}

func (f *LedgerFacade) Interventions(ctx context.Context) ([]model.Intervention, error) {
	return f.storage.Interventions().List(ctx)
}

func (f *LedgerFacade) Saga(ctx context.Context, sagaType, id string) (*model.SagaRecord, error) {
	return f.runner.Inspect(ctx, sagaType, id)
}

func (f *LedgerFacade) Halts() []bus.Halt {
	return f.bus.Halts()
}

func (f *LedgerFacade) ResumeHalt(subscriber, aggregateID string) bool {
	return f.bus.Resume(subscriber, aggregateID)
}

// WaitIdle blocks until every published fact has reached the projections and sagas.
func (f *LedgerFacade) WaitIdle(ctx context.Context) error {
	return f.bus.WaitIdle(ctx)
}
