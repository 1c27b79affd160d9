package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	domainErrors "github.com/polkiloo/pointsledger/internal/domain/errors"
	"github.com/polkiloo/pointsledger/internal/domain/model"
	"github.com/polkiloo/pointsledger/internal/domain/repository"
	"github.com/polkiloo/pointsledger/internal/ledger"
	"github.com/polkiloo/pointsledger/internal/logger"
	"github.com/polkiloo/pointsledger/internal/metrics"
	"github.com/polkiloo/pointsledger/internal/pkg/keylock"
)

const appendAttempts = 3

// Gate rejects commands whose cross-entity preconditions fail.
type Gate interface {
	Check(ctx context.Context, cmd model.Command) error
}

// Publisher hands appended facts to subscribers.
type Publisher interface {
	Publish(events ...model.Envelope)
}

// CommandHandler runs commands against their aggregates: gate, lock, load,
// decide, append, publish.
type CommandHandler struct {
	events    repository.EventStore
	gate      Gate
	publisher Publisher
	metrics   *metrics.Metrics
	logger    *slog.Logger
	locks     *keylock.Mutex
	now       func() time.Time
}

// NewCommandHandler constructs CommandHandler.
func NewCommandHandler(events repository.EventStore, gate Gate, publisher Publisher, m *metrics.Metrics, logger *slog.Logger) *CommandHandler {
	return &CommandHandler{
		events:    events,
		gate:      gate,
		publisher: publisher,
		metrics:   m,
		logger:    logger,
		locks:     keylock.New(),
		now:       time.Now,
	}
}

// Handle executes cmd and returns the appended facts. A command whose decision
// is a no-op returns no facts and no error.
func (h *CommandHandler) Handle(ctx context.Context, cmd model.Command) ([]model.Envelope, error) {
	correlationID := cmd.Correlation()
	if correlationID == "" {
		correlationID = model.NewID()
	}
	ctx = logger.With(ctx,
		slog.String("command", cmd.CommandName()),
		slog.String("correlation_id", correlationID),
		slog.String("aggregate_id", cmd.TargetID()),
	)
	log := logger.FromContext(ctx, h.logger)

	envelopes, err := h.handle(ctx, cmd, correlationID)
	h.metrics.ObserveCommand(cmd.CommandName(), err)
	if err != nil {
		log.Info("command rejected", slog.String("error", err.Error()))
		return nil, err
	}
	if len(envelopes) > 0 {
		h.publisher.Publish(envelopes...)
	}
	log.Debug("command handled", slog.Int("events", len(envelopes)))
	return envelopes, nil
}

func (h *CommandHandler) handle(ctx context.Context, cmd model.Command, correlationID string) ([]model.Envelope, error) {
	if cmd.TargetID() == "" {
		return nil, fmt.Errorf("%w: %s without target id", domainErrors.ErrIllegalArgument, cmd.CommandName())
	}
	if h.gate != nil {
		if err := h.gate.Check(ctx, cmd); err != nil {
			return nil, err
		}
	}

	unlock := h.locks.Lock(cmd.TargetID())
	defer unlock()

	for attempt := 1; ; attempt++ {
		history, err := h.events.Load(ctx, cmd.TargetID())
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", cmd.TargetID(), err)
		}
		aggregateType, event, version, err := decide(cmd, history, model.NewID())
		if err != nil {
			return nil, err
		}
		if event == nil {
			return nil, nil
		}
		env := model.Envelope{
			EventID:       model.NewID(),
			AggregateID:   cmd.TargetID(),
			AggregateType: aggregateType,
			Sequence:      version + 1,
			CorrelationID: correlationID,
			OccurredAt:    h.now().UTC(),
			Event:         event,
		}
		err = h.events.Append(ctx, version, []model.Envelope{env})
		if err == nil {
			return []model.Envelope{env}, nil
		}
		if !errors.Is(err, domainErrors.ErrConcurrencyConflict) || attempt == appendAttempts {
			return nil, err
		}
	}
}

// LoyaltyBank replays the current state of a bank.
func (h *CommandHandler) LoyaltyBank(ctx context.Context, loyaltyBankID string) (ledger.LoyaltyBank, error) {
	history, err := h.events.Load(ctx, loyaltyBankID)
	if err != nil {
		return ledger.LoyaltyBank{}, err
	}
	bank, _ := ledger.ReplayLoyaltyBank(history)
	if !bank.Exists() {
		return ledger.LoyaltyBank{}, domainErrors.ErrNotFound
	}
	return bank, nil
}

// decide replays the target aggregate and asks it for the next fact.
func decide(cmd model.Command, history []model.Envelope, transactionID string) (model.AggregateType, model.Event, int64, error) {
	switch c := cmd.(type) {
	case model.CreateAccount, model.DeleteAccount, model.RollbackAccountCreation:
		account, version := ledger.ReplayAccount(history)
		event, err := decideAccount(account, c)
		return model.AggregateAccount, event, version, err
	case model.CreateBusiness, model.DeleteBusiness:
		business, version := ledger.ReplayBusiness(history)
		event, err := decideBusiness(business, c)
		return model.AggregateBusiness, event, version, err
	case model.StartAccountAndLoyaltyBankCreation:
		request, version := ledger.ReplayCreationRequest(history)
		event, err := request.Start(c)
		return model.AggregateCreationRequest, event, version, err
	case model.EndAccountAndLoyaltyBankCreation:
		request, version := ledger.ReplayCreationRequest(history)
		event, err := request.End(c.Succeeded)
		return model.AggregateCreationRequest, event, version, err
	}
	bank, version := ledger.ReplayLoyaltyBank(history)
	event, err := decideLoyaltyBank(bank, cmd, transactionID)
	return model.AggregateLoyaltyBank, event, version, err
}

func decideAccount(a ledger.Account, cmd model.Command) (model.Event, error) {
	switch c := cmd.(type) {
	case model.CreateAccount:
		return a.Create(c.AccountID, c.FirstName, c.LastName, c.Email)
	case model.DeleteAccount:
		return a.Delete(ledger.AccountDeletedByRequest)
	case model.RollbackAccountCreation:
		return a.Delete(ledger.AccountDeletedByRollback)
	}
	return nil, unsupported(cmd)
}

func decideBusiness(b ledger.Business, cmd model.Command) (model.Event, error) {
	switch c := cmd.(type) {
	case model.CreateBusiness:
		return b.Create(c.BusinessID, c.Name)
	case model.DeleteBusiness:
		return b.Delete()
	}
	return nil, unsupported(cmd)
}

func decideLoyaltyBank(b ledger.LoyaltyBank, cmd model.Command, transactionID string) (model.Event, error) {
	switch c := cmd.(type) {
	case model.CreateLoyaltyBank:
		return b.Create(c.LoyaltyBankID, c.AccountID, c.BusinessID)
	case model.CreatePendingTransaction:
		return b.CreatePending(transactionID, c.Points)
	case model.CreateEarnedTransaction:
		return b.Earn(transactionID, c.Points)
	case model.CreateAwardedTransaction:
		return b.Award(transactionID, c.Points)
	case model.CreateAuthorizedTransaction:
		return b.Authorize(transactionID, c.PaymentID, c.Points)
	case model.CreateVoidTransaction:
		return b.Void(transactionID, c.PaymentID, c.Points)
	case model.CreateCapturedTransaction:
		return b.Capture(transactionID, c.PaymentID, c.Points)
	case model.ExpirePoints:
		return b.Expire(c.TransactionID, c.Points)
	case model.ExpireAllPoints:
		return b.ExpireAll()
	case model.StartLoyaltyBankDeletion:
		return b.StartDeletion()
	case model.DeleteLoyaltyBank:
		return b.Delete(ledger.DeletedByWorkflow)
	case model.RollbackLoyaltyBankCreation:
		return b.Delete(ledger.DeletedByRollback)
	}
	return nil, unsupported(cmd)
}

func unsupported(cmd model.Command) error {
	return fmt.Errorf("%w: unsupported command %s", domainErrors.ErrIllegalArgument, cmd.CommandName())
}
